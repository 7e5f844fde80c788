// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	name string
}

func (e testEvent) EventName() string {
	return e.name
}

func TestEventBus_Publish(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.RegisterHandler("certificate.deleted", HandlerFunc(func(_ context.Context, e Event) error {
		order = append(order, "first")
		return nil
	}))
	bus.RegisterHandler("certificate.deleted", HandlerFunc(func(_ context.Context, e Event) error {
		order = append(order, "second")
		return nil
	}))
	bus.RegisterHandler("other", HandlerFunc(func(_ context.Context, e Event) error {
		order = append(order, "other")
		return nil
	}))

	err := bus.Publish(context.Background(), testEvent{name: "certificate.deleted"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventBus_PublishJoinsErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")

	called := false
	bus.RegisterHandler("x", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.RegisterHandler("x", HandlerFunc(func(context.Context, Event) error {
		called = true
		return nil
	}))

	err := bus.Publish(context.Background(), testEvent{name: "x"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}

func TestEventBus_NoHandlers(t *testing.T) {
	assert.NoError(t, NewEventBus().Publish(context.Background(), testEvent{name: "nobody"}))
}
