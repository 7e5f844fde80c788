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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func TestDo(t *testing.T) {
	errFatal := errors.New("fatal")
	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "first call succeeds", failures: 0, attempts: 3, wantCalls: 1},
		{name: "succeeds on retry", failures: 2, err: errFlaky, attempts: 3, wantCalls: 3},
		{name: "runs out of attempts", failures: 5, err: errFlaky, attempts: 3, wantCalls: 3, wantErr: errFlaky},
		{name: "permanent stops", failures: 5, err: Permanent(errFatal), attempts: 3, wantCalls: 1, wantErr: errFatal},
		{name: "deadline stops", failures: 5, err: context.DeadlineExceeded, attempts: 3, wantCalls: 1, wantErr: context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, WithMaxAttempts(tt.attempts), WithBackoff(Fixed(time.Millisecond)), WithJitter())

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDo_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	}, WithBackoff(Fixed(time.Hour)))

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFlaky)
}

func TestExponential(t *testing.T) {
	b := Exponential(100*time.Millisecond, time.Second)
	assert.Equal(t, 100*time.Millisecond, b(0))
	assert.Equal(t, 400*time.Millisecond, b(2))
	assert.Equal(t, time.Second, b(4))
	assert.Equal(t, time.Second, b(80))
}
