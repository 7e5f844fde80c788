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

package statemachine

import (
	"errors"
	"fmt"
	"sync"
)

// Event names a trigger for a state transition.
type Event string

// ErrUnknownEvent is returned when the current state has no edge for an event.
var ErrUnknownEvent = errors.New("unknown event")

// TransitionHook runs on every successful transition.
type TransitionHook[T comparable] func(from, to T, event Event)

// TransitionValidator may veto a transition before it is applied.
type TransitionValidator[T comparable] func(from, to T, event Event) error

// StateMachine is a generic, mutex-guarded finite state machine driven by
// events.
//
// Hooks and validators run while the machine's lock is held and must not
// call back into the machine.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	current T
	events  map[eventKey[T]]T

	onTransition []TransitionHook[T]
	validators   []TransitionValidator[T]
}

type eventKey[T comparable] struct {
	From  T
	Event Event
}

// NewWithState creates a machine positioned at initial.
func NewWithState[T comparable](initial T) *StateMachine[T] {
	return &StateMachine[T]{
		current: initial,
		events:  make(map[eventKey[T]]T),
	}
}

// AddEventTransition binds event in state from to the target state to.
func (sm *StateMachine[T]) AddEventTransition(from T, event Event, to T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.events[eventKey[T]{From: from, Event: event}] = to
	return sm
}

// OnTransition registers a hook called after every successful transition.
func (sm *StateMachine[T]) OnTransition(h TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, h)
	return sm
}

// AddValidator registers a validator consulted before each transition.
func (sm *StateMachine[T]) AddValidator(v TransitionValidator[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.validators = append(sm.validators, v)
	return sm
}

// Current returns the current state.
func (sm *StateMachine[T]) Current() T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// SetCurrent positions the machine without running hooks or validators,
// used to roll back after a failed save.
func (sm *StateMachine[T]) SetCurrent(state T) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = state
}

// Fire applies the edge bound to event in the current state.
func (sm *StateMachine[T]) Fire(event Event) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	from := sm.current
	to, ok := sm.events[eventKey[T]{From: from, Event: event}]
	if !ok {
		return fmt.Errorf("%w: %q in state %v", ErrUnknownEvent, event, from)
	}
	for _, validate := range sm.validators {
		if err := validate(from, to, event); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	sm.current = to
	for _, h := range sm.onTransition {
		h(from, to, event)
	}
	return nil
}
