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

package core

import (
	"errors"
	"fmt"
)

// Authorization
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
)

// Not found
var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidTarget is a not-found error for a context switch target.
	ErrInvalidTarget = fmt.Errorf("invalid target: %w", ErrNotFound)
)

// Validation
var (
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrDuplicateMembership    = errors.New("already a member")
	ErrOwnerProtected         = errors.New("owner membership is protected")
	ErrNotCompliant           = errors.New("transport is not fully compliant")
	ErrNotQualifying          = errors.New("transport does not qualify for registration")
	ErrRegistrationInProgress = errors.New("registration in progress")
	ErrAlreadyRegistered      = errors.New("transport already registered")
	ErrSwitchSuperseded       = errors.New("context switch superseded")
)

// External
var (
	ErrDependency = errors.New("external dependency failed")
)

// Invalid wraps ErrInvalidArgument with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Dependency wraps ErrDependency, keeping the cause in the chain.
func Dependency(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependency, what, err)
}
