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

// Package retry re-runs a function with backoff until it succeeds, fails
// permanently, or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Func must respect ctx.
type Func func(ctx context.Context) error

// Backoff returns the wait before retry number attempt (0 based).
type Backoff func(attempt int) time.Duration

func Fixed(interval time.Duration) Backoff {
	return func(int) time.Duration { return interval }
}

// Exponential doubles base on every attempt, capped at max when max > 0.
func Exponential(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << attempt
		if d <= 0 || (max > 0 && d > max) {
			return max
		}
		return d
	}
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

type config struct {
	attempts int
	backoff  Backoff
	jitter   bool
}

type Option func(*config)

// WithMaxAttempts counts the first call.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithJitter randomizes each wait in [0, d).
func WithJitter() Option {
	return func(c *config) { c.jitter = true }
}

// Do calls fn until it returns nil, a Permanent error, or a context error,
// at most the configured number of times. The last error is returned.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	cfg := &config{attempts: 3, backoff: Fixed(time.Second)}
	for _, opt := range opts {
		opt(cfg)
	}

	var err error
	for attempt := 0; attempt < cfg.attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return p.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == cfg.attempts-1 {
			break
		}

		wait := cfg.backoff(attempt)
		if cfg.jitter && wait > 0 {
			wait = time.Duration(rand.Int64N(int64(wait)))
		}
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
	}
	return err
}
