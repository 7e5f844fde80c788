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

package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/safe"
	robfig "github.com/robfig/cron"
)

// ErrDuplicateJob is returned when a job name is registered twice.
var ErrDuplicateJob = errors.New("cron job already registered")

// ErrJobPanicked is recorded for a run that panicked.
var ErrJobPanicked = errors.New("cron job panicked")

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// MetricsRecorder observes job runs.
type MetricsRecorder interface {
	RecordJobRun(jobName string, duration time.Duration, err error)
}

// Scheduler wraps robfig/cron with named jobs, logging and metrics.
type Scheduler struct {
	mu       sync.Mutex
	c        *robfig.Cron
	names    map[string]struct{}
	recorder MetricsRecorder
	timeout  time.Duration
}

// New creates a scheduler. Each run gets a context bounded by timeout.
func New(recorder MetricsRecorder, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		c:        robfig.New(),
		names:    make(map[string]struct{}),
		recorder: recorder,
		timeout:  timeout,
	}
}

// AddJob schedules job under name. spec uses robfig syntax, e.g. "@every 1m"
// or a six field expression with seconds.
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	if err := s.c.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.names[name] = struct{}{}
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if !safe.Do("cron:"+name, func() { err = job(ctx) }) {
		err = ErrJobPanicked
	}
	duration := time.Since(start)

	if err != nil {
		log.Errorw("cron job failed", "job", name, "duration", duration, "error", err)
	} else {
		log.Debugw("cron job finished", "job", name, "duration", duration)
	}
	if s.recorder != nil {
		s.recorder.RecordJobRun(name, duration, err)
	}
}

func (s *Scheduler) Start() {
	s.c.Start()
}

func (s *Scheduler) Stop() {
	s.c.Stop()
}
