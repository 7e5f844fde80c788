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

// Package traces registers cross-border transports with the veterinary
// authority and tracks the handshake per transport.
package traces

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/service/transport"
	"github.com/go-arcade/equiroute/internal/pkg/authority"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/go-arcade/equiroute/pkg/statemachine"
)

const (
	evStart      statemachine.Event = "start"
	evPersisted  statemachine.Event = "persisted"
	evRegistered statemachine.Event = "registered"
	evFail       statemachine.Event = "fail"
	evAbandon    statemachine.Event = "abandon"
)

var errNoReference = errors.New("authority returned no reference number")

// Transports is what the registration flow needs from the transport service.
type Transports interface {
	Get(ctx context.Context, scope permission.Scope, transportId string) (*model.Transport, error)
	Draft(ctx context.Context, scope permission.Scope, transportId string, in *transport.Input) (*model.Transport, error)
	Evaluate(ctx context.Context, t *model.Transport, manual []string) (*transport.Checklist, error)
	Save(ctx context.Context, scope permission.Scope, t *model.Transport, c compliance.Confirmation) error
}

type Service struct {
	conf       Config
	regRepo    repo.IRegistrationRepository
	transports Transports
	registrar  authority.Registrar
	metrics    *metrics.Domain
	bus        *event.EventBus
	now        func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(
	conf Config,
	repos *repo.Repositories,
	transports Transports,
	registrar authority.Registrar,
	m *metrics.Domain,
	bus *event.EventBus,
) *Service {
	conf.SetDefaults()
	return &Service{
		conf:       conf,
		regRepo:    repos.Registration,
		transports: transports,
		registrar:  registrar,
		metrics:    m,
		bus:        bus,
		now:        time.Now,
		inflight:   make(map[string]struct{}),
	}
}

// StartRequest names a stored transport, describes a new one, or both (the
// stored transport overlaid with the input).
type StartRequest struct {
	TransportId         string
	Transport           *transport.Input
	ManualConfirmations []string // nil keeps the stored confirmations
}

type Status struct {
	TransportId     string      `json:"transportId"`
	Phase           model.Phase `json:"phase"`
	ReferenceNumber string      `json:"referenceNumber,omitempty"`
	Countries       []string    `json:"countries"`
	LastError       string      `json:"lastError,omitempty"`
	Attempt         int         `json:"attempt"`
	StartedAt       *time.Time  `json:"startedAt,omitempty"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
}

func statusOf(reg *model.Registration) *Status {
	return &Status{
		TransportId:     reg.TransportId,
		Phase:           reg.Phase,
		ReferenceNumber: reg.ReferenceNumber,
		Countries:       append([]string{}, reg.Countries...),
		LastError:       reg.LastError,
		Attempt:         reg.Attempt,
		StartedAt:       reg.StartedAt,
		CompletedAt:     reg.CompletedAt,
	}
}

func (s *Service) machine(reg *model.Registration) *statemachine.StateMachine[model.Phase] {
	sm := statemachine.NewWithState(reg.Phase)
	sm.AddEventTransition(model.PhaseIdle, evStart, model.PhaseCreatingTransport).
		AddEventTransition(model.PhaseCreatingTransport, evPersisted, model.PhaseRegistering).
		AddEventTransition(model.PhaseRegistering, evRegistered, model.PhaseComplete).
		AddEventTransition(model.PhaseCreatingTransport, evFail, model.PhaseIdle).
		AddEventTransition(model.PhaseRegistering, evFail, model.PhaseIdle).
		AddEventTransition(model.PhaseCreatingTransport, evAbandon, model.PhaseIdle).
		AddEventTransition(model.PhaseRegistering, evAbandon, model.PhaseIdle).
		AddValidator(func(_, to model.Phase, _ statemachine.Event) error {
			if to == model.PhaseComplete && reg.ReferenceNumber == "" {
				return errNoReference
			}
			return nil
		})
	if s.metrics != nil {
		sm.OnTransition(func(from, to model.Phase, _ statemachine.Event) {
			s.metrics.RegistrationPhases.WithLabelValues(string(from), string(to)).Inc()
		})
	}
	return sm
}

func (s *Service) acquire(transportId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[transportId]; busy {
		return false
	}
	s.inflight[transportId] = struct{}{}
	return true
}

func (s *Service) release(transportId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, transportId)
}

func (s *Service) busy(transportId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[transportId]
	return ok
}

func (s *Service) load(ctx context.Context, transportId string) (*model.Registration, error) {
	reg, err := s.regRepo.Get(ctx, transportId)
	if errors.Is(err, core.ErrNotFound) {
		return &model.Registration{TransportId: transportId, Phase: model.PhaseIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registration %s: %w", transportId, err)
	}
	if reg.Phase == "" {
		reg.Phase = model.PhaseIdle
	}
	return reg, nil
}

// Start runs the registration handshake to completion or failure. A second
// call for a transport that is not idle is rejected without contacting the
// authority. Once the handshake is under way it is not cancelled by ctx;
// the authority call is bounded by the configured timeout instead.
func (s *Service) Start(ctx context.Context, scope permission.Scope, req StartRequest) (*Status, error) {
	t, err := s.transports.Draft(ctx, scope, req.TransportId, req.Transport)
	if err != nil {
		return nil, err
	}
	route := compliance.RouteOf(t)
	if !route.CrossesBorder() {
		return nil, fmt.Errorf("transport %s stays in %v: %w", t.TransportId, route.NormalizedCountries(), core.ErrNotQualifying)
	}

	if !s.acquire(t.TransportId) {
		return nil, fmt.Errorf("transport %s: %w", t.TransportId, core.ErrRegistrationInProgress)
	}
	defer s.release(t.TransportId)

	reg, err := s.load(ctx, t.TransportId)
	if err != nil {
		return nil, err
	}
	switch reg.Phase {
	case model.PhaseIdle:
	case model.PhaseComplete:
		return nil, fmt.Errorf("transport %s has reference %s: %w", t.TransportId, reg.ReferenceNumber, core.ErrAlreadyRegistered)
	default:
		return nil, fmt.Errorf("transport %s is %s: %w", t.TransportId, reg.Phase, core.ErrRegistrationInProgress)
	}

	manual := req.ManualConfirmations
	if manual == nil {
		manual = t.ManualConfirmations
	}
	cl, err := s.transports.Evaluate(ctx, t, manual)
	if err != nil {
		return nil, err
	}
	if !cl.Compliant {
		return nil, fmt.Errorf("%d of %d required documents confirmed: %w", cl.Progress.Confirmed, cl.Progress.Required, core.ErrNotCompliant)
	}

	return s.run(context.WithoutCancel(ctx), scope, t, cl.Confirmation, reg)
}

func (s *Service) run(ctx context.Context, scope permission.Scope, t *model.Transport, c compliance.Confirmation, reg *model.Registration) (*Status, error) {
	logger := log.WithContext(ctx)
	sm := s.machine(reg)
	started := s.now().UTC()
	reg.Attempt++
	reg.LastError = ""
	reg.Countries = model.StringList(compliance.RouteOf(t).NormalizedCountries())
	reg.StartedAt = &started
	reg.CompletedAt = nil

	if err := s.advance(ctx, sm, reg, evStart); err != nil {
		return nil, err
	}

	t.Status = model.TransportPlanned
	if err := s.transports.Save(ctx, scope, t, c); err != nil {
		return nil, s.fail(ctx, sm, reg, started, err)
	}
	if err := s.advance(ctx, sm, reg, evPersisted); err != nil {
		return nil, s.fail(ctx, sm, reg, started, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	receipt, err := s.registrar.Register(callCtx, movementOf(t))
	cancel()
	if err != nil {
		logger.Errorw("authority registration failed", "transportId", t.TransportId, "attempt", reg.Attempt, "error", err)
		return nil, s.fail(ctx, sm, reg, started, core.Dependency("registration authority", err))
	}

	completed := s.now().UTC()
	reg.ReferenceNumber = receipt.ReferenceNumber
	reg.CompletedAt = &completed
	if err := s.advance(ctx, sm, reg, evRegistered); err != nil {
		logger.Errorw("reference number not stored", "transportId", t.TransportId, "referenceNumber", receipt.ReferenceNumber, "error", err)
		reg.ReferenceNumber = ""
		reg.CompletedAt = nil
		return nil, s.fail(ctx, sm, reg, started, err)
	}
	s.observe(started)
	logger.Infow("transport registered", "transportId", t.TransportId, "referenceNumber", reg.ReferenceNumber, "countries", reg.Countries)
	return statusOf(reg), nil
}

// advance fires ev and persists the new phase, provided the stored phase is
// still the one the machine left. The machine is rolled back when the save
// fails so fail can take over from the previous phase.
func (s *Service) advance(ctx context.Context, sm *statemachine.StateMachine[model.Phase], reg *model.Registration, ev statemachine.Event) error {
	from := sm.Current()
	if err := sm.Fire(ev); err != nil {
		return fmt.Errorf("registration %s: %w", reg.TransportId, err)
	}
	reg.Phase = sm.Current()
	ok, err := s.regRepo.Transition(ctx, reg, from)
	if err != nil || !ok {
		sm.SetCurrent(from)
		reg.Phase = from
	}
	if err != nil {
		return fmt.Errorf("save registration %s: %w", reg.TransportId, err)
	}
	if !ok {
		return fmt.Errorf("registration %s left %s elsewhere: %w", reg.TransportId, from, core.ErrRegistrationInProgress)
	}
	s.publish(ctx, reg.TransportId, from, reg.Phase)
	return nil
}

// fail returns the registration to idle, records cause and returns it.
func (s *Service) fail(ctx context.Context, sm *statemachine.StateMachine[model.Phase], reg *model.Registration, started time.Time, cause error) error {
	from := sm.Current()
	s.observe(started)
	if from == model.PhaseIdle {
		return cause
	}
	if err := sm.Fire(evFail); err != nil {
		log.WithContext(ctx).Errorw("reset registration failed", "transportId", reg.TransportId, "phase", from, "error", err)
		return cause
	}
	reg.Phase = model.PhaseIdle
	reg.LastError = cause.Error()
	ok, err := s.regRepo.Transition(ctx, reg, from)
	switch {
	case err != nil:
		log.WithContext(ctx).Errorw("save failed registration", "transportId", reg.TransportId, "error", err)
	case !ok:
		log.WithContext(ctx).Warnw("registration moved on before reset", "transportId", reg.TransportId, "phase", from)
		return cause
	}
	s.publish(ctx, reg.TransportId, from, model.PhaseIdle)
	return cause
}

func (s *Service) observe(started time.Time) {
	if s.metrics != nil {
		s.metrics.RegistrationTime.Observe(s.now().Sub(started).Seconds())
	}
}

func (s *Service) publish(ctx context.Context, transportId string, from, to model.Phase) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.PhaseChanged{TransportId: transportId, From: from, To: to}); err != nil {
		log.WithContext(ctx).Warnw("phase handlers failed", "transportId", transportId, "error", err)
	}
}

func movementOf(t *model.Transport) authority.Movement {
	return authority.Movement{
		TransportId:   t.TransportId,
		Origin:        t.Origin,
		Destination:   t.Destination,
		Countries:     compliance.RouteOf(t).NormalizedCountries(),
		DepartureAt:   t.DepartureAt,
		VehicleId:     t.VehicleId,
		HorseIds:      append([]string(nil), t.HorseIds...),
		DistanceKm:    t.DistanceKm,
		DurationHours: t.DurationHours,
	}
}

// Status reports the registration of a transport visible in scope. A
// transport that was never started reports idle.
func (s *Service) Status(ctx context.Context, scope permission.Scope, transportId string) (*Status, error) {
	t, err := s.transports.Get(ctx, scope, transportId)
	if err != nil {
		return nil, err
	}
	reg, err := s.load(ctx, transportId)
	if err != nil {
		return nil, err
	}
	st := statusOf(reg)
	if len(st.Countries) == 0 {
		st.Countries = compliance.RouteOf(t).NormalizedCountries()
	}
	return st, nil
}

// Sweep resets registrations stuck mid-phase for longer than StaleAfter,
// typically left behind by a crashed process.
func (s *Service) Sweep(ctx context.Context) error {
	before := s.now().Add(-s.conf.StaleAfter)
	stale, err := s.regRepo.ListStale(ctx, []model.Phase{model.PhaseCreatingTransport, model.PhaseRegistering}, before)
	if err != nil {
		return fmt.Errorf("list stale registrations: %w", err)
	}
	var errs []error
	reset := 0
	for i := range stale {
		reg := &stale[i]
		if s.busy(reg.TransportId) {
			continue
		}
		sm := s.machine(reg)
		from := reg.Phase
		if err := sm.Fire(evAbandon); err != nil {
			errs = append(errs, fmt.Errorf("registration %s: %w", reg.TransportId, err))
			continue
		}
		reg.Phase = model.PhaseIdle
		reg.LastError = fmt.Sprintf("abandoned in phase %s", from)
		ok, err := s.regRepo.Transition(ctx, reg, from)
		if err != nil {
			errs = append(errs, fmt.Errorf("save registration %s: %w", reg.TransportId, err))
			continue
		}
		if !ok {
			continue
		}
		s.publish(ctx, reg.TransportId, from, model.PhaseIdle)
		reset++
		log.WithContext(ctx).Warnw("stale registration reset", "transportId", reg.TransportId, "phase", from)
	}
	if reset > 0 {
		log.WithContext(ctx).Infow("registration sweep finished", "reset", reset, "stale", len(stale))
	}
	return errors.Join(errs...)
}
