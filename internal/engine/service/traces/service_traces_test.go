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

package traces

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/internal/engine/service/certificate"
	"github.com/go-arcade/equiroute/internal/engine/service/transport"
	"github.com/go-arcade/equiroute/internal/pkg/authority"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	mu      sync.Mutex
	calls   int
	last    authority.Movement
	ref     string
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (r *fakeRegistrar) Register(ctx context.Context, m authority.Movement) (*authority.Receipt, error) {
	r.mu.Lock()
	r.calls++
	r.last = m
	r.mu.Unlock()
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &authority.Receipt{ReferenceNumber: r.ref}, nil
}

func (r *fakeRegistrar) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	repos     *repo.Repositories
	registrar *fakeRegistrar
	metrics   *metrics.Domain
	bus       *event.EventBus
	scope     permission.Scope
}

func newFixture(t *testing.T, conf Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	bus := event.NewEventBus()
	m := metrics.NewNopDomain()
	evaluator, err := compliance.ProvideEvaluator(compliance.Config{})
	require.NoError(t, err)
	certs := certificate.NewService(repos, nil, storage.Storage{}, m, bus)
	transports := transport.NewService(repos, certs, evaluator, compliance.NewReconciler(nil), m, bus)
	registrar := &fakeRegistrar{ref: "INTRA.DK.2024.0001"}

	f := &fixture{
		svc:       NewService(conf, repos, transports, registrar, m, bus),
		store:     store,
		repos:     repos,
		registrar: registrar,
		metrics:   m,
		bus:       bus,
		scope:     permission.PrivateScope("a1"),
	}
	ctx := context.Background()
	owner := f.scope.Owner()
	require.NoError(t, repos.Vehicle.Create(ctx, &model.Vehicle{VehicleId: "v1", Owner: owner}))
	require.NoError(t, repos.Horse.Create(ctx, &model.Horse{HorseId: "h1", Owner: owner}))
	return f
}

// crossing DK -> DE under 65 km: base documents, the health certificate and
// the German transporter authorisation are required.
var (
	crossing = transport.Input{
		VehicleId:     "v1",
		HorseIds:      []string{"h1"},
		Countries:     []string{"DK", "DE"},
		Origin:        "Padborg",
		Destination:   "Flensburg",
		DistanceKm:    40,
		DurationHours: 1,
		DepartureAt:   time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC),
	}
	allConfirmed = []string{"horse_passport", "vaccination_record", "vehicle_registration", "health_certificate", "transporter_authorisation"}
)

func (f *fixture) start(ctx context.Context, transportId string) (*Status, error) {
	req := StartRequest{TransportId: transportId, ManualConfirmations: allConfirmed}
	if transportId == "" {
		in := crossing
		req.Transport = &in
	}
	return f.svc.Start(ctx, f.scope, req)
}

func TestStart_Completes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	var phases []string
	f.bus.RegisterHandler(events.PhaseChangedName, event.HandlerFunc(func(_ context.Context, e event.Event) error {
		pc := e.(events.PhaseChanged)
		phases = append(phases, string(pc.From)+">"+string(pc.To))
		return nil
	}))

	st, err := f.start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseComplete, st.Phase)
	assert.Equal(t, "INTRA.DK.2024.0001", st.ReferenceNumber)
	assert.Equal(t, []string{"DK", "DE"}, st.Countries)
	assert.Equal(t, 1, st.Attempt)
	assert.NotNil(t, st.CompletedAt)
	assert.Equal(t, []string{
		"idle>creating-transport",
		"creating-transport>registering-with-authority",
		"registering-with-authority>complete",
	}, phases)

	stored, err := f.repos.Transport.Get(ctx, st.TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.TransportPlanned, stored.Status)
	assert.Len(t, stored.ManualConfirmations, len(allConfirmed))
	assert.Equal(t, []string{"DK", "DE"}, f.registrar.last.Countries)
	assert.Equal(t, "Padborg", f.registrar.last.Origin)

	again, err := f.svc.Status(ctx, f.scope, st.TransportId)
	require.NoError(t, err)
	assert.Equal(t, st.ReferenceNumber, again.ReferenceNumber)

	_, err = f.start(ctx, st.TransportId)
	assert.ErrorIs(t, err, core.ErrAlreadyRegistered)
	assert.Equal(t, 1, f.registrar.callCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RegistrationPhases.WithLabelValues("registering-with-authority", "complete")))
}

func TestStart_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	domestic := crossing
	domestic.Countries = []string{"DK", "dk"}
	_, err := f.svc.Start(ctx, f.scope, StartRequest{Transport: &domestic, ManualConfirmations: allConfirmed})
	assert.ErrorIs(t, err, core.ErrNotQualifying)

	in := crossing
	_, err = f.svc.Start(ctx, f.scope, StartRequest{Transport: &in, ManualConfirmations: allConfirmed[:4]})
	assert.ErrorIs(t, err, core.ErrNotCompliant)

	_, err = f.svc.Start(ctx, f.scope, StartRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Start(ctx, f.scope, StartRequest{TransportId: "missing"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Zero(t, f.registrar.callCount())
	list, err := f.repos.Transport.List(ctx, f.scope.Owner())
	require.NoError(t, err)
	assert.Empty(t, list, "rejected starts persist nothing")
}

func TestStart_RejectedWhileRegistering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{Timeout: 5 * time.Second})
	f.registrar.entered = make(chan struct{}, 1)
	f.registrar.block = make(chan struct{})

	in := crossing
	draft, err := f.svc.transports.Draft(ctx, f.scope, "", &in)
	require.NoError(t, err)
	require.NoError(t, f.svc.transports.Save(ctx, f.scope, draft, compliance.NewConfirmation(allConfirmed, nil)))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Start(ctx, f.scope, StartRequest{TransportId: draft.TransportId})
		done <- err
	}()
	select {
	case <-f.registrar.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("registration never reached the authority")
	}

	st, err := f.svc.Status(ctx, f.scope, draft.TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseRegistering, st.Phase)

	_, err = f.svc.Start(ctx, f.scope, StartRequest{TransportId: draft.TransportId})
	assert.ErrorIs(t, err, core.ErrRegistrationInProgress)

	close(f.registrar.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.registrar.callCount(), "no duplicate authority call")
}

func TestStart_RejectedWhenPersistedMidPhase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	st, err := f.start(ctx, "")
	require.NoError(t, err)

	// another process holds the registration
	ok, err := f.repos.Registration.Transition(ctx, &model.Registration{TransportId: st.TransportId, Phase: model.PhaseRegistering}, model.PhaseComplete)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.start(ctx, st.TransportId)
	assert.ErrorIs(t, err, core.ErrRegistrationInProgress)
	assert.Equal(t, 1, f.registrar.callCount())
}

// idleReads reports every registration as idle, like a replica that read
// before another one claimed the transport.
type idleReads struct {
	repo.IRegistrationRepository
}

func (r idleReads) Get(ctx context.Context, transportId string) (*model.Registration, error) {
	reg, err := r.IRegistrationRepository.Get(ctx, transportId)
	if err != nil {
		return nil, err
	}
	reg.Phase = model.PhaseIdle
	return reg, nil
}

func TestStart_ClaimLostToOtherReplica(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	in := crossing
	draft, err := f.svc.transports.Draft(ctx, f.scope, "", &in)
	require.NoError(t, err)
	require.NoError(t, f.svc.transports.Save(ctx, f.scope, draft, compliance.NewConfirmation(allConfirmed, nil)))

	ok, err := f.repos.Registration.Transition(ctx, &model.Registration{TransportId: draft.TransportId, Phase: model.PhaseRegistering}, model.PhaseIdle)
	require.NoError(t, err)
	require.True(t, ok)
	f.svc.regRepo = idleReads{f.repos.Registration}

	_, err = f.svc.Start(ctx, f.scope, StartRequest{TransportId: draft.TransportId})
	assert.ErrorIs(t, err, core.ErrRegistrationInProgress)
	assert.Zero(t, f.registrar.callCount())

	reg, err := f.repos.Registration.Get(ctx, draft.TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseRegistering, reg.Phase, "the other replica's phase is kept")
}

func TestStart_FailureReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	f.registrar.err = errors.New("503 service unavailable")

	_, err := f.start(ctx, "")
	require.ErrorIs(t, err, core.ErrDependency)

	list, err := f.repos.Transport.List(ctx, f.scope.Owner())
	require.NoError(t, err)
	require.Len(t, list, 1, "phase one persisted the transport")
	transportId := list[0].TransportId

	st, err := f.svc.Status(ctx, f.scope, transportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "503")
	assert.Empty(t, st.ReferenceNumber)

	f.registrar.err = nil
	st, err = f.start(ctx, transportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseComplete, st.Phase)
	assert.Equal(t, 2, st.Attempt)
	assert.Empty(t, st.LastError)
}

func TestStart_EmptyReferenceDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	f.registrar.ref = ""

	_, err := f.start(ctx, "")
	require.Error(t, err)

	list, err := f.repos.Transport.List(ctx, f.scope.Owner())
	require.NoError(t, err)
	require.Len(t, list, 1)

	st, err := f.svc.Status(ctx, f.scope, list[0].TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "no reference number")
}

func TestStart_Timeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{Timeout: 20 * time.Millisecond})
	f.registrar.block = make(chan struct{})

	_, err := f.start(ctx, "")
	require.ErrorIs(t, err, core.ErrDependency)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	list, err := f.repos.Transport.List(ctx, f.scope.Owner())
	require.NoError(t, err)
	require.Len(t, list, 1)
	st, err := f.svc.Status(ctx, f.scope, list[0].TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseIdle, st.Phase)
}

func TestStart_CallerCancellationDoesNotAbort(t *testing.T) {
	f := newFixture(t, Config{Timeout: 5 * time.Second})
	f.registrar.entered = make(chan struct{}, 1)
	f.registrar.block = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := f.start(ctx, "")
		done <- err
	}()
	<-f.registrar.entered
	cancel()
	close(f.registrar.block)
	assert.NoError(t, <-done)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	in := crossing
	draft, err := f.svc.transports.Draft(ctx, f.scope, "", &in)
	require.NoError(t, err)
	require.NoError(t, f.svc.transports.Save(ctx, f.scope, draft, compliance.NewConfirmation(nil, nil)))

	st, err := f.svc.Status(ctx, f.scope, draft.TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Equal(t, []string{"DK", "DE"}, st.Countries)

	_, err = f.svc.Status(ctx, permission.PrivateScope("a2"), draft.TransportId)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{StaleAfter: time.Minute})
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return base })
	f.svc.now = func() time.Time { return base.Add(5 * time.Minute) }

	for id, phase := range map[string]model.Phase{
		"t-creating":    model.PhaseCreatingTransport,
		"t-registering": model.PhaseRegistering,
		"t-complete":    model.PhaseComplete,
		"t-busy":        model.PhaseRegistering,
	} {
		ok, err := f.repos.Registration.Transition(ctx, &model.Registration{TransportId: id, Phase: phase}, model.PhaseIdle)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.True(t, f.svc.acquire("t-busy"))

	require.NoError(t, f.svc.Sweep(ctx))

	want := map[string]model.Phase{
		"t-creating":    model.PhaseIdle,
		"t-registering": model.PhaseIdle,
		"t-complete":    model.PhaseComplete,
		"t-busy":        model.PhaseRegistering,
	}
	for id, phase := range want {
		reg, err := f.repos.Registration.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, phase, reg.Phase, id)
	}
	reg, err := f.repos.Registration.Get(ctx, "t-registering")
	require.NoError(t, err)
	assert.Contains(t, reg.LastError, "abandoned")
}

func TestConfig_SetDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 10*time.Minute, c.StaleAfter)
	assert.Equal(t, "@every 1m", c.SweepSpec)

	c = Config{Timeout: 10 * time.Minute, StaleAfter: time.Minute}
	c.SetDefaults()
	assert.Equal(t, 20*time.Minute, c.StaleAfter, "never sweep a call that may still be running")
}
