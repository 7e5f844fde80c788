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

package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/internal/engine/service/organization"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyPreferences fails Save while fail is set.
type flakyPreferences struct {
	repo.IContextPreferenceRepository
	fail atomic.Bool
}

func (f *flakyPreferences) Save(ctx context.Context, p *model.ContextPreference) error {
	if f.fail.Load() {
		return errors.New("store unavailable")
	}
	return f.IContextPreferenceRepository.Save(ctx, p)
}

type fixture struct {
	repos   *repo.Repositories
	prefs   *flakyPreferences
	orgs    *organization.Service
	mgr     *Manager
	metrics *metrics.Domain
	orgId   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	prefs := &flakyPreferences{IContextPreferenceRepository: repos.Preference}
	repos.Preference = prefs
	bus := event.NewEventBus()
	m := metrics.NewNopDomain()
	f := &fixture{
		repos:   repos,
		prefs:   prefs,
		orgs:    organization.NewService(organization.Config{}, repos, bus),
		mgr:     NewManager(repos, m, bus),
		metrics: m,
	}
	org, err := f.orgs.Create(context.Background(), "owner", organization.CreateRequest{Name: "Nordic Horses"})
	require.NoError(t, err)
	_, err = f.orgs.Join(context.Background(), "a1", org.JoinCode)
	require.NoError(t, err)
	f.orgId = org.OrgId
	return f
}

func (f *fixture) persisted(t *testing.T, actorId string) model.ContextPreference {
	t.Helper()
	p, err := f.repos.Preference.Get(context.Background(), actorId)
	require.NoError(t, err)
	return *p
}

func TestSession_DefaultsToPrivate(t *testing.T) {
	f := newFixture(t)
	s, err := f.mgr.Session(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, model.PrivateContext("a1"), s.Active())
	assert.Nil(t, s.Membership())
	assert.Len(t, s.Organizations(), 1)

	again, err := f.mgr.Session(context.Background(), "a1")
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestSwitchMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)

	_, err = s.SwitchMode(ctx, "team", f.orgId)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = s.SwitchMode(ctx, model.ModeOrganization, "unknown-org")
	assert.ErrorIs(t, err, core.ErrInvalidTarget)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.True(t, s.Active().IsPrivate())

	active, err := s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)
	assert.Equal(t, model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: f.orgId}, active)
	assert.Equal(t, active, s.Active())
	assert.Equal(t, model.RoleMember, s.Membership().Role)

	p := f.persisted(t, "a1")
	assert.Equal(t, model.ModeOrganization, p.Mode)
	assert.Equal(t, f.orgId, p.OrgId)

	// private ignores the org id
	active, err = s.SwitchMode(ctx, model.ModePrivate, "whatever")
	require.NoError(t, err)
	assert.Equal(t, model.PrivateContext("a1"), active)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ContextSwitches.WithLabelValues("organization", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ContextSwitches.WithLabelValues("team", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ContextSwitches.WithLabelValues("organization", "ok")))
}

func TestSwitchMode_PersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)

	f.prefs.fail.Store(true)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.Error(t, err)
	assert.True(t, s.Active().IsPrivate())

	f.prefs.fail.Store(false)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)
}

func TestSession_RestoresPreference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)

	f.mgr.Forget("a1")
	restored, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	assert.NotSame(t, s, restored)
	assert.Equal(t, f.orgId, restored.Active().OrgId)
}

func TestSession_StalePreferenceFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.Preference.Save(ctx, &model.ContextPreference{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "gone"}))

	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, s.Active().IsPrivate())
	assert.Equal(t, model.ModePrivate, f.persisted(t, "a1").Mode)
}

func TestSession_StalePreferencePersistFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repos.Preference.Save(ctx, &model.ContextPreference{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "gone"}))
	f.prefs.fail.Store(true)

	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, s.Active().IsPrivate(), "in-memory state is private even when persisting fails")
}

func TestSwitchThenReload_MembershipRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)

	// remove the membership behind the service's back
	require.NoError(t, f.repos.Member.Delete(ctx, f.orgId, "a1"))
	require.NoError(t, s.Reload(ctx))

	assert.True(t, s.Active().IsPrivate())
	assert.Empty(t, s.Organizations())
	assert.Equal(t, model.ModePrivate, f.persisted(t, "a1").Mode)
}

func TestMembershipEventsReloadSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)

	second, err := f.orgs.Create(ctx, "a1", organization.CreateRequest{Name: "Second Stable"})
	require.NoError(t, err)
	assert.Len(t, s.Organizations(), 2)

	require.NoError(t, f.orgs.RemoveMember(ctx, "owner", f.orgId, "a1"))
	assert.True(t, s.Active().IsPrivate())

	_, err = s.SwitchMode(ctx, model.ModeOrganization, second.OrgId)
	assert.NoError(t, err)
}

func TestSwitchMode_ReloadsOnMiss(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// a replica that never sees this process's membership events
	replica := NewManager(f.repos, metrics.NewNopDomain(), nil)
	s, err := replica.Session(ctx, "a2")
	require.NoError(t, err)
	require.Empty(t, s.Organizations())

	org, err := f.orgs.Get(ctx, "owner", f.orgId)
	require.NoError(t, err)
	_, err = f.orgs.Join(ctx, "a2", org.JoinCode)
	require.NoError(t, err)

	active, err := s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)
	assert.Equal(t, f.orgId, active.OrgId)
	assert.Len(t, s.Organizations(), 1)
}

func TestManager_SessionExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	replica := NewManager(f.repos, metrics.NewNopDomain(), nil)
	replica.now = func() time.Time { return now }

	s, err := replica.Session(ctx, "a1")
	require.NoError(t, err)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)

	require.NoError(t, f.orgs.RemoveMember(ctx, "owner", f.orgId, "a1"))

	now = now.Add(sessionTTL / 2)
	s, err = replica.Session(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, s.Organizations(), 1, "listing still cached")

	now = now.Add(sessionTTL)
	again, err := replica.Session(ctx, "a1")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Empty(t, again.Organizations())
	assert.True(t, again.Active().IsPrivate())
	assert.Equal(t, model.ModePrivate, f.persisted(t, "a1").Mode)
}

func TestScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	scope, err := f.mgr.Scope(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, scope.Active.IsPrivate())
	assert.Nil(t, scope.Member)

	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)
	_, err = s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
	require.NoError(t, err)

	scope, err = f.mgr.Scope(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, scope.Member)
	assert.Equal(t, f.orgId, scope.Member.OrgId)
	assert.False(t, scope.Can(model.CanManageHorses))

	// disabled without an event reaching the session
	m, err := f.repos.Member.Get(ctx, f.orgId, "a1")
	require.NoError(t, err)
	m.Status = model.MemberStatusDisabled
	require.NoError(t, f.repos.Member.Update(ctx, m))

	scope, err = f.mgr.Scope(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, scope.Active.IsPrivate())
	assert.True(t, s.Active().IsPrivate())
	assert.Equal(t, model.ModePrivate, f.persisted(t, "a1").Mode)
}

func TestSwitchMode_Superseded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)

	s.mu.Lock()
	results := make(chan error, 2)
	go func() {
		_, err := s.SwitchMode(ctx, model.ModeOrganization, f.orgId)
		results <- err
	}()
	require.Eventually(t, func() bool { return s.tickets.Load() == 1 }, timeout, tick)
	go func() {
		_, err := s.SwitchMode(ctx, model.ModePrivate, "")
		results <- err
	}()
	require.Eventually(t, func() bool { return s.tickets.Load() == 2 }, timeout, tick)
	s.mu.Unlock()

	errs := []error{<-results, <-results}
	var superseded, ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, core.ErrSwitchSuperseded):
			superseded++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, superseded)
	assert.True(t, s.Active().IsPrivate())
	assert.Equal(t, model.ModePrivate, f.persisted(t, "a1").Mode)
}

func TestSwitchMode_ConcurrentStateMatchesStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Session(ctx, "a1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mode := model.ModePrivate
			if i%2 == 0 {
				mode = model.ModeOrganization
			}
			_, err := s.SwitchMode(ctx, mode, f.orgId)
			if err != nil && !errors.Is(err, core.ErrSwitchSuperseded) {
				panic(fmt.Sprintf("switch %d: %v", i, err))
			}
		}(i)
	}
	wg.Wait()

	p := f.persisted(t, "a1")
	active := s.Active()
	assert.Equal(t, active.Mode, p.Mode)
	assert.Equal(t, active.OrgId, p.OrgId)
}
