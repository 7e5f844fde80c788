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

// Package workspace tracks which context, private or organization, each
// actor is working in.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
)

// sessionTTL bounds how long a cached organization listing is trusted.
// Membership changes made through another replica only reach this one by
// expiry or by a miss on switch.
const sessionTTL = time.Minute

// Manager keeps one Session per actor.
type Manager struct {
	orgRepo    repo.IOrganizationRepository
	memberRepo repo.IMemberRepository
	prefRepo   repo.IContextPreferenceRepository
	metrics    *metrics.Domain
	ttl        time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(repos *repo.Repositories, m *metrics.Domain, bus *event.EventBus) *Manager {
	mgr := &Manager{
		orgRepo:    repos.Organization,
		memberRepo: repos.Member,
		prefRepo:   repos.Preference,
		metrics:    m,
		ttl:        sessionTTL,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
	if bus != nil {
		bus.RegisterHandler(events.MembershipGrantedName, event.HandlerFunc(mgr.onMembershipChanged))
		bus.RegisterHandler(events.MembershipRevokedName, event.HandlerFunc(mgr.onMembershipChanged))
	}
	return mgr
}

// Session returns the cached session of actorId, opening it on first use
// and reloading it once its listing is older than the manager's TTL.
func (m *Manager) Session(ctx context.Context, actorId string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[actorId]
	m.mu.Unlock()
	if ok {
		if s.expired(m.now(), m.ttl) {
			if err := s.Reload(ctx); err != nil {
				return nil, err
			}
		}
		return s, nil
	}

	s, err := m.open(ctx, actorId)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[actorId]; ok {
		return existing, nil
	}
	m.sessions[actorId] = s
	return s, nil
}

// Forget drops the cached session of actorId.
func (m *Manager) Forget(actorId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actorId)
}

func (m *Manager) cached(actorId string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[actorId]
	return s, ok
}

func (m *Manager) open(ctx context.Context, actorId string) (*Session, error) {
	s := &Session{actorId: actorId, mgr: m, active: model.PrivateContext(actorId)}
	orgs, err := m.orgRepo.ListByActor(ctx, actorId)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	s.orgs = orgs
	s.loadedAt = m.now()

	pref, err := m.prefRepo.Get(ctx, actorId)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load context preference: %w", err)
	}
	if pref.Mode != model.ModeOrganization {
		return s, nil
	}
	if s.usable(pref.OrgId) {
		s.active = model.ActiveContext{ActorId: actorId, Mode: model.ModeOrganization, OrgId: pref.OrgId}
		return s, nil
	}
	log.WithContext(ctx).Infow("stored organization context no longer valid, falling back to private",
		"actorId", actorId, "orgId", pref.OrgId)
	s.persistPrivate(ctx)
	return s, nil
}

// Scope resolves the scope of a request: the active context plus a fresh
// read of the membership it relies on. A membership that is gone or
// disabled fails the session closed to private.
func (m *Manager) Scope(ctx context.Context, actorId string) (permission.Scope, error) {
	s, err := m.Session(ctx, actorId)
	if err != nil {
		return permission.Scope{}, err
	}
	active := s.Active()
	if active.IsPrivate() {
		return permission.Scope{Active: active}, nil
	}

	member, err := m.memberRepo.Get(ctx, active.OrgId, actorId)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return permission.Scope{}, fmt.Errorf("load membership: %w", err)
	}
	if member.IsActive() {
		return permission.Scope{Active: active, Member: member}, nil
	}
	if err := s.Reload(ctx); err != nil {
		return permission.Scope{}, err
	}
	// Reload drops the organization only when the listing agrees it is
	// gone; force private either way.
	s.failClosed(ctx, active.OrgId)
	return permission.Scope{Active: model.PrivateContext(actorId)}, nil
}

func (m *Manager) onMembershipChanged(ctx context.Context, e event.Event) error {
	var actorId string
	switch ev := e.(type) {
	case events.MembershipGranted:
		actorId = ev.ActorId
	case events.MembershipRevoked:
		actorId = ev.ActorId
	default:
		return nil
	}
	s, ok := m.cached(actorId)
	if !ok {
		return nil
	}
	return s.Reload(ctx)
}

func (m *Manager) observe(mode model.Mode, result string) {
	if m.metrics != nil {
		m.metrics.ContextSwitches.WithLabelValues(string(mode), result).Inc()
	}
}
