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
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/log"
)

// Session is the context state of one actor. Switches are last-write-wins:
// every switch draws a ticket when it starts, and a switch that finds a
// newer ticket once it holds the lock gives up without writing.
type Session struct {
	actorId string
	mgr     *Manager
	tickets atomic.Uint64

	mu       sync.Mutex
	active   model.ActiveContext
	orgs     []model.OrganizationView
	loadedAt time.Time
}

func (s *Session) Active() model.ActiveContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Organizations returns the organizations loaded for the actor.
func (s *Session) Organizations() []model.OrganizationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orgs)
}

// Membership is the actor's membership in the active organization as of
// the last load, nil in private mode.
func (s *Session) Membership() *model.MemberInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.IsPrivate() {
		return nil
	}
	for _, o := range s.orgs {
		if o.OrgId == s.active.OrgId && o.MemberInfo != nil {
			info := *o.MemberInfo
			info.Permissions = info.Permissions.Clone()
			return &info
		}
	}
	return nil
}

// SwitchMode persists and applies a new active context. Organization mode
// needs orgId among the actor's organizations with an active membership;
// an organization missing from the cached listing triggers one reload.
func (s *Session) SwitchMode(ctx context.Context, mode model.Mode, orgId string) (model.ActiveContext, error) {
	if !mode.Valid() {
		s.mgr.observe(mode, "invalid")
		return model.ActiveContext{}, core.Invalid("unknown mode %q", mode)
	}
	if mode == model.ModeOrganization && orgId != "" && !s.usable(orgId) {
		if err := s.Reload(ctx); err != nil {
			s.mgr.observe(mode, "error")
			return s.Active(), err
		}
	}
	ticket := s.tickets.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tickets.Load() != ticket {
		s.mgr.observe(mode, "superseded")
		return s.active, core.ErrSwitchSuperseded
	}

	next := model.PrivateContext(s.actorId)
	if mode == model.ModeOrganization {
		if !s.usableLocked(orgId) {
			s.mgr.observe(mode, "invalid")
			return s.active, fmt.Errorf("organization %q: %w", orgId, core.ErrInvalidTarget)
		}
		next = model.ActiveContext{ActorId: s.actorId, Mode: model.ModeOrganization, OrgId: orgId}
	}

	if err := s.mgr.prefRepo.Save(ctx, &model.ContextPreference{ActorId: s.actorId, Mode: next.Mode, OrgId: next.OrgId}); err != nil {
		s.mgr.observe(mode, "error")
		log.WithContext(ctx).Errorw("persist context preference failed", "actorId", s.actorId, "error", err)
		return s.active, fmt.Errorf("persist context: %w", err)
	}
	s.active = next
	s.mgr.observe(mode, "ok")
	return next, nil
}

// Reload re-fetches the organizations. When the active organization is no
// longer usable the session falls back to private.
func (s *Session) Reload(ctx context.Context) error {
	orgs, err := s.mgr.orgRepo.ListByActor(ctx, s.actorId)
	if err != nil {
		return fmt.Errorf("reload organizations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs = orgs
	s.loadedAt = s.mgr.now()
	if !s.active.IsPrivate() && !s.usableLocked(s.active.OrgId) {
		log.WithContext(ctx).Infow("active organization gone, falling back to private",
			"actorId", s.actorId, "orgId", s.active.OrgId)
		s.active = model.PrivateContext(s.actorId)
		s.persistPrivate(ctx)
	}
	return nil
}

// failClosed switches to private if orgId is still the active organization.
func (s *Session) failClosed(ctx context.Context, orgId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.IsPrivate() || s.active.OrgId != orgId {
		return
	}
	s.active = model.PrivateContext(s.actorId)
	s.persistPrivate(ctx)
}

// persistPrivate stores the private preference. A failure is only logged:
// the in-memory state is private regardless and is rewritten on the next
// successful switch.
func (s *Session) persistPrivate(ctx context.Context) {
	err := s.mgr.prefRepo.Save(ctx, &model.ContextPreference{ActorId: s.actorId, Mode: model.ModePrivate})
	if err != nil {
		log.WithContext(ctx).Warnw("persist private context failed", "actorId", s.actorId, "error", err)
	}
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ttl > 0 && now.Sub(s.loadedAt) > ttl
}

func (s *Session) usable(orgId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usableLocked(orgId)
}

func (s *Session) usableLocked(orgId string) bool {
	if orgId == "" {
		return false
	}
	for _, o := range s.orgs {
		if o.OrgId == orgId {
			return o.MemberInfo != nil && o.MemberInfo.Status == model.MemberStatusActive
		}
	}
	return false
}
