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

// Package organization manages organizations, their members and join codes.
package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-arcade/equiroute/pkg/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// ErrJoinCodeExhausted is returned when no free join code was found within
// the configured number of attempts.
var ErrJoinCodeExhausted = errors.New("could not allocate a unique join code")

type Config struct {
	JoinCodeAttempts int `mapstructure:"joinCodeAttempts"`
}

func (c *Config) SetDefaults() {
	if c.JoinCodeAttempts <= 0 {
		c.JoinCodeAttempts = 5
	}
}

type Service struct {
	conf        Config
	orgRepo     repo.IOrganizationRepository
	memberRepo  repo.IMemberRepository
	vehicleRepo repo.IVehicleRepository
	horseRepo   repo.IHorseRepository
	bus         *event.EventBus
	newJoinCode func() string
	now         func() time.Time
}

func NewService(conf Config, repos *repo.Repositories, bus *event.EventBus) *Service {
	conf.SetDefaults()
	return &Service{
		conf:        conf,
		orgRepo:     repos.Organization,
		memberRepo:  repos.Member,
		vehicleRepo: repos.Vehicle,
		horseRepo:   repos.Horse,
		bus:         bus,
		newJoinCode: id.JoinCode,
		now:         time.Now,
	}
}

type CreateRequest struct {
	Name        string
	Description string
	Settings    model.OrganizationSettings
}

type UpdateRequest struct {
	Name        *string
	Description *string
}

// MemberPatch changes a membership; nil fields are left alone. Permissions
// are merged into the current set.
type MemberPatch struct {
	Role        *model.Role
	Permissions model.PermissionSet
	Status      *int
}

// Create stores a new organization with actorId as its owner.
func (s *Service) Create(ctx context.Context, actorId string, req CreateRequest) (*model.OrganizationView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, core.Invalid("organization name is required")
	}

	now := s.now()
	org := &model.Organization{
		OrgId:        id.GetUUID(),
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		OwnerActorId: actorId,
		Settings:     datatypes.NewJSONType(req.Settings),
		Status:       model.OrgStatusActive,
	}
	owner := &model.OrganizationMember{
		OrgId:       org.OrgId,
		ActorId:     actorId,
		Role:        model.RoleOwner,
		Permissions: datatypes.NewJSONType(allPermissions()),
		Status:      model.MemberStatusActive,
		JoinedAt:    now,
	}

	err := s.withJoinCode(ctx, func(code string) error {
		org.JoinCode = code
		return s.orgRepo.Create(ctx, org, owner)
	})
	if err != nil {
		log.WithContext(ctx).Errorw("create organization failed", "name", name, "error", err)
		return nil, fmt.Errorf("create organization: %w", err)
	}
	log.WithContext(ctx).Infow("organization created", "orgId", org.OrgId, "owner", actorId)
	s.publish(ctx, events.MembershipGranted{OrgId: org.OrgId, ActorId: actorId})
	return &model.OrganizationView{Organization: *org, MemberInfo: owner.Info()}, nil
}

// withJoinCode generates codes until store accepts one. Codes already known
// to exist are skipped without calling store; a store that reports
// repo.ErrJoinCodeTaken (a concurrent writer won) is retried as well.
func (s *Service) withJoinCode(ctx context.Context, store func(code string) error) error {
	for range s.conf.JoinCodeAttempts {
		code := s.newJoinCode()
		exists, err := s.orgRepo.JoinCodeExists(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		err = store(code)
		if errors.Is(err, repo.ErrJoinCodeTaken) {
			continue
		}
		return err
	}
	return ErrJoinCodeExhausted
}

func allPermissions() model.PermissionSet {
	ps := model.DefaultPermissions()
	for a := range ps {
		ps[a] = true
	}
	return ps
}

// membership returns actorId's membership of orgId and checks it allows
// action. Non members get core.ErrNotFound.
func (s *Service) membership(ctx context.Context, actorId, orgId string, action model.Action) (*model.OrganizationMember, error) {
	m, err := s.memberRepo.Get(ctx, orgId, actorId)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("organization %s: %w", orgId, core.ErrNotFound)
		}
		return nil, err
	}
	if !m.IsActive() {
		return nil, fmt.Errorf("organization %s: %w", orgId, core.ErrPermissionDenied)
	}
	if action == "" {
		return m, nil
	}
	active := model.ActiveContext{ActorId: actorId, Mode: model.ModeOrganization, OrgId: orgId}
	if !permission.CanPerform(active, m, action) {
		return nil, fmt.Errorf("%s in %s: %w", action, orgId, core.ErrPermissionDenied)
	}
	return m, nil
}

// Get returns the organization as seen by one of its members.
func (s *Service) Get(ctx context.Context, actorId, orgId string) (*model.OrganizationView, error) {
	m, err := s.membership(ctx, actorId, orgId, "")
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.Get(ctx, orgId)
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", orgId, err)
	}
	return &model.OrganizationView{Organization: *org, MemberInfo: m.Info()}, nil
}

// List returns every organization actorId belongs to.
func (s *Service) List(ctx context.Context, actorId string) ([]model.OrganizationView, error) {
	views, err := s.orgRepo.ListByActor(ctx, actorId)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return views, nil
}

func (s *Service) Update(ctx context.Context, actorId, orgId string, req UpdateRequest) (*model.OrganizationView, error) {
	return s.mutate(ctx, actorId, orgId, func(org *model.Organization) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return core.Invalid("organization name is required")
			}
			org.Name = name
		}
		if req.Description != nil {
			org.Description = strings.TrimSpace(*req.Description)
		}
		return nil
	})
}

func (s *Service) UpdateSettings(ctx context.Context, actorId, orgId string, settings model.OrganizationSettings) (*model.OrganizationView, error) {
	return s.mutate(ctx, actorId, orgId, func(org *model.Organization) error {
		org.Settings = datatypes.NewJSONType(settings)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, actorId, orgId string, apply func(*model.Organization) error) (*model.OrganizationView, error) {
	m, err := s.membership(ctx, actorId, orgId, model.CanManageOrganization)
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.Get(ctx, orgId)
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", orgId, err)
	}
	if err := apply(org); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("update organization %s: %w", orgId, err)
	}
	return &model.OrganizationView{Organization: *org, MemberInfo: m.Info()}, nil
}

// RegenerateJoinCode replaces the join code; the old code stops working.
func (s *Service) RegenerateJoinCode(ctx context.Context, actorId, orgId string) (string, error) {
	if _, err := s.membership(ctx, actorId, orgId, model.CanManageMembers); err != nil {
		return "", err
	}
	org, err := s.orgRepo.Get(ctx, orgId)
	if err != nil {
		return "", fmt.Errorf("get organization %s: %w", orgId, err)
	}
	err = s.withJoinCode(ctx, func(code string) error {
		org.JoinCode = code
		return s.orgRepo.Update(ctx, org)
	})
	if err != nil {
		return "", fmt.Errorf("regenerate join code: %w", err)
	}
	log.WithContext(ctx).Infow("join code regenerated", "orgId", orgId, "by", actorId)
	return org.JoinCode, nil
}

// Join adds actorId as a plain member with no permissions. The code is
// matched case-insensitively.
func (s *Service) Join(ctx context.Context, actorId, code string) (*model.OrganizationView, error) {
	normalized, err := id.NormalizeJoinCode(code)
	if err != nil {
		return nil, core.Invalid("%s", err)
	}
	org, err := s.orgRepo.GetByJoinCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("join code %s: %w", normalized, err)
	}
	m := &model.OrganizationMember{
		OrgId:       org.OrgId,
		ActorId:     actorId,
		Role:        model.RoleMember,
		Permissions: datatypes.NewJSONType(model.DefaultPermissions()),
		Status:      model.MemberStatusActive,
		JoinedAt:    s.now(),
	}
	if err := s.memberRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("join %s: %w", org.OrgId, err)
	}
	log.WithContext(ctx).Infow("actor joined organization", "orgId", org.OrgId, "actorId", actorId)
	s.publish(ctx, events.MembershipGranted{OrgId: org.OrgId, ActorId: actorId})
	return &model.OrganizationView{Organization: *org, MemberInfo: m.Info()}, nil
}

func (s *Service) ListMembers(ctx context.Context, actorId, orgId string) ([]model.OrganizationMember, error) {
	if _, err := s.membership(ctx, actorId, orgId, ""); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.List(ctx, orgId)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", orgId, err)
	}
	return members, nil
}

// UpdateMember applies patch to target's membership. Role changes need
// owner or admin rights, and nobody can make or unmake an owner.
func (s *Service) UpdateMember(ctx context.Context, actorId, orgId, target string, patch MemberPatch) (*model.OrganizationMember, error) {
	caller, err := s.membership(ctx, actorId, orgId, model.CanManageMembers)
	if err != nil {
		return nil, err
	}
	m, err := s.memberRepo.Get(ctx, orgId, target)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", target, err)
	}
	if err := outranks(caller, m); err != nil {
		return nil, err
	}

	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, core.Invalid("unknown role %q", *patch.Role)
		}
		if *patch.Role == model.RoleOwner {
			return nil, core.ErrOwnerProtected
		}
		active := model.ActiveContext{ActorId: actorId, Mode: model.ModeOrganization, OrgId: orgId}
		if !permission.CanPerform(active, caller, model.CanManageOrganization) {
			return nil, fmt.Errorf("change role: %w", core.ErrPermissionDenied)
		}
		if *patch.Role == model.RoleAdmin && caller.Role != model.RoleOwner {
			return nil, fmt.Errorf("grant admin: %w", core.ErrPermissionDenied)
		}
		m.Role = *patch.Role
	}
	if len(patch.Permissions) > 0 {
		perms := m.Permissions.Data().Clone()
		if perms == nil {
			perms = model.DefaultPermissions()
		}
		held := caller.Permissions.Data()
		for action, granted := range patch.Permissions {
			if !isMemberAction(action) {
				return nil, core.Invalid("unknown permission %q", action)
			}
			// ordinary members hand out only what they hold themselves
			if granted && caller.Role == model.RoleMember && !held[action] {
				return nil, fmt.Errorf("grant %s: %w", action, core.ErrPermissionDenied)
			}
			perms[action] = granted
		}
		m.Permissions = datatypes.NewJSONType(perms)
	}
	var statusEvent event.Event
	if patch.Status != nil {
		switch *patch.Status {
		case model.MemberStatusActive, model.MemberStatusDisabled:
		default:
			return nil, core.Invalid("unknown member status %d", *patch.Status)
		}
		switch {
		case m.Status == model.MemberStatusActive && *patch.Status == model.MemberStatusDisabled:
			statusEvent = events.MembershipRevoked{OrgId: orgId, ActorId: target}
		case m.Status == model.MemberStatusDisabled && *patch.Status == model.MemberStatusActive:
			statusEvent = events.MembershipGranted{OrgId: orgId, ActorId: target}
		}
		m.Status = *patch.Status
	}

	if err := s.memberRepo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update member %s: %w", target, err)
	}
	if statusEvent != nil {
		s.publish(ctx, statusEvent)
	}
	return m, nil
}

func isMemberAction(a model.Action) bool {
	for _, known := range model.MemberActions {
		if a == known {
			return true
		}
	}
	return false
}

// RemoveMember deletes target's membership. The owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actorId, orgId, target string) error {
	caller, err := s.membership(ctx, actorId, orgId, model.CanManageMembers)
	if err != nil {
		return err
	}
	m, err := s.memberRepo.Get(ctx, orgId, target)
	if err != nil {
		return fmt.Errorf("member %s: %w", target, err)
	}
	if err := outranks(caller, m); err != nil {
		return err
	}
	return s.remove(ctx, orgId, target)
}

// outranks enforces the member hierarchy for changes made by caller: the
// owner is never a target, nobody changes their own membership this way and
// only the owner manages admins.
func outranks(caller, target *model.OrganizationMember) error {
	switch {
	case target.Role == model.RoleOwner:
		return core.ErrOwnerProtected
	case caller.ActorId == target.ActorId:
		return fmt.Errorf("change own membership: %w", core.ErrPermissionDenied)
	case target.Role == model.RoleAdmin && caller.Role != model.RoleOwner:
		return fmt.Errorf("manage admin %s: %w", target.ActorId, core.ErrPermissionDenied)
	}
	return nil
}

// Leave removes actorId from orgId. Owners cannot leave.
func (s *Service) Leave(ctx context.Context, actorId, orgId string) error {
	return s.remove(ctx, orgId, actorId)
}

func (s *Service) remove(ctx context.Context, orgId, target string) error {
	m, err := s.memberRepo.Get(ctx, orgId, target)
	if err != nil {
		return fmt.Errorf("member %s: %w", target, err)
	}
	if m.Role == model.RoleOwner {
		return core.ErrOwnerProtected
	}
	if err := s.memberRepo.Delete(ctx, orgId, target); err != nil {
		return fmt.Errorf("remove member %s: %w", target, err)
	}
	log.WithContext(ctx).Infow("member removed", "orgId", orgId, "actorId", target)
	s.publish(ctx, events.MembershipRevoked{OrgId: orgId, ActorId: target})
	return nil
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		log.WithContext(ctx).Warnw("event handlers failed", "event", e.EventName(), "error", err)
	}
}

// Stats counts members, vehicles and horses. Counting is best effort: a
// failed counter is logged and reported as zero.
func (s *Service) Stats(ctx context.Context, actorId, orgId string) (*model.OrganizationStats, error) {
	if _, err := s.membership(ctx, actorId, orgId, ""); err != nil {
		return nil, err
	}
	owner := model.Owner{OwnerType: model.OwnerOrganization, OwnerId: orgId}
	stats := &model.OrganizationStats{}

	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				log.WithContext(ctx).Warnw("organization stats counter failed", "orgId", orgId, "counter", name, "error", err)
				return nil
			}
			*dst = n
			return nil
		})
	}
	count("members", &stats.Members, func(c context.Context) (int64, error) { return s.memberRepo.Count(c, orgId) })
	count("vehicles", &stats.Vehicles, func(c context.Context) (int64, error) { return s.vehicleRepo.Count(c, owner) })
	count("horses", &stats.Horses, func(c context.Context) (int64, error) { return s.horseRepo.Count(c, owner) })
	_ = g.Wait()
	return stats, nil
}
