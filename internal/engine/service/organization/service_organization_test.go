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

package organization

import (
	"context"
	"strings"
	"testing"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *repo.Repositories, *event.EventBus) {
	t.Helper()
	repos := memory.NewRepositories()
	bus := event.NewEventBus()
	return NewService(Config{}, repos, bus), repos, bus
}

func ptr[T any](v T) *T { return &v }

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	org, err := svc.Create(ctx, "a1", CreateRequest{Name: " Nordic Horses "})
	require.NoError(t, err)
	assert.Equal(t, "Nordic Horses", org.Name)
	assert.Len(t, org.JoinCode, 6)
	assert.Equal(t, strings.ToUpper(org.JoinCode), org.JoinCode)
	require.NotNil(t, org.MemberInfo)
	assert.Equal(t, model.RoleOwner, org.MemberInfo.Role)

	joined, err := svc.Join(ctx, "a2", strings.ToLower(org.JoinCode))
	require.NoError(t, err)
	assert.Equal(t, org.OrgId, joined.OrgId)
	assert.Equal(t, model.RoleMember, joined.MemberInfo.Role)
	assert.Equal(t, model.MemberStatusActive, joined.MemberInfo.Status)
	for _, a := range model.MemberActions {
		assert.False(t, joined.MemberInfo.Permissions[a], a)
	}

	_, err = svc.Join(ctx, "a2", org.JoinCode)
	assert.ErrorIs(t, err, core.ErrDuplicateMembership)

	members, err := svc.ListMembers(ctx, "a2", org.OrgId)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	list, err := svc.List(ctx, "a2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Nordic Horses", list[0].Name)
}

func TestJoin_BadCodes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Join(ctx, "a2", "abc")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = svc.Join(ctx, "a2", "ABC-12")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = svc.Join(ctx, "a2", "ZZZZZZ")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "a1", CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestJoinCodeCollisions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	svc.newJoinCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}
	first, err := svc.Create(ctx, "a1", CreateRequest{Name: "First"})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.JoinCode)

	second, err := svc.Create(ctx, "a1", CreateRequest{Name: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.JoinCode)

	svc.conf.JoinCodeAttempts = 2
	svc.newJoinCode = func() string { return "AAAAAA" }
	_, err = svc.Create(ctx, "a1", CreateRequest{Name: "Third"})
	assert.ErrorIs(t, err, ErrJoinCodeExhausted)

	_, err = svc.RegenerateJoinCode(ctx, "a1", second.OrgId)
	assert.ErrorIs(t, err, ErrJoinCodeExhausted)

	svc.newJoinCode = func() string { return "CCCCCC" }
	code, err := svc.RegenerateJoinCode(ctx, "a1", second.OrgId)
	require.NoError(t, err)
	assert.Equal(t, "CCCCCC", code)

	_, err = svc.Join(ctx, "a2", "BBBBBB")
	assert.ErrorIs(t, err, core.ErrNotFound, "old code stops working")
	_, err = svc.Join(ctx, "a2", "cccccc")
	assert.NoError(t, err)
}

func TestUpdateAndSettings(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	org, err := svc.Create(ctx, "a1", CreateRequest{Name: "Nordic Horses"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, "a2", org.JoinCode)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "a2", org.OrgId, UpdateRequest{Name: ptr("Mine now")})
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
	_, err = svc.Update(ctx, "a3", org.OrgId, UpdateRequest{Name: ptr("Mine now")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Update(ctx, "a1", org.OrgId, UpdateRequest{Name: ptr(" ")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	updated, err := svc.Update(ctx, "a1", org.OrgId, UpdateRequest{Description: ptr("Stable in Aarhus")})
	require.NoError(t, err)
	assert.Equal(t, "Nordic Horses", updated.Name)
	assert.Equal(t, "Stable in Aarhus", updated.Description)

	_, err = svc.UpdateSettings(ctx, "a1", org.OrgId, model.OrganizationSettings{MembersCanCreateHorses: true})
	require.NoError(t, err)
	got, err := svc.Get(ctx, "a2", org.OrgId)
	require.NoError(t, err)
	assert.True(t, got.Settings.Data().MembersCanCreateHorses)
	assert.Equal(t, model.RoleMember, got.MemberInfo.Role)
}

func TestUpdateMember(t *testing.T) {
	ctx := context.Background()
	svc, _, bus := newTestService(t)
	var revoked []events.MembershipRevoked
	bus.RegisterHandler(events.MembershipRevokedName, event.HandlerFunc(func(_ context.Context, e event.Event) error {
		revoked = append(revoked, e.(events.MembershipRevoked))
		return nil
	}))

	org, err := svc.Create(ctx, "owner", CreateRequest{Name: "Nordic Horses"})
	require.NoError(t, err)
	for _, a := range []string{"a2", "a3"} {
		_, err = svc.Join(ctx, a, org.JoinCode)
		require.NoError(t, err)
	}

	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a3", MemberPatch{Permissions: model.PermissionSet{model.CanManageHorses: true}})
	assert.ErrorIs(t, err, core.ErrPermissionDenied)

	m, err := svc.UpdateMember(ctx, "owner", org.OrgId, "a2", MemberPatch{Permissions: model.PermissionSet{model.CanManageMembers: true, model.CanManageTours: true}})
	require.NoError(t, err)
	assert.True(t, m.Permissions.Data()[model.CanManageMembers])
	assert.False(t, m.Permissions.Data()[model.CanManageHorses])

	// a2 manages members now, but only owners and admins change roles
	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a3", MemberPatch{Role: ptr(model.RoleAdmin)})
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a3", MemberPatch{Permissions: model.PermissionSet{model.CanManageTours: true}})
	assert.NoError(t, err)
	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a3", MemberPatch{Permissions: model.PermissionSet{model.CanManageHorses: true}})
	assert.ErrorIs(t, err, core.ErrPermissionDenied, "a2 does not hold canManageHorses")
	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a2", MemberPatch{Permissions: model.PermissionSet{model.CanManageHorses: true}})
	assert.ErrorIs(t, err, core.ErrPermissionDenied, "no changes to the own membership")

	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "owner", MemberPatch{Permissions: model.PermissionSet{model.CanManageTours: false}})
	assert.ErrorIs(t, err, core.ErrOwnerProtected)
	_, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a3", MemberPatch{Role: ptr(model.RoleOwner)})
	assert.ErrorIs(t, err, core.ErrOwnerProtected)
	_, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a3", MemberPatch{Role: ptr(model.Role("root"))})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a3", MemberPatch{Permissions: model.PermissionSet{"canFly": true}})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	m, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a3", MemberPatch{Role: ptr(model.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, m.Role)

	// only the owner manages admins
	_, err = svc.UpdateMember(ctx, "a2", org.OrgId, "a3", MemberPatch{Permissions: model.PermissionSet{model.CanManageTours: false}})
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
	assert.ErrorIs(t, svc.RemoveMember(ctx, "a2", org.OrgId, "a3"), core.ErrPermissionDenied)

	_, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a3", MemberPatch{Status: ptr(model.MemberStatusDisabled)})
	require.NoError(t, err)
	assert.Equal(t, []events.MembershipRevoked{{OrgId: org.OrgId, ActorId: "a3"}}, revoked)

	_, err = svc.Get(ctx, "a3", org.OrgId)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
}

func TestRemoveAndLeave(t *testing.T) {
	ctx := context.Background()
	svc, _, bus := newTestService(t)
	var revoked int
	bus.RegisterHandler(events.MembershipRevokedName, event.HandlerFunc(func(context.Context, event.Event) error {
		revoked++
		return nil
	}))

	org, err := svc.Create(ctx, "owner", CreateRequest{Name: "Nordic Horses"})
	require.NoError(t, err)
	for _, a := range []string{"a2", "a3"} {
		_, err = svc.Join(ctx, a, org.JoinCode)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, svc.RemoveMember(ctx, "a2", org.OrgId, "a3"), core.ErrPermissionDenied)
	assert.ErrorIs(t, svc.RemoveMember(ctx, "owner", org.OrgId, "owner"), core.ErrOwnerProtected)
	assert.ErrorIs(t, svc.Leave(ctx, "owner", org.OrgId), core.ErrOwnerProtected)
	assert.ErrorIs(t, svc.RemoveMember(ctx, "owner", org.OrgId, "ghost"), core.ErrNotFound)

	_, err = svc.UpdateMember(ctx, "owner", org.OrgId, "a2", MemberPatch{Permissions: model.PermissionSet{model.CanManageMembers: true}})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.RemoveMember(ctx, "a2", org.OrgId, "a2"), core.ErrPermissionDenied, "leave instead")

	require.NoError(t, svc.RemoveMember(ctx, "owner", org.OrgId, "a3"))
	require.NoError(t, svc.Leave(ctx, "a2", org.OrgId))
	assert.Equal(t, 2, revoked)

	members, err := svc.ListMembers(ctx, "owner", org.OrgId)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, model.RoleOwner, members[0].Role)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, repos, _ := newTestService(t)
	org, err := svc.Create(ctx, "owner", CreateRequest{Name: "Nordic Horses"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, "a2", org.JoinCode)
	require.NoError(t, err)

	owner := model.Owner{OwnerType: model.OwnerOrganization, OwnerId: org.OrgId}
	require.NoError(t, repos.Vehicle.Create(ctx, &model.Vehicle{VehicleId: "v1", Owner: owner}))
	for _, h := range []string{"h1", "h2", "h3"} {
		require.NoError(t, repos.Horse.Create(ctx, &model.Horse{HorseId: h, Owner: owner}))
	}
	require.NoError(t, repos.Horse.Create(ctx, &model.Horse{HorseId: "private", Owner: model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a2"}}))

	stats, err := svc.Stats(ctx, "a2", org.OrgId)
	require.NoError(t, err)
	assert.Equal(t, model.OrganizationStats{Members: 2, Vehicles: 1, Horses: 3}, *stats)

	_, err = svc.Stats(ctx, "stranger", org.OrgId)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
