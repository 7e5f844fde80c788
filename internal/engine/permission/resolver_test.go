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

package permission

import (
	"math/rand"
	"testing"

	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func member(orgId string, role model.Role, perms model.PermissionSet) *model.OrganizationMember {
	return &model.OrganizationMember{
		OrgId:       orgId,
		ActorId:     "a1",
		Role:        role,
		Status:      model.MemberStatusActive,
		Permissions: datatypes.NewJSONType(perms),
	}
}

func randomAction(r *rand.Rand) model.Action {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	b := make([]byte, 1+r.Intn(24))
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return model.Action(b)
}

func TestCanPerform_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	org := model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"}
	private := model.PrivateContext("a1")

	for i := 0; i < 500; i++ {
		action := randomAction(r)
		assert.True(t, CanPerform(private, nil, action), "private allows %s", action)
		assert.False(t, CanPerform(org, nil, action), "no membership denies %s", action)
		assert.True(t, CanPerform(org, member("o1", model.RoleOwner, nil), action))
		assert.True(t, CanPerform(org, member("o1", model.RoleAdmin, nil), action))
		assert.False(t, CanPerform(org, member("o1", model.RoleMember, model.DefaultPermissions()), action))
		assert.True(t, CanPerform(org, member("o1", model.RoleMember, model.PermissionSet{action: true}), action))
	}
}

func TestCanPerform(t *testing.T) {
	org := model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"}
	disabled := member("o1", model.RoleAdmin, nil)
	disabled.Status = model.MemberStatusDisabled

	tests := []struct {
		name   string
		member *model.OrganizationMember
		action model.Action
		want   bool
	}{
		{"member with grant", member("o1", model.RoleMember, model.PermissionSet{model.CanManageHorses: true}), model.CanManageHorses, true},
		{"member without grant", member("o1", model.RoleMember, model.PermissionSet{model.CanManageHorses: true}), model.CanManageVehicles, false},
		{"member explicit false", member("o1", model.RoleMember, model.PermissionSet{model.CanManageTours: false}), model.CanManageTours, false},
		{"member default set cannot manage organization", member("o1", model.RoleMember, model.DefaultPermissions()), model.CanManageOrganization, false},
		{"member gets the stored value for any action", member("o1", model.RoleMember, model.PermissionSet{"canSweepStables": true}), model.Action("canSweepStables"), true},
		{"admin manages organization", member("o1", model.RoleAdmin, nil), model.CanManageOrganization, true},
		{"membership of other org", member("o2", model.RoleOwner, nil), model.CanManageHorses, false},
		{"disabled membership", disabled, model.CanManageHorses, false},
		{"unknown role", member("o1", model.Role("guest"), model.PermissionSet{model.CanManageHorses: true}), model.CanManageHorses, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(org, tt.member, tt.action))
		})
	}
}

func TestCanCreate(t *testing.T) {
	org := model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"}
	plain := member("o1", model.RoleMember, model.DefaultPermissions())

	assert.False(t, CanCreate(org, plain, model.OrganizationSettings{}, KindHorse))
	assert.True(t, CanCreate(org, plain, model.OrganizationSettings{MembersCanCreateHorses: true}, KindHorse))
	assert.False(t, CanCreate(org, plain, model.OrganizationSettings{MembersCanCreateHorses: true}, KindVehicle))
	assert.True(t, CanCreate(org, member("o1", model.RoleMember, model.PermissionSet{model.CanManageTours: true}), model.OrganizationSettings{}, KindTransport))
	assert.False(t, CanCreate(org, nil, model.OrganizationSettings{MembersCanCreateVehicles: true}, KindVehicle))
	assert.True(t, CanCreate(model.PrivateContext("a1"), nil, model.OrganizationSettings{}, KindVehicle))
	assert.False(t, CanCreate(org, plain, model.OrganizationSettings{}, Kind("boat")))
}

func TestScope(t *testing.T) {
	private := PrivateScope("a1")
	assert.Equal(t, "a1", private.ActorId())
	assert.Equal(t, model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a1"}, private.Owner())
	assert.True(t, private.Can(model.CanManageOrganization))
	assert.True(t, private.Sees(model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a1"}))
	assert.False(t, private.Sees(model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a2"}))

	org := Scope{
		Active: model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"},
		Member: member("o1", model.RoleMember, model.PermissionSet{model.CanManageHorses: true}),
	}
	assert.True(t, org.Can(model.CanManageHorses))
	assert.False(t, org.Can(model.CanManageVehicles))
	assert.True(t, org.Sees(model.Owner{OwnerType: model.OwnerOrganization, OwnerId: "o1"}))
	assert.False(t, org.Sees(model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a1"}))
}
