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

// Package permission decides what an actor may do in its active context.
package permission

import (
	"github.com/go-arcade/equiroute/internal/engine/model"
)

// CanPerform reports whether member may perform action in the active context.
//
// Private mode is always allowed. Organization mode requires an active
// membership of the active organization; owners and admins may do anything,
// members only what their permission set grants explicitly.
func CanPerform(active model.ActiveContext, member *model.OrganizationMember, action model.Action) bool {
	if active.IsPrivate() {
		return true
	}
	if member == nil || member.OrgId != active.OrgId || !member.IsActive() {
		return false
	}
	switch member.Role {
	case model.RoleOwner, model.RoleAdmin:
		return true
	case model.RoleMember:
		return member.Permissions.Data()[action]
	default:
		return false
	}
}

// Kind is something a member can create.
type Kind string

const (
	KindVehicle   Kind = "vehicle"
	KindHorse     Kind = "horse"
	KindTransport Kind = "transport"
)

var kindActions = map[Kind]model.Action{
	KindVehicle:   model.CanManageVehicles,
	KindHorse:     model.CanManageHorses,
	KindTransport: model.CanManageTours,
}

// CanCreate combines CanPerform with the organization settings: an ordinary
// member may create kind when either the explicit permission or the
// organization wide gate allows it.
func CanCreate(active model.ActiveContext, member *model.OrganizationMember, settings model.OrganizationSettings, kind Kind) bool {
	action, ok := kindActions[kind]
	if !ok {
		return false
	}
	if CanPerform(active, member, action) {
		return true
	}
	if member == nil || member.OrgId != active.OrgId || !member.IsActive() {
		return false
	}
	switch kind {
	case KindVehicle:
		return settings.MembersCanCreateVehicles
	case KindHorse:
		return settings.MembersCanCreateHorses
	case KindTransport:
		return settings.MembersCanCreateTransports
	}
	return false
}

// ManageAction returns the action guarding changes to documents of an entity type.
func ManageAction(entityType model.EntityType) (model.Action, bool) {
	switch entityType {
	case model.EntityVehicle:
		return model.CanManageVehicles, true
	case model.EntityHorse:
		return model.CanManageHorses, true
	case model.EntityOrganization:
		return model.CanManageOrganization, true
	}
	return "", false
}
