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

package model

import (
	"time"

	"gorm.io/datatypes"
)

// OrganizationMember is one row per (org, actor) pair.
type OrganizationMember struct {
	BaseModel
	OrgId       string                           `gorm:"column:org_id;size:64;uniqueIndex:uk_org_actor" json:"orgId"`
	ActorId     string                           `gorm:"column:actor_id;size:64;uniqueIndex:uk_org_actor;index" json:"actorId"`
	Role        Role                             `gorm:"column:role;size:16" json:"role"`
	Permissions datatypes.JSONType[PermissionSet] `gorm:"column:permissions;type:json" json:"permissions"`
	Status      int                              `gorm:"column:status" json:"status"`
	JoinedAt    time.Time                        `gorm:"column:joined_at" json:"joinedAt"`
	InvitedBy   string                           `gorm:"column:invited_by" json:"invitedBy"` // empty when joined by code
}

func (OrganizationMember) TableName() string {
	return "t_organization_member"
}

// IsActive reports whether the membership grants access to its organization.
func (m *OrganizationMember) IsActive() bool {
	return m != nil && m.Status == MemberStatusActive
}

// Info projects the membership into an OrganizationView.
func (m *OrganizationMember) Info() *MemberInfo {
	if m == nil {
		return nil
	}
	return &MemberInfo{
		Role:        m.Role,
		Permissions: m.Permissions.Data().Clone(),
		Status:      m.Status,
	}
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

const (
	MemberStatusActive   = 1
	MemberStatusDisabled = 2
)

// Action names a permission-sensitive operation.
type Action string

const (
	CanManageMembers  Action = "canManageMembers"
	CanManageVehicles Action = "canManageVehicles"
	CanManageHorses   Action = "canManageHorses"
	CanManageTours    Action = "canManageTours"
	// CanManageOrganization is never granted through PermissionSet; only
	// owners and admins hold it.
	CanManageOrganization Action = "canManageOrganization"
)

// MemberActions are the actions a membership may grant explicitly.
var MemberActions = []Action{CanManageMembers, CanManageVehicles, CanManageHorses, CanManageTours}

// PermissionSet maps actions to explicit grants. Missing actions are denied.
type PermissionSet map[Action]bool

// DefaultPermissions is the all-false set given to new members.
func DefaultPermissions() PermissionSet {
	ps := make(PermissionSet, len(MemberActions))
	for _, a := range MemberActions {
		ps[a] = false
	}
	return ps
}

func (p PermissionSet) Clone() PermissionSet {
	if p == nil {
		return nil
	}
	out := make(PermissionSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
