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

import "gorm.io/datatypes"

// Organization groups actors that share vehicles, horses and transports.
type Organization struct {
	BaseModel
	OrgId        string                                  `gorm:"column:org_id;size:64;uniqueIndex" json:"orgId"`
	Name         string                                  `gorm:"column:name" json:"name"`
	Description  string                                  `gorm:"column:description" json:"description"`
	JoinCode     string                                  `gorm:"column:join_code;size:6;uniqueIndex" json:"joinCode"` // always stored uppercase
	OwnerActorId string                                  `gorm:"column:owner_actor_id;index" json:"ownerActorId"`
	Settings     datatypes.JSONType[OrganizationSettings] `gorm:"column:settings;type:json" json:"settings"`
	Status       int                                     `gorm:"column:status" json:"status"`
}

func (Organization) TableName() string {
	return "t_organization"
}

// OrganizationSettings gates what ordinary members may create.
type OrganizationSettings struct {
	MembersCanCreateVehicles   bool `json:"membersCanCreateVehicles"`
	MembersCanCreateHorses     bool `json:"membersCanCreateHorses"`
	MembersCanCreateTransports bool `json:"membersCanCreateTransports"`
}

const (
	OrgStatusActive   = 1
	OrgStatusArchived = 2
)

// OrganizationView is an organization with the caller's own membership merged in.
type OrganizationView struct {
	Organization
	MemberInfo *MemberInfo `json:"memberInfo,omitempty"`
}

// MemberInfo is the caller's membership as seen from an OrganizationView.
type MemberInfo struct {
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Status      int           `json:"status"`
}

// OrganizationStats are optional usage counters.
type OrganizationStats struct {
	Members  int64 `json:"members"`
	Vehicles int64 `json:"vehicles"`
	Horses   int64 `json:"horses"`
}
