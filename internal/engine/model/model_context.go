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
	"gorm.io/datatypes"
)

type Mode string

const (
	ModePrivate      Mode = "private"
	ModeOrganization Mode = "organization"
)

func (m Mode) Valid() bool {
	return m == ModePrivate || m == ModeOrganization
}

// ContextPreference is the persisted last active context of an actor.
type ContextPreference struct {
	BaseModel
	ActorId string `gorm:"column:actor_id;size:64;uniqueIndex" json:"actorId"`
	Mode    Mode   `gorm:"column:mode;size:16" json:"mode"`
	OrgId   string `gorm:"column:org_id" json:"orgId"`
}

func (ContextPreference) TableName() string {
	return "t_context_preference"
}

// ActiveContext is the identity a request acts under.
type ActiveContext struct {
	ActorId string `json:"actorId"`
	Mode    Mode   `json:"mode"`
	OrgId   string `json:"orgId,omitempty"`
}

// PrivateContext returns the private context of actorId.
func PrivateContext(actorId string) ActiveContext {
	return ActiveContext{ActorId: actorId, Mode: ModePrivate}
}

func (a ActiveContext) IsPrivate() bool {
	return a.Mode != ModeOrganization
}

// Owner returns the owner columns for records created in this context.
func (a ActiveContext) Owner() Owner {
	if a.IsPrivate() {
		return Owner{OwnerType: OwnerPrivate, OwnerId: a.ActorId}
	}
	return Owner{OwnerType: OwnerOrganization, OwnerId: a.OrgId}
}

type OwnerType string

const (
	OwnerPrivate      OwnerType = "private"
	OwnerOrganization OwnerType = "organization"
)

// Owner is embedded by records that belong to a private or organization context.
type Owner struct {
	OwnerType OwnerType `gorm:"column:owner_type;size:16;index:idx_owner" json:"ownerType"`
	OwnerId   string    `gorm:"column:owner_id;size:64;index:idx_owner" json:"ownerId"`
}

// OwnedBy reports whether the record is visible in the active context.
func (o Owner) OwnedBy(active ActiveContext) bool {
	return o == active.Owner()
}

// StringList is a JSON encoded list column.
type StringList = datatypes.JSONSlice[string]
