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

// Actor is a user known to the identity provider. Never deleted.
type Actor struct {
	BaseModel
	ActorId     string                          `gorm:"column:actor_id;size:64;uniqueIndex" json:"actorId"` // stable id from the token subject
	DisplayName string                          `gorm:"column:display_name" json:"displayName"`
	Profile     datatypes.JSONType[ActorProfile] `gorm:"column:profile;type:json" json:"profile"`
}

func (Actor) TableName() string {
	return "t_actor"
}

type ActorProfile struct {
	DisplayName string `json:"displayName"`
	Completed   bool   `json:"completed"`
}
