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

import "time"

type EntityType string

const (
	EntityOrganization EntityType = "organization"
	EntityVehicle      EntityType = "vehicle"
	EntityHorse        EntityType = "horse"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityOrganization, EntityVehicle, EntityHorse:
		return true
	}
	return false
}

// EntityRef points at a vehicle, horse or organization.
type EntityRef struct {
	Type EntityType `json:"type"`
	Id   string     `json:"id"`
}

// Certificate is a document attached to an entity.
type Certificate struct {
	BaseModel
	CertificateId   string     `gorm:"column:certificate_id;size:64;uniqueIndex" json:"certificateId"`
	EntityType      EntityType `gorm:"column:entity_type;size:16;index:idx_entity" json:"entityType"`
	EntityId        string     `gorm:"column:entity_id;size:64;index:idx_entity" json:"entityId"`
	FileName        string     `gorm:"column:file_name" json:"fileName"`
	DisplayName     string     `gorm:"column:display_name" json:"displayName"`
	ContentType     string     `gorm:"column:content_type" json:"contentType"`
	Size            int64      `gorm:"column:size" json:"size"`
	ObjectKey       string     `gorm:"column:object_key" json:"-"`
	Url             string     `gorm:"column:url;type:text" json:"url"`
	CertificateType string     `gorm:"column:certificate_type" json:"certificateType"`
	Notes           string     `gorm:"column:notes;type:text" json:"notes"`
	UploadedBy      string     `gorm:"column:uploaded_by" json:"uploadedBy"`
	UploadedAt      time.Time  `gorm:"column:uploaded_at;index" json:"uploadedAt"`
}

func (Certificate) TableName() string {
	return "t_certificate"
}

func (c *Certificate) Entity() EntityRef {
	return EntityRef{Type: c.EntityType, Id: c.EntityId}
}
