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

type TransportStatus string

const (
	TransportDraft   TransportStatus = "draft"
	TransportPlanned TransportStatus = "planned"
)

// Transport is a planned movement of horses and its confirmation state.
type Transport struct {
	BaseModel
	TransportId string `gorm:"column:transport_id;size:64;uniqueIndex" json:"transportId"`
	Owner
	VehicleId     string          `gorm:"column:vehicle_id;index" json:"vehicleId"`
	HorseIds      StringList      `gorm:"column:horse_ids;type:json" json:"horseIds"`
	Countries     StringList      `gorm:"column:countries;type:json" json:"countries"` // ISO 3166 alpha-2, route order
	Origin        string          `gorm:"column:origin" json:"origin"`
	Destination   string          `gorm:"column:destination" json:"destination"`
	DistanceKm    float64         `gorm:"column:distance_km" json:"distanceKm"`
	DurationHours float64         `gorm:"column:duration_hours" json:"durationHours"`
	DepartureAt   time.Time       `gorm:"column:departure_at" json:"departureAt"`
	Status        TransportStatus `gorm:"column:status;size:16" json:"status"`

	ManualConfirmations StringList                             `gorm:"column:manual_confirmations;type:json" json:"manualConfirmations"`
	AutoConfirmations   datatypes.JSONType[map[string]string] `gorm:"column:auto_confirmations;type:json" json:"autoConfirmations"` // requirement id -> certificate id
}

func (Transport) TableName() string {
	return "t_transport"
}

// Entities returns the vehicle, horses and organization a transport refers to.
func (t *Transport) Entities() []EntityRef {
	refs := make([]EntityRef, 0, len(t.HorseIds)+2)
	if t.VehicleId != "" {
		refs = append(refs, EntityRef{Type: EntityVehicle, Id: t.VehicleId})
	}
	for _, h := range t.HorseIds {
		refs = append(refs, EntityRef{Type: EntityHorse, Id: h})
	}
	if t.OwnerType == OwnerOrganization {
		refs = append(refs, EntityRef{Type: EntityOrganization, Id: t.OwnerId})
	}
	return refs
}

// References reports whether the transport refers to the entity.
func (t *Transport) References(ref EntityRef) bool {
	for _, r := range t.Entities() {
		if r == ref {
			return true
		}
	}
	return false
}
