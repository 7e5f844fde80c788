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

// Phase is a step of the TRACES registration handshake.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseCreatingTransport Phase = "creating-transport"
	PhaseRegistering       Phase = "registering-with-authority"
	PhaseComplete          Phase = "complete"
)

// Registration tracks the TRACES handshake of one transport.
type Registration struct {
	BaseModel
	TransportId     string     `gorm:"column:transport_id;size:64;uniqueIndex" json:"transportId"`
	Phase           Phase      `gorm:"column:phase;size:32;index" json:"phase"`
	ReferenceNumber string     `gorm:"column:reference_number" json:"referenceNumber"` // immutable once set
	Countries       StringList `gorm:"column:countries;type:json" json:"countries"`
	Attempt         int        `gorm:"column:attempt" json:"attempt"`
	LastError       string     `gorm:"column:last_error;type:text" json:"lastError"`
	StartedAt       *time.Time `gorm:"column:started_at" json:"startedAt"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completedAt"`
}

func (Registration) TableName() string {
	return "t_traces_registration"
}
