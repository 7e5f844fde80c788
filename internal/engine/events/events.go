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

// Package events declares the domain events published on the event bus.
package events

import (
	"github.com/go-arcade/equiroute/internal/engine/model"
)

const (
	CertificateDeletedName = "certificate.deleted"
	MembershipGrantedName  = "organization.membership_granted"
	MembershipRevokedName  = "organization.membership_revoked"
	PhaseChangedName       = "traces.phase"
)

// CertificateDeleted is published after a certificate and its blob are gone.
type CertificateDeleted struct {
	Certificate model.Certificate
}

func (CertificateDeleted) EventName() string { return CertificateDeletedName }

// MembershipGranted is published when an actor creates or joins an organization.
type MembershipGranted struct {
	OrgId   string
	ActorId string
}

func (MembershipGranted) EventName() string { return MembershipGrantedName }

// MembershipRevoked is published when an actor loses access to an
// organization: removed, left, or disabled.
type MembershipRevoked struct {
	OrgId   string
	ActorId string
}

func (MembershipRevoked) EventName() string { return MembershipRevokedName }

// PhaseChanged is published on every TRACES phase transition.
type PhaseChanged struct {
	TransportId string
	From        model.Phase
	To          model.Phase
}

func (PhaseChanged) EventName() string { return PhaseChangedName }
