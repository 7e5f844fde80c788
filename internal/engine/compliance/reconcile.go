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

package compliance

import (
	"github.com/go-arcade/equiroute/internal/engine/model"
)

// CertificatesByEntity holds the certificates of each entity, most recent first.
type CertificatesByEntity map[model.EntityRef][]model.Certificate

// Reconciler derives the auto confirmations of a requirement set.
type Reconciler struct {
	matcher Matcher
}

func NewReconciler(m Matcher) *Reconciler {
	if m == nil {
		m = DefaultMatcher{}
	}
	return &Reconciler{matcher: m}
}

// Reconcile returns the confirmation state for set. A requirement is
// auto-confirmed when the implicated entity carries a matching certificate:
// horse requirements need a match on every listed horse, vehicle ones on the
// vehicle, the rest on the organization. Auto confirmations replace manual
// ones; manual ids unknown to set are dropped.
func (r *Reconciler) Reconcile(set *RequirementSet, entities Entities, certs CertificatesByEntity, manual []string) Confirmation {
	auto := make(map[string]string)
	known := make(map[string]struct{})
	for _, req := range set.All() {
		known[req.Id] = struct{}{}
		if certId, ok := r.match(req, entities, certs); ok {
			auto[req.Id] = certId
		}
	}

	var kept []string
	for _, id := range manual {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, ok := auto[id]; ok {
			continue
		}
		kept = append(kept, id)
	}
	return NewConfirmation(kept, auto)
}

func (r *Reconciler) match(req Requirement, entities Entities, certs CertificatesByEntity) (string, bool) {
	switch req.Scope {
	case ScopeHorse:
		if len(entities.HorseIds) == 0 {
			return "", false
		}
		var first string
		for _, h := range entities.HorseIds {
			id, ok := r.first(req, certs[model.EntityRef{Type: model.EntityHorse, Id: h}])
			if !ok {
				return "", false
			}
			if first == "" {
				first = id
			}
		}
		return first, true
	case ScopeVehicle:
		if entities.VehicleId == "" {
			return "", false
		}
		return r.first(req, certs[model.EntityRef{Type: model.EntityVehicle, Id: entities.VehicleId}])
	default:
		if entities.OrgId == "" {
			return "", false
		}
		return r.first(req, certs[model.EntityRef{Type: model.EntityOrganization, Id: entities.OrgId}])
	}
}

func (r *Reconciler) first(req Requirement, list []model.Certificate) (string, bool) {
	for _, c := range list {
		if r.matcher.Match(req, c) {
			return c.CertificateId, true
		}
	}
	return "", false
}
