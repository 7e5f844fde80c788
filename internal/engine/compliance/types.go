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

// Package compliance computes the documents a transport requires and
// reconciles them against uploaded certificates and manual confirmations.
package compliance

import (
	"strings"

	"github.com/go-arcade/equiroute/internal/engine/model"
)

type Category string

const (
	CategoryBase     Category = "base"
	CategoryDistance Category = "distance"
	CategoryBorder   Category = "border"
	CategoryCountry  Category = "country"
)

// Scope says which entity carries the evidence for a requirement.
type Scope string

const (
	ScopeHorse        Scope = "horse"
	ScopeVehicle      Scope = "vehicle"
	ScopeOrganization Scope = "organization"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Requirement is a single document obligation.
type Requirement struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Scope       Scope    `json:"scope"`
	Required    bool     `json:"required"`
	Aliases     []string `json:"aliases,omitempty"`
	Country     string   `json:"country,omitempty"`
}

type Warning struct {
	Id       string   `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Country  string   `json:"country,omitempty"`
}

// CountryBucket holds the jurisdiction specific rules of one country on the route.
type CountryBucket struct {
	Country   string        `json:"country"`
	Documents []Requirement `json:"documents"`
	Warnings  []Warning     `json:"warnings"`
}

// RequirementSet is the evaluated checklist of a transport.
type RequirementSet struct {
	Base      []Requirement   `json:"base"`
	Distance  []Requirement   `json:"distance"`
	Border    []Requirement   `json:"border"`
	Countries []CountryBucket `json:"countries"`
	Warnings  []Warning       `json:"warnings"`
}

// All returns every requirement in evaluation order.
func (s *RequirementSet) All() []Requirement {
	out := make([]Requirement, 0, len(s.Base)+len(s.Distance)+len(s.Border))
	out = append(out, s.Base...)
	out = append(out, s.Distance...)
	out = append(out, s.Border...)
	for _, c := range s.Countries {
		out = append(out, c.Documents...)
	}
	return out
}

// Find looks a requirement up by id.
func (s *RequirementSet) Find(id string) (Requirement, bool) {
	for _, r := range s.All() {
		if r.Id == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// AllWarnings returns general and country warnings.
func (s *RequirementSet) AllWarnings() []Warning {
	out := append([]Warning(nil), s.Warnings...)
	for _, c := range s.Countries {
		out = append(out, c.Warnings...)
	}
	return out
}

// Route describes where a transport goes.
type Route struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	Countries     []string `json:"countries"`
	DistanceKm    float64  `json:"distanceKm"`
	DurationHours float64  `json:"durationHours"`
}

// NormalizedCountries upper-cases the codes and drops blanks.
func (r Route) NormalizedCountries() []string {
	out := make([]string, 0, len(r.Countries))
	for _, c := range r.Countries {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CrossesBorder reports whether the route visits more than one country.
func (r Route) CrossesBorder() bool {
	countries := r.NormalizedCountries()
	for _, c := range countries[min(1, len(countries)):] {
		if c != countries[0] {
			return true
		}
	}
	return false
}

// RouteOf extracts the route of a transport.
func RouteOf(t *model.Transport) Route {
	return Route{
		Origin:        t.Origin,
		Destination:   t.Destination,
		Countries:     append([]string(nil), t.Countries...),
		DistanceKm:    t.DistanceKm,
		DurationHours: t.DurationHours,
	}
}

// Entities are the vehicle, horses and organization involved in a transport.
type Entities struct {
	VehicleId string   `json:"vehicleId"`
	HorseIds  []string `json:"horseIds"`
	OrgId     string   `json:"orgId,omitempty"`
}

// EntitiesOf extracts the entities of a transport.
func EntitiesOf(t *model.Transport) Entities {
	e := Entities{VehicleId: t.VehicleId, HorseIds: append([]string(nil), t.HorseIds...)}
	if t.OwnerType == model.OwnerOrganization {
		e.OrgId = t.OwnerId
	}
	return e
}

// Refs lists the entity references, the shape certificate lookups take.
func (e Entities) Refs() []model.EntityRef {
	refs := make([]model.EntityRef, 0, len(e.HorseIds)+2)
	if e.VehicleId != "" {
		refs = append(refs, model.EntityRef{Type: model.EntityVehicle, Id: e.VehicleId})
	}
	for _, h := range e.HorseIds {
		refs = append(refs, model.EntityRef{Type: model.EntityHorse, Id: h})
	}
	if e.OrgId != "" {
		refs = append(refs, model.EntityRef{Type: model.EntityOrganization, Id: e.OrgId})
	}
	return refs
}
