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
	"fmt"
)

// Evaluator turns a route and its entities into a RequirementSet.
type Evaluator struct {
	catalog *Catalog
}

func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// ProvideEvaluator loads the configured catalog.
func ProvideEvaluator(conf Config) (*Evaluator, error) {
	catalog, err := LoadCatalog(conf)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(catalog), nil
}

// Evaluate computes the checklist. Requirements and warnings are
// de-duplicated by id, the first occurrence wins: base, distance and border
// rules first, then the countries in route order, each visited once.
func (e *Evaluator) Evaluate(route Route, entities Entities) (*RequirementSet, error) {
	env := newRuleEnv(route, entities)
	set := &RequirementSet{}
	seen := make(map[string]struct{})
	seenWarnings := make(map[string]struct{})

	for _, r := range e.catalog.rules {
		ok, err := matches(r.cond, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", r.Id, err)
		}
		if !ok {
			continue
		}
		if _, dup := seen[r.Id]; dup {
			continue
		}
		seen[r.Id] = struct{}{}
		switch r.Category {
		case CategoryBase:
			set.Base = append(set.Base, r.Requirement)
		case CategoryDistance:
			set.Distance = append(set.Distance, r.Requirement)
		case CategoryBorder:
			set.Border = append(set.Border, r.Requirement)
		}
	}

	visited := make(map[string]struct{})
	for _, code := range env.Countries {
		if _, ok := visited[code]; ok {
			continue
		}
		visited[code] = struct{}{}
		rules, ok := e.catalog.countries[code]
		if !ok {
			continue
		}
		bucket := CountryBucket{Country: code}
		for _, d := range rules.documents {
			if _, dup := seen[d.Id]; dup {
				continue
			}
			seen[d.Id] = struct{}{}
			bucket.Documents = append(bucket.Documents, d)
		}
		for _, w := range rules.warnings {
			if _, dup := seenWarnings[w.Id]; dup {
				continue
			}
			seenWarnings[w.Id] = struct{}{}
			bucket.Warnings = append(bucket.Warnings, w)
		}
		set.Countries = append(set.Countries, bucket)
	}

	for _, w := range e.catalog.warnings {
		ok, err := matches(w.cond, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate warning %s: %w", w.Id, err)
		}
		if !ok {
			continue
		}
		if _, dup := seenWarnings[w.Id]; dup {
			continue
		}
		seenWarnings[w.Id] = struct{}{}
		set.Warnings = append(set.Warnings, w.Warning)
	}
	return set, nil
}
