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
	"maps"
	"slices"
	"sort"
)

// Confirmation is the manual and automatic confirmation state of a checklist.
// The two sets are disjoint.
type Confirmation struct {
	Manual []string          `json:"manual"`
	Auto   map[string]string `json:"auto"` // requirement id -> certificate id
}

// NewConfirmation normalizes manual (sorted, unique, without auto ids).
func NewConfirmation(manual []string, auto map[string]string) Confirmation {
	if auto == nil {
		auto = map[string]string{}
	}
	set := make(map[string]struct{}, len(manual))
	for _, id := range manual {
		if _, isAuto := auto[id]; !isAuto && id != "" {
			set[id] = struct{}{}
		}
	}
	out := slices.Collect(maps.Keys(set))
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return Confirmation{Manual: out, Auto: auto}
}

func (c Confirmation) IsAuto(id string) bool {
	_, ok := c.Auto[id]
	return ok
}

func (c Confirmation) IsManual(id string) bool {
	_, ok := slices.BinarySearch(c.Manual, id)
	return ok
}

func (c Confirmation) IsConfirmed(id string) bool {
	return c.IsAuto(id) || c.IsManual(id)
}

// Toggle flips the manual confirmation of id. Auto-confirmed ids are left
// alone and Toggle returns false.
func (c *Confirmation) Toggle(id string) bool {
	if c.IsAuto(id) {
		return false
	}
	i, found := slices.BinarySearch(c.Manual, id)
	if found {
		c.Manual = slices.Delete(c.Manual, i, i+1)
	} else {
		c.Manual = slices.Insert(c.Manual, i, id)
	}
	return true
}

// Progress counts confirmed required documents.
type Progress struct {
	Confirmed int `json:"confirmed"`
	Required  int `json:"required"`
}

func (p Progress) IsFullyCompliant() bool {
	return p.Confirmed >= p.Required
}

// ProgressOf computes progress live from set and c.
func ProgressOf(set *RequirementSet, c Confirmation) Progress {
	var p Progress
	for _, r := range set.All() {
		if !r.Required {
			continue
		}
		p.Required++
		if c.IsConfirmed(r.Id) {
			p.Confirmed++
		}
	}
	return p
}

// IsFullyCompliant reports whether every required document is confirmed.
func IsFullyCompliant(set *RequirementSet, c Confirmation) bool {
	return ProgressOf(set, c).IsFullyCompliant()
}

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// SortWarnings returns a copy ordered critical, warning, info. The order
// within a severity is kept.
func SortWarnings(ws []Warning) []Warning {
	out := slices.Clone(ws)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Severity) < rank(out[j].Severity)
	})
	return out
}

func rank(s Severity) int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}
