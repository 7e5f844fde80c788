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
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"sigs.k8s.io/yaml"
)

//go:embed rules.yaml
var defaultRules []byte

// Config selects the rules catalog.
type Config struct {
	// RulesFile replaces the embedded catalog when set.
	RulesFile string `mapstructure:"rulesFile"`
}

// ruleEnv is the environment rule conditions are evaluated against.
type ruleEnv struct {
	DistanceKm    float64  `expr:"distanceKm"`
	DurationHours float64  `expr:"durationHours"`
	CrossesBorder bool     `expr:"crossesBorder"`
	Countries     []string `expr:"countries"`
	HorseCount    int      `expr:"horseCount"`
	HasVehicle    bool     `expr:"hasVehicle"`
}

func newRuleEnv(route Route, entities Entities) ruleEnv {
	return ruleEnv{
		DistanceKm:    route.DistanceKm,
		DurationHours: route.DurationHours,
		CrossesBorder: route.CrossesBorder(),
		Countries:     route.NormalizedCountries(),
		HorseCount:    len(entities.HorseIds),
		HasVehicle:    entities.VehicleId != "",
	}
}

type ruleSpec struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Scope       Scope    `json:"scope"`
	Required    bool     `json:"required"`
	Aliases     []string `json:"aliases"`
	When        string   `json:"when"`
}

type warningSpec struct {
	Id       string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	When     string   `json:"when"`
}

type countrySpec struct {
	Documents []ruleSpec    `json:"documents"`
	Warnings  []warningSpec `json:"warnings"`
}

type catalogSpec struct {
	Requirements []ruleSpec             `json:"requirements"`
	Countries    map[string]countrySpec `json:"countries"`
	Warnings     []warningSpec          `json:"warnings"`
}

type rule struct {
	Requirement
	cond *vm.Program
}

type warningRule struct {
	Warning
	cond *vm.Program
}

type countryRules struct {
	documents []Requirement
	warnings  []Warning
}

// Catalog is a compiled set of rules.
type Catalog struct {
	rules     []rule
	countries map[string]countryRules
	warnings  []warningRule
}

// LoadCatalog reads conf.RulesFile, or the embedded catalog when unset.
func LoadCatalog(conf Config) (*Catalog, error) {
	data := defaultRules
	if conf.RulesFile != "" {
		b, err := os.ReadFile(conf.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("read rules file: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog compiles a YAML rules document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var spec catalogSpec
	if err := yaml.UnmarshalStrict(data, &spec); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	c := &Catalog{countries: make(map[string]countryRules, len(spec.Countries))}
	for _, r := range spec.Requirements {
		if err := validateRule(r); err != nil {
			return nil, err
		}
		switch r.Category {
		case CategoryBase, CategoryDistance, CategoryBorder:
		default:
			return nil, fmt.Errorf("requirement %s: unsupported category %q", r.Id, r.Category)
		}
		prog, err := compileCondition(r.When)
		if err != nil {
			return nil, fmt.Errorf("requirement %s: %w", r.Id, err)
		}
		c.rules = append(c.rules, rule{Requirement: r.requirement(""), cond: prog})
	}

	for code, cs := range spec.Countries {
		code = strings.ToUpper(code)
		var cr countryRules
		for _, d := range cs.Documents {
			if err := validateRule(d); err != nil {
				return nil, err
			}
			if d.When != "" {
				return nil, fmt.Errorf("country %s document %s: conditions are not supported", code, d.Id)
			}
			d.Category = CategoryCountry
			cr.documents = append(cr.documents, d.requirement(code))
		}
		for _, w := range cs.Warnings {
			if err := validateWarning(w); err != nil {
				return nil, err
			}
			cr.warnings = append(cr.warnings, Warning{Id: w.Id, Message: w.Message, Severity: w.Severity, Country: code})
		}
		c.countries[code] = cr
	}

	for _, w := range spec.Warnings {
		if err := validateWarning(w); err != nil {
			return nil, err
		}
		prog, err := compileCondition(w.When)
		if err != nil {
			return nil, fmt.Errorf("warning %s: %w", w.Id, err)
		}
		c.warnings = append(c.warnings, warningRule{
			Warning: Warning{Id: w.Id, Message: w.Message, Severity: w.Severity},
			cond:    prog,
		})
	}
	return c, nil
}

func (r ruleSpec) requirement(country string) Requirement {
	return Requirement{
		Id:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Scope:       r.Scope,
		Required:    r.Required,
		Aliases:     r.Aliases,
		Country:     country,
	}
}

func validateRule(r ruleSpec) error {
	if r.Id == "" || r.Name == "" {
		return fmt.Errorf("requirement without id or name: %+v", r)
	}
	switch r.Scope {
	case ScopeHorse, ScopeVehicle, ScopeOrganization:
		return nil
	}
	return fmt.Errorf("requirement %s: unsupported scope %q", r.Id, r.Scope)
}

func validateWarning(w warningSpec) error {
	if w.Id == "" || w.Message == "" {
		return fmt.Errorf("warning without id or message: %+v", w)
	}
	switch w.Severity {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return nil
	}
	return fmt.Errorf("warning %s: unsupported severity %q", w.Id, w.Severity)
}

func compileCondition(when string) (*vm.Program, error) {
	if strings.TrimSpace(when) == "" {
		return nil, nil
	}
	prog, err := expr.Compile(when, expr.Env(ruleEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", when, err)
	}
	return prog, nil
}

func matches(prog *vm.Program, env ruleEnv) (bool, error) {
	if prog == nil {
		return true, nil
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}
