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
	"slices"
	"strings"
	"unicode"

	"github.com/go-arcade/equiroute/internal/engine/model"
)

// Matcher decides whether a certificate satisfies a requirement.
type Matcher interface {
	Match(req Requirement, cert model.Certificate) bool
}

// DefaultMatcher compares the certificate type and display name against the
// requirement name and aliases, case-insensitively and word by word. A
// candidate matches when one of them appears in it as a run of whole words,
// so "sire" matches "SIRE registration" but not "desired".
type DefaultMatcher struct{}

func (DefaultMatcher) Match(req Requirement, cert model.Certificate) bool {
	needles := make([][]string, 0, 1+len(req.Aliases))
	for _, n := range append([]string{req.Name}, req.Aliases...) {
		if words := tokenize(n); len(words) > 0 {
			needles = append(needles, words)
		}
	}
	for _, candidate := range []string{cert.CertificateType, cert.DisplayName} {
		words := tokenize(candidate)
		if len(words) == 0 {
			continue
		}
		for _, n := range needles {
			if containsRun(words, n) {
				return true
			}
		}
	}
	return false
}

// tokenize lowercases s and splits it on anything that is not a letter or
// a digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsRun(words, run []string) bool {
	for i := 0; i+len(run) <= len(words); i++ {
		if slices.Equal(words[i:i+len(run)], run) {
			return true
		}
	}
	return false
}
