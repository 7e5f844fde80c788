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

package router

import (
	"regexp"

	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-playground/validator/v10"
)

var countryCode = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Validator checks request DTOs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return countryCode.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("joincode", func(fl validator.FieldLevel) bool {
		_, err := id.NormalizeJoinCode(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
