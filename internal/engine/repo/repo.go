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

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/database"
	"gorm.io/gorm"
)

// Repositories groups every repository used by the services.
type Repositories struct {
	Actor        IActorRepository
	Organization IOrganizationRepository
	Member       IMemberRepository
	Preference   IContextPreferenceRepository
	Vehicle      IVehicleRepository
	Horse        IHorseRepository
	Certificate  ICertificateRepository
	Transport    ITransportRepository
	Registration IRegistrationRepository
}

// NewRepositories builds the gorm backed repositories.
func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		Actor:        NewActorRepo(db),
		Organization: NewOrganizationRepo(db),
		Member:       NewMemberRepo(db),
		Preference:   NewContextPreferenceRepo(db),
		Vehicle:      NewVehicleRepo(db),
		Horse:        NewHorseRepo(db),
		Certificate:  NewCertificateRepo(db),
		Transport:    NewTransportRepo(db),
		Registration: NewRegistrationRepo(db),
	}
}

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db database.IDatabase) error {
	if err := db.Database().WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// translate maps gorm sentinels onto core error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return core.ErrNotFound
	default:
		return err
	}
}

func Count(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
