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
	"time"

	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/database"
	"gorm.io/gorm/clause"
)

type IRegistrationRepository interface {
	// Get returns core.ErrNotFound when no registration was ever started.
	Get(ctx context.Context, transportId string) (*model.Registration, error)
	// Transition stores reg only while the stored phase is still from, and
	// reports whether it did. A missing row counts as idle.
	Transition(ctx context.Context, reg *model.Registration, from model.Phase) (bool, error)
	// ListStale returns registrations in one of phases whose last update is
	// older than before.
	ListStale(ctx context.Context, phases []model.Phase, before time.Time) ([]model.Registration, error)
}

type RegistrationRepo struct {
	database.IDatabase
}

func NewRegistrationRepo(db database.IDatabase) IRegistrationRepository {
	return &RegistrationRepo{IDatabase: db}
}

func (r *RegistrationRepo) Get(ctx context.Context, transportId string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.Database().WithContext(ctx).Where("transport_id = ?", transportId).First(&reg).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *RegistrationRepo) Transition(ctx context.Context, reg *model.Registration, from model.Phase) (bool, error) {
	reg.UpdatedAt = time.Now()
	db := r.Database().WithContext(ctx)
	res := db.Model(&model.Registration{}).
		Where("transport_id = ? AND phase = ?", reg.TransportId, from).
		Updates(map[string]any{
			"phase":            reg.Phase,
			"reference_number": reg.ReferenceNumber,
			"countries":        reg.Countries,
			"attempt":          reg.Attempt,
			"last_error":       reg.LastError,
			"started_at":       reg.StartedAt,
			"completed_at":     reg.CompletedAt,
			"updated_at":       reg.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 || from != model.PhaseIdle {
		return res.RowsAffected > 0, nil
	}
	// first attempt for this transport: the unique transport id settles races
	res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(reg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *RegistrationRepo) ListStale(ctx context.Context, phases []model.Phase, before time.Time) ([]model.Registration, error) {
	var list []model.Registration
	err := r.Database().WithContext(ctx).
		Where("phase IN ? AND updated_at < ?", phases, before).
		Find(&list).Error
	return list, err
}
