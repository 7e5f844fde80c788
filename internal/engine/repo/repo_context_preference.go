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

type IContextPreferenceRepository interface {
	// Get returns core.ErrNotFound when the actor never switched context.
	Get(ctx context.Context, actorId string) (*model.ContextPreference, error)
	// Save upserts the preference of pref.ActorId.
	Save(ctx context.Context, pref *model.ContextPreference) error
}

type ContextPreferenceRepo struct {
	database.IDatabase
}

func NewContextPreferenceRepo(db database.IDatabase) IContextPreferenceRepository {
	return &ContextPreferenceRepo{IDatabase: db}
}

func (r *ContextPreferenceRepo) Get(ctx context.Context, actorId string) (*model.ContextPreference, error) {
	var pref model.ContextPreference
	if err := r.Database().WithContext(ctx).Where("actor_id = ?", actorId).First(&pref).Error; err != nil {
		return nil, translate(err)
	}
	return &pref, nil
}

func (r *ContextPreferenceRepo) Save(ctx context.Context, pref *model.ContextPreference) error {
	pref.UpdatedAt = time.Now()
	return r.Database().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "actor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "org_id", "updated_at"}),
	}).Create(pref).Error
}
