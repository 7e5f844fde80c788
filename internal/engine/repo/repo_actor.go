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

	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/database"
)

type IActorRepository interface {
	Get(ctx context.Context, actorId string) (*model.Actor, error)
	Create(ctx context.Context, actor *model.Actor) error
	Update(ctx context.Context, actor *model.Actor) error
}

type ActorRepo struct {
	database.IDatabase
}

func NewActorRepo(db database.IDatabase) IActorRepository {
	return &ActorRepo{IDatabase: db}
}

func (r *ActorRepo) Get(ctx context.Context, actorId string) (*model.Actor, error) {
	var actor model.Actor
	err := r.Database().WithContext(ctx).Where("actor_id = ?", actorId).First(&actor).Error
	if err != nil {
		return nil, translate(err)
	}
	return &actor, nil
}

func (r *ActorRepo) Create(ctx context.Context, actor *model.Actor) error {
	return r.Database().WithContext(ctx).Create(actor).Error
}

func (r *ActorRepo) Update(ctx context.Context, actor *model.Actor) error {
	return r.Database().WithContext(ctx).Model(&model.Actor{}).
		Where("actor_id = ?", actor.ActorId).
		Updates(map[string]any{
			"display_name": actor.DisplayName,
			"profile":      actor.Profile,
		}).Error
}
