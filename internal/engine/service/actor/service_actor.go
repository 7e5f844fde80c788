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

// Package actor bootstraps actors on first authentication and completes
// their profiles.
package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/pkg/log"
	"gorm.io/datatypes"
)

type Service struct {
	actorRepo repo.IActorRepository
}

func NewService(actorRepo repo.IActorRepository) *Service {
	return &Service{actorRepo: actorRepo}
}

// EnsureActor returns the actor, creating it on first sight. Two concurrent
// first requests may race on the create; the loser reads the winner's row.
func (s *Service) EnsureActor(ctx context.Context, actorId, displayName string) (*model.Actor, error) {
	if actorId == "" {
		return nil, core.ErrUnauthenticated
	}
	a, err := s.actorRepo.Get(ctx, actorId)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get actor: %w", err)
	}

	a = &model.Actor{
		ActorId:     actorId,
		DisplayName: displayName,
		Profile:     datatypes.NewJSONType(model.ActorProfile{DisplayName: displayName}),
	}
	if err := s.actorRepo.Create(ctx, a); err != nil {
		if existing, getErr := s.actorRepo.Get(ctx, actorId); getErr == nil {
			return existing, nil
		}
		log.WithContext(ctx).Errorw("create actor failed", "actorId", actorId, "error", err)
		return nil, fmt.Errorf("create actor: %w", err)
	}
	log.WithContext(ctx).Infow("actor created", "actorId", actorId)
	return a, nil
}

func (s *Service) Get(ctx context.Context, actorId string) (*model.Actor, error) {
	a, err := s.actorRepo.Get(ctx, actorId)
	if err != nil {
		return nil, fmt.Errorf("get actor %s: %w", actorId, err)
	}
	return a, nil
}

// CompleteProfile sets the display name and marks the profile complete.
func (s *Service) CompleteProfile(ctx context.Context, actorId, displayName string) (*model.Actor, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, core.Invalid("display name is required")
	}
	a, err := s.Get(ctx, actorId)
	if err != nil {
		return nil, err
	}
	a.DisplayName = displayName
	a.Profile = datatypes.NewJSONType(model.ActorProfile{DisplayName: displayName, Completed: true})
	if err := s.actorRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update actor: %w", err)
	}
	return a, nil
}
