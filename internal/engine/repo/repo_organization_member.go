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

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/database"
	"gorm.io/gorm"
)

type IMemberRepository interface {
	Get(ctx context.Context, orgId, actorId string) (*model.OrganizationMember, error)
	List(ctx context.Context, orgId string) ([]model.OrganizationMember, error)
	// Create fails with core.ErrDuplicateMembership when the pair exists.
	Create(ctx context.Context, member *model.OrganizationMember) error
	Update(ctx context.Context, member *model.OrganizationMember) error
	Delete(ctx context.Context, orgId, actorId string) error
	Count(ctx context.Context, orgId string) (int64, error)
}

type MemberRepo struct {
	database.IDatabase
}

func NewMemberRepo(db database.IDatabase) IMemberRepository {
	return &MemberRepo{IDatabase: db}
}

func (r *MemberRepo) Get(ctx context.Context, orgId, actorId string) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := r.Database().WithContext(ctx).
		Where("org_id = ? AND actor_id = ?", orgId, actorId).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MemberRepo) List(ctx context.Context, orgId string) ([]model.OrganizationMember, error) {
	var members []model.OrganizationMember
	err := r.Database().WithContext(ctx).
		Where("org_id = ?", orgId).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

func (r *MemberRepo) Create(ctx context.Context, member *model.OrganizationMember) error {
	if err := r.Database().WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return core.ErrDuplicateMembership
		}
		return err
	}
	return nil
}

func (r *MemberRepo) Update(ctx context.Context, member *model.OrganizationMember) error {
	res := r.Database().WithContext(ctx).Model(&model.OrganizationMember{}).
		Where("org_id = ? AND actor_id = ?", member.OrgId, member.ActorId).
		Updates(map[string]any{
			"role":        member.Role,
			"permissions": member.Permissions,
			"status":      member.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *MemberRepo) Delete(ctx context.Context, orgId, actorId string) error {
	res := r.Database().WithContext(ctx).
		Where("org_id = ? AND actor_id = ?", orgId, actorId).
		Delete(&model.OrganizationMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *MemberRepo) Count(ctx context.Context, orgId string) (int64, error) {
	return Count(r.Database().WithContext(ctx).Model(&model.OrganizationMember{}).
		Where("org_id = ? AND status = ?", orgId, model.MemberStatusActive))
}
