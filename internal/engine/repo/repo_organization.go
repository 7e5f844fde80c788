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

// ErrJoinCodeTaken is returned by Create when the join code collides.
var ErrJoinCodeTaken = errors.New("join code taken")

type IOrganizationRepository interface {
	// Create stores org together with its owner membership.
	Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) error
	Get(ctx context.Context, orgId string) (*model.Organization, error)
	// GetByJoinCode expects an already normalized (uppercase) code.
	GetByJoinCode(ctx context.Context, code string) (*model.Organization, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, org *model.Organization) error
	// ListByActor returns the organizations the actor is a member of,
	// with the actor's membership merged in.
	ListByActor(ctx context.Context, actorId string) ([]model.OrganizationView, error)
}

type OrganizationRepo struct {
	database.IDatabase
}

func NewOrganizationRepo(db database.IDatabase) IOrganizationRepository {
	return &OrganizationRepo{IDatabase: db}
}

func (r *OrganizationRepo) Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) error {
	return r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrJoinCodeTaken
			}
			return err
		}
		return tx.Create(owner).Error
	})
}

func (r *OrganizationRepo) Get(ctx context.Context, orgId string) (*model.Organization, error) {
	var org model.Organization
	if err := r.Database().WithContext(ctx).Where("org_id = ?", orgId).First(&org).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

func (r *OrganizationRepo) GetByJoinCode(ctx context.Context, code string) (*model.Organization, error) {
	var org model.Organization
	err := r.Database().WithContext(ctx).
		Where("join_code = ? AND status = ?", code, model.OrgStatusActive).
		First(&org).Error
	if err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

func (r *OrganizationRepo) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := Count(r.Database().WithContext(ctx).Model(&model.Organization{}).Where("join_code = ?", code))
	return n > 0, err
}

func (r *OrganizationRepo) Update(ctx context.Context, org *model.Organization) error {
	res := r.Database().WithContext(ctx).Model(&model.Organization{}).
		Where("org_id = ?", org.OrgId).
		Updates(map[string]any{
			"name":        org.Name,
			"description": org.Description,
			"join_code":   org.JoinCode,
			"settings":    org.Settings,
			"status":      org.Status,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrJoinCodeTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *OrganizationRepo) ListByActor(ctx context.Context, actorId string) ([]model.OrganizationView, error) {
	db := r.Database().WithContext(ctx)

	var members []model.OrganizationMember
	if err := db.Where("actor_id = ?", actorId).Find(&members).Error; err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	byOrg := make(map[string]*model.OrganizationMember, len(members))
	ids := make([]string, 0, len(members))
	for i := range members {
		byOrg[members[i].OrgId] = &members[i]
		ids = append(ids, members[i].OrgId)
	}

	var orgs []model.Organization
	err := db.Where("org_id IN ? AND status = ?", ids, model.OrgStatusActive).
		Order("name ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	views := make([]model.OrganizationView, 0, len(orgs))
	for _, o := range orgs {
		views = append(views, model.OrganizationView{Organization: o, MemberInfo: byOrg[o.OrgId].Info()})
	}
	return views, nil
}
