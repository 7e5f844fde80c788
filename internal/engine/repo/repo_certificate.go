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

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/pkg/database"
)

type ICertificateRepository interface {
	Create(ctx context.Context, c *model.Certificate) error
	Get(ctx context.Context, certificateId string) (*model.Certificate, error)
	// ListByEntity orders by upload time, most recent first, ties by id descending.
	ListByEntity(ctx context.Context, ref model.EntityRef) ([]model.Certificate, error)
	Update(ctx context.Context, c *model.Certificate) error
	Delete(ctx context.Context, certificateId string) error
}

type CertificateRepo struct {
	database.IDatabase
}

func NewCertificateRepo(db database.IDatabase) ICertificateRepository {
	return &CertificateRepo{IDatabase: db}
}

func (r *CertificateRepo) Create(ctx context.Context, c *model.Certificate) error {
	return r.Database().WithContext(ctx).Create(c).Error
}

func (r *CertificateRepo) Get(ctx context.Context, certificateId string) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.Database().WithContext(ctx).Where("certificate_id = ?", certificateId).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CertificateRepo) ListByEntity(ctx context.Context, ref model.EntityRef) ([]model.Certificate, error) {
	var list []model.Certificate
	err := r.Database().WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", ref.Type, ref.Id).
		Order("uploaded_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *CertificateRepo) Update(ctx context.Context, c *model.Certificate) error {
	res := r.Database().WithContext(ctx).Model(&model.Certificate{}).
		Where("certificate_id = ?", c.CertificateId).
		Updates(map[string]any{
			"display_name":     c.DisplayName,
			"certificate_type": c.CertificateType,
			"notes":            c.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *CertificateRepo) Delete(ctx context.Context, certificateId string) error {
	res := r.Database().WithContext(ctx).Where("certificate_id = ?", certificateId).Delete(&model.Certificate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}
