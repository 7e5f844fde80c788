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
	"gorm.io/datatypes"
)

type ITransportRepository interface {
	Create(ctx context.Context, t *model.Transport) error
	Get(ctx context.Context, transportId string) (*model.Transport, error)
	List(ctx context.Context, owner model.Owner) ([]model.Transport, error)
	Update(ctx context.Context, t *model.Transport) error
	// UpdateConfirmations writes only the confirmation columns.
	UpdateConfirmations(ctx context.Context, t *model.Transport) error
	// ListReferencing returns transports whose vehicle, horses or owning
	// organization is ref.
	ListReferencing(ctx context.Context, ref model.EntityRef) ([]model.Transport, error)
}

type TransportRepo struct {
	database.IDatabase
}

func NewTransportRepo(db database.IDatabase) ITransportRepository {
	return &TransportRepo{IDatabase: db}
}

func (r *TransportRepo) Create(ctx context.Context, t *model.Transport) error {
	return r.Database().WithContext(ctx).Create(t).Error
}

func (r *TransportRepo) Get(ctx context.Context, transportId string) (*model.Transport, error) {
	var t model.Transport
	if err := r.Database().WithContext(ctx).Where("transport_id = ?", transportId).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TransportRepo) List(ctx context.Context, owner model.Owner) ([]model.Transport, error) {
	var list []model.Transport
	err := r.Database().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.OwnerType, owner.OwnerId).
		Order("departure_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *TransportRepo) Update(ctx context.Context, t *model.Transport) error {
	res := r.Database().WithContext(ctx).Model(&model.Transport{}).
		Where("transport_id = ?", t.TransportId).
		Updates(map[string]any{
			"vehicle_id":           t.VehicleId,
			"horse_ids":            t.HorseIds,
			"countries":            t.Countries,
			"origin":               t.Origin,
			"destination":          t.Destination,
			"distance_km":          t.DistanceKm,
			"duration_hours":       t.DurationHours,
			"departure_at":         t.DepartureAt,
			"status":               t.Status,
			"manual_confirmations": t.ManualConfirmations,
			"auto_confirmations":   t.AutoConfirmations,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *TransportRepo) UpdateConfirmations(ctx context.Context, t *model.Transport) error {
	res := r.Database().WithContext(ctx).Model(&model.Transport{}).
		Where("transport_id = ?", t.TransportId).
		Updates(map[string]any{
			"manual_confirmations": t.ManualConfirmations,
			"auto_confirmations":   t.AutoConfirmations,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *TransportRepo) ListReferencing(ctx context.Context, ref model.EntityRef) ([]model.Transport, error) {
	tx := r.Database().WithContext(ctx).Model(&model.Transport{})
	switch ref.Type {
	case model.EntityVehicle:
		tx = tx.Where("vehicle_id = ?", ref.Id)
	case model.EntityHorse:
		tx = tx.Where(datatypes.JSONArrayQuery("horse_ids").Contains(ref.Id))
	case model.EntityOrganization:
		tx = tx.Where("owner_type = ? AND owner_id = ?", model.OwnerOrganization, ref.Id)
	default:
		return nil, core.Invalid("entity type %q", ref.Type)
	}
	var list []model.Transport
	err := tx.Find(&list).Error
	return list, err
}
