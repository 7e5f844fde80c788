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

type IVehicleRepository interface {
	Create(ctx context.Context, v *model.Vehicle) error
	Get(ctx context.Context, vehicleId string) (*model.Vehicle, error)
	List(ctx context.Context, owner model.Owner) ([]model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) error
	Delete(ctx context.Context, vehicleId string) error
	Count(ctx context.Context, owner model.Owner) (int64, error)
}

type IHorseRepository interface {
	Create(ctx context.Context, h *model.Horse) error
	Get(ctx context.Context, horseId string) (*model.Horse, error)
	List(ctx context.Context, owner model.Owner) ([]model.Horse, error)
	Update(ctx context.Context, h *model.Horse) error
	Delete(ctx context.Context, horseId string) error
	Count(ctx context.Context, owner model.Owner) (int64, error)
}

type VehicleRepo struct {
	database.IDatabase
}

func NewVehicleRepo(db database.IDatabase) IVehicleRepository {
	return &VehicleRepo{IDatabase: db}
}

func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	return r.Database().WithContext(ctx).Create(v).Error
}

func (r *VehicleRepo) Get(ctx context.Context, vehicleId string) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := r.Database().WithContext(ctx).Where("vehicle_id = ?", vehicleId).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *VehicleRepo) List(ctx context.Context, owner model.Owner) ([]model.Vehicle, error) {
	var list []model.Vehicle
	err := r.Database().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.OwnerType, owner.OwnerId).
		Order("plate ASC").
		Find(&list).Error
	return list, err
}

func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	res := r.Database().WithContext(ctx).Model(&model.Vehicle{}).
		Where("vehicle_id = ?", v.VehicleId).
		Updates(map[string]any{
			"plate":           v.Plate,
			"make":            v.Make,
			"model":           v.Model,
			"vin":             v.Vin,
			"max_horses":      v.MaxHorses,
			"approval_number": v.ApprovalNumber,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *VehicleRepo) Delete(ctx context.Context, vehicleId string) error {
	res := r.Database().WithContext(ctx).Where("vehicle_id = ?", vehicleId).Delete(&model.Vehicle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *VehicleRepo) Count(ctx context.Context, owner model.Owner) (int64, error) {
	return Count(r.Database().WithContext(ctx).Model(&model.Vehicle{}).
		Where("owner_type = ? AND owner_id = ?", owner.OwnerType, owner.OwnerId))
}

type HorseRepo struct {
	database.IDatabase
}

func NewHorseRepo(db database.IDatabase) IHorseRepository {
	return &HorseRepo{IDatabase: db}
}

func (r *HorseRepo) Create(ctx context.Context, h *model.Horse) error {
	return r.Database().WithContext(ctx).Create(h).Error
}

func (r *HorseRepo) Get(ctx context.Context, horseId string) (*model.Horse, error) {
	var h model.Horse
	if err := r.Database().WithContext(ctx).Where("horse_id = ?", horseId).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (r *HorseRepo) List(ctx context.Context, owner model.Owner) ([]model.Horse, error) {
	var list []model.Horse
	err := r.Database().WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", owner.OwnerType, owner.OwnerId).
		Order("name ASC").
		Find(&list).Error
	return list, err
}

func (r *HorseRepo) Update(ctx context.Context, h *model.Horse) error {
	res := r.Database().WithContext(ctx).Model(&model.Horse{}).
		Where("horse_id = ?", h.HorseId).
		Updates(map[string]any{
			"name":       h.Name,
			"ueln":       h.Ueln,
			"breed":      h.Breed,
			"birth_year": h.BirthYear,
			"microchip":  h.Microchip,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *HorseRepo) Delete(ctx context.Context, horseId string) error {
	res := r.Database().WithContext(ctx).Where("horse_id = ?", horseId).Delete(&model.Horse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *HorseRepo) Count(ctx context.Context, owner model.Owner) (int64, error) {
	return Count(r.Database().WithContext(ctx).Model(&model.Horse{}).
		Where("owner_type = ? AND owner_id = ?", owner.OwnerType, owner.OwnerId))
}
