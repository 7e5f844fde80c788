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

// Package fleet manages the vehicles and horses of the active context.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/pkg/vehicleregistry"
	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-arcade/equiroute/pkg/log"
)

const uelnLength = 15

type Service struct {
	vehicleRepo repo.IVehicleRepository
	horseRepo   repo.IHorseRepository
	orgRepo     repo.IOrganizationRepository
	registry    vehicleregistry.Lookup
}

func NewService(repos *repo.Repositories, registry vehicleregistry.Lookup) *Service {
	return &Service{
		vehicleRepo: repos.Vehicle,
		horseRepo:   repos.Horse,
		orgRepo:     repos.Organization,
		registry:    registry,
	}
}

type VehicleInput struct {
	Plate          string
	Make           string
	Model          string
	Vin            string
	MaxHorses      int
	ApprovalNumber string
}

func (in VehicleInput) validate() error {
	if vehicleregistry.NormalizePlate(in.Plate) == "" {
		return core.Invalid("plate is required")
	}
	if in.MaxHorses < 0 {
		return core.Invalid("maxHorses must not be negative")
	}
	return nil
}

func (in VehicleInput) apply(v *model.Vehicle) {
	v.Plate = vehicleregistry.NormalizePlate(in.Plate)
	v.Make = strings.TrimSpace(in.Make)
	v.Model = strings.TrimSpace(in.Model)
	v.Vin = strings.ToUpper(strings.TrimSpace(in.Vin))
	v.MaxHorses = in.MaxHorses
	v.ApprovalNumber = strings.TrimSpace(in.ApprovalNumber)
}

type HorseInput struct {
	Name      string
	Ueln      string
	Breed     string
	BirthYear int
	Microchip string
}

func (in HorseInput) validate(now time.Time) error {
	if strings.TrimSpace(in.Name) == "" {
		return core.Invalid("horse name is required")
	}
	if u := normalizeUeln(in.Ueln); u != "" && len(u) != uelnLength {
		return core.Invalid("ueln must be %d characters", uelnLength)
	}
	if in.BirthYear != 0 && (in.BirthYear < 1950 || in.BirthYear > now.Year()) {
		return core.Invalid("birth year %d out of range", in.BirthYear)
	}
	return nil
}

func (in HorseInput) apply(h *model.Horse) {
	h.Name = strings.TrimSpace(in.Name)
	h.Ueln = normalizeUeln(in.Ueln)
	h.Breed = strings.TrimSpace(in.Breed)
	h.BirthYear = in.BirthYear
	h.Microchip = strings.TrimSpace(in.Microchip)
}

func normalizeUeln(u string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(u), " ", ""))
}

// canCreate applies the creation gates of the active organization.
func (s *Service) canCreate(ctx context.Context, scope permission.Scope, kind permission.Kind) error {
	var settings model.OrganizationSettings
	if !scope.Active.IsPrivate() {
		org, err := s.orgRepo.Get(ctx, scope.Active.OrgId)
		if err != nil {
			return fmt.Errorf("load organization: %w", err)
		}
		settings = org.Settings.Data()
	}
	if !permission.CanCreate(scope.Active, scope.Member, settings, kind) {
		return fmt.Errorf("create %s: %w", kind, core.ErrPermissionDenied)
	}
	return nil
}

func authorize(scope permission.Scope, action model.Action) error {
	if !scope.Can(action) {
		return fmt.Errorf("%s: %w", action, core.ErrPermissionDenied)
	}
	return nil
}

// vehicles

func (s *Service) CreateVehicle(ctx context.Context, scope permission.Scope, in VehicleInput) (*model.Vehicle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.canCreate(ctx, scope, permission.KindVehicle); err != nil {
		return nil, err
	}
	v := &model.Vehicle{VehicleId: id.GetUUID(), Owner: scope.Owner()}
	in.apply(v)
	if err := s.vehicleRepo.Create(ctx, v); err != nil {
		log.WithContext(ctx).Errorw("create vehicle failed", "plate", v.Plate, "error", err)
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return v, nil
}

// GetVehicle returns the vehicle when it is visible in scope. Vehicles of
// other contexts are reported as not found.
func (s *Service) GetVehicle(ctx context.Context, scope permission.Scope, vehicleId string) (*model.Vehicle, error) {
	v, err := s.vehicleRepo.Get(ctx, vehicleId)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleId, err)
	}
	if !scope.Sees(v.Owner) {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleId, core.ErrNotFound)
	}
	return v, nil
}

func (s *Service) ListVehicles(ctx context.Context, scope permission.Scope) ([]model.Vehicle, error) {
	vs, err := s.vehicleRepo.List(ctx, scope.Owner())
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vs, nil
}

func (s *Service) UpdateVehicle(ctx context.Context, scope permission.Scope, vehicleId string, in VehicleInput) (*model.Vehicle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	v, err := s.GetVehicle(ctx, scope, vehicleId)
	if err != nil {
		return nil, err
	}
	if err := authorize(scope, model.CanManageVehicles); err != nil {
		return nil, err
	}
	in.apply(v)
	if err := s.vehicleRepo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update vehicle %s: %w", vehicleId, err)
	}
	return v, nil
}

func (s *Service) DeleteVehicle(ctx context.Context, scope permission.Scope, vehicleId string) error {
	if _, err := s.GetVehicle(ctx, scope, vehicleId); err != nil {
		return err
	}
	if err := authorize(scope, model.CanManageVehicles); err != nil {
		return err
	}
	if err := s.vehicleRepo.Delete(ctx, vehicleId); err != nil {
		return fmt.Errorf("delete vehicle %s: %w", vehicleId, err)
	}
	log.WithContext(ctx).Infow("vehicle deleted", "vehicleId", vehicleId, "by", scope.ActorId())
	return nil
}

// PrefillVehicle looks the plate up in the national registry.
func (s *Service) PrefillVehicle(ctx context.Context, plate string) (*VehicleInput, error) {
	info, err := s.registry.Lookup(ctx, plate)
	switch {
	case errors.Is(err, vehicleregistry.ErrNotFound):
		return nil, fmt.Errorf("plate %s: %w", plate, core.ErrNotFound)
	case err != nil:
		return nil, core.Dependency("vehicle registry", err)
	}
	return &VehicleInput{Plate: info.Plate, Make: info.Make, Model: info.Model, Vin: info.Vin}, nil
}

// horses

func (s *Service) CreateHorse(ctx context.Context, scope permission.Scope, in HorseInput) (*model.Horse, error) {
	if err := in.validate(time.Now()); err != nil {
		return nil, err
	}
	if err := s.canCreate(ctx, scope, permission.KindHorse); err != nil {
		return nil, err
	}
	h := &model.Horse{HorseId: id.GetUUID(), Owner: scope.Owner()}
	in.apply(h)
	if err := s.horseRepo.Create(ctx, h); err != nil {
		log.WithContext(ctx).Errorw("create horse failed", "name", h.Name, "error", err)
		return nil, fmt.Errorf("create horse: %w", err)
	}
	return h, nil
}

func (s *Service) GetHorse(ctx context.Context, scope permission.Scope, horseId string) (*model.Horse, error) {
	h, err := s.horseRepo.Get(ctx, horseId)
	if err != nil {
		return nil, fmt.Errorf("horse %s: %w", horseId, err)
	}
	if !scope.Sees(h.Owner) {
		return nil, fmt.Errorf("horse %s: %w", horseId, core.ErrNotFound)
	}
	return h, nil
}

func (s *Service) ListHorses(ctx context.Context, scope permission.Scope) ([]model.Horse, error) {
	hs, err := s.horseRepo.List(ctx, scope.Owner())
	if err != nil {
		return nil, fmt.Errorf("list horses: %w", err)
	}
	return hs, nil
}

func (s *Service) UpdateHorse(ctx context.Context, scope permission.Scope, horseId string, in HorseInput) (*model.Horse, error) {
	if err := in.validate(time.Now()); err != nil {
		return nil, err
	}
	h, err := s.GetHorse(ctx, scope, horseId)
	if err != nil {
		return nil, err
	}
	if err := authorize(scope, model.CanManageHorses); err != nil {
		return nil, err
	}
	in.apply(h)
	if err := s.horseRepo.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update horse %s: %w", horseId, err)
	}
	return h, nil
}

func (s *Service) DeleteHorse(ctx context.Context, scope permission.Scope, horseId string) error {
	if _, err := s.GetHorse(ctx, scope, horseId); err != nil {
		return err
	}
	if err := authorize(scope, model.CanManageHorses); err != nil {
		return err
	}
	if err := s.horseRepo.Delete(ctx, horseId); err != nil {
		return fmt.Errorf("delete horse %s: %w", horseId, err)
	}
	log.WithContext(ctx).Infow("horse deleted", "horseId", horseId, "by", scope.ActorId())
	return nil
}
