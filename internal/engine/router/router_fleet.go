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

package router

import (
	"github.com/go-arcade/equiroute/internal/engine/service/fleet"
	"github.com/gofiber/fiber/v2"
)

type vehicleReq struct {
	Plate          string `json:"plate" validate:"required,max=16"`
	Make           string `json:"make" validate:"max=64"`
	Model          string `json:"model" validate:"max=64"`
	Vin            string `json:"vin" validate:"omitempty,max=17"`
	MaxHorses      int    `json:"maxHorses" validate:"gte=0,lte=64"`
	ApprovalNumber string `json:"approvalNumber" validate:"max=64"`
}

func (r vehicleReq) input() fleet.VehicleInput {
	return fleet.VehicleInput{
		Plate:          r.Plate,
		Make:           r.Make,
		Model:          r.Model,
		Vin:            r.Vin,
		MaxHorses:      r.MaxHorses,
		ApprovalNumber: r.ApprovalNumber,
	}
}

func vehicleReqOf(in *fleet.VehicleInput) vehicleReq {
	return vehicleReq{
		Plate:          in.Plate,
		Make:           in.Make,
		Model:          in.Model,
		Vin:            in.Vin,
		MaxHorses:      in.MaxHorses,
		ApprovalNumber: in.ApprovalNumber,
	}
}

type horseReq struct {
	Name      string `json:"name" validate:"required,max=128"`
	Ueln      string `json:"ueln" validate:"max=32"`
	Breed     string `json:"breed" validate:"max=64"`
	BirthYear int    `json:"birthYear" validate:"gte=0"`
	Microchip string `json:"microchip" validate:"max=32"`
}

func (r horseReq) input() fleet.HorseInput {
	return fleet.HorseInput{
		Name:      r.Name,
		Ueln:      r.Ueln,
		Breed:     r.Breed,
		BirthYear: r.BirthYear,
		Microchip: r.Microchip,
	}
}

func (rt *Router) fleetRouter(r fiber.Router, scope fiber.Handler) {
	vehicles := r.Group("/vehicles", scope)
	vehicles.Get("/", rt.listVehicles)
	vehicles.Post("/", rt.createVehicle)
	vehicles.Get("/prefill/:plate", rt.prefillVehicle)
	vehicles.Get("/:vehicleId", rt.getVehicle)
	vehicles.Put("/:vehicleId", rt.updateVehicle)
	vehicles.Delete("/:vehicleId", rt.deleteVehicle)

	horses := r.Group("/horses", scope)
	horses.Get("/", rt.listHorses)
	horses.Post("/", rt.createHorse)
	horses.Get("/:horseId", rt.getHorse)
	horses.Put("/:horseId", rt.updateHorse)
	horses.Delete("/:horseId", rt.deleteHorse)
}

func (rt *Router) listVehicles(c *fiber.Ctx) error {
	vehicles, err := rt.Services.Fleet.ListVehicles(c.UserContext(), scopeOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, vehicles)
}

func (rt *Router) createVehicle(c *fiber.Ctx) error {
	var req vehicleReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := rt.Services.Fleet.CreateVehicle(c.UserContext(), scopeOf(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, v)
}

func (rt *Router) prefillVehicle(c *fiber.Ctx) error {
	in, err := rt.Services.Fleet.PrefillVehicle(c.UserContext(), c.Params("plate"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, vehicleReqOf(in))
}

func (rt *Router) getVehicle(c *fiber.Ctx) error {
	v, err := rt.Services.Fleet.GetVehicle(c.UserContext(), scopeOf(c), c.Params("vehicleId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, v)
}

func (rt *Router) updateVehicle(c *fiber.Ctx) error {
	var req vehicleReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := rt.Services.Fleet.UpdateVehicle(c.UserContext(), scopeOf(c), c.Params("vehicleId"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, v)
}

func (rt *Router) deleteVehicle(c *fiber.Ctx) error {
	if err := rt.Services.Fleet.DeleteVehicle(c.UserContext(), scopeOf(c), c.Params("vehicleId")); err != nil {
		return fail(c, err)
	}
	return done(c)
}

func (rt *Router) listHorses(c *fiber.Ctx) error {
	horses, err := rt.Services.Fleet.ListHorses(c.UserContext(), scopeOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, horses)
}

func (rt *Router) createHorse(c *fiber.Ctx) error {
	var req horseReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	h, err := rt.Services.Fleet.CreateHorse(c.UserContext(), scopeOf(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, h)
}

func (rt *Router) getHorse(c *fiber.Ctx) error {
	h, err := rt.Services.Fleet.GetHorse(c.UserContext(), scopeOf(c), c.Params("horseId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, h)
}

func (rt *Router) updateHorse(c *fiber.Ctx) error {
	var req horseReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	h, err := rt.Services.Fleet.UpdateHorse(c.UserContext(), scopeOf(c), c.Params("horseId"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, h)
}

func (rt *Router) deleteHorse(c *fiber.Ctx) error {
	if err := rt.Services.Fleet.DeleteHorse(c.UserContext(), scopeOf(c), c.Params("horseId")); err != nil {
		return fail(c, err)
	}
	return done(c)
}
