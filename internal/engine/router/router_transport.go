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
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/service/traces"
	"github.com/go-arcade/equiroute/internal/engine/service/transport"
	"github.com/gofiber/fiber/v2"
)

type transportReq struct {
	VehicleId     string    `json:"vehicleId" validate:"required"`
	HorseIds      []string  `json:"horseIds" validate:"required,min=1,dive,required"`
	Countries     []string  `json:"countries" validate:"required,min=1,dive,country"`
	Origin        string    `json:"origin" validate:"max=255"`
	Destination   string    `json:"destination" validate:"max=255"`
	DistanceKm    float64   `json:"distanceKm" validate:"gte=0"`
	DurationHours float64   `json:"durationHours" validate:"gte=0"`
	DepartureAt   time.Time `json:"departureAt"`
}

func (r *transportReq) input() transport.Input {
	return transport.Input{
		VehicleId:     r.VehicleId,
		HorseIds:      r.HorseIds,
		Countries:     r.Countries,
		Origin:        r.Origin,
		Destination:   r.Destination,
		DistanceKm:    r.DistanceKm,
		DurationHours: r.DurationHours,
		DepartureAt:   r.DepartureAt,
	}
}

type previewReq struct {
	Transport           transportReq `json:"transport"`
	ManualConfirmations []string     `json:"manualConfirmations"`
}

type registrationReq struct {
	TransportId         string        `json:"transportId"`
	Transport           *transportReq `json:"transport" validate:"omitempty"`
	ManualConfirmations []string      `json:"manualConfirmations"`
}

func (rt *Router) transportRouter(r fiber.Router, scope fiber.Handler) {
	tr := r.Group("/transports", scope)
	tr.Get("/", rt.listTransports)
	tr.Post("/", rt.createTransport)
	tr.Post("/preview", rt.previewTransport)
	tr.Get("/:transportId", rt.getTransport)
	tr.Put("/:transportId", rt.updateTransport)
	tr.Get("/:transportId/checklist", rt.transportChecklist)
	tr.Post("/:transportId/checklist/:requirementId/toggle", rt.toggleConfirmation)
	tr.Post("/:transportId/traces", rt.startRegistration)
	tr.Get("/:transportId/traces", rt.registrationStatus)

	r.Post("/traces", scope, rt.startRegistration)
}

func (rt *Router) listTransports(c *fiber.Ctx) error {
	list, err := rt.Services.Transport.List(c.UserContext(), scopeOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, list)
}

func (rt *Router) createTransport(c *fiber.Ctx) error {
	var req transportReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := rt.Services.Transport.Create(c.UserContext(), scopeOf(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, t)
}

func (rt *Router) previewTransport(c *fiber.Ctx) error {
	var req previewReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	checklist, err := rt.Services.Transport.Preview(c.UserContext(), scopeOf(c), req.Transport.input(), req.ManualConfirmations)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, checklist)
}

func (rt *Router) getTransport(c *fiber.Ctx) error {
	t, err := rt.Services.Transport.Get(c.UserContext(), scopeOf(c), c.Params("transportId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, t)
}

func (rt *Router) updateTransport(c *fiber.Ctx) error {
	var req transportReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := rt.Services.Transport.Update(c.UserContext(), scopeOf(c), c.Params("transportId"), req.input())
	if err != nil {
		return fail(c, err)
	}
	return detail(c, t)
}

func (rt *Router) transportChecklist(c *fiber.Ctx) error {
	checklist, err := rt.Services.Transport.Checklist(c.UserContext(), scopeOf(c), c.Params("transportId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, checklist)
}

func (rt *Router) toggleConfirmation(c *fiber.Ctx) error {
	checklist, err := rt.Services.Transport.ToggleConfirmation(c.UserContext(), scopeOf(c), c.Params("transportId"), c.Params("requirementId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, checklist)
}

// startRegistration serves both the stored transport route and the draft
// route; a path id wins over a body id.
func (rt *Router) startRegistration(c *fiber.Ctx) error {
	var req registrationReq
	if len(c.Body()) > 0 {
		if err := rt.bind(c, &req); err != nil {
			return fail(c, err)
		}
	}
	if id := c.Params("transportId"); id != "" {
		req.TransportId = id
	}
	start := traces.StartRequest{
		TransportId:         req.TransportId,
		ManualConfirmations: req.ManualConfirmations,
	}
	if req.Transport != nil {
		in := req.Transport.input()
		start.Transport = &in
	}
	if start.TransportId == "" && start.Transport == nil {
		return fail(c, core.Invalid("transportId or transport is required"))
	}

	status, err := rt.Services.Traces.Start(c.UserContext(), scopeOf(c), start)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, status)
}

func (rt *Router) registrationStatus(c *fiber.Ctx) error {
	status, err := rt.Services.Traces.Status(c.UserContext(), scopeOf(c), c.Params("transportId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, status)
}
