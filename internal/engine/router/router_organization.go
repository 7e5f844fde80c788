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
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/service/organization"
	"github.com/gofiber/fiber/v2"
)

type organizationReq struct {
	Name        string                     `json:"name" validate:"required,max=128"`
	Description string                     `json:"description" validate:"max=1024"`
	Settings    model.OrganizationSettings `json:"settings"`
}

type organizationPatchReq struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
}

type joinReq struct {
	JoinCode string `json:"joinCode" validate:"required,joincode"`
}

type memberPatchReq struct {
	Role        *model.Role         `json:"role" validate:"omitempty,oneof=owner admin member"`
	Permissions model.PermissionSet `json:"permissions"`
}

func (rt *Router) organizationRouter(r fiber.Router) {
	org := r.Group("/organizations")
	org.Get("/", rt.listOrganizations)
	org.Post("/", rt.createOrganization)
	org.Post("/join", rt.joinOrganization)
	org.Get("/:orgId", rt.getOrganization)
	org.Put("/:orgId", rt.updateOrganization)
	org.Put("/:orgId/settings", rt.updateOrganizationSettings)
	org.Post("/:orgId/join-code", rt.regenerateJoinCode)
	org.Get("/:orgId/stats", rt.organizationStats)
	org.Post("/:orgId/leave", rt.leaveOrganization)
	org.Get("/:orgId/members", rt.listMembers)
	org.Put("/:orgId/members/:actorId", rt.updateMember)
	org.Delete("/:orgId/members/:actorId", rt.removeMember)
}

func (rt *Router) listOrganizations(c *fiber.Ctx) error {
	orgs, err := rt.Services.Organization.List(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, orgs)
}

func (rt *Router) createOrganization(c *fiber.Ctx) error {
	var req organizationReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	org, err := rt.Services.Organization.Create(c.UserContext(), actorOf(c), organization.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		return fail(c, err)
	}
	return detail(c, org)
}

func (rt *Router) joinOrganization(c *fiber.Ctx) error {
	var req joinReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	org, err := rt.Services.Organization.Join(c.UserContext(), actorOf(c), req.JoinCode)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, org)
}

func (rt *Router) getOrganization(c *fiber.Ctx) error {
	org, err := rt.Services.Organization.Get(c.UserContext(), actorOf(c), c.Params("orgId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, org)
}

func (rt *Router) updateOrganization(c *fiber.Ctx) error {
	var req organizationPatchReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	org, err := rt.Services.Organization.Update(c.UserContext(), actorOf(c), c.Params("orgId"), organization.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	return detail(c, org)
}

func (rt *Router) updateOrganizationSettings(c *fiber.Ctx) error {
	var req model.OrganizationSettings
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	org, err := rt.Services.Organization.UpdateSettings(c.UserContext(), actorOf(c), c.Params("orgId"), req)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, org)
}

func (rt *Router) regenerateJoinCode(c *fiber.Ctx) error {
	code, err := rt.Services.Organization.RegenerateJoinCode(c.UserContext(), actorOf(c), c.Params("orgId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, fiber.Map{"joinCode": code})
}

func (rt *Router) organizationStats(c *fiber.Ctx) error {
	stats, err := rt.Services.Organization.Stats(c.UserContext(), actorOf(c), c.Params("orgId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, stats)
}

func (rt *Router) leaveOrganization(c *fiber.Ctx) error {
	if err := rt.Services.Organization.Leave(c.UserContext(), actorOf(c), c.Params("orgId")); err != nil {
		return fail(c, err)
	}
	return done(c)
}

func (rt *Router) listMembers(c *fiber.Ctx) error {
	members, err := rt.Services.Organization.ListMembers(c.UserContext(), actorOf(c), c.Params("orgId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, members)
}

func (rt *Router) updateMember(c *fiber.Ctx) error {
	var req memberPatchReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	member, err := rt.Services.Organization.UpdateMember(c.UserContext(), actorOf(c), c.Params("orgId"), c.Params("actorId"), organization.MemberPatch{
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		return fail(c, err)
	}
	return detail(c, member)
}

func (rt *Router) removeMember(c *fiber.Ctx) error {
	if err := rt.Services.Organization.RemoveMember(c.UserContext(), actorOf(c), c.Params("orgId"), c.Params("actorId")); err != nil {
		return fail(c, err)
	}
	return done(c)
}
