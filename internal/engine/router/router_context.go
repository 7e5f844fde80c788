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
	"github.com/go-arcade/equiroute/internal/engine/consts"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

// actorMiddleware makes sure the authenticated actor has a record.
func (rt *Router) actorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := middleware.Claims(c)
		if !ok || claims.ActorId == "" {
			return fail(c, core.ErrUnauthenticated)
		}
		if _, err := rt.Services.Actor.EnsureActor(c.UserContext(), claims.ActorId, claims.DisplayName); err != nil {
			return fail(c, err)
		}
		return c.Next()
	}
}

// scopeMiddleware resolves the active context of the actor for the request.
func (rt *Router) scopeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := rt.Services.Workspace.Scope(c.UserContext(), actorOf(c))
		if err != nil {
			return fail(c, err)
		}
		c.Locals(consts.SCOPE, scope)
		return c.Next()
	}
}

func actorOf(c *fiber.Ctx) string {
	claims, _ := middleware.Claims(c)
	if claims == nil {
		return ""
	}
	return claims.ActorId
}

func scopeOf(c *fiber.Ctx) permission.Scope {
	scope, _ := c.Locals(consts.SCOPE).(permission.Scope)
	return scope
}

type profileReq struct {
	DisplayName string `json:"displayName" validate:"required,max=128"`
}

type switchReq struct {
	Mode  model.Mode `json:"mode" validate:"required,oneof=private organization"`
	OrgId string     `json:"orgId" validate:"required_if=Mode organization"`
}

type contextResp struct {
	Active        model.ActiveContext      `json:"active"`
	Organizations []model.OrganizationView `json:"organizations"`
	Membership    *model.MemberInfo        `json:"membership,omitempty"`
}

func (rt *Router) contextRouter(r fiber.Router) {
	r.Get("/me", rt.getMe)
	r.Put("/me/profile", rt.updateProfile)
	r.Get("/context", rt.getContext)
	r.Put("/context", rt.switchContext)
}

func (rt *Router) getMe(c *fiber.Ctx) error {
	actor, err := rt.Services.Actor.Get(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, actor)
}

func (rt *Router) updateProfile(c *fiber.Ctx) error {
	var req profileReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	actor, err := rt.Services.Actor.CompleteProfile(c.UserContext(), actorOf(c), req.DisplayName)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, actor)
}

func (rt *Router) getContext(c *fiber.Ctx) error {
	session, err := rt.Services.Workspace.Session(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, contextResp{
		Active:        session.Active(),
		Organizations: session.Organizations(),
		Membership:    session.Membership(),
	})
}

func (rt *Router) switchContext(c *fiber.Ctx) error {
	var req switchReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	session, err := rt.Services.Workspace.Session(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, err)
	}
	if _, err := session.SwitchMode(c.UserContext(), req.Mode, req.OrgId); err != nil {
		return fail(c, err)
	}
	return detail(c, contextResp{
		Active:        session.Active(),
		Organizations: session.Organizations(),
		Membership:    session.Membership(),
	})
}
