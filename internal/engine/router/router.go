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

	"github.com/bytedance/sonic"
	"github.com/go-arcade/equiroute/internal/engine/service"
	"github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/http/middleware"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/go-arcade/equiroute/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Router struct {
	Http     *http.Http
	Services *service.Services
	Metrics  *metrics.Server
	validate *Validator
}

func NewRouter(httpConf *http.Http, services *service.Services, metricsServer *metrics.Server) *Router {
	return &Router{
		Http:     httpConf,
		Services: services,
		Metrics:  metricsServer,
		validate: NewValidator(),
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "equiroute",
		DisableStartupMessage: true,
		Immutable:             true, // params and form values outlive the handler
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		middleware.ExceptionMiddleware(),
		middleware.RequestMiddleware(),
		cors.New(),
		middleware.TraceMiddleware(),
	)
	if rt.Http.AccessLog {
		app.Use(middleware.AccessLogMiddleware())
	}
	app.Use(middleware.UnifiedResponseMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})
	if rt.Http.ExposeMetrics && rt.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(rt.Metrics.Handler()))
	}

	api := app.Group(rt.Http.ContextPath,
		middleware.AuthorizationMiddleware(rt.Http.Auth),
		rt.actorMiddleware(),
	)
	rt.contextRouter(api)
	rt.organizationRouter(api)

	scope := rt.scopeMiddleware()
	rt.fleetRouter(api, scope)
	rt.certificateRouter(api, scope)
	rt.transportRouter(api, scope)

	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrMsg(c, http.NotFound.Code, "request path not found", c.Path())
	})
	return app
}
