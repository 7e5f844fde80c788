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

package middleware

import (
	"time"

	"github.com/go-arcade/equiroute/internal/engine/consts"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/gofiber/fiber/v2"
)

var accessLogSkip = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// AccessLogMiddleware writes one debug line per request.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, skip := accessLogSkip[c.Path()]; skip {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		log.WithContext(c.UserContext()).Debugw("access",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"ip", c.IP(),
			"ua", c.Get(fiber.HeaderUserAgent),
			"requestId", c.Locals(consts.REQUEST_ID),
		)
		return err
	}
}
