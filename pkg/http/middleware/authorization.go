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
	"errors"
	"strings"

	"github.com/go-arcade/equiroute/internal/engine/consts"
	"github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/http/auth/jwt"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// AuthorizationMiddleware verifies the bearer token and stores its claims
// under consts.CLAIMS.
func AuthorizationMiddleware(auth http.Auth) fiber.Handler {
	secret := []byte(auth.SecretKey)
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return http.WithRepErrMsg(c, http.AuthorizationEmpty.Code, http.AuthorizationEmpty.Msg, c.Path())
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return http.WithRepErrMsg(c, http.AuthorizationIncorrect.Code, http.AuthorizationIncorrect.Msg, c.Path())
		}

		claims, err := jwt.ParseToken(parts[1], auth.Issuer, secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return http.WithRepErrMsg(c, http.TokenExpired.Code, http.TokenExpired.Msg, c.Path())
			}
			log.WithContext(c.UserContext()).Debugw("reject token", "path", c.Path(), "error", err)
			return http.WithRepErrMsg(c, http.InvalidToken.Code, http.InvalidToken.Msg, c.Path())
		}

		c.Locals(consts.CLAIMS, claims)
		return c.Next()
	}
}

// Claims returns the verified claims placed by AuthorizationMiddleware.
func Claims(c *fiber.Ctx) (*jwt.AuthClaims, bool) {
	claims, ok := c.Locals(consts.CLAIMS).(*jwt.AuthClaims)
	return claims, ok
}
