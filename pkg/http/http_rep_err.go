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

package http

import (
	"github.com/gofiber/fiber/v2"
)

type ResponseErr struct {
	ErrCode int    `json:"errCode"`
	ErrMsg  any    `json:"errMsg"`
	Path    string `json:"path,omitempty"`
}

// WithRepErr writes an error envelope with the given HTTP status.
func WithRepErr(c *fiber.Ctx, status, code int, errMsg string, path string) error {
	return c.Status(status).JSON(ResponseErr{
		ErrCode: code,
		ErrMsg:  errMsg,
		Path:    path,
	})
}

// WithRepErrMsg writes an error envelope, deriving the HTTP status from code.
func WithRepErrMsg(c *fiber.Ctx, code int, errMsg string, path string) error {
	return WithRepErr(c, StatusOf(code), code, errMsg, path)
}

// StatusOf maps an application error code to an HTTP status.
func StatusOf(code int) int {
	switch {
	case code >= 4400 && code < 4500:
		return fiber.StatusUnauthorized
	case code >= 4030 && code < 4040:
		return fiber.StatusForbidden
	case code >= 4040 && code < 4050:
		return fiber.StatusNotFound
	case code >= 4090 && code < 4100:
		return fiber.StatusConflict
	case code >= 4000 && code < 4400:
		return fiber.StatusBadRequest
	case code >= 5020 && code < 5030:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
