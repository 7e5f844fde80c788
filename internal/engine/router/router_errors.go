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
	"errors"
	"fmt"

	"github.com/go-arcade/equiroute/internal/engine/consts"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/service/certificate"
	"github.com/go-arcade/equiroute/pkg/http"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/gofiber/fiber/v2"
)

var (
	errBody       = errors.New("malformed request body")
	errValidation = errors.New("validation failed")
)

// responseOf maps an error onto the response code table. Order matters
// where sentinels wrap each other.
func responseOf(err error) *http.Response {
	switch {
	case errors.Is(err, errBody):
		return http.RequestParameterParsingFailed
	case errors.Is(err, errValidation):
		return http.ValidationFailed
	case errors.Is(err, core.ErrUnauthenticated):
		return http.Unauthorized
	case errors.Is(err, core.ErrPermissionDenied):
		return http.PermissionDenied
	case errors.Is(err, core.ErrInvalidTarget):
		return http.InvalidTarget
	case errors.Is(err, core.ErrNotFound):
		return http.NotFound
	case errors.Is(err, certificate.ErrTooLarge):
		return http.UploadTooLarge
	case errors.Is(err, core.ErrDuplicateMembership):
		return http.DuplicateMembership
	case errors.Is(err, core.ErrRegistrationInProgress):
		return http.RegistrationInProgress
	case errors.Is(err, core.ErrAlreadyRegistered):
		return http.AlreadyRegistered
	case errors.Is(err, core.ErrSwitchSuperseded):
		return http.SwitchSuperseded
	case errors.Is(err, core.ErrOwnerProtected):
		return http.OwnerProtected
	case errors.Is(err, core.ErrNotCompliant):
		return http.NotCompliant
	case errors.Is(err, core.ErrNotQualifying):
		return http.NotQualifying
	case errors.Is(err, core.ErrInvalidArgument):
		return http.BadRequest
	case errors.Is(err, core.ErrDependency):
		return http.DependencyFailed
	default:
		return http.InternalError
	}
}

// fail writes the error envelope. Client errors carry the error text,
// server errors only the generic message.
func fail(c *fiber.Ctx, err error) error {
	resp := responseOf(err)
	msg := resp.Msg
	if resp.Code < 5000 {
		msg = err.Error()
	} else {
		log.WithContext(c.UserContext()).Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return http.WithRepErrMsg(c, resp.Code, msg, c.Path())
}

// bind parses the body into req and validates it.
func (rt *Router) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: %v", errBody, err)
	}
	if err := rt.validate.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", errValidation, err)
	}
	return nil
}

func detail(c *fiber.Ctx, v any) error {
	c.Locals(consts.DETAIL, v)
	return nil
}

func done(c *fiber.Ctx) error {
	c.Locals(consts.OPERATION, true)
	return nil
}
