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
	"fmt"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/service/certificate"
	"github.com/gofiber/fiber/v2"
)

type certificatePatchReq struct {
	DisplayName     *string `json:"displayName" validate:"omitempty,min=1,max=255"`
	CertificateType *string `json:"certificateType" validate:"omitempty,max=64"`
	Notes           *string `json:"notes" validate:"omitempty,max=2048"`
}

func (rt *Router) certificateRouter(r fiber.Router, scope fiber.Handler) {
	entity := r.Group("/entities/:entityType/:entityId/certificates", scope)
	entity.Get("/", rt.listCertificates)
	entity.Post("/", rt.uploadCertificate)

	certs := r.Group("/certificates", scope)
	certs.Get("/:certificateId", rt.getCertificate)
	certs.Put("/:certificateId", rt.updateCertificate)
	certs.Delete("/:certificateId", rt.deleteCertificate)
}

func entityOf(c *fiber.Ctx) (model.EntityRef, error) {
	ref := model.EntityRef{Type: model.EntityType(c.Params("entityType")), Id: c.Params("entityId")}
	if !ref.Type.Valid() {
		return ref, core.Invalid("unknown entity type %q", ref.Type)
	}
	return ref, nil
}

func (rt *Router) listCertificates(c *fiber.Ctx) error {
	ref, err := entityOf(c)
	if err != nil {
		return fail(c, err)
	}
	certs, err := rt.Services.Certificate.List(c.UserContext(), scopeOf(c), ref)
	if err != nil {
		return fail(c, err)
	}
	return detail(c, certs)
}

func (rt *Router) uploadCertificate(c *fiber.Ctx) error {
	ref, err := entityOf(c)
	if err != nil {
		return fail(c, err)
	}
	header, err := c.FormFile("file")
	if err != nil {
		return fail(c, fmt.Errorf("%w: file: %v", errBody, err))
	}
	file, err := header.Open()
	if err != nil {
		return fail(c, fmt.Errorf("%w: file: %v", errBody, err))
	}
	defer file.Close()

	contentType := header.Header.Get(fiber.HeaderContentType)
	if contentType == fiber.MIMEOctetStream {
		contentType = ""
	}

	cert, err := rt.Services.Certificate.Upload(c.UserContext(), scopeOf(c), ref,
		certificate.FileDescriptor{
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Content:     file,
		},
		certificate.Metadata{
			DisplayName:     c.FormValue("displayName"),
			CertificateType: c.FormValue("certificateType"),
			Notes:           c.FormValue("notes"),
		})
	if err != nil {
		return fail(c, err)
	}
	return detail(c, cert)
}

func (rt *Router) getCertificate(c *fiber.Ctx) error {
	cert, err := rt.Services.Certificate.Get(c.UserContext(), scopeOf(c), c.Params("certificateId"))
	if err != nil {
		return fail(c, err)
	}
	return detail(c, cert)
}

func (rt *Router) updateCertificate(c *fiber.Ctx) error {
	var req certificatePatchReq
	if err := rt.bind(c, &req); err != nil {
		return fail(c, err)
	}
	cert, err := rt.Services.Certificate.UpdateMetadata(c.UserContext(), scopeOf(c), c.Params("certificateId"), certificate.MetadataPatch{
		DisplayName:     req.DisplayName,
		CertificateType: req.CertificateType,
		Notes:           req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return detail(c, cert)
}

func (rt *Router) deleteCertificate(c *fiber.Ctx) error {
	if err := rt.Services.Certificate.Delete(c.UserContext(), scopeOf(c), c.Params("certificateId")); err != nil {
		return fail(c, err)
	}
	return done(c)
}
