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

// Package certificate attaches documents to vehicles, horses and
// organizations.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrTooLarge is returned for files above the configured upload limit.
var ErrTooLarge = fmt.Errorf("%w: file too large", core.ErrInvalidArgument)

const (
	TypePDF      = "PDF document"
	TypeImage    = "Image"
	TypeDocument = "Document"

	fallbackContentType = "application/octet-stream"
)

type Service struct {
	certRepo    repo.ICertificateRepository
	vehicleRepo repo.IVehicleRepository
	horseRepo   repo.IHorseRepository
	blobs       storage.Provider
	maxSize     int64
	metrics     *metrics.Domain
	bus         *event.EventBus
	now         func() time.Time
}

func NewService(repos *repo.Repositories, blobs storage.Provider, conf storage.Storage, m *metrics.Domain, bus *event.EventBus) *Service {
	conf.SetDefaults()
	return &Service{
		certRepo:    repos.Certificate,
		vehicleRepo: repos.Vehicle,
		horseRepo:   repos.Horse,
		blobs:       blobs,
		maxSize:     conf.MaxUploadSize,
		metrics:     m,
		bus:         bus,
		now:         time.Now,
	}
}

// FileDescriptor is the uploaded file.
type FileDescriptor struct {
	FileName    string
	ContentType string // sniffed from the extension when empty
	Size        int64
	Content     io.Reader
}

// Metadata are caller supplied values; empty fields get defaults.
type Metadata struct {
	DisplayName     string
	CertificateType string
	Notes           string
}

// MetadataPatch is a partial metadata update.
type MetadataPatch struct {
	DisplayName     *string
	CertificateType *string
	Notes           *string
}

// entity checks ref exists and is visible in scope.
func (s *Service) entity(ctx context.Context, scope permission.Scope, ref model.EntityRef) error {
	var owner model.Owner
	switch ref.Type {
	case model.EntityVehicle:
		v, err := s.vehicleRepo.Get(ctx, ref.Id)
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", ref.Id, err)
		}
		owner = v.Owner
	case model.EntityHorse:
		h, err := s.horseRepo.Get(ctx, ref.Id)
		if err != nil {
			return fmt.Errorf("horse %s: %w", ref.Id, err)
		}
		owner = h.Owner
	case model.EntityOrganization:
		owner = model.Owner{OwnerType: model.OwnerOrganization, OwnerId: ref.Id}
	default:
		return core.Invalid("unknown entity type %q", ref.Type)
	}
	if !scope.Sees(owner) {
		return fmt.Errorf("%s %s: %w", ref.Type, ref.Id, core.ErrNotFound)
	}
	return nil
}

func authorize(scope permission.Scope, t model.EntityType) error {
	action, ok := permission.ManageAction(t)
	if !ok {
		return core.Invalid("unknown entity type %q", t)
	}
	if !scope.Can(action) {
		return fmt.Errorf("%s: %w", action, core.ErrPermissionDenied)
	}
	return nil
}

// Upload stores the file and records it against the entity.
func (s *Service) Upload(ctx context.Context, scope permission.Scope, ref model.EntityRef, file FileDescriptor, meta Metadata) (*model.Certificate, error) {
	if !ref.Type.Valid() {
		return nil, core.Invalid("unknown entity type %q", ref.Type)
	}
	if strings.TrimSpace(file.FileName) == "" || file.Content == nil {
		return nil, core.Invalid("file is required")
	}
	if file.Size <= 0 {
		return nil, core.Invalid("file is empty")
	}
	if file.Size > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, file.Size, s.maxSize)
	}
	if err := s.entity(ctx, scope, ref); err != nil {
		return nil, err
	}
	if err := authorize(scope, ref.Type); err != nil {
		return nil, err
	}

	fileName := path.Base(strings.ReplaceAll(file.FileName, "\\", "/"))
	ext := strings.ToLower(path.Ext(fileName))
	contentType := ContentTypeOf(fileName, file.ContentType)
	certId := id.GetUUID()
	objectKey := fmt.Sprintf("%s/%s/%s%s", ref.Type, ref.Id, id.ShortId(), ext)

	if err := s.blobs.Put(ctx, objectKey, file.Content, file.Size, contentType); err != nil {
		log.WithContext(ctx).Errorw("store certificate blob failed", "objectKey", objectKey, "error", err)
		return nil, core.Dependency("blob store", err)
	}
	url, err := s.blobs.URL(ctx, objectKey)
	if err != nil {
		s.discard(ctx, objectKey)
		return nil, core.Dependency("blob store", err)
	}

	c := &model.Certificate{
		CertificateId:   certId,
		EntityType:      ref.Type,
		EntityId:        ref.Id,
		FileName:        fileName,
		DisplayName:     firstNonEmpty(meta.DisplayName, strings.TrimSuffix(fileName, path.Ext(fileName))),
		ContentType:     contentType,
		Size:            file.Size,
		ObjectKey:       objectKey,
		Url:             url,
		CertificateType: firstNonEmpty(meta.CertificateType, DefaultType(contentType)),
		Notes:           strings.TrimSpace(meta.Notes),
		UploadedBy:      scope.ActorId(),
		UploadedAt:      s.now().UTC(),
	}
	if err := s.certRepo.Create(ctx, c); err != nil {
		s.discard(ctx, objectKey)
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CertificateUploads.WithLabelValues(string(ref.Type)).Inc()
	}
	log.WithContext(ctx).Infow("certificate uploaded", "certificateId", certId, "entityType", ref.Type, "entityId", ref.Id)
	return c, nil
}

func (s *Service) discard(ctx context.Context, objectKey string) {
	if err := s.blobs.Delete(ctx, objectKey); err != nil {
		log.WithContext(ctx).Warnw("discard orphaned blob failed", "objectKey", objectKey, "error", err)
	}
}

// List returns the certificates of an entity, most recent first.
func (s *Service) List(ctx context.Context, scope permission.Scope, ref model.EntityRef) ([]model.Certificate, error) {
	if err := s.entity(ctx, scope, ref); err != nil {
		return nil, err
	}
	certs, err := s.certRepo.ListByEntity(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	for i := range certs {
		s.refreshURL(ctx, &certs[i])
	}
	return certs, nil
}

// Get returns one certificate visible in scope.
func (s *Service) Get(ctx context.Context, scope permission.Scope, certificateId string) (*model.Certificate, error) {
	c, err := s.certRepo.Get(ctx, certificateId)
	if err != nil {
		return nil, fmt.Errorf("certificate %s: %w", certificateId, err)
	}
	if err := s.entity(ctx, scope, c.Entity()); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("certificate %s: %w", certificateId, core.ErrNotFound)
		}
		return nil, err
	}
	s.refreshURL(ctx, c)
	return c, nil
}

// refreshURL re-signs the link, keeping the stored one on failure.
func (s *Service) refreshURL(ctx context.Context, c *model.Certificate) {
	if c.ObjectKey == "" {
		return
	}
	url, err := s.blobs.URL(ctx, c.ObjectKey)
	if err != nil {
		log.WithContext(ctx).Warnw("refresh certificate url failed", "certificateId", c.CertificateId, "error", err)
		return
	}
	c.Url = url
}

func (s *Service) UpdateMetadata(ctx context.Context, scope permission.Scope, certificateId string, patch MetadataPatch) (*model.Certificate, error) {
	c, err := s.Get(ctx, scope, certificateId)
	if err != nil {
		return nil, err
	}
	if err := authorize(scope, c.EntityType); err != nil {
		return nil, err
	}
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, core.Invalid("display name must not be empty")
		}
		c.DisplayName = name
	}
	if patch.CertificateType != nil {
		c.CertificateType = firstNonEmpty(*patch.CertificateType, DefaultType(c.ContentType))
	}
	if patch.Notes != nil {
		c.Notes = strings.TrimSpace(*patch.Notes)
	}
	if err := s.certRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update certificate %s: %w", certificateId, err)
	}
	return c, nil
}

// Delete removes blob and record, then announces the deletion so
// confirmations derived from the certificate are recomputed.
func (s *Service) Delete(ctx context.Context, scope permission.Scope, certificateId string) error {
	c, err := s.Get(ctx, scope, certificateId)
	if err != nil {
		return err
	}
	if err := authorize(scope, c.EntityType); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, c.ObjectKey); err != nil {
		log.WithContext(ctx).Errorw("delete certificate blob failed", "certificateId", certificateId, "error", err)
		return core.Dependency("blob store", err)
	}
	if err := s.certRepo.Delete(ctx, certificateId); err != nil {
		return fmt.Errorf("delete certificate %s: %w", certificateId, err)
	}
	if s.metrics != nil {
		s.metrics.CertificateDeletes.Inc()
	}
	log.WithContext(ctx).Infow("certificate deleted", "certificateId", certificateId, "by", scope.ActorId())

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.CertificateDeleted{Certificate: *c}); err != nil {
			log.WithContext(ctx).Warnw("certificate deleted handlers failed", "certificateId", certificateId, "error", err)
		}
	}
	return nil
}

// ListForTransport fetches the certificates of every entity of a transport
// in parallel. Always read from the store.
func (s *Service) ListForTransport(ctx context.Context, entities compliance.Entities) (compliance.CertificatesByEntity, error) {
	refs := entities.Refs()
	out := make(compliance.CertificatesByEntity, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, ref := range refs {
		g.Go(func() error {
			certs, err := s.certRepo.ListByEntity(gctx, ref)
			if err != nil {
				return fmt.Errorf("certificates of %s %s: %w", ref.Type, ref.Id, err)
			}
			mu.Lock()
			out[ref] = certs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ContentTypeOf returns given when set, otherwise the type registered for
// the file extension. Parameters such as charset are dropped.
func ContentTypeOf(fileName, given string) string {
	ct := strings.TrimSpace(given)
	if ct == "" || ct == fallbackContentType {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(fileName))); byExt != "" {
			ct = byExt
		}
	}
	if ct == "" {
		return fallbackContentType
	}
	if media, _, err := mime.ParseMediaType(ct); err == nil {
		return media
	}
	return ct
}

// DefaultType derives the certificate type from the content type.
func DefaultType(contentType string) string {
	switch {
	case contentType == "application/pdf":
		return TypePDF
	case strings.HasPrefix(contentType, "image/"):
		return TypeImage
	default:
		return TypeDocument
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
