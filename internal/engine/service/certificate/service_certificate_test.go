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

package certificate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
	failDel bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.failPut {
		return errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return nil
}

func (f *fakeBlobs) URL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	if f.failDel {
		return errors.New("bucket unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fixture struct {
	svc     *Service
	repos   *repo.Repositories
	blobs   *fakeBlobs
	bus     *event.EventBus
	metrics *metrics.Domain
	private permission.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	blobs := newFakeBlobs()
	bus := event.NewEventBus()
	m := metrics.NewNopDomain()
	f := &fixture{
		svc:     NewService(repos, blobs, storage.Storage{MaxUploadSize: 1024}, m, bus),
		repos:   repos,
		blobs:   blobs,
		bus:     bus,
		metrics: m,
		private: permission.PrivateScope("a1"),
	}
	owner := f.private.Owner()
	require.NoError(t, repos.Vehicle.Create(context.Background(), &model.Vehicle{VehicleId: "v1", Owner: owner}))
	require.NoError(t, repos.Horse.Create(context.Background(), &model.Horse{HorseId: "h1", Owner: owner}))
	require.NoError(t, repos.Horse.Create(context.Background(), &model.Horse{HorseId: "h2", Owner: owner}))
	return f
}

func file(name, content string) FileDescriptor {
	return FileDescriptor{FileName: name, Size: int64(len(content)), Content: strings.NewReader(content)}
}

var (
	v1 = model.EntityRef{Type: model.EntityVehicle, Id: "v1"}
	h1 = model.EntityRef{Type: model.EntityHorse, Id: "h1"}
	h2 = model.EntityRef{Type: model.EntityHorse, Id: "h2"}
)

func TestUpload_Defaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		file     FileDescriptor
		meta     Metadata
		wantType string
		wantName string
		wantCT   string
	}{
		{file("Hestepas.pdf", "%PDF"), Metadata{}, TypePDF, "Hestepas", "application/pdf"},
		{file("scan.JPG", "jpeg"), Metadata{}, TypeImage, "scan", "image/jpeg"},
		{file("notes", "plain"), Metadata{}, TypeDocument, "notes", "application/octet-stream"},
		{file("vacc.pdf", "%PDF"), Metadata{DisplayName: "Vaccinationsattest", CertificateType: "Vaccination record"}, "Vaccination record", "Vaccinationsattest", "application/pdf"},
	}
	for _, tt := range tests {
		c, err := f.svc.Upload(ctx, f.private, h1, tt.file, tt.meta)
		require.NoError(t, err, tt.file.FileName)
		assert.Equal(t, tt.wantType, c.CertificateType, tt.file.FileName)
		assert.Equal(t, tt.wantName, c.DisplayName, tt.file.FileName)
		assert.Equal(t, tt.wantCT, c.ContentType, tt.file.FileName)
		assert.Equal(t, "a1", c.UploadedBy)
		assert.True(t, strings.HasPrefix(c.ObjectKey, "horse/h1/"))
		assert.Equal(t, "https://blobs.test/"+c.ObjectKey, c.Url)
	}
	assert.Equal(t, 4, f.blobs.len())
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.CertificateUploads.WithLabelValues("horse")))
}

func TestUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Upload(ctx, f.private, model.EntityRef{Type: "rider", Id: "x"}, file("a.pdf", "x"), Metadata{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Upload(ctx, f.private, h1, FileDescriptor{FileName: "big.pdf", Size: 2048, Content: bytes.NewReader(nil)}, Metadata{})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Upload(ctx, f.private, h1, FileDescriptor{FileName: "empty.pdf", Content: bytes.NewReader(nil)}, Metadata{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Upload(ctx, permission.PrivateScope("a2"), h1, file("a.pdf", "x"), Metadata{})
	assert.ErrorIs(t, err, core.ErrNotFound, "other actors' horses are invisible")

	_, err = f.svc.Upload(ctx, f.private, model.EntityRef{Type: model.EntityOrganization, Id: "o1"}, file("a.pdf", "x"), Metadata{})
	assert.ErrorIs(t, err, core.ErrNotFound, "no organization documents in private mode")

	f.blobs.failPut = true
	_, err = f.svc.Upload(ctx, f.private, h1, file("a.pdf", "x"), Metadata{})
	assert.ErrorIs(t, err, core.ErrDependency)
}

func TestUpload_OrganizationDocumentsNeedAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	active := model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"}
	org := model.EntityRef{Type: model.EntityOrganization, Id: "o1"}

	member := permission.Scope{Active: active, Member: &model.OrganizationMember{OrgId: "o1", ActorId: "a1", Role: model.RoleMember, Status: model.MemberStatusActive}}
	_, err := f.svc.Upload(ctx, member, org, file("tilladelse.pdf", "x"), Metadata{})
	assert.ErrorIs(t, err, core.ErrPermissionDenied)

	admin := permission.Scope{Active: active, Member: &model.OrganizationMember{OrgId: "o1", ActorId: "a1", Role: model.RoleAdmin, Status: model.MemberStatusActive}}
	c, err := f.svc.Upload(ctx, admin, org, file("tilladelse.pdf", "x"), Metadata{})
	require.NoError(t, err)
	assert.Equal(t, model.EntityOrganization, c.EntityType)

	list, err := f.svc.List(ctx, member, org)
	require.NoError(t, err)
	assert.Len(t, list, 1, "members may read organization documents")
}

func TestList_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, name := range []string{"first.pdf", "second.pdf", "third.pdf"} {
		_, err := f.svc.Upload(ctx, f.private, v1, file(name, "x"), Metadata{})
		require.NoError(t, err)
	}
	list, err := f.svc.List(ctx, f.private, v1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{list[0].DisplayName, list[1].DisplayName, list[2].DisplayName})
}

func TestUpdateMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.Upload(ctx, f.private, h1, file("scan.png", "x"), Metadata{Notes: "old"})
	require.NoError(t, err)

	name, empty, notes := "Hestepas", "", "renewed 2024"
	updated, err := f.svc.UpdateMetadata(ctx, f.private, c.CertificateId, MetadataPatch{DisplayName: &name, CertificateType: &empty, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Hestepas", updated.DisplayName)
	assert.Equal(t, TypeImage, updated.CertificateType)
	assert.Equal(t, "renewed 2024", updated.Notes)

	blank := " "
	_, err = f.svc.UpdateMetadata(ctx, f.private, c.CertificateId, MetadataPatch{DisplayName: &blank})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.UpdateMetadata(ctx, permission.PrivateScope("a2"), c.CertificateId, MetadataPatch{Notes: &notes})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var deleted []events.CertificateDeleted
	f.bus.RegisterHandler(events.CertificateDeletedName, event.HandlerFunc(func(_ context.Context, e event.Event) error {
		deleted = append(deleted, e.(events.CertificateDeleted))
		return nil
	}))
	c, err := f.svc.Upload(ctx, f.private, h1, file("Hestepas.pdf", "x"), Metadata{})
	require.NoError(t, err)

	f.blobs.failDel = true
	assert.ErrorIs(t, f.svc.Delete(ctx, f.private, c.CertificateId), core.ErrDependency)
	_, err = f.svc.Get(ctx, f.private, c.CertificateId)
	require.NoError(t, err, "record survives a failed blob delete")
	assert.Empty(t, deleted)

	f.blobs.failDel = false
	require.NoError(t, f.svc.Delete(ctx, f.private, c.CertificateId))
	assert.Equal(t, 0, f.blobs.len())
	require.Len(t, deleted, 1)
	assert.Equal(t, c.CertificateId, deleted[0].Certificate.CertificateId)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CertificateDeletes))

	assert.ErrorIs(t, f.svc.Delete(ctx, f.private, c.CertificateId), core.ErrNotFound)
}

func TestListForTransport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, ref := range []model.EntityRef{v1, h1, h1, h2} {
		_, err := f.svc.Upload(ctx, f.private, ref, file("doc.pdf", "x"), Metadata{})
		require.NoError(t, err)
	}

	got, err := f.svc.ListForTransport(ctx, compliance.Entities{VehicleId: "v1", HorseIds: []string{"h1", "h2", "h3"}})
	require.NoError(t, err)
	assert.Len(t, got[v1], 1)
	assert.Len(t, got[h1], 2)
	assert.Len(t, got[h2], 1)
	assert.Empty(t, got[model.EntityRef{Type: model.EntityHorse, Id: "h3"}])
}

func TestContentTypeOf(t *testing.T) {
	tests := []struct {
		name, given, want string
	}{
		{"a.pdf", "", "application/pdf"},
		{"a.PDF", "application/octet-stream", "application/pdf"},
		{"a.bin", "image/png", "image/png"},
		{"a.txt", "text/plain; charset=utf-8", "text/plain"},
		{"noext", "", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentTypeOf(tt.name, tt.given), tt.name)
	}
	assert.Equal(t, TypePDF, DefaultType("application/pdf"))
	assert.Equal(t, TypeImage, DefaultType("image/webp"))
	assert.Equal(t, TypeDocument, DefaultType("text/plain"))
}
