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

package transport

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/internal/engine/repo/memory"
	"github.com/go-arcade/equiroute/internal/engine/service/certificate"
	"github.com/go-arcade/equiroute/internal/pkg/storage"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type memBlobs struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[key] = struct{}{}
	return nil
}

func (b *memBlobs) URL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.keys, key)
	return nil
}

type fixture struct {
	svc     *Service
	certs   *certificate.Service
	repos   *repo.Repositories
	metrics *metrics.Domain
	private permission.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	bus := event.NewEventBus()
	m := metrics.NewNopDomain()
	certs := certificate.NewService(repos, &memBlobs{keys: map[string]struct{}{}}, storage.Storage{}, m, bus)
	evaluator, err := compliance.ProvideEvaluator(compliance.Config{})
	require.NoError(t, err)

	f := &fixture{
		svc:     NewService(repos, certs, evaluator, compliance.NewReconciler(nil), m, bus),
		certs:   certs,
		repos:   repos,
		metrics: m,
		private: permission.PrivateScope("a1"),
	}
	f.fleet(t, f.private.Owner(), "v1", "h1", "h2")
	return f
}

func (f *fixture) fleet(t *testing.T, owner model.Owner, vehicleId string, horseIds ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.repos.Vehicle.Create(ctx, &model.Vehicle{VehicleId: vehicleId, Owner: owner, Plate: "AB12345"}))
	for _, h := range horseIds {
		require.NoError(t, f.repos.Horse.Create(ctx, &model.Horse{HorseId: h, Owner: owner, Name: h}))
	}
}

func (f *fixture) upload(t *testing.T, scope permission.Scope, ref model.EntityRef, displayName string) *model.Certificate {
	t.Helper()
	c, err := f.certs.Upload(context.Background(), scope, ref, certificate.FileDescriptor{
		FileName: displayName + ".pdf",
		Size:     4,
		Content:  strings.NewReader("%PDF"),
	}, certificate.Metadata{DisplayName: displayName})
	require.NoError(t, err)
	return c
}

func horse(id string) model.EntityRef {
	return model.EntityRef{Type: model.EntityHorse, Id: id}
}

var (
	departure = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

	nordic = Input{
		VehicleId:     "v1",
		HorseIds:      []string{"h1", "h2"},
		Countries:     []string{"dk", "DE", "NL"},
		Origin:        "Aarhus",
		Destination:   "Utrecht",
		DistanceKm:    820,
		DurationHours: 10,
		DepartureAt:   departure,
	}
	domestic = Input{
		VehicleId:     "v1",
		HorseIds:      []string{"h1"},
		Countries:     []string{"DK"},
		DistanceKm:    30,
		DurationHours: 1,
		DepartureAt:   departure,
	}
)

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fleet(t, model.Owner{OwnerType: model.OwnerPrivate, OwnerId: "a2"}, "v9", "h9")

	mutate := func(fn func(in *Input)) Input {
		in := domestic
		in.HorseIds = append([]string(nil), domestic.HorseIds...)
		fn(&in)
		return in
	}
	tests := []struct {
		name string
		in   Input
	}{
		{"no vehicle", mutate(func(in *Input) { in.VehicleId = "" })},
		{"no horses", mutate(func(in *Input) { in.HorseIds = nil })},
		{"no countries", mutate(func(in *Input) { in.Countries = []string{" "} })},
		{"alpha-3 country", mutate(func(in *Input) { in.Countries = []string{"DNK"} })},
		{"negative distance", mutate(func(in *Input) { in.DistanceKm = -1 })},
		{"unknown vehicle", mutate(func(in *Input) { in.VehicleId = "nope" })},
		{"foreign vehicle", mutate(func(in *Input) { in.VehicleId = "v9" })},
		{"foreign horse", mutate(func(in *Input) { in.HorseIds = []string{"h1", "h9"} })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.private, tt.in)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}

	tr, err := f.svc.Create(ctx, f.private, mutate(func(in *Input) { in.HorseIds = []string{"h1", " h1", "h2"} }))
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"h1", "h2"}, tr.HorseIds)
	assert.Equal(t, model.TransportDraft, tr.Status)
	assert.Equal(t, f.private.Owner(), tr.Owner)
}

func TestCreate_OrganizationGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org := &model.Organization{OrgId: "o1", Name: "Nordic Horses", JoinCode: "ABC123", Status: model.OrgStatusActive}
	owner := &model.OrganizationMember{OrgId: "o1", ActorId: "owner", Role: model.RoleOwner, Status: model.MemberStatusActive}
	require.NoError(t, f.repos.Organization.Create(ctx, org, owner))
	orgOwner := model.Owner{OwnerType: model.OwnerOrganization, OwnerId: "o1"}
	f.fleet(t, orgOwner, "ov1", "oh1")

	member := permission.Scope{
		Active: model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"},
		Member: &model.OrganizationMember{OrgId: "o1", ActorId: "a1", Role: model.RoleMember, Status: model.MemberStatusActive, Permissions: datatypes.NewJSONType(model.DefaultPermissions())},
	}
	in := Input{VehicleId: "ov1", HorseIds: []string{"oh1"}, Countries: []string{"SE"}}

	_, err := f.svc.Create(ctx, member, in)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)

	org.Settings = datatypes.NewJSONType(model.OrganizationSettings{MembersCanCreateTransports: true})
	require.NoError(t, f.repos.Organization.Update(ctx, org))
	tr, err := f.svc.Create(ctx, member, in)
	require.NoError(t, err)
	assert.Equal(t, orgOwner, tr.Owner)

	// private fleet is not visible from the organization
	_, err = f.svc.Create(ctx, member, domestic)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = f.svc.Get(ctx, f.private, tr.TransportId)
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := f.svc.List(ctx, member)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestChecklist_HestepasAutoConfirmsPassport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, nordic)
	require.NoError(t, err)

	cl, err := f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.True(t, cl.CrossBorder)
	assert.NotEmpty(t, cl.Requirements.Border)
	assert.False(t, cl.Confirmation.IsConfirmed("horse_passport"))
	assert.False(t, cl.Compliant)

	f.upload(t, f.private, horse("h1"), "Hestepas")
	cl, err = f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.False(t, cl.Confirmation.IsAuto("horse_passport"), "h2 has no passport yet")

	f.upload(t, f.private, horse("h2"), "Hestepas")
	cl, err = f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.True(t, cl.Confirmation.IsAuto("horse_passport"))
	assert.False(t, cl.Confirmation.IsManual("horse_passport"))

	stored, err := f.repos.Transport.Get(ctx, tr.TransportId)
	require.NoError(t, err)
	assert.Contains(t, stored.AutoConfirmations.Data(), "horse_passport")
}

func TestChecklist_DomesticBecomesCompliant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, domestic)
	require.NoError(t, err)

	f.upload(t, f.private, horse("h1"), "Hestepas")
	f.upload(t, f.private, horse("h1"), "Vaccinationsattest")
	f.upload(t, f.private, model.EntityRef{Type: model.EntityVehicle, Id: "v1"}, "Registreringsattest")

	cl, err := f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.False(t, cl.CrossBorder)
	assert.Equal(t, compliance.Progress{Confirmed: 3, Required: 3}, cl.Progress)
	assert.True(t, cl.Compliant)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChecklistEvaluated.WithLabelValues("true")))
}

func TestToggleConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, nordic)
	require.NoError(t, err)
	f.upload(t, f.private, horse("h1"), "Hestepas")
	f.upload(t, f.private, horse("h2"), "Hestepas")

	_, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "no_such_requirement")
	assert.ErrorIs(t, err, core.ErrNotFound)

	cl, err := f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "health_certificate")
	require.NoError(t, err)
	assert.True(t, cl.Confirmation.IsManual("health_certificate"))

	cl, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "horse_passport")
	require.NoError(t, err)
	assert.True(t, cl.Confirmation.IsAuto("horse_passport"))
	assert.False(t, cl.Confirmation.IsManual("horse_passport"))

	stored, err := f.repos.Transport.Get(ctx, tr.TransportId)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"health_certificate"}, stored.ManualConfirmations)

	cl, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "health_certificate")
	require.NoError(t, err)
	assert.False(t, cl.Confirmation.IsConfirmed("health_certificate"))
}

func TestToggleConfirmation_Accumulates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, domestic)
	require.NoError(t, err)

	_, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "vaccination_record")
	require.NoError(t, err)
	cl, err := f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "vehicle_registration")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"vaccination_record", "vehicle_registration"}, cl.Confirmation.Manual)
	assert.Equal(t, compliance.Progress{Confirmed: 2, Required: 3}, cl.Progress)

	stored, err := f.repos.Transport.Get(ctx, tr.TransportId)
	require.NoError(t, err)
	assert.ElementsMatch(t, model.StringList{"vaccination_record", "vehicle_registration"}, stored.ManualConfirmations)

	cl, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "horse_passport")
	require.NoError(t, err)
	assert.True(t, cl.Compliant)
	assert.Equal(t, compliance.Progress{Confirmed: 3, Required: 3}, cl.Progress)
}

func TestToggleConfirmation_NeedsManageTours(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	orgOwner := model.Owner{OwnerType: model.OwnerOrganization, OwnerId: "o1"}
	f.fleet(t, orgOwner, "ov1", "oh1")
	tr := &model.Transport{TransportId: "t1", Owner: orgOwner, VehicleId: "ov1", HorseIds: model.StringList{"oh1"}, Countries: model.StringList{"DK"}}
	require.NoError(t, f.repos.Transport.Create(ctx, tr))

	active := model.ActiveContext{ActorId: "a1", Mode: model.ModeOrganization, OrgId: "o1"}
	member := permission.Scope{Active: active, Member: &model.OrganizationMember{OrgId: "o1", ActorId: "a1", Role: model.RoleMember, Status: model.MemberStatusActive}}
	_, err := f.svc.ToggleConfirmation(ctx, member, "t1", "horse_passport")
	assert.ErrorIs(t, err, core.ErrPermissionDenied)

	_, err = f.svc.Checklist(ctx, member, "t1")
	assert.NoError(t, err, "members may read the checklist")

	member.Member.Permissions = datatypes.NewJSONType(model.PermissionSet{model.CanManageTours: true})
	_, err = f.svc.ToggleConfirmation(ctx, member, "t1", "horse_passport")
	assert.NoError(t, err)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.upload(t, f.private, horse("h1"), "Hestepas")

	in := domestic
	cl, err := f.svc.Preview(ctx, f.private, in, []string{"vaccination_record", "horse_passport", "unknown"})
	require.NoError(t, err)
	assert.True(t, cl.Confirmation.IsAuto("horse_passport"))
	assert.Equal(t, []string{"vaccination_record"}, cl.Confirmation.Manual)
	assert.Equal(t, compliance.Progress{Confirmed: 2, Required: 3}, cl.Progress)

	list, err := f.svc.List(ctx, f.private)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate_KeepsManualConfirmations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, domestic)
	require.NoError(t, err)
	_, err = f.svc.ToggleConfirmation(ctx, f.private, tr.TransportId, "vaccination_record")
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.private, tr.TransportId, nordic)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"DK", "DE", "NL"}, updated.Countries)

	cl, err := f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.True(t, cl.Confirmation.IsManual("vaccination_record"))

	_, err = f.svc.Update(ctx, permission.PrivateScope("a2"), tr.TransportId, nordic)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCertificateDeleted_RecomputesAutoConfirmations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tr, err := f.svc.Create(ctx, f.private, domestic)
	require.NoError(t, err)
	passport := f.upload(t, f.private, horse("h1"), "Hestepas")

	cl, err := f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	require.True(t, cl.Confirmation.IsAuto("horse_passport"))

	require.NoError(t, f.certs.Delete(ctx, f.private, passport.CertificateId))

	stored, err := f.repos.Transport.Get(ctx, tr.TransportId)
	require.NoError(t, err)
	assert.NotContains(t, stored.AutoConfirmations.Data(), "horse_passport")
	assert.NotContains(t, stored.ManualConfirmations, "horse_passport")

	cl, err = f.svc.Checklist(ctx, f.private, tr.TransportId)
	require.NoError(t, err)
	assert.False(t, cl.Confirmation.IsConfirmed("horse_passport"))
}

func TestDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Draft(ctx, f.private, "", nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	in := nordic
	draft, err := f.svc.Draft(ctx, f.private, "", &in)
	require.NoError(t, err)
	assert.NotEmpty(t, draft.TransportId)
	assert.Zero(t, draft.ID)

	stored, err := f.svc.Create(ctx, f.private, domestic)
	require.NoError(t, err)
	loaded, err := f.svc.Draft(ctx, f.private, stored.TransportId, nil)
	require.NoError(t, err)
	assert.Equal(t, stored.TransportId, loaded.TransportId)

	_, err = f.svc.Draft(ctx, f.private, "missing", &in)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
