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

// Package transport persists transports and keeps their compliance
// checklists in step with the certificates of the entities involved.
package transport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/compliance"
	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/events"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/permission"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"github.com/go-arcade/equiroute/pkg/event"
	"github.com/go-arcade/equiroute/pkg/id"
	"github.com/go-arcade/equiroute/pkg/log"
	"github.com/go-arcade/equiroute/pkg/metrics"
	"gorm.io/datatypes"
)

// CertificateSource returns the certificates of every entity of a transport.
// Implementations must read from the store on every call.
type CertificateSource interface {
	ListForTransport(ctx context.Context, entities compliance.Entities) (compliance.CertificatesByEntity, error)
}

type Service struct {
	transportRepo repo.ITransportRepository
	vehicleRepo   repo.IVehicleRepository
	horseRepo     repo.IHorseRepository
	orgRepo       repo.IOrganizationRepository
	certs         CertificateSource
	evaluator     *compliance.Evaluator
	reconciler    *compliance.Reconciler
	metrics       *metrics.Domain
}

func NewService(
	repos *repo.Repositories,
	certs CertificateSource,
	evaluator *compliance.Evaluator,
	reconciler *compliance.Reconciler,
	m *metrics.Domain,
	bus *event.EventBus,
) *Service {
	s := &Service{
		transportRepo: repos.Transport,
		vehicleRepo:   repos.Vehicle,
		horseRepo:     repos.Horse,
		orgRepo:       repos.Organization,
		certs:         certs,
		evaluator:     evaluator,
		reconciler:    reconciler,
		metrics:       m,
	}
	if bus != nil {
		bus.RegisterHandler(events.CertificateDeletedName, event.HandlerFunc(s.OnCertificateDeleted))
	}
	return s
}

// Input describes a transport as entered by the user.
type Input struct {
	VehicleId     string
	HorseIds      []string
	Countries     []string // route order
	Origin        string
	Destination   string
	DistanceKm    float64
	DurationHours float64
	DepartureAt   time.Time
}

func (in Input) validate() error {
	if strings.TrimSpace(in.VehicleId) == "" {
		return core.Invalid("vehicle is required")
	}
	if len(in.HorseIds) == 0 {
		return core.Invalid("at least one horse is required")
	}
	countries := normalizeCountries(in.Countries)
	if len(countries) == 0 {
		return core.Invalid("route needs at least one country")
	}
	for _, c := range countries {
		if len(c) != 2 {
			return core.Invalid("country %q is not an ISO 3166 alpha-2 code", c)
		}
	}
	if in.DistanceKm < 0 || in.DurationHours < 0 {
		return core.Invalid("distance and duration must not be negative")
	}
	return nil
}

func (in Input) apply(t *model.Transport) {
	t.VehicleId = strings.TrimSpace(in.VehicleId)
	t.HorseIds = dedupe(in.HorseIds)
	t.Countries = normalizeCountries(in.Countries)
	t.Origin = strings.TrimSpace(in.Origin)
	t.Destination = strings.TrimSpace(in.Destination)
	t.DistanceKm = in.DistanceKm
	t.DurationHours = in.DurationHours
	t.DepartureAt = in.DepartureAt.UTC()
}

func normalizeCountries(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, h := range ids {
		if h = strings.TrimSpace(h); h != "" && !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}

// Checklist is the evaluated requirement set of a transport together with
// its confirmation state.
type Checklist struct {
	TransportId  string                     `json:"transportId,omitempty"`
	Requirements *compliance.RequirementSet `json:"requirements"`
	Warnings     []compliance.Warning       `json:"warnings"` // all warnings, most severe first
	Confirmation compliance.Confirmation    `json:"confirmation"`
	Progress     compliance.Progress        `json:"progress"`
	Compliant    bool                       `json:"compliant"`
	CrossBorder  bool                       `json:"crossBorder"`
}

// checkEntities verifies the vehicle and horses exist and are visible in scope.
func (s *Service) checkEntities(ctx context.Context, scope permission.Scope, t *model.Transport) error {
	v, err := s.vehicleRepo.Get(ctx, t.VehicleId)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("load vehicle: %w", err)
	}
	if v == nil || !scope.Sees(v.Owner) {
		return core.Invalid("vehicle %s is not available", t.VehicleId)
	}
	for _, horseId := range t.HorseIds {
		h, err := s.horseRepo.Get(ctx, horseId)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("load horse: %w", err)
		}
		if h == nil || !scope.Sees(h.Owner) {
			return core.Invalid("horse %s is not available", horseId)
		}
	}
	return nil
}

func (s *Service) canCreate(ctx context.Context, scope permission.Scope) error {
	var settings model.OrganizationSettings
	if !scope.Active.IsPrivate() {
		org, err := s.orgRepo.Get(ctx, scope.Active.OrgId)
		if err != nil {
			return fmt.Errorf("load organization: %w", err)
		}
		settings = org.Settings.Data()
	}
	if !permission.CanCreate(scope.Active, scope.Member, settings, permission.KindTransport) {
		return fmt.Errorf("create transport: %w", core.ErrPermissionDenied)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, scope permission.Scope, in Input) (*model.Transport, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.canCreate(ctx, scope); err != nil {
		return nil, err
	}
	t := &model.Transport{TransportId: id.GetUUID(), Owner: scope.Owner(), Status: model.TransportDraft}
	in.apply(t)
	if err := s.checkEntities(ctx, scope, t); err != nil {
		return nil, err
	}
	setConfirmation(t, compliance.NewConfirmation(nil, nil))
	if err := s.transportRepo.Create(ctx, t); err != nil {
		log.WithContext(ctx).Errorw("create transport failed", "error", err)
		return nil, fmt.Errorf("create transport: %w", err)
	}
	log.WithContext(ctx).Infow("transport created", "transportId", t.TransportId, "owner", t.OwnerId)
	return t, nil
}

// Get returns the transport when it is visible in scope.
func (s *Service) Get(ctx context.Context, scope permission.Scope, transportId string) (*model.Transport, error) {
	t, err := s.transportRepo.Get(ctx, transportId)
	if err != nil {
		return nil, fmt.Errorf("transport %s: %w", transportId, err)
	}
	if !scope.Sees(t.Owner) {
		return nil, fmt.Errorf("transport %s: %w", transportId, core.ErrNotFound)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, scope permission.Scope) ([]model.Transport, error) {
	list, err := s.transportRepo.List(ctx, scope.Owner())
	if err != nil {
		return nil, fmt.Errorf("list transports: %w", err)
	}
	return list, nil
}

// Update replaces the route and entities. Manual confirmations survive and
// are reconciled against the new requirement set on the next evaluation.
func (s *Service) Update(ctx context.Context, scope permission.Scope, transportId string, in Input) (*model.Transport, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, scope, transportId)
	if err != nil {
		return nil, err
	}
	if !scope.Can(model.CanManageTours) {
		return nil, fmt.Errorf("%s: %w", model.CanManageTours, core.ErrPermissionDenied)
	}
	in.apply(t)
	if err := s.checkEntities(ctx, scope, t); err != nil {
		return nil, err
	}
	if err := s.transportRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update transport %s: %w", transportId, err)
	}
	return t, nil
}

// Checklist evaluates the transport against fresh certificates, reconciles
// the confirmation state and persists it when it changed.
func (s *Service) Checklist(ctx context.Context, scope permission.Scope, transportId string) (*Checklist, error) {
	t, err := s.Get(ctx, scope, transportId)
	if err != nil {
		return nil, err
	}
	cl, err := s.Evaluate(ctx, t, t.ManualConfirmations)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, t, cl.Confirmation); err != nil {
		return nil, err
	}
	return cl, nil
}

// Preview evaluates a draft without persisting anything.
func (s *Service) Preview(ctx context.Context, scope permission.Scope, in Input, manual []string) (*Checklist, error) {
	t, err := s.Draft(ctx, scope, "", &in)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, t, manual)
}

// ToggleConfirmation flips the manual confirmation of requirementId.
// Auto-confirmed requirements are left untouched.
func (s *Service) ToggleConfirmation(ctx context.Context, scope permission.Scope, transportId, requirementId string) (*Checklist, error) {
	t, err := s.Get(ctx, scope, transportId)
	if err != nil {
		return nil, err
	}
	if !scope.Can(model.CanManageTours) {
		return nil, fmt.Errorf("%s: %w", model.CanManageTours, core.ErrPermissionDenied)
	}
	cl, err := s.Evaluate(ctx, t, t.ManualConfirmations)
	if err != nil {
		return nil, err
	}
	if _, ok := cl.Requirements.Find(requirementId); !ok {
		return nil, fmt.Errorf("requirement %s: %w", requirementId, core.ErrNotFound)
	}
	if cl.Confirmation.Toggle(requirementId) {
		cl.fill()
	}
	if err := s.persist(ctx, t, cl.Confirmation); err != nil {
		return nil, err
	}
	return cl, nil
}

// Draft builds the transport a registration would persist: the stored one
// when transportId names it, overlaid with in when given, or a new draft
// owned by scope. Nothing is written.
func (s *Service) Draft(ctx context.Context, scope permission.Scope, transportId string, in *Input) (*model.Transport, error) {
	var t *model.Transport
	switch {
	case transportId != "":
		stored, err := s.Get(ctx, scope, transportId)
		if err != nil {
			return nil, err
		}
		t = stored
	case in != nil:
		t = &model.Transport{TransportId: id.GetUUID(), Owner: scope.Owner(), Status: model.TransportDraft}
	default:
		return nil, core.Invalid("transport is required")
	}
	if in != nil {
		if err := in.validate(); err != nil {
			return nil, err
		}
		in.apply(t)
	}
	if err := s.checkEntities(ctx, scope, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Save writes t with its confirmation state, creating it when it does not
// exist yet.
func (s *Service) Save(ctx context.Context, scope permission.Scope, t *model.Transport, c compliance.Confirmation) error {
	setConfirmation(t, c)
	if t.ID == 0 {
		if err := s.canCreate(ctx, scope); err != nil {
			return err
		}
		if err := s.transportRepo.Create(ctx, t); err != nil {
			return fmt.Errorf("create transport: %w", err)
		}
		return nil
	}
	if !scope.Can(model.CanManageTours) {
		return fmt.Errorf("%s: %w", model.CanManageTours, core.ErrPermissionDenied)
	}
	if err := s.transportRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("update transport %s: %w", t.TransportId, err)
	}
	return nil
}

// Evaluate computes the checklist of t with the given manual confirmations.
func (s *Service) Evaluate(ctx context.Context, t *model.Transport, manual []string) (*Checklist, error) {
	route := compliance.RouteOf(t)
	entities := compliance.EntitiesOf(t)
	set, err := s.evaluator.Evaluate(route, entities)
	if err != nil {
		return nil, fmt.Errorf("evaluate transport %s: %w", t.TransportId, err)
	}
	certs, err := s.certs.ListForTransport(ctx, entities)
	if err != nil {
		return nil, fmt.Errorf("load certificates: %w", err)
	}
	cl := &Checklist{
		TransportId:  t.TransportId,
		Requirements: set,
		Warnings:     compliance.SortWarnings(set.AllWarnings()),
		Confirmation: s.reconciler.Reconcile(set, entities, certs, manual),
		CrossBorder:  route.CrossesBorder(),
	}
	cl.fill()
	if s.metrics != nil {
		s.metrics.ChecklistEvaluated.WithLabelValues(strconv.FormatBool(cl.Compliant)).Inc()
	}
	return cl, nil
}

func (cl *Checklist) fill() {
	cl.Progress = compliance.ProgressOf(cl.Requirements, cl.Confirmation)
	cl.Compliant = cl.Progress.IsFullyCompliant()
}

func (s *Service) persist(ctx context.Context, t *model.Transport, c compliance.Confirmation) error {
	if sameConfirmation(t, c) {
		return nil
	}
	setConfirmation(t, c)
	if err := s.transportRepo.UpdateConfirmations(ctx, t); err != nil {
		log.WithContext(ctx).Errorw("persist confirmations failed", "transportId", t.TransportId, "error", err)
		return fmt.Errorf("persist confirmations of %s: %w", t.TransportId, err)
	}
	return nil
}

func setConfirmation(t *model.Transport, c compliance.Confirmation) {
	t.ManualConfirmations = append(model.StringList{}, c.Manual...)
	auto := make(map[string]string, len(c.Auto))
	for k, v := range c.Auto {
		auto[k] = v
	}
	t.AutoConfirmations = datatypes.NewJSONType(auto)
}

func sameConfirmation(t *model.Transport, c compliance.Confirmation) bool {
	stored := compliance.NewConfirmation(t.ManualConfirmations, t.AutoConfirmations.Data())
	if !slices.Equal(stored.Manual, c.Manual) || len(stored.Auto) != len(c.Auto) {
		return false
	}
	for k, v := range c.Auto {
		if stored.Auto[k] != v {
			return false
		}
	}
	return true
}

// OnCertificateDeleted recomputes the confirmation state of every transport
// referring to the certificate's entity.
func (s *Service) OnCertificateDeleted(ctx context.Context, e event.Event) error {
	deleted, ok := e.(events.CertificateDeleted)
	if !ok {
		return nil
	}
	ref := deleted.Certificate.Entity()
	transports, err := s.transportRepo.ListReferencing(ctx, ref)
	if err != nil {
		return fmt.Errorf("transports referencing %s %s: %w", ref.Type, ref.Id, err)
	}
	var errs []error
	for i := range transports {
		t := &transports[i]
		cl, err := s.Evaluate(ctx, t, t.ManualConfirmations)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.persist(ctx, t, cl.Confirmation); err != nil {
			errs = append(errs, err)
		}
	}
	log.WithContext(ctx).Infow("confirmations recomputed", "certificateId", deleted.Certificate.CertificateId, "transports", len(transports))
	return errors.Join(errs...)
}
