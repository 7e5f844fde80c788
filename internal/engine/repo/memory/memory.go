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

// Package memory implements the repositories in process. It backs
// database.type = "memory" and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-arcade/equiroute/internal/engine/core"
	"github.com/go-arcade/equiroute/internal/engine/model"
	"github.com/go-arcade/equiroute/internal/engine/repo"
	"gorm.io/datatypes"
)

// Store holds every table behind one lock.
type Store struct {
	mu     sync.RWMutex
	nextId uint64
	now    func() time.Time

	actors        map[string]model.Actor
	orgs          map[string]model.Organization
	members       map[memberKey]model.OrganizationMember
	preferences   map[string]model.ContextPreference
	vehicles      map[string]model.Vehicle
	horses        map[string]model.Horse
	certificates  map[string]model.Certificate
	transports    map[string]model.Transport
	registrations map[string]model.Registration
}

type memberKey struct {
	orgId, actorId string
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		actors:        make(map[string]model.Actor),
		orgs:          make(map[string]model.Organization),
		members:       make(map[memberKey]model.OrganizationMember),
		preferences:   make(map[string]model.ContextPreference),
		vehicles:      make(map[string]model.Vehicle),
		horses:        make(map[string]model.Horse),
		certificates:  make(map[string]model.Certificate),
		transports:    make(map[string]model.Transport),
		registrations: make(map[string]model.Registration),
	}
}

// NewRepositories returns repositories sharing a fresh Store.
func NewRepositories() *repo.Repositories {
	return NewStore().Repositories()
}

func (s *Store) Repositories() *repo.Repositories {
	return &repo.Repositories{
		Actor:        (*actorRepo)(s),
		Organization: (*organizationRepo)(s),
		Member:       (*memberRepo)(s),
		Preference:   (*preferenceRepo)(s),
		Vehicle:      (*vehicleRepo)(s),
		Horse:        (*horseRepo)(s),
		Certificate:  (*certificateRepo)(s),
		Transport:    (*transportRepo)(s),
		Registration: (*registrationRepo)(s),
	}
}

// stamp assigns id and timestamps the way gorm does on create.
func (s *Store) stamp(b *model.BaseModel) {
	now := s.now()
	if b.ID == 0 {
		s.nextId++
		b.ID = s.nextId
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func ctxErr(ctx context.Context) error {
	return ctx.Err()
}

// actors

type actorRepo Store

func (r *actorRepo) Get(ctx context.Context, actorId string) (*model.Actor, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actors[actorId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (r *actorRepo) Create(ctx context.Context, actor *model.Actor) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actors[actor.ActorId]; ok {
		return core.Invalid("actor %s exists", actor.ActorId)
	}
	(*Store)(r).stamp(&actor.BaseModel)
	r.actors[actor.ActorId] = *actor
	return nil
}

func (r *actorRepo) Update(ctx context.Context, actor *model.Actor) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.actors[actor.ActorId]
	if !ok {
		return core.ErrNotFound
	}
	cur.DisplayName = actor.DisplayName
	cur.Profile = actor.Profile
	cur.UpdatedAt = r.now()
	r.actors[actor.ActorId] = cur
	return nil
}

// organizations

type organizationRepo Store

func (r *organizationRepo) Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.JoinCode == org.JoinCode {
			return repo.ErrJoinCodeTaken
		}
	}
	s := (*Store)(r)
	s.stamp(&org.BaseModel)
	r.orgs[org.OrgId] = *org
	s.stamp(&owner.BaseModel)
	r.members[memberKey{owner.OrgId, owner.ActorId}] = cloneMember(*owner)
	return nil
}

func (r *organizationRepo) Get(ctx context.Context, orgId string) (*model.Organization, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orgs[orgId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &o, nil
}

func (r *organizationRepo) GetByJoinCode(ctx context.Context, code string) (*model.Organization, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orgs {
		if o.JoinCode == code && o.Status == model.OrgStatusActive {
			return &o, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *organizationRepo) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orgs {
		if o.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *organizationRepo) Update(ctx context.Context, org *model.Organization) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orgs[org.OrgId]
	if !ok {
		return core.ErrNotFound
	}
	for id, o := range r.orgs {
		if id != org.OrgId && o.JoinCode == org.JoinCode {
			return repo.ErrJoinCodeTaken
		}
	}
	cur.Name = org.Name
	cur.Description = org.Description
	cur.JoinCode = org.JoinCode
	cur.Settings = org.Settings
	cur.Status = org.Status
	cur.UpdatedAt = r.now()
	r.orgs[org.OrgId] = cur
	return nil
}

func (r *organizationRepo) ListByActor(ctx context.Context, actorId string) ([]model.OrganizationView, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var views []model.OrganizationView
	for k, m := range r.members {
		if k.actorId != actorId {
			continue
		}
		o, ok := r.orgs[k.orgId]
		if !ok || o.Status != model.OrgStatusActive {
			continue
		}
		m := cloneMember(m)
		views = append(views, model.OrganizationView{Organization: o, MemberInfo: m.Info()})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// members

type memberRepo Store

func cloneMember(m model.OrganizationMember) model.OrganizationMember {
	m.Permissions = datatypes.NewJSONType(m.Permissions.Data().Clone())
	return m
}

func (r *memberRepo) Get(ctx context.Context, orgId, actorId string) (*model.OrganizationMember, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[memberKey{orgId, actorId}]
	if !ok {
		return nil, core.ErrNotFound
	}
	m = cloneMember(m)
	return &m, nil
}

func (r *memberRepo) List(ctx context.Context, orgId string) ([]model.OrganizationMember, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.OrganizationMember
	for k, m := range r.members {
		if k.orgId == orgId {
			out = append(out, cloneMember(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memberRepo) Create(ctx context.Context, member *model.OrganizationMember) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey{member.OrgId, member.ActorId}
	if _, ok := r.members[key]; ok {
		return core.ErrDuplicateMembership
	}
	(*Store)(r).stamp(&member.BaseModel)
	r.members[key] = cloneMember(*member)
	return nil
}

func (r *memberRepo) Update(ctx context.Context, member *model.OrganizationMember) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey{member.OrgId, member.ActorId}
	cur, ok := r.members[key]
	if !ok {
		return core.ErrNotFound
	}
	cur.Role = member.Role
	cur.Permissions = member.Permissions
	cur.Status = member.Status
	cur.UpdatedAt = r.now()
	r.members[key] = cloneMember(cur)
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, orgId, actorId string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey{orgId, actorId}
	if _, ok := r.members[key]; !ok {
		return core.ErrNotFound
	}
	delete(r.members, key)
	return nil
}

func (r *memberRepo) Count(ctx context.Context, orgId string) (int64, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for k, m := range r.members {
		if k.orgId == orgId && m.Status == model.MemberStatusActive {
			n++
		}
	}
	return n, nil
}

// context preferences

type preferenceRepo Store

func (r *preferenceRepo) Get(ctx context.Context, actorId string) (*model.ContextPreference, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preferences[actorId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &p, nil
}

func (r *preferenceRepo) Save(ctx context.Context, pref *model.ContextPreference) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.preferences[pref.ActorId]; ok {
		pref.ID = cur.ID
		pref.CreatedAt = cur.CreatedAt
	}
	(*Store)(r).stamp(&pref.BaseModel)
	r.preferences[pref.ActorId] = *pref
	return nil
}

// vehicles

type vehicleRepo Store

func (r *vehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	(*Store)(r).stamp(&v.BaseModel)
	r.vehicles[v.VehicleId] = *v
	return nil
}

func (r *vehicleRepo) Get(ctx context.Context, vehicleId string) (*model.Vehicle, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[vehicleId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &v, nil
}

func (r *vehicleRepo) List(ctx context.Context, owner model.Owner) ([]model.Vehicle, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Vehicle
	for _, v := range r.vehicles {
		if v.Owner == owner {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Plate < out[j].Plate })
	return out, nil
}

func (r *vehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.vehicles[v.VehicleId]
	if !ok {
		return core.ErrNotFound
	}
	cur.Plate, cur.Make, cur.Model, cur.Vin = v.Plate, v.Make, v.Model, v.Vin
	cur.MaxHorses, cur.ApprovalNumber = v.MaxHorses, v.ApprovalNumber
	cur.UpdatedAt = r.now()
	r.vehicles[v.VehicleId] = cur
	return nil
}

func (r *vehicleRepo) Delete(ctx context.Context, vehicleId string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[vehicleId]; !ok {
		return core.ErrNotFound
	}
	delete(r.vehicles, vehicleId)
	return nil
}

func (r *vehicleRepo) Count(ctx context.Context, owner model.Owner) (int64, error) {
	list, err := r.List(ctx, owner)
	return int64(len(list)), err
}

// horses

type horseRepo Store

func (r *horseRepo) Create(ctx context.Context, h *model.Horse) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	(*Store)(r).stamp(&h.BaseModel)
	r.horses[h.HorseId] = *h
	return nil
}

func (r *horseRepo) Get(ctx context.Context, horseId string) (*model.Horse, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.horses[horseId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &h, nil
}

func (r *horseRepo) List(ctx context.Context, owner model.Owner) ([]model.Horse, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Horse
	for _, h := range r.horses {
		if h.Owner == owner {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *horseRepo) Update(ctx context.Context, h *model.Horse) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.horses[h.HorseId]
	if !ok {
		return core.ErrNotFound
	}
	cur.Name, cur.Ueln, cur.Breed = h.Name, h.Ueln, h.Breed
	cur.BirthYear, cur.Microchip = h.BirthYear, h.Microchip
	cur.UpdatedAt = r.now()
	r.horses[h.HorseId] = cur
	return nil
}

func (r *horseRepo) Delete(ctx context.Context, horseId string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.horses[horseId]; !ok {
		return core.ErrNotFound
	}
	delete(r.horses, horseId)
	return nil
}

func (r *horseRepo) Count(ctx context.Context, owner model.Owner) (int64, error) {
	list, err := r.List(ctx, owner)
	return int64(len(list)), err
}

// certificates

type certificateRepo Store

func (r *certificateRepo) Create(ctx context.Context, c *model.Certificate) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	(*Store)(r).stamp(&c.BaseModel)
	r.certificates[c.CertificateId] = *c
	return nil
}

func (r *certificateRepo) Get(ctx context.Context, certificateId string) (*model.Certificate, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.certificates[certificateId]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (r *certificateRepo) ListByEntity(ctx context.Context, ref model.EntityRef) ([]model.Certificate, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Certificate
	for _, c := range r.certificates {
		if c.EntityType == ref.Type && c.EntityId == ref.Id {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *certificateRepo) Update(ctx context.Context, c *model.Certificate) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.certificates[c.CertificateId]
	if !ok {
		return core.ErrNotFound
	}
	cur.DisplayName, cur.CertificateType, cur.Notes = c.DisplayName, c.CertificateType, c.Notes
	cur.UpdatedAt = r.now()
	r.certificates[c.CertificateId] = cur
	return nil
}

func (r *certificateRepo) Delete(ctx context.Context, certificateId string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.certificates[certificateId]; !ok {
		return core.ErrNotFound
	}
	delete(r.certificates, certificateId)
	return nil
}

// transports

type transportRepo Store

func cloneTransport(t model.Transport) model.Transport {
	t.HorseIds = slices.Clone(t.HorseIds)
	t.Countries = slices.Clone(t.Countries)
	t.ManualConfirmations = slices.Clone(t.ManualConfirmations)
	t.AutoConfirmations = datatypes.NewJSONType(maps.Clone(t.AutoConfirmations.Data()))
	return t
}

func (r *transportRepo) Create(ctx context.Context, t *model.Transport) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	(*Store)(r).stamp(&t.BaseModel)
	r.transports[t.TransportId] = cloneTransport(*t)
	return nil
}

func (r *transportRepo) Get(ctx context.Context, transportId string) (*model.Transport, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transports[transportId]
	if !ok {
		return nil, core.ErrNotFound
	}
	t = cloneTransport(t)
	return &t, nil
}

func (r *transportRepo) List(ctx context.Context, owner model.Owner) ([]model.Transport, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Transport
	for _, t := range r.transports {
		if t.Owner == owner {
			out = append(out, cloneTransport(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DepartureAt.Equal(out[j].DepartureAt) {
			return out[i].DepartureAt.After(out[j].DepartureAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *transportRepo) Update(ctx context.Context, t *model.Transport) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.transports[t.TransportId]
	if !ok {
		return core.ErrNotFound
	}
	next := cloneTransport(*t)
	next.BaseModel = cur.BaseModel
	next.Owner = cur.Owner
	next.UpdatedAt = r.now()
	r.transports[t.TransportId] = next
	return nil
}

func (r *transportRepo) UpdateConfirmations(ctx context.Context, t *model.Transport) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.transports[t.TransportId]
	if !ok {
		return core.ErrNotFound
	}
	cur.ManualConfirmations = slices.Clone(t.ManualConfirmations)
	cur.AutoConfirmations = datatypes.NewJSONType(maps.Clone(t.AutoConfirmations.Data()))
	cur.UpdatedAt = r.now()
	r.transports[t.TransportId] = cur
	return nil
}

func (r *transportRepo) ListReferencing(ctx context.Context, ref model.EntityRef) ([]model.Transport, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if !ref.Type.Valid() {
		return nil, core.Invalid("entity type %q", ref.Type)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Transport
	for _, t := range r.transports {
		if t.References(ref) {
			out = append(out, cloneTransport(t))
		}
	}
	return out, nil
}

// registrations

type registrationRepo Store

func (r *registrationRepo) Get(ctx context.Context, transportId string) (*model.Registration, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[transportId]
	if !ok {
		return nil, core.ErrNotFound
	}
	reg.Countries = slices.Clone(reg.Countries)
	return &reg, nil
}

func (r *registrationRepo) Transition(ctx context.Context, reg *model.Registration, from model.Phase) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.registrations[reg.TransportId]
	phase := model.PhaseIdle
	if ok && cur.Phase != "" {
		phase = cur.Phase
	}
	if phase != from {
		return false, nil
	}
	if ok {
		reg.ID = cur.ID
		reg.CreatedAt = cur.CreatedAt
	}
	(*Store)(r).stamp(&reg.BaseModel)
	cp := *reg
	cp.Countries = slices.Clone(reg.Countries)
	r.registrations[reg.TransportId] = cp
	return true, nil
}

func (r *registrationRepo) ListStale(ctx context.Context, phases []model.Phase, before time.Time) ([]model.Registration, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Registration
	for _, reg := range r.registrations {
		if slices.Contains(phases, reg.Phase) && reg.UpdatedAt.Before(before) {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].TransportId, out[j].TransportId) < 0 })
	return out, nil
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
