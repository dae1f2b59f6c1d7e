// Package memstore is an in-process implementation of the store
// interfaces, used by engine/validator/analyzer tests so they never touch
// a database — a fake repository satisfying the real interface, a plain
// struct with a mutex rather than a mock framework.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// CareGivers is an in-memory CareGiverRepo.
type CareGivers struct {
	mu   sync.RWMutex
	data map[string]domain.CareGiver
}

func NewCareGivers() *CareGivers {
	return &CareGivers{data: make(map[string]domain.CareGiver)}
}

func (s *CareGivers) Put(cg domain.CareGiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cg.ID] = cg
}

func (s *CareGivers) Get(_ context.Context, id string) (domain.CareGiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cg, ok := s.data[id]
	if !ok {
		return domain.CareGiver{}, store.ErrNotFound
	}
	return cg, nil
}

func (s *CareGivers) ListActive(_ context.Context) ([]domain.CareGiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CareGiver, 0, len(s.data))
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if cg := s.data[id]; cg.IsActive {
			out = append(out, cg)
		}
	}
	return out, nil
}

// CareReceivers is an in-memory CareReceiverRepo.
type CareReceivers struct {
	mu   sync.RWMutex
	data map[string]domain.CareReceiver
}

func NewCareReceivers() *CareReceivers {
	return &CareReceivers{data: make(map[string]domain.CareReceiver)}
}

func (s *CareReceivers) Put(cr domain.CareReceiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cr.ID] = cr
}

func (s *CareReceivers) Get(_ context.Context, id string) (domain.CareReceiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cr, ok := s.data[id]
	if !ok {
		return domain.CareReceiver{}, store.ErrNotFound
	}
	return cr, nil
}

func (s *CareReceivers) ListActive(_ context.Context) ([]domain.CareReceiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CareReceiver, 0, len(s.data))
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if cr := s.data[id]; cr.IsActive {
			out = append(out, cr)
		}
	}
	return out, nil
}

// Availability is an in-memory AvailabilityRepo. One mutex guards the
// versions of all care givers, so each care giver's create/close stays
// linearizable.
type Availability struct {
	mu       sync.Mutex
	versions map[string][]domain.AvailabilityVersion // careGiverID -> versions, any order
}

func NewAvailability() *Availability {
	return &Availability{versions: make(map[string][]domain.AvailabilityVersion)}
}

func (s *Availability) CurrentFor(_ context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best domain.AvailabilityVersion
	found := false
	for _, v := range s.versions[careGiverID] {
		if !v.IsActive {
			continue
		}
		if !matchesWindow(v, atDate) {
			continue
		}
		if !found || v.EffectiveFrom.After(best.EffectiveFrom) {
			best = v
			found = true
		}
	}
	return best, found, nil
}

func (s *Availability) At(_ context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best domain.AvailabilityVersion
	found := false
	for _, v := range s.versions[careGiverID] {
		if !matchesWindow(v, atDate) {
			continue
		}
		if !found || v.EffectiveFrom.After(best.EffectiveFrom) {
			best = v
			found = true
		}
	}
	return best, found, nil
}

func matchesWindow(v domain.AvailabilityVersion, atDate time.Time) bool {
	if v.EffectiveFrom.After(atDate) {
		return false
	}
	if v.EffectiveTo != nil && v.EffectiveTo.Before(atDate) {
		return false
	}
	return true
}

func (s *Availability) History(_ context.Context, careGiverID string) ([]domain.AvailabilityVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AvailabilityVersion, len(s.versions[careGiverID]))
	copy(out, s.versions[careGiverID])
	sort.Slice(out, func(i, j int) bool {
		return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
	})
	return out, nil
}

func (s *Availability) CreateVersion(_ context.Context, careGiverID string, schedule domain.WeeklySchedule, timeOff []domain.TimeOff, effectiveFrom time.Time) (domain.AvailabilityVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.versions[careGiverID]
	maxVersion := 0
	for i := range existing {
		if existing[i].IsActive && existing[i].EffectiveTo == nil {
			existing[i].EffectiveTo = &effectiveFrom
			existing[i].IsActive = false
		}
		if existing[i].Version > maxVersion {
			maxVersion = existing[i].Version
		}
	}

	nv := domain.AvailabilityVersion{
		ID:            uuid.NewString(),
		CareGiverID:   careGiverID,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   nil,
		Schedule:      schedule,
		TimeOff:       timeOff,
		Version:       maxVersion + 1,
		IsActive:      true,
	}
	s.versions[careGiverID] = append(existing, nv)
	return nv, nil
}

// Appointments is an in-memory AppointmentRepo.
type Appointments struct {
	mu   sync.RWMutex
	data map[string]domain.Appointment
}

func NewAppointments() *Appointments {
	return &Appointments{data: make(map[string]domain.Appointment)}
}

func (s *Appointments) Create(_ context.Context, apt domain.Appointment) (domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	if apt.CreatedAt.IsZero() {
		apt.CreatedAt = apt.Date
	}
	s.data[apt.ID] = apt
	return apt, nil
}

func (s *Appointments) Get(_ context.Context, id string) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Appointments) Update(_ context.Context, apt domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[apt.ID]; !ok {
		return store.ErrNotFound
	}
	s.data[apt.ID] = apt
	return nil
}

func (s *Appointments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *Appointments) all() []domain.Appointment {
	out := make([]domain.Appointment, 0, len(s.data))
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, s.data[id])
	}
	return out
}

func (s *Appointments) ForCareGiverOnDay(_ context.Context, careGiverID string, day time.Time) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day = truncDay(day)
	var out []domain.Appointment
	for _, a := range s.all() {
		if truncDay(a.Date).Equal(day) && a.InvolvesCareGiver(careGiverID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Appointments) AdjacentForCareGiver(_ context.Context, careGiverID string, day time.Time, start, end time.Time) (before, after domain.Appointment, beforeFound, afterFound bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day = truncDay(day)
	for _, a := range s.all() {
		if !truncDay(a.Date).Equal(day) || !a.InvolvesCareGiver(careGiverID) || !a.Status.CountsTowardCapacity() {
			continue
		}
		aEnd := toTimeOfDay(day, a.EndTime.Minutes())
		aStart := toTimeOfDay(day, a.StartTime.Minutes())
		if !aEnd.After(start) {
			if !beforeFound || aEnd.After(toTimeOfDay(day, before.EndTime.Minutes())) {
				before, beforeFound = a, true
			}
		}
		if !aStart.Before(end) {
			if !afterFound || aStart.Before(toTimeOfDay(day, after.StartTime.Minutes())) {
				after, afterFound = a, true
			}
		}
	}
	return before, after, beforeFound, afterFound, nil
}

func toTimeOfDay(day time.Time, minutes int) time.Time {
	return day.Add(time.Duration(minutes) * time.Minute)
}

func truncDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Appointments) ForCareReceiver(_ context.Context, careReceiverID string, from, to time.Time) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Appointment
	for _, a := range s.all() {
		if a.CareReceiverID != careReceiverID {
			continue
		}
		if a.Date.Before(truncDay(from)) || a.Date.After(truncDay(to)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Appointments) InRange(_ context.Context, from, to time.Time, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Appointment
	for _, a := range s.all() {
		if a.Date.Before(truncDay(from)) || a.Date.After(truncDay(to)) {
			continue
		}
		if filter.CareGiverID != "" && !a.InvolvesCareGiver(filter.CareGiverID) {
			continue
		}
		if filter.CareReceiverID != "" && a.CareReceiverID != filter.CareReceiverID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Appointments) ExistsForVisit(_ context.Context, careReceiverID string, date time.Time, visitNumber int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	date = truncDay(date)
	for _, a := range s.data {
		if a.CareReceiverID == careReceiverID && truncDay(a.Date).Equal(date) &&
			a.VisitNumber == visitNumber && a.Status != domain.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

// Settings is an in-memory SettingsRepo.
type Settings struct {
	mu    sync.RWMutex
	value domain.SystemSettings
	set   bool
}

func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Get(_ context.Context) (domain.SystemSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return domain.DefaultSettings(), nil
	}
	return s.value, nil
}

func (s *Settings) Save(_ context.Context, v domain.SystemSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.set = true
	return nil
}
