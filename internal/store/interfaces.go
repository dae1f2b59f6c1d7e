// Package store defines the repository interfaces the scheduling core
// depends on. Two implementations satisfy them: pgstore (Postgres, via
// jackc/pgx/v5) for production, and memstore (in-process) for tests —
// a fake repository satisfying the real interface, rather than a
// generated-mock framework.
package store

import (
	"context"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
)

// CareGiverRepo reads care giver entities. Mutation is out of scope —
// CRUD lives outside the scheduling core, which only reads.
type CareGiverRepo interface {
	Get(ctx context.Context, id string) (domain.CareGiver, error)
	ListActive(ctx context.Context) ([]domain.CareGiver, error)
}

// CareReceiverRepo reads care receiver entities, including their
// VisitTemplates.
type CareReceiverRepo interface {
	Get(ctx context.Context, id string) (domain.CareReceiver, error)
	ListActive(ctx context.Context) ([]domain.CareReceiver, error)
}

// AvailabilityRepo implements the versioned weekly-schedule store.
type AvailabilityRepo interface {
	// CurrentFor returns the unique version with EffectiveFrom <= atDate
	// and (EffectiveTo == nil or EffectiveTo >= atDate) and IsActive,
	// ties broken by greatest EffectiveFrom.
	CurrentFor(ctx context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error)
	// At is the same predicate without the IsActive filter, for
	// historical audit.
	At(ctx context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error)
	// History returns all versions for a care giver, newest
	// EffectiveFrom first.
	History(ctx context.Context, careGiverID string) ([]domain.AvailabilityVersion, error)
	// CreateVersion atomically closes any open version and inserts a new
	// open one with Version = max existing + 1. Must be linearizable per
	// care giver.
	CreateVersion(ctx context.Context, careGiverID string, schedule domain.WeeklySchedule, timeOff []domain.TimeOff, effectiveFrom time.Time) (domain.AvailabilityVersion, error)
}

// AppointmentRepo persists and queries Appointments.
type AppointmentRepo interface {
	Create(ctx context.Context, apt domain.Appointment) (domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Update(ctx context.Context, apt domain.Appointment) error
	Delete(ctx context.Context, id string) error

	// ForCareGiverOnDay returns every appointment (primary or secondary
	// role) for a care giver on a UTC day, for daily-cap and overlap
	// checks.
	ForCareGiverOnDay(ctx context.Context, careGiverID string, day time.Time) ([]domain.Appointment, error)

	// AdjacentForCareGiver returns the nearest appointment before and
	// after the given window on the same day for a care giver, for the
	// travel-time checks. Either may be zero valued with found=false.
	AdjacentForCareGiver(ctx context.Context, careGiverID string, day time.Time, start, end time.Time) (before, after domain.Appointment, beforeFound, afterFound bool, err error)

	// ForCareReceiver returns appointments for one receiver within
	// [from,to].
	ForCareReceiver(ctx context.Context, careReceiverID string, from, to time.Time) ([]domain.Appointment, error)

	// InRange returns appointments across the whole system within a
	// window, optionally filtered, for the validator and list endpoints.
	InRange(ctx context.Context, from, to time.Time, filter AppointmentFilter) ([]domain.Appointment, error)

	// ExistsForVisit reports whether an appointment already exists for
	// (careReceiverID, date, visitNumber) in a non-cancelled state, the
	// idempotence check callers run before inserting a new one.
	ExistsForVisit(ctx context.Context, careReceiverID string, date time.Time, visitNumber int) (bool, error)
}

// AppointmentFilter narrows InRange/list queries.
type AppointmentFilter struct {
	CareGiverID    string
	CareReceiverID string
	Status         domain.AppointmentStatus
}

// SettingsRepo persists the SystemSettings singleton.
type SettingsRepo interface {
	Get(ctx context.Context) (domain.SystemSettings, error)
	Save(ctx context.Context, s domain.SystemSettings) error
}

// ErrNotFound is returned by Get-style methods when the entity does not exist.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "store: entity not found" }
