package domain

import (
	"time"

	"github.com/sanjshine99/care-app-backend/internal/geo"
)

// CareGiver is identity, contact, and scheduling-relevant attributes for a
// person who performs visits. The versioned AvailabilityStore supersedes
// the inline weekly pattern when a version exists.
type CareGiver struct {
	ID               string
	Name             string
	Email            string
	Phone            string
	Home             geo.Point
	Gender           Gender
	Skills           []Skill
	CanDrive         bool
	SingleHandedOnly bool
	MaxReceivers     int
	InlinePattern    WeeklySchedule
	InlineHolidays   []TimeOff
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSkills reports whether cg has every skill in required.
func (cg CareGiver) HasSkills(required []Skill) bool {
	have := make(map[Skill]bool, len(cg.Skills))
	for _, s := range cg.Skills {
		have[s] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

// CareReceiver is identity, home location, gender preference, and the
// ordered list of recurring VisitTemplates for a care recipient.
type CareReceiver struct {
	ID                  string
	Name                string
	Home                geo.Point
	Gender              Gender
	GenderPreference    GenderPreference
	PreferredCareGiver  string // CareGiver.ID, or "" — back-reference, never ownership
	VisitTemplates      []VisitTemplate
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// VisitTemplate is a recurring care obligation on a CareReceiver.
type VisitTemplate struct {
	VisitNumber          int // 1-indexed, sequential, unique within the receiver
	PreferredTime        geo.HHMM
	DurationMinutes      int // [15,240]
	Requirements         []Skill
	DoubleHanded         bool
	Priority             int // [1,5], informational only — never used to break ties
	DaysOfWeek           []Weekday
	Recurrence           RecurrenceKind
	RecurrenceInterval   int // weeks, [1,52]
	RecurrenceStartDate  *time.Time
}

// EndTime returns PreferredTime plus DurationMinutes.
func (v VisitTemplate) EndTime() geo.HHMM {
	return geo.Add(v.PreferredTime, v.DurationMinutes)
}

// TimeOff is a holiday / unavailable interval, compared at day resolution
// in UTC.
type TimeOff struct {
	Start  time.Time
	End    time.Time
	Reason string
}

// Covers reports whether date (any time-of-day) falls within [Start,End]
// inclusive, compared at UTC day resolution.
func (t TimeOff) Covers(date time.Time) bool {
	d := geo.UTCDay(date)
	s := geo.UTCDay(t.Start)
	e := geo.UTCDay(t.End)
	return !d.Before(s) && !d.After(e)
}

// TimeSlot is a [Start,End) working window on a single weekday.
type TimeSlot struct {
	Start geo.HHMM
	End   geo.HHMM
}

// Contains reports whether [start,end] lies fully inside the slot.
func (s TimeSlot) Contains(start, end geo.HHMM) bool {
	return !start.Before(s.Start) && !end.After(s.End)
}

// WeeklySchedule maps each weekday to the slots a care giver is working.
type WeeklySchedule map[Weekday][]TimeSlot

// AvailableAt reports whether some slot on day contains [start,end].
func (w WeeklySchedule) AvailableAt(day Weekday, start, end geo.HHMM) bool {
	for _, slot := range w[day] {
		if slot.Contains(start, end) {
			return true
		}
	}
	return false
}

// AvailabilityVersion is an immutable record of a care giver's weekly
// pattern and holidays valid over [EffectiveFrom, EffectiveTo).
type AvailabilityVersion struct {
	ID            string
	CareGiverID   string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = open-ended
	Schedule      WeeklySchedule
	TimeOff       []TimeOff
	Version       int // monotone per care giver
	IsActive      bool
}

// OnTimeOff reports whether date falls within any of the version's
// time-off intervals.
func (v AvailabilityVersion) OnTimeOff(date time.Time) bool {
	for _, to := range v.TimeOff {
		if to.Covers(date) {
			return true
		}
	}
	return false
}

// Snapshot is the scheduling-time audit copy embedded in an Appointment:
// the AvailabilityVersion id in force at creation, plus a copy of the
// specific weekday's slots, so historical audit survives later schedule
// changes.
type Snapshot struct {
	AvailabilityVersionID string
	WeekdaySlots          []TimeSlot
}

// Appointment is a materialized, dated instance of a VisitTemplate with
// care-giver(s) assigned.
type Appointment struct {
	ID                   string
	CareReceiverID       string
	CareGiverID          string
	SecondaryCareGiverID string // "" if not double-handed or unassigned
	Date                 time.Time // UTC day
	StartTime            geo.HHMM
	EndTime              geo.HHMM
	VisitNumber          int
	Requirements         []Skill
	DoubleHanded         bool
	Priority             int
	Status               AppointmentStatus
	CancellationReason   string
	InvalidationReason   string
	InvalidatedAt        *time.Time
	PrimarySnapshot      Snapshot
	SecondarySnapshot     *Snapshot
	CreatedAt            time.Time
}

// Duration returns the appointment's length.
func (a Appointment) Duration() time.Duration {
	return time.Duration(a.EndTime.Minutes()-a.StartTime.Minutes()) * time.Minute
}

// Overlaps reports whether a and other share a UTC day and their
// [start,end) windows intersect (half-open: touching endpoints allowed).
func (a Appointment) Overlaps(other Appointment) bool {
	if !geo.UTCDay(a.Date).Equal(geo.UTCDay(other.Date)) {
		return false
	}
	return a.StartTime.Minutes() < other.EndTime.Minutes() &&
		other.StartTime.Minutes() < a.EndTime.Minutes()
}

// InvolvesCareGiver reports whether cgID is assigned as primary or
// secondary on this appointment.
func (a Appointment) InvolvesCareGiver(cgID string) bool {
	return a.CareGiverID == cgID || (a.SecondaryCareGiverID != "" && a.SecondaryCareGiverID == cgID)
}

// SystemSettings is the singleton scheduling configuration.
type SystemSettings struct {
	MaxDistanceKM            float64
	TravelTimeBufferMinutes  int
	MaxAppointmentsPerDay    int
	WorkingHoursStart        geo.HHMM
	WorkingHoursEnd          geo.HHMM
	PreferredCaregiverWeight float64
	DistanceWeight           float64
	AvailabilityWeight       float64
	UpdatedAt                time.Time
}

// DefaultSettings returns the baseline configuration used before any
// operator-supplied settings are persisted.
func DefaultSettings() SystemSettings {
	start, _ := geo.ParseHHMM("08:00")
	end, _ := geo.ParseHHMM("18:00")
	return SystemSettings{
		MaxDistanceKM:            20,
		TravelTimeBufferMinutes:  15,
		MaxAppointmentsPerDay:    8,
		WorkingHoursStart:        start,
		WorkingHoursEnd:          end,
		PreferredCaregiverWeight: 0.4,
		DistanceWeight:           0.4,
		AvailabilityWeight:       0.2,
	}
}
