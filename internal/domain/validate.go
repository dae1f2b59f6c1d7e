package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidate = validator.New()

// ValidateVisitNumbers enforces the invariant that a CareReceiver's
// VisitTemplates form the exact prefix 1,2,...,k with no gaps or
// duplicates.
func ValidateVisitNumbers(templates []VisitTemplate) error {
	seen := make(map[int]bool, len(templates))
	for _, t := range templates {
		if t.VisitNumber < 1 {
			return fmt.Errorf("domain: visit_number %d is not positive", t.VisitNumber)
		}
		if seen[t.VisitNumber] {
			return fmt.Errorf("domain: duplicate visit_number %d", t.VisitNumber)
		}
		seen[t.VisitNumber] = true
	}
	for i := 1; i <= len(templates); i++ {
		if !seen[i] {
			return fmt.Errorf("domain: visit_number sequence has a gap at %d", i)
		}
	}
	return nil
}

// ValidateVisitTemplate checks the per-template invariants: duration
// bounds, recurrence interval bounds, nonempty days, valid skills.
func ValidateVisitTemplate(t VisitTemplate) error {
	if t.DurationMinutes < 15 || t.DurationMinutes > 240 {
		return fmt.Errorf("domain: duration_minutes %d out of range [15,240]", t.DurationMinutes)
	}
	if t.Priority < 1 || t.Priority > 5 {
		return fmt.Errorf("domain: priority %d out of range [1,5]", t.Priority)
	}
	if t.RecurrenceInterval < 1 || t.RecurrenceInterval > 52 {
		return fmt.Errorf("domain: recurrence_interval %d out of range [1,52]", t.RecurrenceInterval)
	}
	if len(t.DaysOfWeek) == 0 {
		return fmt.Errorf("domain: days_of_week must be nonempty")
	}
	for _, d := range t.DaysOfWeek {
		if !d.Valid() {
			return fmt.Errorf("domain: invalid weekday %q", d)
		}
	}
	if !t.Recurrence.Valid() {
		return fmt.Errorf("domain: invalid recurrence kind %q", t.Recurrence)
	}
	for _, s := range t.Requirements {
		if !s.Valid() {
			return fmt.Errorf("domain: invalid skill %q", s)
		}
	}
	return nil
}

// DefaultDaysOfWeek returns all seven weekdays, the default used when a
// VisitTemplate's days_of_week is otherwise unset.
func DefaultDaysOfWeek() []Weekday {
	return AllWeekdays()
}

// ValidateSettings enforces that the three weights sum to 1.0 (tolerance
// 0.01) and working-hours end strictly after start.
func ValidateSettings(s SystemSettings) error {
	sum := s.PreferredCaregiverWeight + s.DistanceWeight + s.AvailabilityWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("domain: settings weights sum to %.4f, want 1.0 +/- 0.01", sum)
	}
	if !s.WorkingHoursEnd.After(s.WorkingHoursStart) {
		return fmt.Errorf("domain: working_hours_end must be strictly after working_hours_start")
	}
	if s.MaxDistanceKM <= 0 {
		return fmt.Errorf("domain: max_distance_km must be positive")
	}
	if s.MaxAppointmentsPerDay <= 0 {
		return fmt.Errorf("domain: max_appointments_per_day must be positive")
	}
	if s.TravelTimeBufferMinutes < 0 {
		return fmt.Errorf("domain: travel_time_buffer_minutes must be non-negative")
	}
	return nil
}

// settingsDTO is the struct-tag-validated shape used when settings arrive
// over the wire, mirroring jakec-github-ilford-drop-in's config.Validate
// pattern: struct-tag validation first, business-rule checks after.
type settingsDTO struct {
	MaxDistanceKM            float64 `validate:"gt=0"`
	TravelTimeBufferMinutes  int     `validate:"gte=0"`
	MaxAppointmentsPerDay    int     `validate:"gt=0"`
	PreferredCaregiverWeight float64 `validate:"gte=0,lte=1"`
	DistanceWeight           float64 `validate:"gte=0,lte=1"`
	AvailabilityWeight       float64 `validate:"gte=0,lte=1"`
}

// ValidateSettingsDTO runs struct-tag validation, then the weight-sum and
// working-hours business rules via ValidateSettings.
func ValidateSettingsDTO(s SystemSettings) error {
	dto := settingsDTO{
		MaxDistanceKM:            s.MaxDistanceKM,
		TravelTimeBufferMinutes:  s.TravelTimeBufferMinutes,
		MaxAppointmentsPerDay:    s.MaxAppointmentsPerDay,
		PreferredCaregiverWeight: s.PreferredCaregiverWeight,
		DistanceWeight:           s.DistanceWeight,
		AvailabilityWeight:       s.AvailabilityWeight,
	}
	if err := structValidate.Struct(dto); err != nil {
		return fmt.Errorf("domain: settings validation failed: %w", err)
	}
	return ValidateSettings(s)
}
