// Package feasibility implements the Feasibility Oracle: a short-circuit
// chain of checks deciding whether a care giver can take a given visit
// window — narrow a candidate through ordered checks, explaining the
// reason the first one that fails.
package feasibility

import (
	"context"
	"fmt"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Result is the outcome of an is_available check.
type Result struct {
	Available bool
	Reason    string
	Conflicts []domain.Appointment
}

// Oracle evaluates feasibility against the repositories and a travel-time
// client, memoizing travel-time lookups for the Oracle's lifetime. The
// assignment engine builds a fresh Oracle for each visit instance, so
// repeated pairs are deduped across that instance's candidate checks,
// not across a whole assignment run.
type Oracle struct {
	CareGivers    store.CareGiverRepo
	CareReceivers store.CareReceiverRepo
	Availability  store.AvailabilityRepo
	Appointments  store.AppointmentRepo
	Settings      domain.SystemSettings
	Router        routing.Client
	travelCache   map[travelKey]int
}

type travelKey struct {
	aLon, aLat, bLon, bLat float64
}

// New constructs an Oracle with a fresh per-request travel-time cache.
func New(careGivers store.CareGiverRepo, careReceivers store.CareReceiverRepo, availability store.AvailabilityRepo, appointments store.AppointmentRepo, settings domain.SystemSettings, router routing.Client) *Oracle {
	return &Oracle{
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
		Settings:      settings,
		Router:        router,
		travelCache:   make(map[travelKey]int),
	}
}

func (o *Oracle) travelTime(ctx context.Context, a, b geo.Point) (int, error) {
	key := travelKey{a.Lon, a.Lat, b.Lon, b.Lat}
	if v, ok := o.travelCache[key]; ok {
		return v, nil
	}
	minutes, err := o.Router.TravelTime(ctx, a, b)
	if err != nil {
		return 0, err
	}
	o.travelCache[key] = minutes
	return minutes, nil
}

// effectiveVersion returns the availability version to test against:
// the versioned store's current record when one exists, otherwise a
// synthesized read-only pseudo-version from the care giver's inline
// pattern and holidays.
func effectiveVersion(ctx context.Context, availability store.AvailabilityRepo, cg domain.CareGiver, date time.Time) (domain.AvailabilityVersion, error) {
	v, ok, err := availability.CurrentFor(ctx, cg.ID, date)
	if err != nil {
		return domain.AvailabilityVersion{}, err
	}
	if ok {
		return v, nil
	}
	return domain.AvailabilityVersion{
		CareGiverID:   cg.ID,
		EffectiveFrom: date,
		Schedule:      cg.InlinePattern,
		TimeOff:       cg.InlineHolidays,
		IsActive:      true,
	}, nil
}

// IsAvailable runs the seven ordered feasibility checks, short
// circuiting on the first failure. excludeAptID, when non-empty, is
// omitted from the daily-cap, overlap, and adjacency checks (used when
// re-checking an appointment being re-validated in place).
func (o *Oracle) IsAvailable(ctx context.Context, cgID string, date time.Time, start, end geo.HHMM, receiverLocation geo.Point, excludeAptID string) (Result, error) {
	// 1. Existence & active.
	cg, err := o.CareGivers.Get(ctx, cgID)
	if err != nil {
		if err == store.ErrNotFound {
			return Result{Available: false, Reason: "care giver not found"}, nil
		}
		return Result{}, err
	}
	if !cg.IsActive {
		return Result{Available: false, Reason: "care giver is not active"}, nil
	}

	version, err := effectiveVersion(ctx, o.Availability, cg, date)
	if err != nil {
		return Result{}, err
	}

	// 2. Holiday — inline list wins when no version exists; both are
	// otherwise consulted.
	if version.OnTimeOff(date) {
		return Result{Available: false, Reason: "care giver is on time off"}, nil
	}
	for _, to := range cg.InlineHolidays {
		if to.Covers(date) {
			return Result{Available: false, Reason: "care giver is on time off"}, nil
		}
	}

	// 3. Weekly pattern.
	weekday := domain.Weekday(geo.Weekday(date))
	if !version.Schedule.AvailableAt(weekday, start, end) {
		return Result{Available: false, Reason: fmt.Sprintf("not within a working slot on %s", weekday)}, nil
	}

	dayApts, err := o.Appointments.ForCareGiverOnDay(ctx, cgID, date)
	if err != nil {
		return Result{}, err
	}
	dayApts = excludeAppointment(dayApts, excludeAptID)

	// 4. Daily cap.
	count := 0
	for _, a := range dayApts {
		if a.Status.CountsTowardCapacity() {
			count++
		}
	}
	if count >= o.Settings.MaxAppointmentsPerDay {
		return Result{Available: false, Reason: "care giver is at the daily appointment cap"}, nil
	}

	// 5. Intra-day overlap.
	candidate := domain.Appointment{Date: date, StartTime: start, EndTime: end}
	var conflicts []domain.Appointment
	for _, a := range dayApts {
		if !a.Status.CountsTowardCapacity() {
			continue
		}
		if candidate.Overlaps(a) {
			conflicts = append(conflicts, a)
		}
	}
	if len(conflicts) > 0 {
		return Result{Available: false, Reason: "overlaps an existing appointment", Conflicts: conflicts}, nil
	}

	startAt := date.Add(time.Duration(start.Minutes()) * time.Minute)
	endAt := date.Add(time.Duration(end.Minutes()) * time.Minute)
	before, after, hasBefore, hasAfter, err := o.Appointments.AdjacentForCareGiver(ctx, cgID, date, startAt, endAt)
	if err != nil {
		return Result{}, err
	}
	if excludeAptID != "" {
		if hasBefore && before.ID == excludeAptID {
			hasBefore = false
		}
		if hasAfter && after.ID == excludeAptID {
			hasAfter = false
		}
	}

	// 6. Travel time before.
	if hasBefore {
		if loc, ok := o.appointmentLocation(ctx, before); ok {
			minutes, err := o.travelTime(ctx, loc, receiverLocation)
			if err != nil {
				return Result{}, err
			}
			gap := start.Minutes() - before.EndTime.Minutes()
			required := minutes + o.Settings.TravelTimeBufferMinutes
			if gap < required {
				return Result{Available: false, Reason: "insufficient travel time from previous"}, nil
			}
		}
	}

	// 7. Travel time after.
	if hasAfter {
		if loc, ok := o.appointmentLocation(ctx, after); ok {
			minutes, err := o.travelTime(ctx, receiverLocation, loc)
			if err != nil {
				return Result{}, err
			}
			gap := after.StartTime.Minutes() - end.Minutes()
			required := minutes + o.Settings.TravelTimeBufferMinutes
			if gap < required {
				return Result{Available: false, Reason: "insufficient travel time to next"}, nil
			}
		}
	}

	return Result{Available: true}, nil
}

func excludeAppointment(apts []domain.Appointment, excludeID string) []domain.Appointment {
	if excludeID == "" {
		return apts
	}
	out := make([]domain.Appointment, 0, len(apts))
	for _, a := range apts {
		if a.ID != excludeID {
			out = append(out, a)
		}
	}
	return out
}

// appointmentLocation resolves the home location of the care receiver an
// existing appointment belongs to. Appointment itself stores no
// geolocation (only the schedule snapshot), so this looks the receiver up;
// a lookup failure is treated as "skip this travel-time check silently",
// since an adjacent appointment lacking a geolocation is not this check's
// problem to surface.
func (o *Oracle) appointmentLocation(ctx context.Context, a domain.Appointment) (geo.Point, bool) {
	cr, err := o.CareReceivers.Get(ctx, a.CareReceiverID)
	if err != nil {
		return geo.Point{}, false
	}
	return cr.Home, true
}
