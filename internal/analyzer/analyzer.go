// Package analyzer produces a diagnostic report: for every active care
// giver, a rejection/match report against a candidate visit. It shares
// internal/feasibility's checks but never mutates state, generalizing
// the boolean short-circuit into accumulated penalty scoring — extended
// from "pick one winner" to "score and rank everyone".
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Report is one care giver's diagnostic entry.
type Report struct {
	CareGiverID      string
	Name             string
	CanAssign        bool
	RejectionReasons []string
	MatchScore       int
	DistanceKM       float64
}

// Analyzer produces per-care-giver diagnostics for a candidate visit.
type Analyzer struct {
	CareGivers   store.CareGiverRepo
	Availability store.AvailabilityRepo
	Appointments store.AppointmentRepo
	Settings     domain.SystemSettings
}

// Analyze scores every active care giver against (receiver, template,
// date), applying the §4.7 penalty table, and returns the reports sorted
// assignable-first then by descending score.
func (a *Analyzer) Analyze(ctx context.Context, receiver domain.CareReceiver, v domain.VisitTemplate, date time.Time) ([]Report, error) {
	careGivers, err := a.CareGivers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	start := v.PreferredTime
	end := geo.Add(v.PreferredTime, v.DurationMinutes)

	reports := make([]Report, 0, len(careGivers))
	for _, cg := range careGivers {
		r, err := a.analyzeOne(ctx, cg, receiver, v, date, start, end)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].CanAssign != reports[j].CanAssign {
			return reports[i].CanAssign
		}
		return reports[i].MatchScore > reports[j].MatchScore
	})
	return reports, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, cg domain.CareGiver, receiver domain.CareReceiver, v domain.VisitTemplate, date time.Time, start, end geo.HHMM) (Report, error) {
	report := Report{CareGiverID: cg.ID, Name: cg.Name, CanAssign: true, MatchScore: 100}
	blocked := false

	missing := 0
	have := make(map[domain.Skill]bool, len(cg.Skills))
	for _, s := range cg.Skills {
		have[s] = true
	}
	for _, req := range v.Requirements {
		if !have[req] {
			missing++
		}
	}
	if missing > 0 {
		report.MatchScore -= 25 * missing
		report.RejectionReasons = append(report.RejectionReasons, fmt.Sprintf("missing %d required skill(s)", missing))
	}

	if receiver.GenderPreference != domain.PreferNoPreference {
		if domain.GenderPreference(cg.Gender) != receiver.GenderPreference {
			report.MatchScore -= 30
			report.RejectionReasons = append(report.RejectionReasons, "gender preference violated")
			blocked = true
		}
	}

	if v.DoubleHanded && cg.SingleHandedOnly {
		report.MatchScore -= 50
		report.RejectionReasons = append(report.RejectionReasons, "secondary needed but care giver is single-handed-only")
	}

	version, hasVersion, err := a.Availability.CurrentFor(ctx, cg.ID, date)
	if err != nil {
		return Report{}, err
	}
	schedule := cg.InlinePattern
	holidays := cg.InlineHolidays
	if hasVersion {
		schedule = version.Schedule
		holidays = version.TimeOff
	}

	if len(schedule) == 0 {
		report.MatchScore -= 100
		report.RejectionReasons = append(report.RejectionReasons, "no availability schedule at all")
	} else {
		weekday := domain.Weekday(geo.Weekday(date))
		slots, working := schedule[weekday]
		if !working || len(slots) == 0 {
			report.MatchScore -= 40
			report.RejectionReasons = append(report.RejectionReasons, fmt.Sprintf("not working on %s", weekday))
		} else {
			inSlot := false
			for _, s := range slots {
				if s.Contains(start, end) {
					inSlot = true
					break
				}
			}
			if !inSlot {
				report.MatchScore -= 30
				report.RejectionReasons = append(report.RejectionReasons, "not within a working slot at the visit time")
			}
		}
	}

	onHoliday := false
	for _, to := range holidays {
		if to.Covers(date) {
			onHoliday = true
			break
		}
	}
	if onHoliday {
		report.MatchScore -= 100
		report.RejectionReasons = append(report.RejectionReasons, "on holiday")
	}

	dist := geo.Haversine(cg.Home, receiver.Home)
	report.DistanceKM = dist
	if dist > a.Settings.MaxDistanceKM {
		report.MatchScore -= 20
		report.RejectionReasons = append(report.RejectionReasons, "distance exceeds maximum")
	} else {
		bonus := int(math.Round(10 * (a.Settings.MaxDistanceKM - dist) / a.Settings.MaxDistanceKM))
		report.MatchScore += bonus
	}

	dayApts, err := a.Appointments.ForCareGiverOnDay(ctx, cg.ID, date)
	if err != nil {
		return Report{}, err
	}

	count := 0
	for _, apt := range dayApts {
		if apt.Status.CountsTowardCapacity() {
			count++
		}
	}
	if count >= a.Settings.MaxAppointmentsPerDay {
		report.MatchScore -= 30
		report.RejectionReasons = append(report.RejectionReasons, "at or above daily appointment cap")
	}

	candidate := domain.Appointment{Date: date, StartTime: start, EndTime: end}
	overlap := false
	for _, apt := range dayApts {
		if apt.Status.CountsTowardCapacity() && candidate.Overlaps(apt) {
			overlap = true
			break
		}
	}
	if overlap {
		report.MatchScore -= 40
		report.RejectionReasons = append(report.RejectionReasons, "intra-day overlap with an existing appointment")
	}

	if insufficientGap(dayApts, start, end, a.Settings.TravelTimeBufferMinutes) {
		report.MatchScore -= 25
		report.RejectionReasons = append(report.RejectionReasons, "insufficient travel gap relative to an adjacent appointment")
	}

	report.MatchScore = clamp(report.MatchScore, 0, 100)
	report.CanAssign = !blocked && len(report.RejectionReasons) == 0
	return report, nil
}

// insufficientGap approximates the travel-gap penalty by comparing the gap
// to each adjacent counting appointment against bufferMinutes alone; no
// travel time (Haversine or routed) is added to the buffer, and the
// diagnostic report never calls out to an external service.
func insufficientGap(dayApts []domain.Appointment, start, end geo.HHMM, bufferMinutes int) bool {
	for _, apt := range dayApts {
		if !apt.Status.CountsTowardCapacity() {
			continue
		}
		if apt.EndTime.Minutes() <= start.Minutes() {
			gap := start.Minutes() - apt.EndTime.Minutes()
			if gap < bufferMinutes {
				return true
			}
		}
		if apt.StartTime.Minutes() >= end.Minutes() {
			gap := apt.StartTime.Minutes() - end.Minutes()
			if gap < bufferMinutes {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
