// Package assignment implements the Assignment Engine: candidate filter,
// feasibility, scoring, and selection for each recurring visit instance.
// The shape is narrow-then-pick: narrow a candidate list to feasible
// care givers, then pick a single best by a min-score rule weighted on
// distance and preferred-care-giver continuity.
package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/feasibility"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/metrics"
	"github.com/sanjshine99/care-app-backend/internal/recurrence"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Failure records why a visit instance could not be scheduled.
type Failure struct {
	VisitNumber int
	Date        time.Time
	Reason      string
}

// ReceiverResult is the per-receiver outcome of a Run.
type ReceiverResult struct {
	CareReceiverID string
	Scheduled      []domain.Appointment
	Failed         []Failure
}

// BulkResult collects ReceiverResults across a bulk run.
type BulkResult struct {
	Receivers []ReceiverResult
}

// Engine runs the candidate-filter/feasibility/scoring pipeline against
// the store interfaces and a travel-time client.
type Engine struct {
	CareGivers    store.CareGiverRepo
	CareReceivers store.CareReceiverRepo
	Availability  store.AvailabilityRepo
	Appointments  store.AppointmentRepo
	Router        routing.Client
}

type scoredCandidate struct {
	careGiver domain.CareGiver
	score     float64
}

// RunForReceiver runs the engine for one care receiver across [from,to],
// processing days in increasing order and templates within a day by
// ascending visit_number, so results are deterministic across runs.
func (e *Engine) RunForReceiver(ctx context.Context, careReceiverID string, from, to time.Time, settings domain.SystemSettings) (result ReceiverResult, err error) {
	start := time.Now()
	result = ReceiverResult{CareReceiverID: careReceiverID}
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordSchedulingRun(outcome, time.Since(start))
	}()

	receiver, err := e.CareReceivers.Get(ctx, careReceiverID)
	if err != nil {
		return result, err
	}

	templates := make([]domain.VisitTemplate, len(receiver.VisitTemplates))
	copy(templates, receiver.VisitTemplates)
	sort.Slice(templates, func(i, j int) bool { return templates[i].VisitNumber < templates[j].VisitNumber })

	allCareGivers, err := e.CareGivers.ListActive(ctx)
	if err != nil {
		return result, err
	}

	from, to = geo.UTCDay(from), geo.UTCDay(to)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, v := range templates {
			anchor := recurrence.Anchor(v, receiver.CreatedAt)
			occurs, err := recurrence.OccursOn(v, anchor, d)
			if err != nil {
				return result, err
			}
			if !occurs {
				continue
			}

			exists, err := e.Appointments.ExistsForVisit(ctx, careReceiverID, d, v.VisitNumber)
			if err != nil {
				return result, err
			}
			if exists {
				continue
			}

			apt, failure, err := e.scheduleOne(ctx, receiver, v, d, allCareGivers, settings)
			if err != nil {
				return result, err
			}
			if failure != nil {
				result.Failed = append(result.Failed, *failure)
				metrics.RecordAppointmentFailed()
				continue
			}
			result.Scheduled = append(result.Scheduled, *apt)
			metrics.RecordAppointmentScheduled()
		}
	}
	return result, nil
}

// RunBulk drives RunForReceiver across a list of receiver ids, processed
// in the order supplied.
func (e *Engine) RunBulk(ctx context.Context, careReceiverIDs []string, from, to time.Time, settings domain.SystemSettings) (BulkResult, error) {
	var out BulkResult
	for _, id := range careReceiverIDs {
		r, err := e.RunForReceiver(ctx, id, from, to, settings)
		if err != nil {
			return out, err
		}
		out.Receivers = append(out.Receivers, r)
	}
	return out, nil
}

func (e *Engine) scheduleOne(ctx context.Context, receiver domain.CareReceiver, v domain.VisitTemplate, date time.Time, allCareGivers []domain.CareGiver, settings domain.SystemSettings) (*domain.Appointment, *Failure, error) {
	end := geo.Add(v.PreferredTime, v.DurationMinutes)
	oracle := feasibility.New(e.CareGivers, e.CareReceivers, e.Availability, e.Appointments, settings, e.Router)

	primary, reason, err := e.pickBest(ctx, oracle, allCareGivers, receiver, v, date, v.PreferredTime, end, settings, nil)
	if err != nil {
		return nil, nil, err
	}
	if primary == nil {
		return nil, &Failure{VisitNumber: v.VisitNumber, Date: date, Reason: reason}, nil
	}

	var secondary *domain.CareGiver
	if v.DoubleHanded {
		exclude := map[string]bool{primary.ID: true}
		sec, secReason, err := e.pickBest(ctx, oracle, allCareGivers, receiver, v, date, v.PreferredTime, end, settings, exclude)
		if err != nil {
			return nil, nil, err
		}
		if sec == nil {
			return nil, &Failure{VisitNumber: v.VisitNumber, Date: date, Reason: fmt.Sprintf("no secondary care giver available: %s", secReason)}, nil
		}
		secondary = sec
	}

	primaryVersion, err := snapshotFor(ctx, e.Availability, *primary, date)
	if err != nil {
		return nil, nil, err
	}

	apt := domain.Appointment{
		CareReceiverID:  receiver.ID,
		CareGiverID:     primary.ID,
		Date:            date,
		StartTime:       v.PreferredTime,
		EndTime:         end,
		VisitNumber:     v.VisitNumber,
		Requirements:    v.Requirements,
		DoubleHanded:    v.DoubleHanded,
		Priority:        v.Priority,
		Status:          domain.StatusScheduled,
		PrimarySnapshot: primaryVersion,
	}
	if secondary != nil {
		apt.SecondaryCareGiverID = secondary.ID
		secVersion, err := snapshotFor(ctx, e.Availability, *secondary, date)
		if err != nil {
			return nil, nil, err
		}
		apt.SecondarySnapshot = &secVersion
	}

	created, err := e.Appointments.Create(ctx, apt)
	if err != nil {
		return nil, nil, err
	}
	return &created, nil, nil
}

// Unscheduled reports, for a care receiver over [from,to], the visit
// instances with no non-cancelled appointment yet that a dry-run of the
// assignment pipeline cannot place, each with the reason it gives.
// Instances the dry-run could place are not listed. It never creates
// appointments.
func (e *Engine) Unscheduled(ctx context.Context, careReceiverID string, from, to time.Time, settings domain.SystemSettings) ([]Failure, error) {
	receiver, err := e.CareReceivers.Get(ctx, careReceiverID)
	if err != nil {
		return nil, err
	}

	allCareGivers, err := e.CareGivers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	oracle := feasibility.New(e.CareGivers, e.CareReceivers, e.Availability, e.Appointments, settings, e.Router)

	var out []Failure
	from, to = geo.UTCDay(from), geo.UTCDay(to)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, v := range receiver.VisitTemplates {
			anchor := recurrence.Anchor(v, receiver.CreatedAt)
			occurs, err := recurrence.OccursOn(v, anchor, d)
			if err != nil {
				return nil, err
			}
			if !occurs {
				continue
			}

			exists, err := e.Appointments.ExistsForVisit(ctx, careReceiverID, d, v.VisitNumber)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}

			end := geo.Add(v.PreferredTime, v.DurationMinutes)
			candidate, reason, err := e.pickBest(ctx, oracle, allCareGivers, receiver, v, d, v.PreferredTime, end, settings, nil)
			if err != nil {
				return nil, err
			}
			if candidate == nil {
				out = append(out, Failure{VisitNumber: v.VisitNumber, Date: d, Reason: reason})
				continue
			}
			if v.DoubleHanded {
				exclude := map[string]bool{candidate.ID: true}
				sec, secReason, err := e.pickBest(ctx, oracle, allCareGivers, receiver, v, d, v.PreferredTime, end, settings, exclude)
				if err != nil {
					return nil, err
				}
				if sec == nil {
					out = append(out, Failure{VisitNumber: v.VisitNumber, Date: d, Reason: fmt.Sprintf("no secondary care giver available: %s", secReason)})
					continue
				}
			}
		}
	}
	return out, nil
}

// CandidateFilter is the exported form of candidateFilter, used by
// internal/httpapi's find-available endpoint to rank candidates without
// running the full pick-and-commit pipeline.
func CandidateFilter(careGivers []domain.CareGiver, receiver domain.CareReceiver, v domain.VisitTemplate, maxDistanceKM float64, exclude map[string]bool) []domain.CareGiver {
	return candidateFilter(careGivers, receiver, v, maxDistanceKM, exclude)
}

// candidateFilter narrows allCareGivers to those matching skills, the
// double-handed/single-handed-only rule, gender preference, and distance.
func candidateFilter(careGivers []domain.CareGiver, receiver domain.CareReceiver, v domain.VisitTemplate, maxDistanceKM float64, exclude map[string]bool) []domain.CareGiver {
	var out []domain.CareGiver
	for _, cg := range careGivers {
		if exclude != nil && exclude[cg.ID] {
			continue
		}
		if !cg.HasSkills(v.Requirements) {
			continue
		}
		if !v.DoubleHanded && cg.SingleHandedOnly {
			continue
		}
		if receiver.GenderPreference != domain.PreferNoPreference {
			want := domain.GenderPreference(cg.Gender)
			if want != receiver.GenderPreference {
				continue
			}
		}
		if geo.Haversine(cg.Home, receiver.Home) > maxDistanceKM {
			continue
		}
		out = append(out, cg)
	}
	return out
}

// pickBest runs the candidate filter, feasibility, and scoring steps and
// returns the minimum-score feasible candidate, or nil with a reason
// when none qualify.
func (e *Engine) pickBest(ctx context.Context, oracle *feasibility.Oracle, allCareGivers []domain.CareGiver, receiver domain.CareReceiver, v domain.VisitTemplate, date time.Time, start, end geo.HHMM, settings domain.SystemSettings, exclude map[string]bool) (*domain.CareGiver, string, error) {
	candidates := candidateFilter(allCareGivers, receiver, v, settings.MaxDistanceKM, exclude)
	if len(candidates) == 0 {
		return nil, "no care giver matches skills, gender preference, or distance", nil
	}

	var scored []scoredCandidate
	var lastReason string
	for _, cg := range candidates {
		res, err := oracle.IsAvailable(ctx, cg.ID, date, start, end, receiver.Home, "")
		if err != nil {
			return nil, "", err
		}
		if !res.Available {
			lastReason = res.Reason
			continue
		}
		score := geo.Haversine(cg.Home, receiver.Home)
		if receiver.PreferredCareGiver == cg.ID {
			score -= 10
		}
		scored = append(scored, scoredCandidate{careGiver: cg, score: score})
	}

	if len(scored) == 0 {
		if lastReason == "" {
			lastReason = "no feasible care giver"
		}
		return nil, lastReason, nil
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score < scored[j].score })
	best := scored[0].careGiver
	return &best, "", nil
}

// SnapshotFor is the exported form of snapshotFor, used by
// internal/httpapi when materializing a manually created appointment.
func SnapshotFor(ctx context.Context, availability store.AvailabilityRepo, cg domain.CareGiver, date time.Time) (domain.Snapshot, error) {
	return snapshotFor(ctx, availability, cg, date)
}

func snapshotFor(ctx context.Context, availability store.AvailabilityRepo, cg domain.CareGiver, date time.Time) (domain.Snapshot, error) {
	version, ok, err := availability.CurrentFor(ctx, cg.ID, date)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if !ok {
		return domain.Snapshot{
			AvailabilityVersionID: "",
			WeekdaySlots:          cg.InlinePattern[domain.Weekday(geo.Weekday(date))],
		}, nil
	}
	weekday := domain.Weekday(geo.Weekday(date))
	return domain.Snapshot{
		AvailabilityVersionID: version.ID,
		WeekdaySlots:          version.Schedule[weekday],
	}, nil
}
