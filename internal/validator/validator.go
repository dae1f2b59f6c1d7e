// Package validator scans scheduled appointments for preconditions that
// have broken since assignment, flagging or clearing needs_reassignment.
// Shares the same short-circuit-checklist shape and reason-string
// pattern as internal/feasibility.
package validator

import (
	"context"
	"strings"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/metrics"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Validator scans appointments in a window and corrects their status.
type Validator struct {
	CareGivers    store.CareGiverRepo
	CareReceivers store.CareReceiverRepo
	Availability  store.AvailabilityRepo
	Appointments  store.AppointmentRepo
}

// Transition records a status change made by a Run.
type Transition struct {
	AppointmentID string
	From          domain.AppointmentStatus
	To            domain.AppointmentStatus
	Reason        string
}

// Run scans appointments whose status is scheduled or needs_reassignment
// within [from,to] and applies its preconditions checks, returning every
// transition it made.
func (v *Validator) Run(ctx context.Context, from, to time.Time) ([]Transition, error) {
	scheduled, err := v.Appointments.InRange(ctx, from, to, store.AppointmentFilter{Status: domain.StatusScheduled})
	if err != nil {
		return nil, err
	}
	needsReassignment, err := v.Appointments.InRange(ctx, from, to, store.AppointmentFilter{Status: domain.StatusNeedsReassignment})
	if err != nil {
		return nil, err
	}

	var transitions []Transition
	for _, apt := range append(scheduled, needsReassignment...) {
		issues, err := v.checkAppointment(ctx, apt)
		if err != nil {
			return nil, err
		}

		switch {
		case len(issues) > 0 && apt.Status != domain.StatusNeedsReassignment:
			now := now()
			apt.Status = domain.StatusNeedsReassignment
			apt.InvalidationReason = strings.Join(issues, "; ")
			apt.InvalidatedAt = &now
			if err := v.Appointments.Update(ctx, apt); err != nil {
				return nil, err
			}
			transitions = append(transitions, Transition{
				AppointmentID: apt.ID, From: domain.StatusScheduled, To: domain.StatusNeedsReassignment,
				Reason: apt.InvalidationReason,
			})
			metrics.RecordValidatorTransition(string(domain.StatusNeedsReassignment))
		case len(issues) == 0 && apt.Status == domain.StatusNeedsReassignment:
			apt.Status = domain.StatusScheduled
			apt.InvalidationReason = ""
			apt.InvalidatedAt = nil
			if err := v.Appointments.Update(ctx, apt); err != nil {
				return nil, err
			}
			transitions = append(transitions, Transition{
				AppointmentID: apt.ID, From: domain.StatusNeedsReassignment, To: domain.StatusScheduled,
			})
			metrics.RecordValidatorTransition(string(domain.StatusScheduled))
		}
	}
	return transitions, nil
}

func (v *Validator) checkAppointment(ctx context.Context, apt domain.Appointment) ([]string, error) {
	var issues []string

	receiver, err := v.CareReceivers.Get(ctx, apt.CareReceiverID)
	if err != nil {
		if err == store.ErrNotFound {
			issues = append(issues, "care receiver no longer exists")
		} else {
			return nil, err
		}
	} else if !receiver.IsActive {
		issues = append(issues, "care receiver is no longer active")
	}

	if issue, err := v.checkCareGiver(ctx, apt.CareGiverID, apt.Date); err != nil {
		return nil, err
	} else if issue != "" {
		issues = append(issues, issue)
	}

	if apt.DoubleHanded {
		if apt.SecondaryCareGiverID == "" {
			issues = append(issues, "double-handed visit has no secondary care giver")
		} else if issue, err := v.checkCareGiver(ctx, apt.SecondaryCareGiverID, apt.Date); err != nil {
			return nil, err
		} else if issue != "" {
			issues = append(issues, issue)
		}
	}

	return issues, nil
}

func (v *Validator) checkCareGiver(ctx context.Context, cgID string, date time.Time) (string, error) {
	cg, err := v.CareGivers.Get(ctx, cgID)
	if err != nil {
		if err == store.ErrNotFound {
			return "care giver no longer exists", nil
		}
		return "", err
	}
	if !cg.IsActive {
		return "care giver is no longer active", nil
	}
	for _, to := range cg.InlineHolidays {
		if to.Covers(date) {
			return "care giver is on time off", nil
		}
	}
	if version, ok, err := v.Availability.CurrentFor(ctx, cgID, date); err != nil {
		return "", err
	} else if ok && version.OnTimeOff(date) {
		return "care giver is on time off", nil
	}
	return "", nil
}

func now() time.Time {
	return time.Now().UTC()
}
