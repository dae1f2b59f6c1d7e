// Package orchestrator drives the Assignment Engine and Validator over a
// date range and a set of care receivers, and hands the outcome to a
// notification publisher: construct the dependency graph once, pass
// interfaces down, and run the engine, validator, and notifier together
// per request.
package orchestrator

import (
	"context"
	"time"

	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/notify"
	"github.com/sanjshine99/care-app-backend/internal/settings"
	"github.com/sanjshine99/care-app-backend/internal/store"
	"github.com/sanjshine99/care-app-backend/internal/validator"
)

// Orchestrator wires the engine, validator, and notifier behind the
// range/bulk operations the HTTP surface drives: range iteration across
// care receivers and days, bulk driving of the assignment engine, and
// notification handoff once a run completes.
type Orchestrator struct {
	Engine        *assignment.Engine
	Validator     *validator.Validator
	Settings      *settings.Service
	Notifier      notify.Publisher
	CareReceivers store.CareReceiverRepo
}

// GenerateAll runs the Assignment Engine for every active care receiver
// over [from,to]; the bulk counterpart to GenerateOne.
func (o *Orchestrator) GenerateAll(ctx context.Context, from, to time.Time) (assignment.BulkResult, error) {
	receivers, err := o.CareReceivers.ListActive(ctx)
	if err != nil {
		return assignment.BulkResult{}, err
	}
	ids := make([]string, len(receivers))
	for i, r := range receivers {
		ids[i] = r.ID
	}
	return o.GenerateBulk(ctx, ids, from, to)
}

// GenerateBulk runs the Assignment Engine for the given care receiver ids
// over [from,to], in the order supplied, and emits a run-summary
// notification.
func (o *Orchestrator) GenerateBulk(ctx context.Context, careReceiverIDs []string, from, to time.Time) (assignment.BulkResult, error) {
	cfg, err := o.Settings.Get(ctx)
	if err != nil {
		return assignment.BulkResult{}, err
	}

	result, err := o.Engine.RunBulk(ctx, careReceiverIDs, from, to, cfg)
	if err != nil {
		return result, err
	}

	summary := notify.RunSummary{CareReceiverIDs: careReceiverIDs}
	for _, r := range result.Receivers {
		summary.Scheduled += len(r.Scheduled)
		summary.Failed += len(r.Failed)
	}
	o.Notifier.Publish(ctx, notify.Event{
		Type:    notify.EventRunSummary,
		Payload: summary,
	})

	return result, nil
}

// GenerateOne runs the Assignment Engine for a single care receiver over
// [from,to].
func (o *Orchestrator) GenerateOne(ctx context.Context, careReceiverID string, from, to time.Time) (assignment.ReceiverResult, error) {
	cfg, err := o.Settings.Get(ctx)
	if err != nil {
		return assignment.ReceiverResult{}, err
	}
	result, err := o.Engine.RunForReceiver(ctx, careReceiverID, from, to, cfg)
	if err != nil {
		return result, err
	}
	o.Notifier.Publish(ctx, notify.Event{
		Type: notify.EventRunSummary,
		Payload: notify.RunSummary{
			CareReceiverIDs: []string{careReceiverID},
			Scheduled:       len(result.Scheduled),
			Failed:          len(result.Failed),
		},
	})
	return result, nil
}

// Validate runs the reconciliation validator over [from,to].
func (o *Orchestrator) Validate(ctx context.Context, from, to time.Time) ([]validator.Transition, error) {
	return o.Validator.Run(ctx, from, to)
}

// NotifyManualSchedule emits a manual-schedule event for an operator
// action performed outside the generate pipeline, such as a manual
// appointment create or a status update.
func (o *Orchestrator) NotifyManualSchedule(ctx context.Context, appointmentID, actorID, action string) {
	o.Notifier.Publish(ctx, notify.Event{
		Type: notify.EventManualSchedule,
		Payload: notify.ManualSchedule{
			AppointmentID: appointmentID,
			ActorID:       actorID,
			Action:        action,
		},
	})
}
