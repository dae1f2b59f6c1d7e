package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/notify"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/settings"
	"github.com/sanjshine99/care-app-backend/internal/store/memstore"
	"github.com/sanjshine99/care-app-backend/internal/validator"
)

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) {
	p.events = append(p.events, e)
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func fullWeekSchedule() domain.WeeklySchedule {
	sched := make(domain.WeeklySchedule)
	for _, d := range domain.AllWeekdays() {
		sched[d] = []domain.TimeSlot{{
			Start: geo.HHMM{Hour: 8, Minute: 0},
			End:   geo.HHMM{Hour: 18, Minute: 0},
		}}
	}
	return sched
}

func newOrchestrator() (*Orchestrator, *memstore.CareGivers, *memstore.CareReceivers, *recordingPublisher) {
	cgs := memstore.NewCareGivers()
	crs := memstore.NewCareReceivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	settingsRepo := memstore.NewSettings()

	engine := &assignment.Engine{
		CareGivers:    cgs,
		CareReceivers: crs,
		Availability:  avail,
		Appointments:  apts,
		Router:        routing.FallbackClient{},
	}
	v := &validator.Validator{CareGivers: cgs, CareReceivers: crs, Availability: avail, Appointments: apts}
	pub := &recordingPublisher{}

	o := &Orchestrator{
		Engine:        engine,
		Validator:     v,
		Settings:      settings.New(settingsRepo),
		Notifier:      pub,
		CareReceivers: crs,
	}
	return o, cgs, crs, pub
}

func TestGenerateAllProcessesActiveReceiversAndNotifies(t *testing.T) {
	o, cgs, crs, pub := newOrchestrator()
	ctx := context.Background()
	loc := geo.Point{Lat: 51.5, Lon: 0}

	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{
		ID: "cr1", IsActive: true, Home: loc, GenderPreference: domain.PreferNoPreference,
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber: 1, PreferredTime: geo.HHMM{Hour: 9}, DurationMinutes: 60,
			DaysOfWeek: []domain.Weekday{domain.Monday}, Recurrence: domain.RecurrenceWeekly,
			RecurrenceInterval: 1, Priority: 1,
		}},
	})
	crs.Put(domain.CareReceiver{ID: "cr2", IsActive: false})

	result, err := o.GenerateAll(ctx, day("2026-01-05"), day("2026-01-05"))
	require.NoError(t, err)
	require.Len(t, result.Receivers, 1)
	assert.Equal(t, "cr1", result.Receivers[0].CareReceiverID)
	assert.Len(t, result.Receivers[0].Scheduled, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventRunSummary, pub.events[0].Type)
	summary, ok := pub.events[0].Payload.(notify.RunSummary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Scheduled)
}

func TestValidateDelegatesToValidator(t *testing.T) {
	o, _, _, _ := newOrchestrator()
	transitions, err := o.Validate(context.Background(), day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, transitions)
}

func TestNotifyManualScheduleEmitsEvent(t *testing.T) {
	o, _, _, pub := newOrchestrator()
	o.NotifyManualSchedule(context.Background(), "apt1", "operator1", "reassigned")
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventManualSchedule, pub.events[0].Type)
}
