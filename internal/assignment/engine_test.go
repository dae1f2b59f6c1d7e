package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/store/memstore"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func hhmm(t *testing.T, s string) geo.HHMM {
	v, err := geo.ParseHHMM(s)
	require.NoError(t, err)
	return v
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

func newEngine() (*Engine, *memstore.CareGivers, *memstore.CareReceivers) {
	cgs := memstore.NewCareGivers()
	crs := memstore.NewCareReceivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	return &Engine{
		CareGivers:    cgs,
		CareReceivers: crs,
		Availability:  avail,
		Appointments:  apts,
		Router:        routing.FallbackClient{},
	}, cgs, crs
}

func TestRunForReceiverTuesdayFridayWeekly(t *testing.T) {
	eng, cgs, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{
		ID:        "robert",
		Home:      loc,
		CreatedAt: day("2025-01-01"),
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber:        1,
			PreferredTime:      hhmm(t, "09:00"),
			DurationMinutes:    60,
			DaysOfWeek:         []domain.Weekday{domain.Tuesday, domain.Friday},
			Recurrence:         domain.RecurrenceWeekly,
			RecurrenceInterval: 1,
		}},
	})

	res, err := eng.RunForReceiver(ctx, "robert", day("2026-01-01"), day("2026-01-10"), domain.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, res.Scheduled, 3)
	assert.Empty(t, res.Failed)

	dates := []time.Time{}
	for _, a := range res.Scheduled {
		dates = append(dates, a.Date)
	}
	assert.ElementsMatch(t, []time.Time{day("2026-01-02"), day("2026-01-06"), day("2026-01-09")}, dates)
}

func TestRunForReceiverDoubleHandedFailsWithoutSecondary(t *testing.T) {
	eng, cgs, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{
		ID:        "cr1",
		Home:      loc,
		CreatedAt: day("2025-01-01"),
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber:        1,
			PreferredTime:      hhmm(t, "09:00"),
			DurationMinutes:    60,
			DoubleHanded:       true,
			DaysOfWeek:         []domain.Weekday{domain.Monday},
			Recurrence:         domain.RecurrenceWeekly,
			RecurrenceInterval: 1,
		}},
	})

	res, err := eng.RunForReceiver(ctx, "cr1", day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	assert.Empty(t, res.Scheduled)
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Reason, "secondary")
}

func TestRunForReceiverPreferredCareGiverWinsTie(t *testing.T) {
	eng, cgs, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "near", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	cgs.Put(domain.CareGiver{ID: "preferred", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})

	crs.Put(domain.CareReceiver{
		ID: "cr1", Home: loc, CreatedAt: day("2025-01-01"),
		PreferredCareGiver: "preferred",
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber:        1,
			PreferredTime:      hhmm(t, "09:00"),
			DurationMinutes:    60,
			DaysOfWeek:         []domain.Weekday{domain.Monday},
			Recurrence:         domain.RecurrenceWeekly,
			RecurrenceInterval: 1,
		}},
	})

	res, err := eng.RunForReceiver(ctx, "cr1", day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, res.Scheduled, 1)
	assert.Equal(t, "preferred", res.Scheduled[0].CareGiverID)
}

func TestRunForReceiverIdempotent(t *testing.T) {
	eng, cgs, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{
		ID: "cr1", Home: loc, CreatedAt: day("2025-01-01"),
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber:        1,
			PreferredTime:      hhmm(t, "09:00"),
			DurationMinutes:    60,
			DaysOfWeek:         []domain.Weekday{domain.Monday},
			Recurrence:         domain.RecurrenceWeekly,
			RecurrenceInterval: 1,
		}},
	})

	first, err := eng.RunForReceiver(ctx, "cr1", day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, first.Scheduled, 1)

	second, err := eng.RunForReceiver(ctx, "cr1", day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	assert.Empty(t, second.Scheduled)
	assert.Empty(t, second.Failed)
}

func TestRunBulkProcessesInOrder(t *testing.T) {
	eng, cgs, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})
	for _, id := range []string{"a", "b"} {
		crs.Put(domain.CareReceiver{
			ID: id, Home: loc, CreatedAt: day("2025-01-01"),
			VisitTemplates: []domain.VisitTemplate{{
				VisitNumber:        1,
				PreferredTime:      hhmm(t, "09:00"),
				DurationMinutes:    60,
				DaysOfWeek:         []domain.Weekday{domain.Monday},
				Recurrence:         domain.RecurrenceWeekly,
				RecurrenceInterval: 1,
			}},
		})
	}

	res, err := eng.RunBulk(ctx, []string{"a", "b"}, day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, res.Receivers, 2)
	assert.Equal(t, "a", res.Receivers[0].CareReceiverID)
	assert.Equal(t, "b", res.Receivers[1].CareReceiverID)
}

func TestUnscheduledReportsMissingVisitWithoutPersisting(t *testing.T) {
	eng, _, crs := newEngine()
	ctx := context.Background()

	loc := geo.Point{Lat: 51.5, Lon: 0}
	crs.Put(domain.CareReceiver{
		ID: "cr1", Home: loc, CreatedAt: day("2025-01-01"),
		VisitTemplates: []domain.VisitTemplate{{
			VisitNumber:        1,
			PreferredTime:      hhmm(t, "09:00"),
			DurationMinutes:    60,
			DaysOfWeek:         []domain.Weekday{domain.Monday},
			Recurrence:         domain.RecurrenceWeekly,
			RecurrenceInterval: 1,
		}},
	})

	failures, err := eng.Unscheduled(ctx, "cr1", day("2026-01-05"), day("2026-01-05"), domain.DefaultSettings())
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].VisitNumber)

	dayApts, err := eng.Appointments.ForCareGiverOnDay(ctx, "cg1", day("2026-01-05"))
	require.NoError(t, err)
	assert.Empty(t, dayApts)
}
