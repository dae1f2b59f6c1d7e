package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/store/memstore"
)

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

func TestAnalyzeAssignableCareGiverScoresHigh(t *testing.T) {
	cgs := memstore.NewCareGivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", Name: "Ann", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})

	a := &Analyzer{CareGivers: cgs, Availability: avail, Appointments: apts, Settings: domain.DefaultSettings()}
	receiver := domain.CareReceiver{ID: "cr1", Home: loc, GenderPreference: domain.PreferNoPreference}
	v := domain.VisitTemplate{PreferredTime: geo.HHMM{Hour: 9}, DurationMinutes: 60}

	reports, err := a.Analyze(context.Background(), receiver, v, day("2026-01-05"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].CanAssign)
	assert.Equal(t, 100, reports[0].MatchScore)
}

func TestAnalyzeMissingSkillPenalized(t *testing.T) {
	cgs := memstore.NewCareGivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})

	a := &Analyzer{CareGivers: cgs, Availability: avail, Appointments: apts, Settings: domain.DefaultSettings()}
	receiver := domain.CareReceiver{ID: "cr1", Home: loc}
	v := domain.VisitTemplate{
		PreferredTime:   geo.HHMM{Hour: 9},
		DurationMinutes: 60,
		Requirements:    []domain.Skill{domain.SkillDementiaCare},
	}

	reports, err := a.Analyze(context.Background(), receiver, v, day("2026-01-05"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].CanAssign)
	assert.Contains(t, reports[0].RejectionReasons[0], "missing")
}

func TestAnalyzeSortsAssignableFirst(t *testing.T) {
	cgs := memstore.NewCareGivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	loc := geo.Point{Lat: 51.5, Lon: 0}
	cgs.Put(domain.CareGiver{ID: "blocked", IsActive: true, Home: loc, InlinePattern: domain.WeeklySchedule{}})
	cgs.Put(domain.CareGiver{ID: "ok", IsActive: true, Home: loc, InlinePattern: fullWeekSchedule()})

	a := &Analyzer{CareGivers: cgs, Availability: avail, Appointments: apts, Settings: domain.DefaultSettings()}
	receiver := domain.CareReceiver{ID: "cr1", Home: loc}
	v := domain.VisitTemplate{PreferredTime: geo.HHMM{Hour: 9}, DurationMinutes: 60}

	reports, err := a.Analyze(context.Background(), receiver, v, day("2026-01-05"))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "ok", reports[0].CareGiverID)
	assert.True(t, reports[0].CanAssign)
	assert.False(t, reports[1].CanAssign)
}
