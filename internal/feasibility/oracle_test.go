package feasibility

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

func hhmm(t *testing.T, s string) geo.HHMM {
	v, err := geo.ParseHHMM(s)
	require.NoError(t, err)
	return v
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

func newHarness() (*memstore.CareGivers, *memstore.CareReceivers, *memstore.Availability, *memstore.Appointments) {
	return memstore.NewCareGivers(), memstore.NewCareReceivers(), memstore.NewAvailability(), memstore.NewAppointments()
}

func TestIsAvailableHappyPath(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()

	cg := domain.CareGiver{ID: "cg1", IsActive: true, InlinePattern: fullWeekSchedule()}
	cgs.Put(cg)
	cr := domain.CareReceiver{ID: "cr1", Home: geo.Point{Lon: 0, Lat: 51.5}}
	crs.Put(cr)

	oracle := New(cgs, crs, avail, apts, domain.DefaultSettings(), routing.FallbackClient{})
	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "09:00"), hhmm(t, "10:00"), cr.Home, "")
	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestIsAvailableInactiveCareGiver(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: false})
	oracle := New(cgs, crs, avail, apts, domain.DefaultSettings(), routing.FallbackClient{})

	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "09:00"), hhmm(t, "10:00"), geo.Point{}, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "not active")
}

func TestIsAvailableOnHoliday(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{
		ID: "cg1", IsActive: true, InlinePattern: fullWeekSchedule(),
		InlineHolidays: []domain.TimeOff{{Start: day("2026-01-05"), End: day("2026-01-06")}},
	})
	oracle := New(cgs, crs, avail, apts, domain.DefaultSettings(), routing.FallbackClient{})

	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "09:00"), hhmm(t, "10:00"), geo.Point{}, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "time off")
}

func TestIsAvailableOutsideWorkingSlot(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, InlinePattern: fullWeekSchedule()})
	oracle := New(cgs, crs, avail, apts, domain.DefaultSettings(), routing.FallbackClient{})

	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "19:00"), hhmm(t, "20:00"), geo.Point{}, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "working slot")
}

func TestIsAvailableDailyCap(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{ID: "cr1"})

	settings := domain.DefaultSettings()
	settings.MaxAppointmentsPerDay = 1
	_, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cg1", CareReceiverID: "cr1", Date: day("2026-01-05"),
		StartTime: hhmm(t, "08:00"), EndTime: hhmm(t, "08:30"), Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	oracle := New(cgs, crs, avail, apts, settings, routing.FallbackClient{})
	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "09:00"), hhmm(t, "10:00"), geo.Point{}, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "daily appointment cap")
}

func TestIsAvailableOverlap(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true, InlinePattern: fullWeekSchedule()})
	crs.Put(domain.CareReceiver{ID: "cr1"})
	_, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cg1", CareReceiverID: "cr1", Date: day("2026-01-05"),
		StartTime: hhmm(t, "09:00"), EndTime: hhmm(t, "10:00"), Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	oracle := New(cgs, crs, avail, apts, domain.DefaultSettings(), routing.FallbackClient{})
	res, err := oracle.IsAvailable(ctx, "cg1", day("2026-01-05"), hhmm(t, "09:30"), hhmm(t, "10:30"), geo.Point{}, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "overlaps")
}

func TestIsAvailableTravelGapEnforced(t *testing.T) {
	cgs, crs, avail, apts := newHarness()
	ctx := context.Background()
	cgs.Put(domain.CareGiver{ID: "cgA", IsActive: true, InlinePattern: fullWeekSchedule()})

	locX := geo.Point{Lon: 0, Lat: 51.50}
	locY := geo.Point{Lon: 0, Lat: 51.65} // ~16.7km from locX (34 min by the fallback); the stub router pins travel time instead
	crs.Put(domain.CareReceiver{ID: "crX", Home: locX})
	crs.Put(domain.CareReceiver{ID: "crY", Home: locY})

	_, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cgA", CareReceiverID: "crX", Date: day("2026-01-05"),
		StartTime: hhmm(t, "09:00"), EndTime: hhmm(t, "10:00"), Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.TravelTimeBufferMinutes = 15
	router := stubRouter{minutes: 10}

	oracle := New(cgs, crs, avail, apts, settings, router)
	res, err := oracle.IsAvailable(ctx, "cgA", day("2026-01-05"), hhmm(t, "10:20"), hhmm(t, "11:00"), locY, "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "insufficient travel time from previous")

	res, err = oracle.IsAvailable(ctx, "cgA", day("2026-01-05"), hhmm(t, "10:25"), hhmm(t, "11:00"), locY, "")
	require.NoError(t, err)
	assert.True(t, res.Available)
}

type stubRouter struct{ minutes int }

func (s stubRouter) TravelTime(_ context.Context, _, _ geo.Point) (int, error) {
	return s.minutes, nil
}
