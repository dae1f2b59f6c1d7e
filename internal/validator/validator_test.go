package validator

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

func newValidator() (*Validator, *memstore.CareGivers, *memstore.CareReceivers, *memstore.Appointments) {
	cgs := memstore.NewCareGivers()
	crs := memstore.NewCareReceivers()
	avail := memstore.NewAvailability()
	apts := memstore.NewAppointments()
	return &Validator{CareGivers: cgs, CareReceivers: crs, Availability: avail, Appointments: apts}, cgs, crs, apts
}

func TestRunFlagsNewHoliday(t *testing.T) {
	v, cgs, crs, apts := newValidator()
	ctx := context.Background()

	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true})
	crs.Put(domain.CareReceiver{ID: "cr1", IsActive: true})
	apt, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cg1", CareReceiverID: "cr1", Date: day("2026-01-05"),
		StartTime: geo.HHMM{Hour: 9}, EndTime: geo.HHMM{Hour: 10}, Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	transitions, err := v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, transitions)

	cgs.Put(domain.CareGiver{
		ID: "cg1", IsActive: true,
		InlineHolidays: []domain.TimeOff{{Start: day("2026-01-05"), End: day("2026-01-05")}},
	})

	transitions, err = v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.StatusNeedsReassignment, transitions[0].To)
	assert.Contains(t, transitions[0].Reason, "on time off")

	updated, err := apts.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsReassignment, updated.Status)
	assert.NotNil(t, updated.InvalidatedAt)

	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true})
	transitions, err = v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.StatusScheduled, transitions[0].To)

	restored, err := apts.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, restored.Status)
	assert.Empty(t, restored.InvalidationReason)
	assert.Nil(t, restored.InvalidatedAt)
}

func TestRunFlagsMissingSecondary(t *testing.T) {
	v, cgs, crs, apts := newValidator()
	ctx := context.Background()

	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true})
	crs.Put(domain.CareReceiver{ID: "cr1", IsActive: true})
	_, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cg1", CareReceiverID: "cr1", Date: day("2026-01-05"),
		DoubleHanded: true, Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	transitions, err := v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Contains(t, transitions[0].Reason, "secondary")
}

func TestRunStableAcrossRepeatedCalls(t *testing.T) {
	v, cgs, crs, apts := newValidator()
	ctx := context.Background()

	cgs.Put(domain.CareGiver{ID: "cg1", IsActive: true})
	crs.Put(domain.CareReceiver{ID: "cr1", IsActive: true})
	_, err := apts.Create(ctx, domain.Appointment{
		CareGiverID: "cg1", CareReceiverID: "cr1", Date: day("2026-01-05"),
		Status: domain.StatusScheduled,
	})
	require.NoError(t, err)

	first, err := v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, first)

	second, err := v.Run(ctx, day("2026-01-01"), day("2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, second)
}
