package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
)

// Settings is the Postgres-backed store.SettingsRepo. The table holds a
// single row (id=1); Get falls back to domain.DefaultSettings when no row
// has been written yet, matching memstore's behaviour.
type Settings struct{ *Pool }

func (s Settings) Get(ctx context.Context) (domain.SystemSettings, error) {
	const q = `SELECT max_distance_km, travel_time_buffer_minutes, max_appointments_per_day,
	            working_hours_start, working_hours_end, preferred_caregiver_weight,
	            distance_weight, availability_weight, updated_at
	           FROM system_settings WHERE id=1`
	row := s.DB.QueryRow(ctx, q)

	var set domain.SystemSettings
	var startStr, endStr string
	err := row.Scan(&set.MaxDistanceKM, &set.TravelTimeBufferMinutes, &set.MaxAppointmentsPerDay,
		&startStr, &endStr, &set.PreferredCaregiverWeight,
		&set.DistanceWeight, &set.AvailabilityWeight, &set.UpdatedAt)
	if err == pgx.ErrNoRows {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.SystemSettings{}, err
	}

	set.WorkingHoursStart, err = geo.ParseHHMM(startStr)
	if err != nil {
		return domain.SystemSettings{}, err
	}
	set.WorkingHoursEnd, err = geo.ParseHHMM(endStr)
	if err != nil {
		return domain.SystemSettings{}, err
	}
	return set, nil
}

func (s Settings) Save(ctx context.Context, set domain.SystemSettings) error {
	const q = `INSERT INTO system_settings
	            (id, max_distance_km, travel_time_buffer_minutes, max_appointments_per_day,
	             working_hours_start, working_hours_end, preferred_caregiver_weight,
	             distance_weight, availability_weight, updated_at)
	           VALUES (1, $1,$2,$3,$4,$5,$6,$7,$8, now())
	           ON CONFLICT (id) DO UPDATE SET
	             max_distance_km=$1, travel_time_buffer_minutes=$2, max_appointments_per_day=$3,
	             working_hours_start=$4, working_hours_end=$5, preferred_caregiver_weight=$6,
	             distance_weight=$7, availability_weight=$8, updated_at=now()`
	_, err := s.DB.Exec(ctx, q, set.MaxDistanceKM, set.TravelTimeBufferMinutes, set.MaxAppointmentsPerDay,
		set.WorkingHoursStart.String(), set.WorkingHoursEnd.String(), set.PreferredCaregiverWeight,
		set.DistanceWeight, set.AvailabilityWeight)
	return err
}
