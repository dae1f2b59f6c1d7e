package pgstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Appointments is the Postgres-backed store.AppointmentRepo.
type Appointments struct{ *Pool }

const appointmentColumns = `id, care_receiver_id, care_giver_id, secondary_care_giver_id,
	date, start_time, end_time, visit_number, requirements, double_handed, priority,
	status, cancellation_reason, invalidation_reason, invalidated_at,
	primary_snapshot, secondary_snapshot, created_at`

func (s Appointments) Create(ctx context.Context, apt domain.Appointment) (domain.Appointment, error) {
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	reqJSON, err := json.Marshal(apt.Requirements)
	if err != nil {
		return domain.Appointment{}, err
	}
	primarySnap, err := json.Marshal(apt.PrimarySnapshot)
	if err != nil {
		return domain.Appointment{}, err
	}
	var secondarySnap []byte
	if apt.SecondarySnapshot != nil {
		secondarySnap, err = json.Marshal(apt.SecondarySnapshot)
		if err != nil {
			return domain.Appointment{}, err
		}
	}

	const q = `INSERT INTO appointments (` + appointmentColumns + `)
	           VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())`
	_, err = s.DB.Exec(ctx, q,
		apt.ID, apt.CareReceiverID, apt.CareGiverID, nullableString(apt.SecondaryCareGiverID),
		apt.Date, apt.StartTime.String(), apt.EndTime.String(), apt.VisitNumber, reqJSON,
		apt.DoubleHanded, apt.Priority, apt.Status,
		nullableString(apt.CancellationReason), nullableString(apt.InvalidationReason), apt.InvalidatedAt,
		primarySnap, secondarySnap)
	if err != nil {
		return domain.Appointment{}, err
	}
	return apt, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s Appointments) Get(ctx context.Context, id string) (domain.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	row := s.DB.QueryRow(ctx, q, id)
	a, err := scanAppointment(row)
	if err == pgx.ErrNoRows {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, err
}

func (s Appointments) Update(ctx context.Context, apt domain.Appointment) error {
	const q = `UPDATE appointments SET status=$1, cancellation_reason=$2,
	            invalidation_reason=$3, invalidated_at=$4, secondary_care_giver_id=$5
	           WHERE id=$6`
	tag, err := s.DB.Exec(ctx, q, apt.Status, nullableString(apt.CancellationReason),
		nullableString(apt.InvalidationReason), apt.InvalidatedAt,
		nullableString(apt.SecondaryCareGiverID), apt.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s Appointments) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s Appointments) ForCareGiverOnDay(ctx context.Context, careGiverID string, day time.Time) ([]domain.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE date=$1 AND (care_giver_id=$2 OR secondary_care_giver_id=$2)`
	return s.queryMany(ctx, q, geo.UTCDay(day), careGiverID)
}

func (s Appointments) AdjacentForCareGiver(ctx context.Context, careGiverID string, day time.Time, start, end time.Time) (before, after domain.Appointment, beforeFound, afterFound bool, err error) {
	apts, err := s.ForCareGiverOnDay(ctx, careGiverID, day)
	if err != nil {
		return domain.Appointment{}, domain.Appointment{}, false, false, err
	}
	for _, a := range apts {
		if !a.Status.CountsTowardCapacity() {
			continue
		}
		aStart := day.Add(time.Duration(a.StartTime.Minutes()) * time.Minute)
		aEnd := day.Add(time.Duration(a.EndTime.Minutes()) * time.Minute)
		if !aEnd.After(start) {
			if !beforeFound || aEnd.After(day.Add(time.Duration(before.EndTime.Minutes())*time.Minute)) {
				before, beforeFound = a, true
			}
		}
		if !aStart.Before(end) {
			if !afterFound || aStart.Before(day.Add(time.Duration(after.StartTime.Minutes())*time.Minute)) {
				after, afterFound = a, true
			}
		}
	}
	return before, after, beforeFound, afterFound, nil
}

func (s Appointments) ForCareReceiver(ctx context.Context, careReceiverID string, from, to time.Time) ([]domain.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + ` FROM appointments
	           WHERE care_receiver_id=$1 AND date >= $2 AND date <= $3 ORDER BY date, start_time`
	return s.queryMany(ctx, q, careReceiverID, geo.UTCDay(from), geo.UTCDay(to))
}

func (s Appointments) InRange(ctx context.Context, from, to time.Time, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE date >= $1 AND date <= $2`
	args := []any{geo.UTCDay(from), geo.UTCDay(to)}
	if filter.CareGiverID != "" {
		args = append(args, filter.CareGiverID)
		q += ` AND (care_giver_id=$` + itoa(len(args)) + ` OR secondary_care_giver_id=$` + itoa(len(args)) + `)`
	}
	if filter.CareReceiverID != "" {
		args = append(args, filter.CareReceiverID)
		q += ` AND care_receiver_id=$` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status=$` + itoa(len(args))
	}
	q += ` ORDER BY date, start_time`
	return s.queryMany(ctx, q, args...)
}

func (s Appointments) ExistsForVisit(ctx context.Context, careReceiverID string, date time.Time, visitNumber int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM appointments
	           WHERE care_receiver_id=$1 AND date=$2 AND visit_number=$3 AND status != 'cancelled')`
	var exists bool
	err := s.DB.QueryRow(ctx, q, careReceiverID, geo.UTCDay(date), visitNumber).Scan(&exists)
	return exists, err
}

func (s Appointments) queryMany(ctx context.Context, q string, args ...any) ([]domain.Appointment, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func itoa(n int) string {
	// Tiny placeholder-index formatter to avoid importing strconv twice
	// across this file's query builders.
	digits := []byte{}
	if n == 0 {
		return "0"
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func scanAppointment(row rowScanner) (domain.Appointment, error) {
	var a domain.Appointment
	var startStr, endStr string
	var secondaryCG, cancelReason, invalidReason *string
	var reqJSON, primarySnap, secondarySnap []byte

	if err := row.Scan(&a.ID, &a.CareReceiverID, &a.CareGiverID, &secondaryCG,
		&a.Date, &startStr, &endStr, &a.VisitNumber, &reqJSON, &a.DoubleHanded, &a.Priority,
		&a.Status, &cancelReason, &invalidReason, &a.InvalidatedAt,
		&primarySnap, &secondarySnap, &a.CreatedAt); err != nil {
		return domain.Appointment{}, err
	}

	start, err := geo.ParseHHMM(startStr)
	if err != nil {
		return domain.Appointment{}, err
	}
	end, err := geo.ParseHHMM(endStr)
	if err != nil {
		return domain.Appointment{}, err
	}
	a.StartTime, a.EndTime = start, end

	if secondaryCG != nil {
		a.SecondaryCareGiverID = *secondaryCG
	}
	if cancelReason != nil {
		a.CancellationReason = *cancelReason
	}
	if invalidReason != nil {
		a.InvalidationReason = *invalidReason
	}
	if len(reqJSON) > 0 {
		if err := json.Unmarshal(reqJSON, &a.Requirements); err != nil {
			return domain.Appointment{}, err
		}
	}
	if len(primarySnap) > 0 {
		if err := json.Unmarshal(primarySnap, &a.PrimarySnapshot); err != nil {
			return domain.Appointment{}, err
		}
	}
	if len(secondarySnap) > 0 {
		var snap domain.Snapshot
		if err := json.Unmarshal(secondarySnap, &snap); err != nil {
			return domain.Appointment{}, err
		}
		a.SecondarySnapshot = &snap
	}
	return a, nil
}
