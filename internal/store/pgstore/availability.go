package pgstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sanjshine99/care-app-backend/internal/domain"
)

// Availability is the Postgres-backed store.AvailabilityRepo. A version
// transition runs inside a single transaction that first locks the care
// giver's row (`SELECT ... FOR UPDATE`), then closes the open version,
// reads the highest version number and inserts the new one, so the
// close-then-insert step is linearizable per care giver.
type Availability struct{ *Pool }

func (s Availability) CurrentFor(ctx context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error) {
	const q = `SELECT id, care_giver_id, effective_from, effective_to, schedule, time_off, version, is_active
	           FROM availability_versions
	           WHERE care_giver_id=$1 AND is_active=true
	             AND effective_from <= $2 AND (effective_to IS NULL OR effective_to >= $2)
	           ORDER BY effective_from DESC LIMIT 1`
	return s.queryOne(ctx, q, careGiverID, atDate)
}

func (s Availability) At(ctx context.Context, careGiverID string, atDate time.Time) (domain.AvailabilityVersion, bool, error) {
	const q = `SELECT id, care_giver_id, effective_from, effective_to, schedule, time_off, version, is_active
	           FROM availability_versions
	           WHERE care_giver_id=$1
	             AND effective_from <= $2 AND (effective_to IS NULL OR effective_to >= $2)
	           ORDER BY effective_from DESC LIMIT 1`
	return s.queryOne(ctx, q, careGiverID, atDate)
}

func (s Availability) queryOne(ctx context.Context, q string, args ...any) (domain.AvailabilityVersion, bool, error) {
	row := s.DB.QueryRow(ctx, q, args...)
	v, err := scanVersion(row)
	if err == pgx.ErrNoRows {
		return domain.AvailabilityVersion{}, false, nil
	}
	if err != nil {
		return domain.AvailabilityVersion{}, false, err
	}
	return v, true, nil
}

func (s Availability) History(ctx context.Context, careGiverID string) ([]domain.AvailabilityVersion, error) {
	const q = `SELECT id, care_giver_id, effective_from, effective_to, schedule, time_off, version, is_active
	           FROM availability_versions WHERE care_giver_id=$1 ORDER BY effective_from DESC`
	rows, err := s.DB.Query(ctx, q, careGiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AvailabilityVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s Availability) CreateVersion(ctx context.Context, careGiverID string, schedule domain.WeeklySchedule, timeOff []domain.TimeOff, effectiveFrom time.Time) (domain.AvailabilityVersion, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return domain.AvailabilityVersion{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM care_givers WHERE id=$1 FOR UPDATE`, careGiverID); err != nil {
		return domain.AvailabilityVersion{}, err
	}

	const closeQ = `UPDATE availability_versions
	                 SET effective_to=$1, is_active=false
	                 WHERE care_giver_id=$2 AND is_active=true AND effective_to IS NULL`
	if _, err := tx.Exec(ctx, closeQ, effectiveFrom, careGiverID); err != nil {
		return domain.AvailabilityVersion{}, err
	}

	var maxVersion int
	const maxQ = `SELECT COALESCE(MAX(version), 0) FROM availability_versions WHERE care_giver_id=$1`
	if err := tx.QueryRow(ctx, maxQ, careGiverID).Scan(&maxVersion); err != nil {
		return domain.AvailabilityVersion{}, err
	}

	scheduleJSON, err := json.Marshal(schedule)
	if err != nil {
		return domain.AvailabilityVersion{}, err
	}
	timeOffJSON, err := json.Marshal(timeOff)
	if err != nil {
		return domain.AvailabilityVersion{}, err
	}

	nv := domain.AvailabilityVersion{
		ID:            uuid.NewString(),
		CareGiverID:   careGiverID,
		EffectiveFrom: effectiveFrom,
		Schedule:      schedule,
		TimeOff:       timeOff,
		Version:       maxVersion + 1,
		IsActive:      true,
	}

	const insertQ = `INSERT INTO availability_versions
	                  (id, care_giver_id, effective_from, effective_to, schedule, time_off, version, is_active)
	                  VALUES ($1,$2,$3,NULL,$4,$5,$6,true)`
	if _, err := tx.Exec(ctx, insertQ, nv.ID, nv.CareGiverID, nv.EffectiveFrom, scheduleJSON, timeOffJSON, nv.Version); err != nil {
		return domain.AvailabilityVersion{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.AvailabilityVersion{}, err
	}
	return nv, nil
}

func scanVersion(row rowScanner) (domain.AvailabilityVersion, error) {
	var v domain.AvailabilityVersion
	var scheduleJSON, timeOffJSON []byte
	if err := row.Scan(&v.ID, &v.CareGiverID, &v.EffectiveFrom, &v.EffectiveTo,
		&scheduleJSON, &timeOffJSON, &v.Version, &v.IsActive); err != nil {
		return domain.AvailabilityVersion{}, err
	}
	if len(scheduleJSON) > 0 {
		if err := json.Unmarshal(scheduleJSON, &v.Schedule); err != nil {
			return domain.AvailabilityVersion{}, err
		}
	}
	if len(timeOffJSON) > 0 {
		if err := json.Unmarshal(timeOffJSON, &v.TimeOff); err != nil {
			return domain.AvailabilityVersion{}, err
		}
	}
	return v, nil
}
