package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// CareReceivers is the Postgres-backed store.CareReceiverRepo.
type CareReceivers struct{ *Pool }

func (s CareReceivers) Get(ctx context.Context, id string) (domain.CareReceiver, error) {
	const q = `SELECT id, name, home_lon, home_lat, gender, gender_preference,
	            preferred_care_giver_id, visit_templates, is_active, created_at, updated_at
	           FROM care_receivers WHERE id=$1`
	row := s.DB.QueryRow(ctx, q, id)
	cr, err := scanCareReceiver(row)
	if err == pgx.ErrNoRows {
		return domain.CareReceiver{}, store.ErrNotFound
	}
	return cr, err
}

func (s CareReceivers) ListActive(ctx context.Context) ([]domain.CareReceiver, error) {
	const q = `SELECT id, name, home_lon, home_lat, gender, gender_preference,
	            preferred_care_giver_id, visit_templates, is_active, created_at, updated_at
	           FROM care_receivers WHERE is_active=true ORDER BY id`
	rows, err := s.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CareReceiver
	for rows.Next() {
		cr, err := scanCareReceiver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func scanCareReceiver(row rowScanner) (domain.CareReceiver, error) {
	var cr domain.CareReceiver
	var templatesJSON []byte
	if err := row.Scan(&cr.ID, &cr.Name, &cr.Home.Lon, &cr.Home.Lat,
		&cr.Gender, &cr.GenderPreference, &cr.PreferredCareGiver,
		&templatesJSON, &cr.IsActive, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
		return domain.CareReceiver{}, err
	}
	if len(templatesJSON) > 0 {
		if err := json.Unmarshal(templatesJSON, &cr.VisitTemplates); err != nil {
			return domain.CareReceiver{}, err
		}
	}
	return cr, nil
}
