package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// CareGivers is the Postgres-backed store.CareGiverRepo.
type CareGivers struct{ *Pool }

func (s CareGivers) Get(ctx context.Context, id string) (domain.CareGiver, error) {
	const q = `SELECT id, name, email, phone, home_lon, home_lat, gender, skills,
	            can_drive, single_handed_only, max_receivers,
	            inline_pattern, inline_holidays, is_active, created_at, updated_at
	           FROM care_givers WHERE id=$1`
	row := s.DB.QueryRow(ctx, q, id)
	cg, err := scanCareGiver(row)
	if err == pgx.ErrNoRows {
		return domain.CareGiver{}, store.ErrNotFound
	}
	return cg, err
}

func (s CareGivers) ListActive(ctx context.Context) ([]domain.CareGiver, error) {
	const q = `SELECT id, name, email, phone, home_lon, home_lat, gender, skills,
	            can_drive, single_handed_only, max_receivers,
	            inline_pattern, inline_holidays, is_active, created_at, updated_at
	           FROM care_givers WHERE is_active=true ORDER BY id`
	rows, err := s.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CareGiver
	for rows.Next() {
		cg, err := scanCareGiver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCareGiver(row rowScanner) (domain.CareGiver, error) {
	var cg domain.CareGiver
	var skillsJSON, patternJSON, holidaysJSON []byte
	if err := row.Scan(&cg.ID, &cg.Name, &cg.Email, &cg.Phone,
		&cg.Home.Lon, &cg.Home.Lat, &cg.Gender, &skillsJSON,
		&cg.CanDrive, &cg.SingleHandedOnly, &cg.MaxReceivers,
		&patternJSON, &holidaysJSON, &cg.IsActive, &cg.CreatedAt, &cg.UpdatedAt); err != nil {
		return domain.CareGiver{}, err
	}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &cg.Skills); err != nil {
			return domain.CareGiver{}, err
		}
	}
	if len(patternJSON) > 0 {
		if err := json.Unmarshal(patternJSON, &cg.InlinePattern); err != nil {
			return domain.CareGiver{}, err
		}
	}
	if len(holidaysJSON) > 0 {
		if err := json.Unmarshal(holidaysJSON, &cg.InlineHolidays); err != nil {
			return domain.CareGiver{}, err
		}
	}
	return cg, nil
}
