package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// FootprintRepo implements ports.FootprintRepository. Reports are stored as
// jsonb next to the columns used for filtering.
type FootprintRepo struct {
	db *DB
}

func NewFootprintRepo(db *DB) *FootprintRepo {
	return &FootprintRepo{db: db}
}

func (r *FootprintRepo) Save(ctx context.Context, rec *domain.FootprintRecord) error {
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO footprints (id, source, selected_mode, total_distance_km, selected_emissions_kg, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			selected_mode = EXCLUDED.selected_mode,
			total_distance_km = EXCLUDED.total_distance_km,
			selected_emissions_kg = EXCLUDED.selected_emissions_kg,
			report = EXCLUDED.report
	`, rec.ID, rec.Source, rec.Report.SelectedMode, rec.Report.TotalDistanceKm,
		rec.Report.SelectedModeEmissionsKg, report, rec.CreatedAt)
	return err
}

func (r *FootprintRepo) GetByID(ctx context.Context, id string) (*domain.FootprintRecord, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, source, report, created_at
		FROM footprints WHERE id = $1
	`, id)
	rec, err := scanFootprint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *FootprintRepo) List(ctx context.Context, offset, limit int) ([]domain.FootprintRecord, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM footprints`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, source, report, created_at
		FROM footprints
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]domain.FootprintRecord, 0, limit)
	for rows.Next() {
		rec, err := scanFootprint(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

func (r *FootprintRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM footprints WHERE id = $1`, id)
	return err
}

func scanFootprint(row pgx.Row) (*domain.FootprintRecord, error) {
	var (
		rec    domain.FootprintRecord
		report []byte
	)
	if err := row.Scan(&rec.ID, &rec.Source, &report, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(report, &rec.Report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", rec.ID, err)
	}
	return &rec, nil
}
