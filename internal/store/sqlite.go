// Package store is the durable tide cache: one row per grid cell, scoped to
// a single date, reloaded on demand after a restart.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pmulloy/kitewind/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// PutTideRecord upserts the record for a grid cell. A cell holds at most one
// record, so a new date simply replaces the old row.
func (s *Store) PutTideRecord(gridKey string, rec *models.TideRecord) error {
	seaLevels, err := json.Marshal(rec.SeaLevels)
	if err != nil {
		return fmt.Errorf("marshal sea levels: %w", err)
	}
	extremes, err := json.Marshal(rec.Extremes)
	if err != nil {
		return fmt.Errorf("marshal extremes: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tide_records (grid_key, date, lat, lng, sea_levels, extremes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(grid_key) DO UPDATE SET
			date = excluded.date,
			lat = excluded.lat,
			lng = excluded.lng,
			sea_levels = excluded.sea_levels,
			extremes = excluded.extremes,
			created_at = CURRENT_TIMESTAMP
	`, gridKey, rec.Date, rec.Lat, rec.Lng, string(seaLevels), string(extremes))
	return err
}

// GetTideRecord returns the cell's record when it matches date, nil when the
// cell is absent or stale.
func (s *Store) GetTideRecord(gridKey, date string) (*models.TideRecord, error) {
	row := s.db.QueryRow(`
		SELECT date, lat, lng, sea_levels, extremes
		FROM tide_records
		WHERE grid_key = ? AND date = ?
	`, gridKey, date)

	var rec models.TideRecord
	var seaLevels, extremes string
	err := row.Scan(&rec.Date, &rec.Lat, &rec.Lng, &seaLevels, &extremes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(seaLevels), &rec.SeaLevels); err != nil {
		return nil, fmt.Errorf("unmarshal sea levels: %w", err)
	}
	if err := json.Unmarshal([]byte(extremes), &rec.Extremes); err != nil {
		return nil, fmt.Errorf("unmarshal extremes: %w", err)
	}
	return &rec, nil
}

// DeleteStaleTideRecords removes rows whose date is not today. They are
// already misses; this keeps the table from accumulating dead cells.
func (s *Store) DeleteStaleTideRecords(today string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tide_records WHERE date != ?`, today)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
