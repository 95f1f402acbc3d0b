package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gudangapp/gudang/internal/model"
)

const savedAtKey = "items_saved_at"

// SaveItems replaces the stored item listing and records when it was taken.
func (s *Store) SaveItems(ctx context.Context, items []model.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting item snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clearing item snapshot: %w", err)
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, name, category_id, condition_id, quantity,
			                    location_id, source_id, donor_id, procurement_id,
			                    photo_url, value, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.Name, it.CategoryID, it.ConditionID, it.Quantity,
			it.LocationID, it.SourceID, it.DonorID, it.ProcurementID,
			it.PhotoURL, it.Value, it.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("storing item %s: %w", it.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savedAtKey, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording snapshot time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item snapshot: %w", err)
	}
	return nil
}

// Items returns the stored item listing and the time it was taken. A zero
// time means no snapshot has been saved.
func (s *Store) Items(ctx context.Context) ([]model.Item, time.Time, error) {
	var savedAt time.Time
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, savedAtKey,
	).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// No snapshot yet.
	case err != nil:
		return nil, time.Time{}, fmt.Errorf("reading snapshot time: %w", err)
	default:
		savedAt, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parsing snapshot time: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category_id, condition_id, quantity,
		        location_id, source_id, donor_id, procurement_id,
		        photo_url, value, created_at
		 FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading item snapshot: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		var location, source, donor, procurement, photo sql.NullString
		var value sql.NullFloat64
		var created string
		if err := rows.Scan(&it.ID, &it.Name, &it.CategoryID, &it.ConditionID, &it.Quantity,
			&location, &source, &donor, &procurement, &photo, &value, &created); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning item: %w", err)
		}
		it.LocationID = location.String
		it.SourceID = source.String
		it.DonorID = donor.String
		it.ProcurementID = procurement.String
		it.PhotoURL = photo.String
		it.Value = value.Float64
		it.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parsing item created_at: %w", err)
		}
		items = append(items, it)
	}
	return items, savedAt, rows.Err()
}
