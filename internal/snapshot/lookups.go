package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gudangapp/gudang/internal/model"
)

// SaveLookups replaces the stored snapshot for one lookup kind.
func (s *Store) SaveLookups(ctx context.Context, kind string, lookups []model.Lookup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting lookup snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lookups WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("clearing %s snapshot: %w", kind, err)
	}

	for _, l := range lookups {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lookups (kind, id, name, description) VALUES (?, ?, ?, ?)`,
			kind, l.ID, l.Name, l.Description,
		)
		if err != nil {
			return fmt.Errorf("storing %s snapshot: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing lookup snapshot: %w", err)
	}
	return nil
}

// Lookups returns the stored snapshot for one lookup kind. An empty slice
// means no snapshot has been saved for that kind.
func (s *Store) Lookups(ctx context.Context, kind string) ([]model.Lookup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description FROM lookups WHERE kind = ? ORDER BY name`, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("reading %s snapshot: %w", kind, err)
	}
	defer rows.Close()

	var lookups []model.Lookup
	for rows.Next() {
		var l model.Lookup
		var description sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &description); err != nil {
			return nil, fmt.Errorf("scanning lookup: %w", err)
		}
		l.Description = description.String
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}
