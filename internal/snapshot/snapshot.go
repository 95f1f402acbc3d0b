// Package snapshot persists the last server responses for lookup tables and
// the item listing to a local SQLite file, so the console can still show
// reference data and the most recent inventory when the server is
// unreachable.
package snapshot

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schema is the full snapshot schema. Rows mirror server responses, not
// server tables: each save replaces the previous snapshot wholesale.
const schema = `
CREATE TABLE IF NOT EXISTS lookups (
    kind        TEXT NOT NULL,
    id          TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT,
    PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    category_id    TEXT NOT NULL,
    condition_id   TEXT NOT NULL,
    quantity       INTEGER NOT NULL,
    location_id    TEXT,
    source_id      TEXT,
    donor_id       TEXT,
    procurement_id TEXT,
    photo_url      TEXT,
    value          REAL,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store is a local snapshot database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}

	// Set pragmas for performance and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
