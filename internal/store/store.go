package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for saved trees and their bucking
// results.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS trees (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  species         TEXT NOT NULL,
  height_m        REAL NOT NULL,
  diameter_cm     REAL NOT NULL,
  form_factor     REAL NOT NULL,
  note            TEXT DEFAULT '',
  created_at      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS assortments (
  id              INTEGER PRIMARY KEY,
  tree_id         INTEGER NOT NULL REFERENCES trees(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  from_m          REAL NOT NULL,
  to_m            REAL NOT NULL,
  top_cm          REAL NOT NULL,
  volume_m3       REAL NOT NULL,
  script          TEXT
);

CREATE INDEX IF NOT EXISTS idx_trees_species ON trees(species);
CREATE INDEX IF NOT EXISTS idx_assortments_tree ON assortments(tree_id);
`
