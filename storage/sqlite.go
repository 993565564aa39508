package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in a single SQLite file through the pure-Go
// modernc driver.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for path. Call Init before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the runs table. Calling it again
// on an open store is a no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if s.path == "" {
		return errors.New("sqlite store: path is required")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("sqlite store: open %s: %w", s.path, err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err == nil {
		err = createTables(ctx, db)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("sqlite store: init %s: %w", s.path, err)
	}

	s.db = db
	return nil
}

// SaveRun inserts run or replaces the stored row with the same ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	payload, err := EncodeSnapshot(run.Snapshot)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, species_id, created_at, updated_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			species_id = excluded.species_id,
			updated_at = excluded.updated_at,
			payload = excluded.payload
	`, run.ID, run.SpeciesID, run.CreatedAt.UnixNano(), run.UpdatedAt.UnixNano(), payload)
	return err
}

// GetRun loads a run by ID. The bool is false when no such run exists.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.handle()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run              Run
		created, updated int64
		payload          []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, species_id, created_at, updated_at, payload FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.SpeciesID, &created, &updated, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	run.CreatedAt = time.Unix(0, created)
	run.UpdatedAt = time.Unix(0, updated)
	run.Snapshot, err = DecodeSnapshot(payload)
	if err != nil {
		return Run{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

// ListRuns returns the stored run IDs.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRun removes a run. Deleting an unknown ID is not an error.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// Close releases the database handle. The store may be re-opened with Init.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

func (s *SQLiteStore) handle() (*sql.DB, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, errStoreClosed
	}
	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			species_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
