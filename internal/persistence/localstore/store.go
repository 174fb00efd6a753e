// Package localstore persists portal records in a local key-value table
// backed by SQLite. Each record collection is stored as a JSON document under
// a fixed key, so the layout matches the record shapes the portal has always
// used. Access is serialized by an in-process mutex; there is no cross-process
// coordination (single-process deployment model).
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
	_ "modernc.org/sqlite"
)

// Collection keys. These mirror the storage keys of the original portal so a
// pre-existing data file remains readable.
const (
	keyDoctors      = "mc_doctors"
	keyPatients     = "mc_patients"
	keyAppointments = "mc_appointments"
	keySessions     = "mc_sessions"
	keyInitialized  = "mc_initialized"
)

// Store is the SQLite-backed key-value record store. It implements the
// persistence repository interfaces for doctors, patients, appointments and
// sessions.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open establishes the SQLite connection for the given DSN. The connection
// pool is capped at a single connection; the store serializes access anyway.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstore: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetClock overrides the store's time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

type migration struct {
	version int
	apply   string
}

// Schema history. Append only; versions are recorded in schema_migrations and
// never re-applied.
var migrations = []migration{
	{
		version: 1,
		apply: `CREATE TABLE IF NOT EXISTS local_records (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},
}

// Migrate applies any pending schema migrations in order.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("localstore: create migration table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("localstore: check migration %d: %w", m.version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("localstore: begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.apply); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("localstore: migration %d failed (rollback error: %v): %w", m.version, rbErr, err)
			}
			return fmt.Errorf("localstore: apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.version, s.now().UTC().Format(time.RFC3339)); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("localstore: migration %d failed (rollback error: %v): %w", m.version, rbErr, err)
			}
			return fmt.Errorf("localstore: record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("localstore: commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// getRecord reads the raw JSON document stored under key.
func (s *Store) getRecord(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %q: %w", key, err)
	}
	return []byte(value), nil
}

// putRecord upserts the raw JSON document stored under key.
func (s *Store) putRecord(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO local_records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("localstore: write %q: %w", key, err)
	}
	return nil
}
