package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"route-planner/internal/database"
)

// Connection pragmas, passed through the DSN so every pooled connection gets them
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"cache_size(-16000)",
}

// migrations are applied in order; the schema version is the count applied
var migrations = []string{
	`CREATE TABLE places (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX idx_places_lat_lng ON places(lat, lng)`,
	`CREATE INDEX idx_places_name ON places(name, id)`,
}

// Store keeps places in a SQLite file and implements database.DataStore
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex

	places *placeRepository
}

// New opens (or creates) the places database at dbPath and migrates it
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("[PLACES] Opening SQLite database: path=%s", dbPath)

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.places = &placeRepository{store: s}

	return s, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// migrate brings the schema up to len(migrations)
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for v := current; v < len(migrations); v++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, v+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}

	if current < len(migrations) {
		log.Printf("[PLACES] Schema migrated: from=%d to=%d", current, len(migrations))
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Seed upserts places from a JSON seed file and returns how many were stored
func (s *Store) Seed(ctx context.Context, path string) (int, error) {
	places, err := database.LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	if err := s.places.UpsertBatch(ctx, places); err != nil {
		return 0, err
	}
	return len(places), nil
}

// Close checkpoints the WAL and closes the database
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("[PLACES] WAL checkpoint failed: err=%v", err)
	}
	return s.db.Close()
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Places returns the place repository
func (s *Store) Places() database.PlaceRepository { return s.places }
