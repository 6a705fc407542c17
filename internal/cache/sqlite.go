package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS payloads (
	location_id TEXT    NOT NULL,
	day         TEXT    NOT NULL,
	payload     BLOB    NOT NULL,
	saved_at    INTEGER NOT NULL,
	PRIMARY KEY (location_id, day)
)`

// SQLiteStore keeps payloads in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// One writer at a time; the daemon and a one-shot command may share the file.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 2000", "PRAGMA journal_mode = WAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init cache database: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the cached payload, or nil.
func (s *SQLiteStore) Load(locationID string, date time.Time) []byte {
	var raw []byte
	err := s.db.QueryRow(
		`SELECT payload FROM payloads WHERE location_id = ? AND day = ?`,
		locationID, date.Format("2006-01-02"),
	).Scan(&raw)
	if err != nil || len(raw) == 0 {
		return nil
	}
	return raw
}

// Save upserts the payload.
func (s *SQLiteStore) Save(locationID string, date time.Time, raw []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO payloads (location_id, day, payload, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (location_id, day) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		locationID, date.Format("2006-01-02"), raw, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache row: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
