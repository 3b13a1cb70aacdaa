package preset

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists presets to SQLite.
// It is suitable for single-process use, such as the CLI.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite preset store.
// The path should be a file path (e.g., "./presets.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the CLI read while another process saves.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			updated_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO presets (name, updated_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			updated_at = excluded.updated_at,
			data = excluded.data
	`, name, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save preset: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM presets WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load preset: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT name, updated_at, LENGTH(data)
		FROM presets
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var updatedAt string
		if err := rows.Scan(&info.Name, &updatedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan preset info: %w", err)
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM presets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
