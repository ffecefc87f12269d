// Package sqlitestore keeps the todo snapshot in one row of a SQLite
// database, for setups that already keep client state in SQLite.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/idilsaglam/todo/internal/model"
)

const dbFileName = "todos.db"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type Store struct {
	db   *sql.DB
	key  string
	path string
	log  zerolog.Logger
}

// Open creates dir/todos.db if needed and prepares the slots table.
func Open(dir, key string, log zerolog.Logger) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	path := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; modernc serializes on the connection anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Store{db: db, key: key, path: path, log: log}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() model.List {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, s.key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("failed to read cache")
		}
		return model.List{}
	}
	l, err := model.DecodeList([]byte(raw))
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("discarding unreadable cache")
		return model.List{}
	}
	s.log.Debug().Int("count", len(l)).Msg("loaded cache")
	return l
}

func (s *Store) Save(l model.List) error {
	b, err := model.EncodeList(l)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

// put stores raw bytes without validation; tests use it to plant bad data.
func (s *Store) put(raw string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO slots (key, value, updated_at) VALUES (?, ?, '')`, s.key, raw)
	return err
}

func (s *Store) Close() error { return s.db.Close() }
