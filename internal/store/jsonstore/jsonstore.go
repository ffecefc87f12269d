package jsonstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/idilsaglam/todo/internal/model"
)

// JSON-backed slot. Single file, human-readable, portable.
// No locking; one client process owns the file.

const dataFileName = "todos.json"

type Store struct {
	path string
	log  zerolog.Logger
}

// New places the snapshot at dir/todos.json. An empty dir means the working
// directory.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{path: filepath.Join(dir, dataFileName), log: log}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() model.List {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("failed to read cache")
		}
		return model.List{}
	}
	l, err := model.DecodeList(b)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("discarding unreadable cache")
		return model.List{}
	}
	s.log.Debug().Int("count", len(l)).Msg("loaded cache")
	return l
}

// Save writes to a temp file first so a crash never leaves half a snapshot.
func (s *Store) Save(l model.List) error {
	b, err := model.EncodeList(l)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
