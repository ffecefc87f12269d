// Package store persists a snapshot of the todo list in a single slot so
// the next start can show something before the network answers.
package store

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
	"github.com/idilsaglam/todo/internal/store/sqlitestore"
)

// SlotName is the fixed key of the snapshot.
const SlotName = "todos-vuejs-2.0"

// Supported backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var (
	ErrBackendEmpty   = errors.New("cache backend must not be empty")
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Slot is a write-through snapshot of the list. Load never fails: a missing
// or unreadable snapshot is an empty list. Save overwrites whatever is there.
type Slot interface {
	Load() model.List
	Save(model.List) error
	Close() error
}

// Options selects and places a backend.
type Options struct {
	Backend string
	Dir     string
}

func (o Options) Validate() error {
	switch o.Backend {
	case "":
		return ErrBackendEmpty
	case BackendFile, BackendSQLite:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownBackend, o.Backend)
}

// Open returns the slot for the configured backend.
func Open(opt Options, log zerolog.Logger) (Slot, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	log = log.With().Str("backend", opt.Backend).Logger()
	switch opt.Backend {
	case BackendSQLite:
		s, err := sqlitestore.Open(opt.Dir, SlotName, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		return s, nil
	default:
		return jsonstore.New(opt.Dir, log), nil
	}
}
