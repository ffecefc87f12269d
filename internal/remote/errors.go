package remote

import (
	"errors"
	"fmt"
)

// ErrSync matches every error returned by Client via errors.Is.
var ErrSync = errors.New("sync failure")

var (
	errNoData    = errors.New("response has no data")
	errNoCreated = errors.New("create returned no id")
)

// SyncError reports a failed round trip: transport, status, GraphQL errors
// or an undecodable body.
type SyncError struct {
	Op     string
	Status int
	Err    error
}

func (e *SyncError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool { return target == ErrSync }

func syncErr(op string, status int, err error) error {
	return &SyncError{Op: op, Status: status, Err: err}
}
