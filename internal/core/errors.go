package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by every channel-scoped operation that references
// an unknown channel id. Callers map it to a not-found response.
var ErrNotFound = errors.New("channel not found")

// PersistenceError wraps a failed write to the durable channel store. It is
// surfaced, never retried here.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
