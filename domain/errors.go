package domain

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound indicates a mutation referenced an unknown task id. It is
// non-fatal: no state changes, no activity is recorded and nothing is
// broadcast.
var ErrTaskNotFound = errors.New("task not found")

// ValidationError rejects a malformed mutation before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
