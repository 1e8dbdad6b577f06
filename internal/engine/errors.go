package engine

import (
	"fmt"

	"github.com/votewatch/election-alerts/internal/models"
)

// ValidationError reports a missing or malformed field at alert creation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid alert: field %s %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on an alert id not present in the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("alert %s not found", e.ID)
}

// InvalidStateError reports an illegal state transition, e.g. acknowledging
// a resolved alert.
type InvalidStateError struct {
	ID     string
	Status models.Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s alert %s in status %s", e.Op, e.ID, e.Status)
}

// PersistenceError reports a ledger failure. The transition that triggered
// the append is not applied: in-memory state and timers stay untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
