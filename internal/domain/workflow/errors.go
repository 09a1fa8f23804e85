package workflow

import (
	"errors"
	"fmt"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

var (
	// ErrInvalidTransition is returned when a lifecycle transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)

// NotFoundError is returned when a template or instance id does not resolve.
type NotFoundError struct {
	Kind string // "template" or "instance"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ValidationError is returned for malformed templates or requests.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// InvalidStateError is returned when an operation is attempted against an
// instance whose status forbids it. Status carries the current status so the
// caller can display it.
type InvalidStateError struct {
	Operation string
	Status    entity.InstanceStatus
	Expected  entity.InstanceStatus
}

func (e *InvalidStateError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("cannot %s: instance is %s, expected %s", e.Operation, e.Status, e.Expected)
	}
	return fmt.Sprintf("cannot %s: instance is %s", e.Operation, e.Status)
}

// CorruptInstanceError signals a violated internal invariant, such as the
// current step missing from the step data. Always a bug, never triggerable
// through normal API use.
type CorruptInstanceError struct {
	InstanceID  int64
	CurrentStep int
	Reason      string
}

func (e *CorruptInstanceError) Error() string {
	return fmt.Sprintf("corrupt instance %d: %s (current step %d)", e.InstanceID, e.Reason, e.CurrentStep)
}

// ConcurrentModificationError is returned when an optimistic-concurrency
// check fails on write. Safe to retry after re-reading the instance.
type ConcurrentModificationError struct {
	InstanceID int64
	Version    int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("instance %d was modified concurrently (read at version %d)", e.InstanceID, e.Version)
}

// PersistenceError wraps a storage-layer failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
