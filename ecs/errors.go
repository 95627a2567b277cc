package ecs

import "github.com/rotisserie/eris"

var (
	// ErrCapacity is returned when the entity capacity is exhausted.
	ErrCapacity = eris.New("entity capacity exceeded")
	// ErrAlreadyPresent is returned when attaching a component kind the entity already holds.
	ErrAlreadyPresent = eris.New("component already present")
	// ErrNotPresent is returned when detaching a component kind the entity does not hold.
	ErrNotPresent = eris.New("component not present")
	// ErrNotFound is returned for operations on an entity that is not alive.
	ErrNotFound = eris.New("entity not found")
	// ErrOutOfRange is returned when an entity, kind or payload exceeds the configured bounds.
	ErrOutOfRange = eris.New("out of range")
	// ErrIO wraps failures of the underlying reader or writer during Save/Load.
	ErrIO = eris.New("snapshot i/o failure")
	// ErrTruncated is returned when a snapshot ends before the expected size.
	ErrTruncated = eris.New("snapshot truncated")
	// ErrFormatMismatch is returned when a snapshot was produced with different
	// capacities or does not describe a consistent store.
	ErrFormatMismatch = eris.New("snapshot format mismatch")
	// ErrInvalidConfig is returned by NewStorage for unusable capacities.
	ErrInvalidConfig = eris.New("invalid storage config")
	// ErrDispatching is returned when entities are created or destroyed while
	// a dispatch is walking the active list. Use Commands instead.
	ErrDispatching = eris.New("structural change during dispatch")
)

// ioError keeps both ErrIO and the underlying cause reachable through
// errors.Is and errors.As.
type ioError struct {
	op  string
	err error
}

func (e *ioError) Error() string   { return e.op + ": " + ErrIO.Error() + ": " + e.err.Error() }
func (e *ioError) Unwrap() []error { return []error{ErrIO, e.err} }

func wrapIO(err error, op string) error {
	return &ioError{op: op, err: err}
}
