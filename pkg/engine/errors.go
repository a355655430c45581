package engine

import (
	"errors"
	"fmt"
)

// Borrow errors. They are returned wrapped in a *StateError.
var (
	ErrBorrowUnavailable   = errors.New("borrow unavailable")
	ErrServerStopped       = errors.New("cannot borrow from an already-stopped server")
	ErrSharedServerStopped = errors.New("shared server is already stopped")
	ErrScopeUsed           = errors.New("borrow scope has already been run")
)

// Listener errors.
var (
	ErrAlreadyRunning      = errors.New("server is already running")
	ErrRandomPortExhausted = errors.New("no random port available")
	ErrFixedPortInUse      = errors.New("requested port is still in use")
)

// StateError reports an operation the server's current state does not
// allow. It is never retried internally.
type StateError struct {
	Op     string
	Reason string
	Err    error
}

func (e *StateError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *StateError) Unwrap() error { return e.Err }

func stateError(op string, err error, reason string, args ...any) *StateError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &StateError{Op: op, Reason: reason, Err: err}
}
