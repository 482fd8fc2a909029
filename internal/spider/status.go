package spider

import "fmt"

// Status is the lifecycle state of a container record.
//
// Created is entered once, when the runtime returns a container id. It is
// followed by exactly one terminal state. There is no retry state: a retry
// is a new trigger with a new batch.
type Status string

// Status constants
const (
	StatusCreated Status = "Created"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusCreated && next.Terminal()
}

// StartStatus maps the outcome of a start call to the terminal status.
func StartStatus(started bool) Status {
	if started {
		return StatusSuccess
	}
	return StatusFailed
}

// TransitionError is returned for a transition the state machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid container status transition %q -> %q", e.From, e.To)
}
