package engine

import "fmt"

// ValidationError reports malformed delivery parameters or an incomplete
// player selection
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an unknown entity id
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

// StateConflictError reports an operation that is invalid for the current
// lifecycle state (completed innings, empty undo journal, double bowler
// assignment)
type StateConflictError struct {
	Msg string
}

func (e *StateConflictError) Error() string { return e.Msg }

// IntegrityError reports that a step of the atomic mutation sequence would
// leave the ledger and the maintained totals inconsistent
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &StateConflictError{Msg: fmt.Sprintf(format, args...)}
}

func integrityf(format string, args ...interface{}) error {
	return &IntegrityError{Msg: fmt.Sprintf(format, args...)}
}
