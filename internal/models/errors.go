package models

import (
	"errors"
	"fmt"
)

// Timer state machine violations. Handlers map these to 409.
var (
	ErrNoProjectSelected       = errors.New("no project selected")
	ErrAlreadyTiming           = errors.New("already timing an action item")
	ErrNotCurrentlyTiming      = errors.New("not currently timing")
	ErrCannotSwitchWhileTiming = errors.New("cannot switch projects while timing")
)

// Lookup failures.
var (
	ErrPhaseNotFound   = errors.New("phase not found")
	ErrRecordNotFound  = errors.New("record not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRateNotFound    = errors.New("rate not found")
	ErrTypeNotFound    = errors.New("type not found")
)

// ErrInvalidCredentials covers unknown user, wrong password and archived
// account alike so login responses leak nothing.
var ErrInvalidCredentials = errors.New("invalid credentials")

// InvalidTimestampError marks a user-supplied timestamp that does not
// parse in the canonical layout. Field names which input was bad.
type InvalidTimestampError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid %s timestamp %q", e.Field, e.Value)
}

func (e *InvalidTimestampError) Unwrap() error { return e.Err }

// ValidationError marks rejected input on a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
