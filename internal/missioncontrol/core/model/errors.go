package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissionNotFound is returned when a mission id is not in the registry.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrDuplicateMission is returned when creating a mission whose id is already registered.
	ErrDuplicateMission = errors.New("mission already exists")

	// ErrCommandNotFound is returned when a command id is unknown within its mission.
	ErrCommandNotFound = errors.New("command not found")

	// ErrInvalidTransition is returned for any state machine violation, mission or command.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrArchiveNotFound is returned when a finished mission has no stored archive.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")
)

// TransitionError describes a rejected state machine event.
type TransitionError struct {
	// Entity is "mission" or "command".
	Entity string
	ID     string
	From   string
	Event  string
	// Cause is the underlying fsm error, if any.
	Cause error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s %s cannot %s from state %q", ErrInvalidTransition, e.Entity, e.ID, e.Event, e.From)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransitionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidTransition}
	}
	return []error{ErrInvalidTransition, e.Cause}
}

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
