package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden access")
	ErrConflict     = errors.New("resource conflict")
)

// Meeting errors
var (
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrVersionNotFound    = errors.New("version not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the size limit")
	ErrStorageDisabled    = errors.New("attachment storage is not configured")
	ErrMeetingBusy        = errors.New("another operation is in progress for this meeting")
	ErrEmptyQuestion      = errors.New("question must not be empty")
	ErrNoAgentsHired      = errors.New("no agents hired")
	ErrLockUnavailable    = errors.New("meeting lock unavailable")
)

// ConfigurationError reports an invalid deliberation setup. It is raised
// before any provider call is made.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidInput
}

// StateConflictError reports an operation that is not valid for the
// meeting's current lifecycle state.
type StateConflictError struct {
	MeetingID string
	Reason    string
	Err       error
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("meeting %s: %s", e.MeetingID, e.Reason)
}

func (e *StateConflictError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConflict
}

// StoreError reports a failed repository call. Op names what was attempted.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// DeliberationError reports that a deliberation produced no usable result.
// Stage is "fanout" when every agent failed and "chair" when synthesis failed.
type DeliberationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *DeliberationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliberation failed at %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("deliberation failed at %s: %s", e.Stage, e.Reason)
}

func (e *DeliberationError) Unwrap() error {
	return e.Err
}
