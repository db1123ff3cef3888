package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError: malformed input (bad period string, missing review
// observations). Surfaced before any persistence.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError: a transition attempted from a disallowed state, by an
// unauthorized actor, or colliding with an existing open carga.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func NewPreconditionError(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError: referenced record does not exist or is inactive.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

func NewNotFoundError(format string, args ...any) error {
	return &NotFoundError{Reason: fmt.Sprintf(format, args...)}
}

// TransientSyncError: network/timeout/credential failure while talking to
// the external spreadsheet. Internal to the synchronizer; never propagated
// to the review caller.
type TransientSyncError struct {
	Reason string
	Err    error
}

func (e *TransientSyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TransientSyncError) Unwrap() error { return e.Err }

func NewTransientSyncError(err error, format string, args ...any) error {
	return &TransientSyncError{Reason: fmt.Sprintf(format, args...), Err: err}
}
