package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorRateLimited marks an upstream extraction quota failure. It is
// propagated to the caller as-is and never retried by this service.
var ErrorRateLimited = errors.New("rate limited")

// ErrorAlreadyActive is the benign outcome of an alert-creation race: the
// uniqueness constraint fired because an active alert of the same type
// already exists. Callers treat it as success, never as a failure.
var ErrorAlreadyActive = errors.New("alert already active")

// ValidationError reports a malformed input field. EntryIndex identifies the
// offending entry inside a batch commit; it is -1 when the error is not
// positional, so the reviewer's remaining session entries stay intact.
type ValidationError struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	EntryIndex int    `json:"entryIndex"`
}

func (e *ValidationError) Error() string {
	if e.EntryIndex >= 0 {
		return fmt.Sprintf("entry %d: %s: %s", e.EntryIndex, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, EntryIndex: -1}
}

func NewEntryValidationError(index int, field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, EntryIndex: index}
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
