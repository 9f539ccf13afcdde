package trainconfig

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Every failure returned by Normalize is a *FieldError
// matching exactly one of them through errors.Is.
var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidValue        = errors.New("invalid field value")
	ErrIncompatibleVersion = errors.New("incompatible engine version")
	ErrRetiredField        = errors.New("retired field")
	ErrConflictingFields   = errors.New("conflicting fields")
)

// FieldError identifies the field or invariant that stopped normalization.
type FieldError struct {
	Field  string
	Reason string
	Kind   error
	Cause  error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s: %q: %s", e.Kind, e.Field, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FieldError) Is(target error) bool {
	return target == e.Kind
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

func missingField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason, Kind: ErrMissingField}
}

func invalidValue(field, reason string, cause error) error {
	return &FieldError{Field: field, Reason: reason, Kind: ErrInvalidValue, Cause: cause}
}
