package controller

import (
	"errors"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrSwapRequestNotFound = errors.New("swap request not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTransitionConflict  = errors.New("swap request was modified concurrently")
	ErrMissingConfig       = errors.New("required server configuration is missing")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field level detail and matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
