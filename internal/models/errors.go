package models

import "errors"

// Sentinel errors shared by the repository, service and handler layers.
// Layers wrap them with context; handlers map them to status codes with errors.Is.
var (
	// ErrInvalidInput means a required field is missing or a value is out of range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized covers both a missing and a wrong PIN.
	ErrUnauthorized = errors.New("invalid or missing PIN")
	// ErrNotFound means no document carries the requested public code.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateCode is returned by the store when a public code is already taken.
	ErrDuplicateCode = errors.New("public code already exists")
	// ErrCodeExhausted means no unique public code could be issued.
	ErrCodeExhausted = errors.New("failed to generate unique public code")
)
