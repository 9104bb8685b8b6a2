package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTokenIssuance      = errors.New("token issuance failed")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError collects per-field validation messages.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

// Add records a message for the given field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether any message was recorded for field.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Err returns e when at least one message was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, e.Fields[k]...)
	}
	return "invalid input: " + strings.Join(parts, " ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
