package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id matches no post.
	ErrNotFound = errors.New("post not found")

	// ErrUnauthorized is returned for a wrong password or credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError wraps a failure of the underlying document store, including
// identifiers the store cannot parse.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
