package domain

import "fmt"

// Error types for consistent error handling across duwit.

// ErrStorage indicates a persistence load/save failure. When it wraps a
// failed save, the in-memory store is still authoritative; the caller is
// told durability is not yet confirmed.
type ErrStorage struct {
	Op  string // "load" or "save"
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a bad input that cannot be coerced.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a failed PIN unlock or a missing/invalid
// session token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrCircuitOpen indicates the remote store's circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
