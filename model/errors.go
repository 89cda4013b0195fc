package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState operation is not allowed in the current state
	ErrInvalidState = errors.New("invalid state")

	// ErrTimeout no candidate was accepted before the query expired
	ErrTimeout = errors.New("query timed out")
)

// ConfigurationError is a failure of a DNSSEC setup stage
type ConfigurationError struct {
	Stage string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewInvalidStateError wraps ErrInvalidState with a description
func NewInvalidStateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
