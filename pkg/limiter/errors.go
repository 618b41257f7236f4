package limiter

import (
	"errors"
	"fmt"
)

// Sentinel validation errors, matchable with errors.Is.
var (
	ErrUnknownAlgorithm    = errors.New("unknown algorithm")
	ErrNonPositiveLimit    = errors.New("limit must be positive")
	ErrNonPositiveWindow   = errors.New("window must be positive")
	ErrNonPositiveCapacity = errors.New("capacity must be positive")
	ErrNonPositiveRate     = errors.New("refill rate must be positive")
	ErrNegativeCost        = errors.New("cost default must not be negative")
)

// ConfigError reports which Config field failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("limiter: invalid config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
