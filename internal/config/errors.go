package config

import "errors"

var (
	// ErrInvalidConfig is returned for malformed or out-of-range configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidThreshold is returned for an unknown scan threshold.
	ErrInvalidThreshold = errors.New("invalid threshold")
)
