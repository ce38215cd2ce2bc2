package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	// ErrEmptyPath is returned when a required directory or file path is empty.
	ErrEmptyPath = errors.New("invalid configuration: store, cache and registry paths must be set")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRate is returned for a non-positive mean or a negative spread or floor.
	ErrInvalidRate = errors.New("invalid rate: mean must be positive, spread and floor non-negative")

	// ErrInvalidLastYear is returned for a last year before the first event.
	ErrInvalidLastYear = errors.New("invalid last year: must be 2015 or later")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
