package config

import "errors"

// Configuration errors returned by Load and Validate.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidTheta is returned when hough.theta_degrees is outside (0, 180].
	ErrInvalidTheta = errors.New("invalid theta: must be in (0, 180] degrees")

	// ErrInvalidExtent is returned when a lane would be extrapolated over a
	// zero-length or non-finite x range.
	ErrInvalidExtent = errors.New("invalid lane extent: from and to must differ")

	// ErrInvalidRegionPoint is returned when a region vertex does not have
	// exactly two coordinates.
	ErrInvalidRegionPoint = errors.New("invalid region point: expected [x, y]")

	// ErrInvalidWorkers is returned when video.workers is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidLogLevel is returned for an unknown log_level.
	ErrInvalidLogLevel = errors.New("invalid log level: use debug, info, warn or error")

	// ErrInvalidPipeline wraps stage parameter errors found during validation.
	ErrInvalidPipeline = errors.New("invalid pipeline settings")
)
