package video

import "errors"

var (
	// ErrUnsupportedFormat is returned when no backend handles a file extension.
	ErrUnsupportedFormat = errors.New("unsupported video format")

	// ErrInvalidFrameRate is returned when a sink is created with a
	// non-positive or non-finite frame rate.
	ErrInvalidFrameRate = errors.New("invalid frame rate")

	// ErrInvalidSize is returned when a sink is created with an empty frame size.
	ErrInvalidSize = errors.New("invalid frame size")

	// ErrBackendUnavailable is returned when the external tool a backend
	// relies on cannot be found.
	ErrBackendUnavailable = errors.New("video backend unavailable")
)

// ErrNoFrames is returned when a sink is closed before any frame was written.
var ErrNoFrames = errors.New("no frames written")
