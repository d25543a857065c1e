package pipeline

import "errors"

// Errors returned by Params.Validate and by frame processing.
var (
	// ErrInvalidSigma is returned when the Canny threshold spread is negative or not finite.
	ErrInvalidSigma = errors.New("invalid canny sigma: must be a non-negative number")

	// ErrInvalidThickness is returned when the lane stroke thickness is not positive.
	ErrInvalidThickness = errors.New("invalid line thickness: must be positive")

	// ErrEmptyFrame is returned when a frame has no pixels.
	ErrEmptyFrame = errors.New("frame has zero width or height")

	// ErrInvalidRegion is returned when a custom region has fewer than three vertices.
	ErrInvalidRegion = errors.New("invalid region: polygon needs at least three vertices")
)
