package imaging

import "errors"

// Sentinel errors returned by the imaging stages. Callers match them with
// errors.Is; the returned errors wrap them with the offending values.
var (
	// ErrInvalidKernelSize is returned when a blur kernel size is not a positive odd number.
	ErrInvalidKernelSize = errors.New("kernel size must be a positive odd number")

	// ErrDimensionMismatch is returned when two images that must be blended
	// or masked together do not have the same width and height.
	ErrDimensionMismatch = errors.New("image dimensions do not match")

	// ErrInvalidColor is returned when a color string cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")
)
