package detection

import "errors"

// ErrInvalidHoughParams is returned when a Hough resolution or threshold is not positive.
var ErrInvalidHoughParams = errors.New("invalid hough parameters")
