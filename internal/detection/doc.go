// Package detection turns an edge map into lane boundaries.
//
// Two steps live here:
//
//  1. Segment extraction: HoughLinesP runs the progressive probabilistic
//     Hough transform over a binary edge image and returns line segments
//  2. Lane fitting: AverageLanes splits segments by slope sign, averages
//     each group into one line and extrapolates it over a fixed x range;
//     DrawLanes strokes the result onto an overlay canvas
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Sides are assigned purely by slope sign in these coordinates: a positive
// slope goes to SideLeft, zero or negative to SideRight. No check is made
// that a "left" segment actually sits left of center.
//
// # Reproducibility
//
// The Hough transform visits edge points in random order. The order comes
// from HoughParams.Seed, so a given frame and parameter set always yields the
// same segments.
//
// # Limitations
//
// Only straight lines are fitted, and at most two lanes are reported. No
// state is carried between frames.
package detection
