// Package imaging implements the per-frame image stages of the lane detector.
//
// The stages run in this order inside the pipeline:
//
//	Grayscale / GaussianBlur  ->  AutoCanny  ->  MaskGray  ->  (Hough, in detection)
//	                                                          ->  DrawLine  ->  Weighted
//
// Each stage is a pure function: it never modifies its input and returns a
// new image whose bounds start at (0,0).
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X growing
// rightward and Y growing downward. Polygon vertices and line endpoints use
// the same convention and may lie outside the image; only the visible part
// is rasterized.
//
// # Image Types
//
//   - Color frames are handled as *image.RGBA with an opaque alpha channel.
//   - Edge maps and masks are *image.Gray holding only 0 or 255.
//
// Any other image.Image is converted on entry.
//
// # Error Handling
//
// Invalid parameters are reported with the sentinel errors in errors.go,
// wrapped with the offending values:
//   - ErrInvalidKernelSize for even or non-positive blur kernels
//   - ErrDimensionMismatch when blending images of different sizes
//   - ErrInvalidColor for unparsable hex colors
//
// File I/O errors from Open and Save are wrapped with "failed to ..." context.
//
// # Thread Safety
//
// All stage functions are safe to call concurrently. ImageCache is safe for
// concurrent use. Several stages split their row loops across goroutines.
package imaging
