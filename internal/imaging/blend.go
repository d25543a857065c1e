package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Default blend weights for compositing a lane overlay onto a frame.
const (
	DefaultAlpha = 0.8
	DefaultBeta  = 1.0
	DefaultGamma = 0.0
)

// Weighted computes the per-pixel weighted sum of two images:
//
//	result = src*alpha + overlay*beta + gamma
//
// Each color channel is rounded to the nearest integer and saturated to
// [0, 255]. The alpha channel of the result is always opaque.
//
// Parameters:
//   - src: The original image.
//   - alpha: Weight applied to src.
//   - overlay: An image of the same width and height, usually a black canvas
//     with lines drawn on it.
//   - beta: Weight applied to overlay.
//   - gamma: Scalar added to every channel after weighting.
//
// Returns:
//   - *image.RGBA: The blended image with bounds starting at (0,0).
//   - error: ErrDimensionMismatch if the two images differ in size.
func Weighted(src image.Image, alpha float64, overlay image.Image, beta, gamma float64) (*image.RGBA, error) {
	sb, ob := src.Bounds(), overlay.Bounds()
	if sb.Dx() != ob.Dx() || sb.Dy() != ob.Dy() {
		return nil, fmt.Errorf("%w: source %dx%d, overlay %dx%d",
			ErrDimensionMismatch, sb.Dx(), sb.Dy(), ob.Dx(), ob.Dy())
	}

	a := toRGBA(src)
	b := toRGBA(overlay)
	w, h := sb.Dx(), sb.Dy()
	result := image.NewRGBA(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				ai := y*a.Stride + x*4
				bi := y*b.Stride + x*4
				ri := y*result.Stride + x*4
				for c := 0; c < 3; c++ {
					v := float64(a.Pix[ai+c])*alpha + float64(b.Pix[bi+c])*beta + gamma
					result.Pix[ri+c] = saturate(v)
				}
				result.Pix[ri+3] = 255
			}
		}
	})

	return result, nil
}

// saturate rounds v and clips it to the 8-bit range.
func saturate(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
