package imaging

import (
	"image"
	"math"
)

// DefaultCannySigma is the spread around the median used by AutoCanny.
const DefaultCannySigma = 0.33

// tg22 is tan(22.5°) in Q15 fixed point, used to bin gradient directions.
const tg22 = 13573

// Thresholds holds the hysteresis thresholds used for a Canny run.
type Thresholds struct {
	// Low is the weak-edge threshold. Pixels with magnitude <= Low are discarded.
	Low int `json:"low"`

	// High is the strong-edge threshold. Pixels with magnitude > High seed edges.
	High int `json:"high"`
}

// AutoThresholds derives Canny thresholds from the median channel intensity.
//
// Parameters:
//   - img: Source image, typically already blurred.
//   - sigma: Relative spread around the median. 0.33 is a good default.
//
// Returns the pair:
//
//	low  = int(max(0,   (1 - sigma) * median))
//	high = int(min(255, (1 + sigma) * median))
func AutoThresholds(img image.Image, sigma float64) Thresholds {
	v := Median(img)
	return Thresholds{
		Low:  int(math.Max(0, (1.0-sigma)*v)),
		High: int(math.Min(255, (1.0+sigma)*v)),
	}
}

// AutoCanny runs Canny edge detection with thresholds computed by AutoThresholds.
//
// The returned Thresholds are the values that were actually applied, which is
// useful for logging and debugging poorly lit frames.
func AutoCanny(img image.Image, sigma float64) (*image.Gray, Thresholds) {
	t := AutoThresholds(img, sigma)
	return Canny(img, t.Low, t.High), t
}

// Canny performs Canny edge detection on an image.
//
// The input may be color or grayscale. For color input the gradient of each
// pixel is taken from the channel with the largest magnitude, so edges that
// only exist in one channel (a yellow line on grey asphalt) are still found.
//
// Parameters:
//   - img: Source image. No blur is applied here; blur first with GaussianBlur.
//   - low: Weak-edge threshold on the L1 Sobel magnitude (8-bit scale).
//   - high: Strong-edge threshold. If low > high the two are swapped.
//
// Returns a binary *image.Gray with the same dimensions as img, where edges
// are 255 and everything else is 0. Bounds start at (0,0).
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y with replicated
//     borders, magnitude = |Gx| + |Gy|
//
//  2. Non-maximum suppression: the gradient direction is quantized into
//     horizontal, vertical and the two diagonals; a pixel survives only if it
//     is a local maximum along that direction
//
//  3. Hysteresis thresholding:
//     - Pixels above high are strong edges (always kept)
//     - Pixels above low are weak edges, kept only if 8-connected to a
//     strong edge
//     - Everything else is discarded
func Canny(img image.Image, low, high int) *image.Gray {
	if low > high {
		low, high = high, low
	}

	p := newPlane(img)
	width, height := p.width, p.height
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	gradX := make([]int, width*height)
	gradY := make([]int, width*height)
	magnitude := make([]int, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			best := -1
			for c := 0; c < p.channels; c++ {
				gx, gy := p.sobel(x, y, c)
				if m := absInt(gx) + absInt(gy); m > best {
					best = m
					gradX[y*width+x] = gx
					gradY[y*width+x] = gy
				}
			}
			magnitude[y*width+x] = best
		}
	}

	mag := func(x, y int) int {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	const (
		none uint8 = iota
		weak
		strong
	)
	state := make([]uint8, width*height)
	stack := make([]int, 0, 1024)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= low {
				continue
			}

			xs, ys := gradX[i], gradY[i]
			ax := absInt(xs)
			ay := absInt(ys) << 15
			tg22x := ax * tg22

			var isMax bool
			if ay < tg22x {
				isMax = m > mag(x-1, y) && m >= mag(x+1, y)
			} else if tg67x := tg22x + (ax << 16); ay > tg67x {
				isMax = m > mag(x, y-1) && m >= mag(x, y+1)
			} else {
				s := 1
				if (xs ^ ys) < 0 {
					s = -1
				}
				isMax = m > mag(x-s, y-1) && m > mag(x+s, y+1)
			}

			if !isMax {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	// Grow strong edges into connected weak ones
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := x+kx, y+ky
				if px < 0 || px >= width || py < 0 || py >= height {
					continue
				}
				n := py*width + px
				if state[n] == weak {
					state[n] = strong
					stack = append(stack, n)
				}
			}
		}
	}

	for i, s := range state {
		if s == strong {
			result.Pix[(i/width)*result.Stride+i%width] = 255
		}
	}
	return result
}

// Median returns the median 8-bit intensity over all color channels of img.
//
// Grayscale images contribute one value per pixel, everything else contributes
// R, G and B. For an even number of values the two middle values are averaged.
func Median(img image.Image) float64 {
	p := newPlane(img)

	var hist [256]int
	for _, v := range p.pix {
		hist[v]++
	}

	n := len(p.pix)
	if n == 0 {
		return 0
	}

	// nth returns the k-th smallest value (0-based)
	nth := func(k int) int {
		seen := 0
		for v, c := range hist {
			seen += c
			if seen > k {
				return v
			}
		}
		return 255
	}

	if n%2 == 1 {
		return float64(nth(n / 2))
	}
	return float64(nth(n/2-1)+nth(n/2)) / 2.0
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
