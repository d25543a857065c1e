package detection

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"
)

// Segment is a detected line segment in pixel coordinates
type Segment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Length returns the Euclidean length of the segment
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// HoughParams controls the probabilistic Hough transform
type HoughParams struct {
	// Rho is the distance resolution of the accumulator in pixels
	Rho float64 `json:"rho"`

	// Theta is the angle resolution of the accumulator in radians
	Theta float64 `json:"theta"`

	// Threshold is the minimum number of votes a line needs
	Threshold int `json:"threshold"`

	// MinLineLength is the minimum extent of a segment along x or y
	MinLineLength int `json:"min_line_length"`

	// MaxLineGap is the largest run of missing pixels bridged inside a segment
	MaxLineGap int `json:"max_line_gap"`

	// MaxLines stops the search after this many segments; 0 means no limit
	MaxLines int `json:"max_lines,omitempty"`

	// Seed fixes the order in which edge points are visited
	Seed uint64 `json:"seed"`
}

// DefaultSeed is the point-order seed used when none is configured
const DefaultSeed uint64 = 0xFFFFFFFF

// DefaultHoughParams returns the parameters tuned for dashcam lane markings
func DefaultHoughParams() HoughParams {
	return HoughParams{
		Rho:           1,
		Theta:         math.Pi / 60,
		Threshold:     70,
		MinLineLength: 40,
		MaxLineGap:    50,
		Seed:          DefaultSeed,
	}
}

// Validate checks that resolutions and thresholds are usable
func (p HoughParams) Validate() error {
	switch {
	case !(p.Rho > 0):
		return fmt.Errorf("%w: rho must be positive, got %v", ErrInvalidHoughParams, p.Rho)
	case !(p.Theta > 0) || p.Theta > math.Pi:
		return fmt.Errorf("%w: theta must be in (0, pi], got %v", ErrInvalidHoughParams, p.Theta)
	case p.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidHoughParams, p.Threshold)
	case p.MinLineLength < 0:
		return fmt.Errorf("%w: min line length must not be negative, got %d", ErrInvalidHoughParams, p.MinLineLength)
	case p.MaxLineGap < 0:
		return fmt.Errorf("%w: max line gap must not be negative, got %d", ErrInvalidHoughParams, p.MaxLineGap)
	case p.MaxLines < 0:
		return fmt.Errorf("%w: max lines must not be negative, got %d", ErrInvalidHoughParams, p.MaxLines)
	}
	return nil
}

// houghSpace is the (theta, rho) vote accumulator with its trig table
type houghSpace struct {
	numAngle int
	numRho   int
	trig     []float32 // cos, sin pairs pre-divided by rho
	votes    []int
}

func newHoughSpace(width, height int, rho, theta float64) *houghSpace {
	numAngle := int(math.Floor(math.Pi/theta)) + 1
	if numAngle > 1 && math.Abs(math.Pi-float64(numAngle-1)*theta) < theta/2 {
		numAngle--
	}
	numRho := int(math.RoundToEven(float64((width+height)*2+1) / rho))

	h := &houghSpace{
		numAngle: numAngle,
		numRho:   numRho,
		trig:     make([]float32, numAngle*2),
		votes:    make([]int, numAngle*numRho),
	}
	irho := 1 / rho
	for n := 0; n < numAngle; n++ {
		h.trig[n*2] = float32(math.Cos(float64(n)*theta) * irho)
		h.trig[n*2+1] = float32(math.Sin(float64(n)*theta) * irho)
	}
	return h
}

// bin returns the accumulator index of point (x, y) at angle n
func (h *houghSpace) bin(x, y, n int) int {
	r := float32(x)*h.trig[n*2] + float32(y)*h.trig[n*2+1]
	return n*h.numRho + int(math.RoundToEven(float64(r))) + (h.numRho-1)/2
}

// vote adds (x, y) to every angle and returns the strongest angle and its count
func (h *houghSpace) vote(x, y, floor int) (int, int) {
	best, bestN := floor, 0
	for n := 0; n < h.numAngle; n++ {
		i := h.bin(x, y, n)
		h.votes[i]++
		if h.votes[i] > best {
			best, bestN = h.votes[i], n
		}
	}
	return bestN, best
}

// unvote removes (x, y) from every angle
func (h *houghSpace) unvote(x, y int) {
	for n := 0; n < h.numAngle; n++ {
		h.votes[h.bin(x, y, n)]--
	}
}

// walk steps along a line in 16.16 fixed point. The major axis advances by
// one pixel per step and the minor axis by the fixed-point slope.
type walk struct {
	x0, y0 int
	dx, dy int
	xMajor bool
}

const walkShift = 16

func newWalk(h *houghSpace, x, y, n int) walk {
	a := -h.trig[n*2+1]
	b := h.trig[n*2]
	w := walk{x0: x, y0: y}

	if abs32(a) > abs32(b) {
		w.xMajor = true
		w.dx = sign32(a)
		w.dy = int(math.RoundToEven(float64(b) * (1 << walkShift) / float64(abs32(a))))
		w.y0 = (y << walkShift) + (1 << (walkShift - 1))
	} else {
		w.dy = sign32(b)
		w.dx = int(math.RoundToEven(float64(a) * (1 << walkShift) / float64(abs32(b))))
		w.x0 = (x << walkShift) + (1 << (walkShift - 1))
	}
	return w
}

// pixel converts a fixed-point walk position to pixel coordinates
func (w walk) pixel(x, y int) (int, int) {
	if w.xMajor {
		return x, y >> walkShift
	}
	return x >> walkShift, y
}

// HoughLinesP finds line segments in a binary edge image using the
// progressive probabilistic Hough transform.
//
// Edge points are visited in a random order drawn from p.Seed. Each point
// votes for all angles; once an angle collects p.Threshold votes the line
// through the point is followed in both directions, bridging gaps of up to
// p.MaxLineGap pixels. Lines reaching p.MinLineLength along x or y are kept
// and their pixels withdrawn from the accumulator, so every edge pixel
// belongs to at most one segment.
//
// Any non-zero pixel of edges counts as an edge. The returned segments have no
// particular order; coordinates are relative to edges.Bounds().Min.
func HoughLinesP(edges *image.Gray, p HoughParams) ([]Segment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bounds := edges.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	segments := make([]Segment, 0)
	if width == 0 || height == 0 {
		return segments, nil
	}

	// Collect edge points, the mask marks points not yet claimed by a segment
	mask := make([]bool, width*height)
	points := make([]image.Point, 0, width*height/16)
	for y := 0; y < height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+width]
		for x, v := range row {
			if v != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	space := newHoughSpace(width, height, p.Rho, p.Theta)
	rng := rand.New(rand.NewPCG(p.Seed, p.Seed))

	for count := len(points); count > 0; count-- {
		idx := rng.IntN(count)
		pt := points[idx]
		points[idx] = points[count-1]

		if !mask[pt.Y*width+pt.X] {
			continue
		}

		n, votes := space.vote(pt.X, pt.Y, p.Threshold-1)
		if votes < p.Threshold {
			continue
		}

		w := newWalk(space, pt.X, pt.Y, n)

		// Find both ends of the line through pt
		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			dx, dy := w.dx, w.dy
			if k > 0 {
				dx, dy = -dx, -dy
			}
			gap := 0
			for x, y := w.x0, w.y0; ; x, y = x+dx, y+dy {
				px, py := w.pixel(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				if mask[py*width+px] {
					gap = 0
					ends[k] = image.Point{X: px, Y: py}
				} else if gap++; gap > p.MaxLineGap {
					break
				}
			}
		}

		good := absInt(ends[1].X-ends[0].X) >= p.MinLineLength ||
			absInt(ends[1].Y-ends[0].Y) >= p.MinLineLength

		// Walk again to claim the pixels between the ends
		for k := 0; k < 2; k++ {
			dx, dy := w.dx, w.dy
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for x, y := w.x0, w.y0; ; x, y = x+dx, y+dy {
				px, py := w.pixel(x, y)
				if i := py*width + px; mask[i] {
					if good {
						space.unvote(px, py)
					}
					mask[i] = false
				}
				if px == ends[k].X && py == ends[k].Y {
					break
				}
			}
		}

		if good {
			segments = append(segments, Segment{
				X1: ends[0].X, Y1: ends[0].Y,
				X2: ends[1].X, Y2: ends[1].Y,
			})
			if p.MaxLines > 0 && len(segments) >= p.MaxLines {
				break
			}
		}
	}

	return segments, nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v float32) int {
	if v > 0 {
		return 1
	}
	return -1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
