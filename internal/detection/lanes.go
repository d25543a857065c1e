package detection

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/lane-detector/internal/imaging"
	"gonum.org/v1/gonum/stat"
)

// Side identifies which lane boundary a group of segments belongs to.
//
// Sides are assigned by slope sign alone, in image coordinates where y grows
// downward: a positive slope is the left lane, zero or negative is the right.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

// String returns "left" or "right"
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// MarshalText encodes the side by name
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LineModel is the line y = M*x + B in image coordinates.
type LineModel struct {
	M float64 `json:"slope"`
	B float64 `json:"intercept"`
}

// FitSegment returns the line through both endpoints of s.
// Vertical segments have no slope and report ok == false.
func FitSegment(s Segment) (LineModel, bool) {
	if s.X1 == s.X2 {
		return LineModel{}, false
	}
	m := float64(s.Y2-s.Y1) / float64(s.X2-s.X1)
	return LineModel{M: m, B: float64(s.Y1) - m*float64(s.X1)}, true
}

// YAt evaluates the line at x
func (l LineModel) YAt(x float64) float64 {
	return l.M*x + l.B
}

// Extent gives the x range each lane is extrapolated over, as fractions of
// the image width. From and To may lie outside [0, 1].
type Extent struct {
	LeftFrom  float64 `json:"left_from" yaml:"left_from"`
	LeftTo    float64 `json:"left_to" yaml:"left_to"`
	RightFrom float64 `json:"right_from" yaml:"right_from"`
	RightTo   float64 `json:"right_to" yaml:"right_to"`
}

// DefaultExtent returns the extrapolation range used for dashcam frames
func DefaultExtent() Extent {
	return Extent{
		LeftFrom:  1.0,
		LeftTo:    0.55,
		RightFrom: -0.55,
		RightTo:   0.45,
	}
}

// Lane is one averaged and extrapolated lane boundary
type Lane struct {
	Side     Side        `json:"side"`
	Model    LineModel   `json:"model"`
	Segments int         `json:"segments"`
	Start    image.Point `json:"start"`
	End      image.Point `json:"end"`
}

// AverageLanes groups segments by slope sign, averages slope and intercept
// per group and extrapolates each average across ext.
//
// Vertical segments are skipped. A side without segments is omitted, so the
// result holds zero, one or two lanes, left before right. Endpoints are
// rounded to the nearest pixel.
func AverageLanes(segments []Segment, width int, ext Extent) []Lane {
	var slopes, intercepts [2][]float64

	for _, s := range segments {
		model, ok := FitSegment(s)
		if !ok {
			continue
		}
		side := SideRight
		if model.M > 0 {
			side = SideLeft
		}
		slopes[side] = append(slopes[side], model.M)
		intercepts[side] = append(intercepts[side], model.B)
	}

	w := float64(width)
	spans := [2][2]float64{
		SideLeft:  {ext.LeftFrom * w, ext.LeftTo * w},
		SideRight: {ext.RightFrom * w, ext.RightTo * w},
	}

	lanes := make([]Lane, 0, 2)
	for _, side := range []Side{SideLeft, SideRight} {
		if len(slopes[side]) == 0 {
			continue
		}
		model := LineModel{
			M: stat.Mean(slopes[side], nil),
			B: stat.Mean(intercepts[side], nil),
		}
		x1, x2 := spans[side][0], spans[side][1]
		lanes = append(lanes, Lane{
			Side:     side,
			Model:    model,
			Segments: len(slopes[side]),
			Start:    roundPoint(x1, model.YAt(x1)),
			End:      roundPoint(x2, model.YAt(x2)),
		})
	}
	return lanes
}

func roundPoint(x, y float64) image.Point {
	return image.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// DrawOptions controls how lanes are stroked onto a canvas
type DrawOptions struct {
	Extent    Extent
	Color     color.RGBA
	Thickness int
}

// DefaultDrawOptions returns a 15 pixel red stroke over DefaultExtent
func DefaultDrawOptions() DrawOptions {
	return DrawOptions{
		Extent:    DefaultExtent(),
		Color:     imaging.LaneRed,
		Thickness: 15,
	}
}

// DrawLanes averages segments into lanes and strokes them onto canvas.
//
// The canvas is modified in place and returned. With no segments it is
// returned untouched. Lane endpoints are relative to canvas.Bounds().Min.
func DrawLanes(canvas *image.RGBA, segments []Segment, opts DrawOptions) (*image.RGBA, []Lane) {
	if len(segments) == 0 {
		return canvas, nil
	}

	origin := canvas.Bounds().Min
	lanes := AverageLanes(segments, canvas.Bounds().Dx(), opts.Extent)
	for _, lane := range lanes {
		imaging.DrawLine(canvas, lane.Start.Add(origin), lane.End.Add(origin), opts.Thickness, opts.Color)
	}
	return canvas, lanes
}
