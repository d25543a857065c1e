package detection

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/lane-detector/internal/imaging"
)

func TestFitSegment(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		m, b float64
	}{
		{"rising", Segment{0, 0, 10, 10}, 1, 0},
		{"falling", Segment{0, 100, 50, 50}, -1, 100},
		{"flat", Segment{5, 7, 25, 7}, 0, 7},
		{"reversed endpoints", Segment{10, 30, 0, 10}, 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, ok := FitSegment(tt.seg)
			if !ok {
				t.Fatal("FitSegment reported a vertical segment")
			}
			if math.Abs(model.M-tt.m) > 1e-9 || math.Abs(model.B-tt.b) > 1e-9 {
				t.Errorf("got %+v, want m=%v b=%v", model, tt.m, tt.b)
			}

			// Both endpoints lie on the fitted line
			if math.Abs(model.YAt(float64(tt.seg.X1))-float64(tt.seg.Y1)) > 1e-9 ||
				math.Abs(model.YAt(float64(tt.seg.X2))-float64(tt.seg.Y2)) > 1e-9 {
				t.Errorf("endpoints of %+v are not on %+v", tt.seg, model)
			}
		})
	}

	if _, ok := FitSegment(Segment{4, 0, 4, 50}); ok {
		t.Error("vertical segment should not fit")
	}
}

func TestAverageLanes(t *testing.T) {
	ext := DefaultExtent()

	tests := []struct {
		name      string
		segments  []Segment
		wantSides []Side
	}{
		{"nil", nil, nil},
		{"only vertical", []Segment{{10, 0, 10, 50}, {30, 5, 30, 90}}, nil},
		{"only positive slopes", []Segment{{0, 0, 10, 10}, {0, 5, 10, 25}}, []Side{SideLeft}},
		{"only negative slopes", []Segment{{0, 10, 10, 0}}, []Side{SideRight}},
		{"zero slope is right", []Segment{{0, 10, 40, 10}}, []Side{SideRight}},
		{"both", []Segment{{0, 10, 10, 0}, {0, 0, 10, 10}, {3, 3, 3, 9}}, []Side{SideLeft, SideRight}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lanes := AverageLanes(tt.segments, 640, ext)
			if len(lanes) != len(tt.wantSides) {
				t.Fatalf("got %d lanes, want %d", len(lanes), len(tt.wantSides))
			}
			for i, side := range tt.wantSides {
				if lanes[i].Side != side {
					t.Errorf("lane %d: side %v, want %v", i, lanes[i].Side, side)
				}
			}
		})
	}
}

func TestAverageLanes_MeanAndExtrapolation(t *testing.T) {
	segments := []Segment{
		{0, 0, 10, 10},     // m=1, b=0
		{0, 10, 10, 30},    // m=2, b=10
		{0, 100, 50, 50},   // m=-1, b=100
		{0, 200, 100, 100}, // m=-1, b=200
	}

	lanes := AverageLanes(segments, 640, DefaultExtent())
	if len(lanes) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(lanes))
	}

	left, right := lanes[0], lanes[1]
	if left.Segments != 2 || right.Segments != 2 {
		t.Errorf("segment counts: left %d, right %d", left.Segments, right.Segments)
	}
	if left.Model != (LineModel{M: 1.5, B: 5}) {
		t.Errorf("left model = %+v", left.Model)
	}
	if right.Model != (LineModel{M: -1, B: 150}) {
		t.Errorf("right model = %+v", right.Model)
	}

	// Left runs from x=640 to x=352, right from x=-352 to x=288
	if left.Start != image.Pt(640, 965) || left.End != image.Pt(352, 533) {
		t.Errorf("left endpoints: %v -> %v", left.Start, left.End)
	}
	if right.Start != image.Pt(-352, 502) || right.End != image.Pt(288, -138) {
		t.Errorf("right endpoints: %v -> %v", right.Start, right.End)
	}
}

func TestAverageLanes_Rounding(t *testing.T) {
	// m = 1/3, b = 0: y(352) = 117.33, y(640) = 213.33
	lanes := AverageLanes([]Segment{{0, 0, 3, 1}}, 640, DefaultExtent())
	if len(lanes) != 1 {
		t.Fatalf("expected 1 lane, got %d", len(lanes))
	}
	if lanes[0].Start != image.Pt(640, 213) || lanes[0].End != image.Pt(352, 117) {
		t.Errorf("endpoints: %v -> %v", lanes[0].Start, lanes[0].End)
	}

	// m = 2/3: y(352) = 234.67 rounds up
	lanes = AverageLanes([]Segment{{0, 0, 3, 2}}, 640, DefaultExtent())
	if lanes[0].End != image.Pt(352, 235) {
		t.Errorf("end = %v, want (352,235)", lanes[0].End)
	}
}

func TestAverageLanes_CustomExtent(t *testing.T) {
	ext := Extent{LeftFrom: 0.5, LeftTo: 0.25, RightFrom: 0, RightTo: 1}
	lanes := AverageLanes([]Segment{{0, 0, 10, 10}, {0, 50, 50, 0}}, 100, ext)
	if len(lanes) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(lanes))
	}
	if lanes[0].Start.X != 50 || lanes[0].End.X != 25 {
		t.Errorf("left x range: %d -> %d", lanes[0].Start.X, lanes[0].End.X)
	}
	if lanes[1].Start.X != 0 || lanes[1].End.X != 100 {
		t.Errorf("right x range: %d -> %d", lanes[1].Start.X, lanes[1].End.X)
	}
}

func TestDrawLanes_EmptySegments(t *testing.T) {
	for _, segments := range [][]Segment{nil, {}} {
		canvas := image.NewRGBA(image.Rect(0, 0, 64, 48))
		canvas.Pix[10] = 7

		out, lanes := DrawLanes(canvas, segments, DefaultDrawOptions())
		if out != canvas {
			t.Error("expected the same canvas back")
		}
		if lanes != nil {
			t.Errorf("expected no lanes, got %v", lanes)
		}
		for i, v := range out.Pix {
			want := uint8(0)
			if i == 10 {
				want = 7
			}
			if v != want {
				t.Fatalf("canvas byte %d changed to %d", i, v)
			}
		}
	}
}

func TestDrawLanes_OnlyVertical(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 64, 48))
	_, lanes := DrawLanes(canvas, []Segment{{5, 0, 5, 40}}, DefaultDrawOptions())
	if len(lanes) != 0 {
		t.Errorf("expected no lanes, got %v", lanes)
	}
	for i, v := range canvas.Pix {
		if v != 0 {
			t.Fatalf("canvas byte %d written", i)
		}
	}
}

func TestDrawLanes_Strokes(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 100, 100))
	segments := []Segment{
		{50, 50, 100, 100}, // left: y = x, drawn for x in [55, 100]
		{0, 100, 50, 50},   // right: y = 100 - x, drawn for x in [-55, 45]
	}

	out, lanes := DrawLanes(canvas, segments, DefaultDrawOptions())
	if len(lanes) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(lanes))
	}

	red := imaging.LaneRed
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{80, 80, red},
		{86, 80, red}, // within half the 15 pixel thickness
		{92, 80, color.RGBA{}},
		{30, 70, red},
		{10, 90, red},
		{50, 10, color.RGBA{}},
		{20, 20, color.RGBA{}},
	}

	for _, tt := range tests {
		if got := out.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDrawLanes_CustomColor(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 100, 100))
	opts := DefaultDrawOptions()
	opts.Color = color.RGBA{0, 255, 0, 255}
	opts.Thickness = 1

	DrawLanes(canvas, []Segment{{50, 50, 100, 100}}, opts)
	if got := canvas.RGBAAt(70, 70); got != opts.Color {
		t.Errorf("pixel (70,70) = %v, want %v", got, opts.Color)
	}
	if got := canvas.RGBAAt(70, 72); got != (color.RGBA{}) {
		t.Errorf("1 pixel line is too wide: (70,72) = %v", got)
	}
}

func TestSide(t *testing.T) {
	if SideLeft.String() != "left" || SideRight.String() != "right" {
		t.Errorf("unexpected names: %s %s", SideLeft, SideRight)
	}
	if Side(7).String() != "Side(7)" {
		t.Errorf("unknown side: %s", Side(7))
	}

	data, err := json.Marshal(Lane{Side: SideRight})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["side"] != "right" {
		t.Errorf("side encoded as %v", decoded["side"])
	}
}
