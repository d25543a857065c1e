package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/ironsheep/lane-detector/internal/detection"
	"github.com/ironsheep/lane-detector/internal/imaging"
)

// newRoadFrame returns a black 640x480 frame with two 3 pixel thick white
// markings: y = x + 170 for x in [190, 300] and y = 810 - x for x in [340, 450].
// Both lie inside the default region of interest.
func newRoadFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}

	white := color.RGBA{255, 255, 255, 255}
	mark := func(f func(int) int, x0, x1 int) {
		for x := x0; x <= x1; x++ {
			for d := -1; d <= 1; d++ {
				img.SetRGBA(x, f(x)+d, white)
			}
		}
	}
	mark(func(x int) int { return x + 170 }, 190, 300)
	mark(func(x int) int { return 810 - x }, 340, 450)
	return img
}

func newBlackFrame(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
	return img
}

func mustNew(t *testing.T, params Params, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(params, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestDefaultParams(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if p.KernelSize != 5 || p.CannySigma != 0.33 || p.GrayscaleEdges {
		t.Errorf("unexpected preprocessing defaults: %+v", p)
	}
	if p.Alpha != 0.8 || p.Beta != 1.0 || p.Gamma != 0 {
		t.Errorf("unexpected blend defaults: %v %v %v", p.Alpha, p.Beta, p.Gamma)
	}
	if p.Draw.Thickness != 15 || p.Draw.Color != imaging.LaneRed {
		t.Errorf("unexpected draw defaults: %+v", p.Draw)
	}
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Params)
		wantErr error
	}{
		{"even kernel", func(p *Params) { p.KernelSize = 4 }, imaging.ErrInvalidKernelSize},
		{"zero kernel", func(p *Params) { p.KernelSize = 0 }, imaging.ErrInvalidKernelSize},
		{"negative sigma", func(p *Params) { p.CannySigma = -0.1 }, ErrInvalidSigma},
		{"NaN sigma", func(p *Params) { p.CannySigma = math.NaN() }, ErrInvalidSigma},
		{"short region", func(p *Params) { p.Region = imaging.Polygon{{0, 0}, {5, 5}} }, ErrInvalidRegion},
		{"zero theta", func(p *Params) { p.Hough.Theta = 0 }, detection.ErrInvalidHoughParams},
		{"zero threshold", func(p *Params) { p.Hough.Threshold = 0 }, detection.ErrInvalidHoughParams},
		{"zero thickness", func(p *Params) { p.Draw.Thickness = 0 }, ErrInvalidThickness},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultParams()
			tt.modify(&p)

			if err := p.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate: expected %v, got %v", tt.wantErr, err)
			}
			if _, err := New(p); !errors.Is(err, tt.wantErr) {
				t.Errorf("New: expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStageNames(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	want := []string{"blur", "edges", "mask", "hough", "lanes", "blend"}
	got := p.StageNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("StageNames = %v, want %v", got, want)
	}
}

func TestDetect_RoadFrame(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	r, err := p.Detect(newRoadFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if r.Thresholds != (imaging.Thresholds{Low: 0, High: 0}) {
		t.Errorf("black frame median should give zero thresholds, got %+v", r.Thresholds)
	}
	if len(r.Segments) < 2 {
		t.Fatalf("expected segments on both markings, got %v", r.Segments)
	}
	if len(r.Lanes) != 2 {
		t.Fatalf("expected exactly one lane per side, got %+v", r.Lanes)
	}

	left, right := r.Lanes[0], r.Lanes[1]
	if left.Side != detection.SideLeft || right.Side != detection.SideRight {
		t.Fatalf("unexpected sides: %v, %v", left.Side, right.Side)
	}

	if math.Abs(left.Model.M-1) > 0.05 || math.Abs(left.Model.B-170) > 5 {
		t.Errorf("left model %+v, want close to y = x + 170", left.Model)
	}
	if math.Abs(right.Model.M+1) > 0.05 || math.Abs(right.Model.B-810) > 5 {
		t.Errorf("right model %+v, want close to y = 810 - x", right.Model)
	}

	if left.Start.X != 640 || left.End.X != 352 {
		t.Errorf("left lane x range %d -> %d, want 640 -> 352", left.Start.X, left.End.X)
	}
	if right.Start.X != -352 || right.End.X != 288 {
		t.Errorf("right lane x range %d -> %d, want -352 -> 288", right.Start.X, right.End.X)
	}

	// Both extrapolated lanes run below the frame, so only the dimmed source remains
	if got := r.Image.RGBAAt(250, 420); got != (color.RGBA{204, 204, 204, 255}) {
		t.Errorf("marking pixel = %v, want {204 204 204 255}", got)
	}
	if got := r.Image.RGBAAt(10, 10); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("background pixel = %v, want opaque black", got)
	}
}

func TestDetect_MaskRemovesEdgesOutsideRegion(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	r, err := p.Detect(newRoadFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	bounds := r.Masked.Bounds()
	if bounds != r.Edges.Bounds() || bounds.Dx() != 640 || bounds.Dy() != 480 {
		t.Fatalf("unexpected edge bounds: %v / %v", r.Edges.Bounds(), bounds)
	}
	for y := 0; y < 240; y++ {
		for x := 0; x < 640; x++ {
			if r.Masked.GrayAt(x, y).Y != 0 {
				t.Fatalf("edge at (%d,%d) above the region apex", x, y)
			}
		}
	}
}

func TestDetect_BlackFrame(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	r, err := p.Detect(newBlackFrame(160, 120))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(r.Segments) != 0 || len(r.Lanes) != 0 {
		t.Errorf("black frame produced segments %v, lanes %v", r.Segments, r.Lanes)
	}
	for i := 0; i < len(r.Image.Pix); i += 4 {
		if r.Image.Pix[i] != 0 || r.Image.Pix[i+1] != 0 || r.Image.Pix[i+2] != 0 || r.Image.Pix[i+3] != 255 {
			t.Fatalf("unexpected output pixel at byte %d", i)
		}
	}
}

func TestDetect_EmptyFrame(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	if _, err := p.Detect(image.NewRGBA(image.Rect(0, 0, 0, 10))); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestDetect_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	frame := newRoadFrame()
	before := append([]uint8(nil), frame.Pix...)

	p := mustNew(t, DefaultParams())
	if _, err := p.Detect(frame); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !bytes.Equal(before, frame.Pix) {
		t.Error("Detect modified its input frame")
	}
}

func TestDetect_GrayscaleEdges(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	params.GrayscaleEdges = true
	p := mustNew(t, params)

	r, err := p.Detect(newRoadFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(r.Lanes) != 2 {
		t.Errorf("expected two lanes from grayscale edges, got %+v", r.Lanes)
	}
	if r.Image.Bounds() != image.Rect(0, 0, 640, 480) {
		t.Errorf("output bounds %v", r.Image.Bounds())
	}
}

func TestDetect_CustomRegion(t *testing.T) {
	t.Parallel()

	// A region covering only the right half hides the positive-slope marking
	params := DefaultParams()
	params.Region = imaging.Polygon{{320, 240}, {640, 240}, {640, 480}, {320, 480}}
	p := mustNew(t, params)

	r, err := p.Detect(newRoadFrame())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(r.Lanes) != 1 || r.Lanes[0].Side != detection.SideRight {
		t.Errorf("expected only the right lane, got %+v", r.Lanes)
	}
}

func TestEdgesAndSegments(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	frame := newRoadFrame()

	e, err := p.Edges(frame)
	if err != nil {
		t.Fatalf("Edges failed: %v", err)
	}
	if e.Masked == nil || e.Edges == nil || e.Blurred == nil {
		t.Fatal("Edges left edge maps unset")
	}
	if e.Segments != nil || e.Image != nil {
		t.Error("Edges ran past the mask stage")
	}

	s, err := p.Segments(frame)
	if err != nil {
		t.Fatalf("Segments failed: %v", err)
	}
	if len(s.Segments) == 0 {
		t.Error("Segments found nothing")
	}
	if s.Overlay != nil || s.Image != nil {
		t.Error("Segments ran past the hough stage")
	}
}

func TestProcess(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	out, err := p.Process(newBlackFrame(64, 48))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Errorf("output bounds %v", out.Bounds())
	}
}

func TestDetect_Concurrent(t *testing.T) {
	t.Parallel()

	p := mustNew(t, DefaultParams())
	frame := newRoadFrame()

	want, err := p.Detect(frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = p.Detect(frame)
		}()
	}
	wg.Wait()

	for i, r := range results {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if !bytes.Equal(r.Image.Pix, want.Image.Pix) {
			t.Errorf("goroutine %d produced a different frame", i)
		}
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := mustNew(t, DefaultParams(), WithLogger(logger))
	if _, err := p.Detect(newBlackFrame(32, 32)); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !strings.Contains(buf.String(), "frame processed") {
		t.Errorf("expected debug log, got %q", buf.String())
	}
}

func TestNew_CopiesRegion(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	params.Region = imaging.Polygon{{0, 0}, {10, 0}, {10, 10}}
	p := mustNew(t, params)

	params.Region[0] = image.Pt(99, 99)
	if p.Params().Region[0] != image.Pt(0, 0) {
		t.Error("pipeline shares the caller's region slice")
	}
}
