package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// sliceSource serves 1x1 frames whose red channel is the frame index.
type sliceSource struct {
	n      int
	next   int
	failAt int
}

func newSliceSource(n int) *sliceSource {
	return &sliceSource{n: n, failAt: -1}
}

func (s *sliceSource) Next() (image.Image, error) {
	if s.next == s.failAt {
		return nil, errBoom
	}
	if s.next >= s.n {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: uint8(s.next), A: 255})
	s.next++
	return img, nil
}

func (s *sliceSource) FrameRate() float64 { return 30 }

func (s *sliceSource) Size() image.Point { return image.Pt(1, 1) }

func (s *sliceSource) Close() error { return nil }

type sliceSink struct {
	mu     sync.Mutex
	frames []int
}

func (s *sliceSink) Write(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, _, _, _ := img.At(0, 0).RGBA()
	s.frames = append(s.frames, int(r>>8))
	return nil
}

func (s *sliceSink) Close() error { return nil }

func identity(img image.Image) (image.Image, error) { return img, nil }

func TestProcess_PreservesOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		frames  int
		workers int
	}{
		{"sequential", 10, 1},
		{"parallel", 23, 4},
		{"more workers than frames", 3, 8},
		{"empty", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sink := &sliceSink{}
			slow := func(img image.Image) (image.Image, error) {
				time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
				return img, nil
			}

			n, err := Process(context.Background(), newSliceSource(tt.frames), sink, slow, WithWorkers(tt.workers))
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if n != tt.frames || len(sink.frames) != tt.frames {
				t.Fatalf("wrote %d frames, sink has %d, want %d", n, len(sink.frames), tt.frames)
			}
			for i, v := range sink.frames {
				if v != i {
					t.Fatalf("frame %d has index %d, frames out of order: %v", i, v, sink.frames)
				}
			}
		})
	}
}

func TestProcess_FrameErrorStopsRun(t *testing.T) {
	t.Parallel()

	sink := &sliceSink{}
	var calls sync.Map
	fn := func(img image.Image) (image.Image, error) {
		r, _, _, _ := img.At(0, 0).RGBA()
		calls.Store(int(r>>8), true)
		if r>>8 == 5 {
			return nil, errBoom
		}
		return img, nil
	}

	n, err := Process(context.Background(), newSliceSource(20), sink, fn, WithWorkers(4))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	// The first batch (0-3) is written, the failing batch (4-7) is not
	if n != 4 || len(sink.frames) != 4 {
		t.Errorf("wrote %d frames, sink has %d, want 4", n, len(sink.frames))
	}
	if _, ok := calls.Load(8); ok {
		t.Error("frames after the failing batch were processed")
	}
}

func TestProcess_SourceError(t *testing.T) {
	t.Parallel()

	src := newSliceSource(10)
	src.failAt = 3
	sink := &sliceSink{}

	n, err := Process(context.Background(), src, sink, identity, WithWorkers(2))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d frames, want 2", n)
	}
}

func TestProcess_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &sliceSink{}
	n, err := Process(ctx, newSliceSource(5), sink, identity)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 0 || len(sink.frames) != 0 {
		t.Errorf("cancelled run wrote %d frames", n)
	}
}

func TestWithWorkers_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	p := &processor{workers: 1}
	WithWorkers(0)(p)
	WithWorkers(-3)(p)
	if p.workers != 1 {
		t.Errorf("workers = %d, want 1", p.workers)
	}
	WithWorkers(6)(p)
	if p.workers != 6 {
		t.Errorf("workers = %d, want 6", p.workers)
	}
}
