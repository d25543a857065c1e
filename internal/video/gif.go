package video

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"
)

type gifSource struct {
	g      *gif.GIF
	canvas *image.RGBA
	next   int
	fps    float64
}

func openGIF(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("failed to decode gif: %w", ErrNoFrames)
	}

	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		w, h = g.Image[0].Bounds().Max.X, g.Image[0].Bounds().Max.Y
	}

	return &gifSource{
		g:      g,
		canvas: image.NewRGBA(image.Rect(0, 0, w, h)),
		fps:    gifFrameRate(g.Delay),
	}, nil
}

// gifFrameRate converts per-frame delays in hundredths of a second into an
// average rate.
func gifFrameRate(delays []int) float64 {
	total := 0
	for _, d := range delays {
		total += d
	}
	if total <= 0 {
		return DefaultFrameRate
	}
	return 100 * float64(len(delays)) / float64(total)
}

func (s *gifSource) Next() (image.Image, error) {
	if s.next >= len(s.g.Image) {
		return nil, io.EOF
	}
	frame := s.g.Image[s.next]
	var disposal byte
	if s.next < len(s.g.Disposal) {
		disposal = s.g.Disposal[s.next]
	}
	s.next++

	var previous *image.RGBA
	if disposal == gif.DisposalPrevious {
		previous = cloneRGBA(s.canvas)
	}

	r := frame.Bounds()
	draw.Draw(s.canvas, r, frame, r.Min, draw.Over)
	out := cloneRGBA(s.canvas)

	switch disposal {
	case gif.DisposalBackground:
		draw.Draw(s.canvas, r, image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		s.canvas = previous
	}
	return out, nil
}

func (s *gifSource) FrameRate() float64 { return s.fps }

func (s *gifSource) Size() image.Point { return s.canvas.Rect.Size() }

func (s *gifSource) Close() error { return nil }

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

type gifSink struct {
	f      *os.File
	size   image.Point
	delay  int
	out    gif.GIF
	closed bool
}

func createGIF(path string, fps float64, size image.Point) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &gifSink{
		f:     f,
		size:  size,
		delay: max(1, int(math.Round(100/fps))),
	}, nil
}

// Write quantizes img to the Plan 9 palette with Floyd-Steinberg dithering.
func (s *gifSink) Write(img image.Image) error {
	if s.closed {
		return os.ErrClosed
	}
	rgba := fitFrame(img, s.size)
	p := image.NewPaletted(rgba.Rect, palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Rect, rgba, image.Point{})

	s.out.Image = append(s.out.Image, p)
	s.out.Delay = append(s.out.Delay, s.delay)
	return nil
}

func (s *gifSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.out.Image) == 0 {
		s.f.Close()
		return fmt.Errorf("failed to encode gif: %w", ErrNoFrames)
	}
	if err := gif.EncodeAll(s.f, &s.out); err != nil {
		s.f.Close()
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return s.f.Close()
}
