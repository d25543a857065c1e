package video

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultFrameRate is used when a source does not report a usable rate.
const DefaultFrameRate = 25.0

// Source yields decoded frames in order.
type Source interface {
	// Next returns the next frame, or io.EOF after the last one.
	// The returned image is owned by the caller.
	Next() (image.Image, error)

	// FrameRate returns the nominal frames per second.
	FrameRate() float64

	// Size returns the frame width and height.
	Size() image.Point

	// Close releases the underlying file or process.
	Close() error
}

// Sink accepts frames in order and encodes them.
type Sink interface {
	// Write appends a frame. Frames of a different size are scaled to the
	// sink size.
	Write(img image.Image) error

	// Close flushes and finalizes the output file.
	Close() error
}

// Backend opens sources and creates sinks for a family of file formats.
type Backend struct {
	Name   string
	Open   func(path string) (Source, error)
	Create func(path string, fps float64, size image.Point) (Sink, error)
}

// gifBackend handles animated GIF files.
var gifBackend = Backend{
	Name:   "gif",
	Open:   openGIF,
	Create: createGIF,
}

// containerBackend handles every other video container. A build tag may
// replace it at init time.
var containerBackend = ffmpegBackend

// containerExtensions lists the extensions routed to containerBackend.
var containerExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".mpg":  true,
	".mpeg": true,
}

// BackendFor returns the backend that handles path.
func BackendFor(path string) (Backend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".gif":
		return gifBackend, nil
	case containerExtensions[ext]:
		return containerBackend, nil
	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsVideoPath reports whether some backend handles path.
func IsVideoPath(path string) bool {
	_, err := BackendFor(path)
	return err == nil
}

// Open opens the video at path for reading.
func Open(path string) (Source, error) {
	b, err := BackendFor(path)
	if err != nil {
		return nil, err
	}
	src, err := b.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	return src, nil
}

// Create creates a video at path with the given frame rate and frame size.
func Create(path string, fps float64, size image.Point) (Sink, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}

	b, err := BackendFor(path)
	if err != nil {
		return nil, err
	}
	dst, err := b.Create(path, fps, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return dst, nil
}

// fitFrame returns img as a tightly packed *image.RGBA of exactly size with
// origin (0, 0). Frames of another size are resized with a Lanczos filter.
func fitFrame(img image.Image, size image.Point) *image.RGBA {
	b := img.Bounds()
	if b.Dx() != size.X || b.Dy() != size.Y {
		img = imaging.Resize(img, size.X, size.Y, imaging.Lanczos)
		b = img.Bounds()
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*size.X {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
