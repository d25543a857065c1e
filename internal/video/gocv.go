//go:build gocv

package video

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

func init() {
	containerBackend = gocvBackend
}

// gocvBackend decodes and encodes containers with OpenCV.
var gocvBackend = Backend{
	Name:   "gocv",
	Open:   openGoCV,
	Create: createGoCV,
}

type gocvSource struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	size image.Point
	fps  float64
}

func openGoCV(path string) (Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("opencv could not open %s", path)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &gocvSource{
		vc:   vc,
		mat:  gocv.NewMat(),
		size: image.Pt(int(vc.Get(gocv.VideoCaptureFrameWidth)), int(vc.Get(gocv.VideoCaptureFrameHeight))),
		fps:  fps,
	}, nil
}

func (s *gocvSource) Next() (image.Image, error) {
	if !s.vc.Read(&s.mat) || s.mat.Empty() {
		return nil, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (s *gocvSource) FrameRate() float64 { return s.fps }

func (s *gocvSource) Size() image.Point { return s.size }

func (s *gocvSource) Close() error {
	s.mat.Close()
	return s.vc.Close()
}

// fourcc picks a codec the output container accepts.
func fourcc(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".avi":
		return "MJPG"
	case ".webm":
		return "VP90"
	default:
		return "mp4v"
	}
}

type gocvSink struct {
	vw     *gocv.VideoWriter
	size   image.Point
	frames int
	closed bool
}

func createGoCV(path string, fps float64, size image.Point) (Sink, error) {
	vw, err := gocv.VideoWriterFile(path, fourcc(path), fps, size.X, size.Y, true)
	if err != nil {
		return nil, err
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("opencv could not create %s", path)
	}
	return &gocvSink{vw: vw, size: size}, nil
}

func (s *gocvSink) Write(img image.Image) error {
	rgba := fitFrame(img, s.size)
	mat, err := gocv.NewMatFromBytes(s.size.Y, s.size.X, gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)

	if err := s.vw.Write(bgr); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

func (s *gocvSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.vw.Close(); err != nil {
		return err
	}
	if s.frames == 0 {
		return fmt.Errorf("failed to encode video: %w", ErrNoFrames)
	}
	return nil
}
