package pipeline

import (
	"image"

	"github.com/ironsheep/lane-detector/internal/detection"
	"github.com/ironsheep/lane-detector/internal/imaging"
)

// Stage is one step of the per-frame pipeline.
// It reads the fields earlier stages filled in and sets its own.
type Stage interface {
	// Run executes the stage on r.
	Run(r *Result) error

	// Name returns the stage name for logging.
	Name() string
}

// Result carries a frame through the stages and holds every intermediate
// image, so callers can inspect edges or segments as well as the output.
type Result struct {
	// Source is the input frame.
	Source image.Image

	// Blurred is the smoothed frame the edge detector ran on.
	Blurred *image.RGBA

	// Thresholds are the Canny thresholds derived from Blurred.
	Thresholds imaging.Thresholds

	// Edges is the full-frame binary edge map.
	Edges *image.Gray

	// Masked is Edges restricted to the region of interest.
	Masked *image.Gray

	// Segments are the raw Hough segments found in Masked.
	Segments []detection.Segment

	// Lanes are the averaged lanes drawn on Overlay.
	Lanes []detection.Lane

	// Overlay is the black canvas with the lanes stroked on it.
	Overlay *image.RGBA

	// Image is the final composited frame.
	Image *image.RGBA
}

type blurStage struct {
	kernelSize int
	grayscale  bool
}

func (s blurStage) Name() string { return "blur" }

func (s blurStage) Run(r *Result) error {
	src := r.Source
	if s.grayscale {
		src = imaging.Grayscale(src)
	}
	blurred, err := imaging.GaussianBlur(src, s.kernelSize)
	if err != nil {
		return err
	}
	r.Blurred = blurred
	return nil
}

type edgeStage struct {
	sigma float64
}

func (s edgeStage) Name() string { return "edges" }

func (s edgeStage) Run(r *Result) error {
	r.Edges, r.Thresholds = imaging.AutoCanny(r.Blurred, s.sigma)
	return nil
}

type maskStage struct {
	region imaging.Polygon
}

func (s maskStage) Name() string { return "mask" }

func (s maskStage) Run(r *Result) error {
	region := s.region
	if region == nil {
		region = imaging.DefaultRegion(r.Edges.Bounds())
	}
	r.Masked = imaging.MaskGray(r.Edges, region)
	return nil
}

type houghStage struct {
	params detection.HoughParams
}

func (s houghStage) Name() string { return "hough" }

func (s houghStage) Run(r *Result) error {
	segments, err := detection.HoughLinesP(r.Masked, s.params)
	if err != nil {
		return err
	}
	r.Segments = segments
	return nil
}

type laneStage struct {
	opts detection.DrawOptions
}

func (s laneStage) Name() string { return "lanes" }

func (s laneStage) Run(r *Result) error {
	bounds := r.Source.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	r.Overlay, r.Lanes = detection.DrawLanes(canvas, r.Segments, s.opts)
	return nil
}

type blendStage struct {
	alpha, beta, gamma float64
}

func (s blendStage) Name() string { return "blend" }

func (s blendStage) Run(r *Result) error {
	out, err := imaging.Weighted(r.Source, s.alpha, r.Overlay, s.beta, s.gamma)
	if err != nil {
		return err
	}
	r.Image = out
	return nil
}

// buildStages returns the stage sequence for params
func buildStages(p Params) []Stage {
	return []Stage{
		blurStage{kernelSize: p.KernelSize, grayscale: p.GrayscaleEdges},
		edgeStage{sigma: p.CannySigma},
		maskStage{region: p.Region},
		houghStage{params: p.Hough},
		laneStage{opts: p.Draw},
		blendStage{alpha: p.Alpha, beta: p.Beta, gamma: p.Gamma},
	}
}
