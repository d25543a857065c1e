package pipeline

import (
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Pipeline runs the lane detection stages on frames.
type Pipeline struct {
	params Params
	stages []Stage
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-frame debug output.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New validates params and builds a Pipeline.
func New(params Params, opts ...Option) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline parameters: %w", err)
	}
	if params.Region != nil {
		params.Region = append(params.Region[:0:0], params.Region...)
	}

	p := &Pipeline{
		params: params,
		stages: buildStages(params),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Params returns the parameters the pipeline was built with.
func (p *Pipeline) Params() Params {
	return p.params
}

// StageNames returns the names of all stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Detect runs every stage on img and returns all intermediate results.
// img is never modified.
func (p *Pipeline) Detect(img image.Image) (*Result, error) {
	return p.run(img, len(p.stages))
}

// Process runs every stage on img and returns only the composited frame.
func (p *Pipeline) Process(img image.Image) (image.Image, error) {
	r, err := p.Detect(img)
	if err != nil {
		return nil, err
	}
	return r.Image, nil
}

// Edges runs the stages up to and including the region mask.
// Only Blurred, Thresholds, Edges and Masked are set on the result.
func (p *Pipeline) Edges(img image.Image) (*Result, error) {
	return p.run(img, p.indexOf("mask")+1)
}

// Segments runs the stages up to and including the Hough transform.
// Overlay, Lanes and Image are left unset on the result.
func (p *Pipeline) Segments(img image.Image) (*Result, error) {
	return p.run(img, p.indexOf("hough")+1)
}

func (p *Pipeline) indexOf(name string) int {
	for i, s := range p.stages {
		if s.Name() == name {
			return i
		}
	}
	return len(p.stages) - 1
}

// run executes the first n stages on img.
func (p *Pipeline) run(img image.Image, n int) (*Result, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyFrame, bounds.Dx(), bounds.Dy())
	}

	start := time.Now()
	r := &Result{Source: img}
	for _, stage := range p.stages[:n] {
		if err := stage.Run(r); err != nil {
			return nil, fmt.Errorf("failed to run %s stage: %w", stage.Name(), err)
		}
	}

	p.logger.Debug("frame processed",
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"stages", n,
		"low", r.Thresholds.Low,
		"high", r.Thresholds.High,
		"segments", len(r.Segments),
		"lanes", len(r.Lanes),
		"elapsed", time.Since(start),
	)
	return r, nil
}
