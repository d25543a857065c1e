package pipeline

import (
	"fmt"
	"math"

	"github.com/ironsheep/lane-detector/internal/detection"
	"github.com/ironsheep/lane-detector/internal/imaging"
)

// Params holds every tunable of the lane detection stages.
type Params struct {
	// KernelSize is the Gaussian blur kernel size. Must be odd and positive.
	KernelSize int

	// CannySigma is the spread around the median used to pick Canny thresholds.
	CannySigma float64

	// GrayscaleEdges blurs and edge-detects the grayscale frame instead of
	// the color frame.
	GrayscaleEdges bool

	// Region is the region of interest in pixel coordinates. When nil the
	// triangle from imaging.DefaultRegion is used for each frame size.
	Region imaging.Polygon

	// Hough configures segment extraction.
	Hough detection.HoughParams

	// Draw configures lane extrapolation and stroking.
	Draw detection.DrawOptions

	// Alpha, Beta and Gamma weight the final blend:
	// out = frame*Alpha + overlay*Beta + Gamma.
	Alpha float64
	Beta  float64
	Gamma float64
}

// DefaultParams returns the parameters of the classic dashcam lane pipeline.
func DefaultParams() Params {
	return Params{
		KernelSize: imaging.DefaultKernelSize,
		CannySigma: imaging.DefaultCannySigma,
		Hough:      detection.DefaultHoughParams(),
		Draw:       detection.DefaultDrawOptions(),
		Alpha:      imaging.DefaultAlpha,
		Beta:       imaging.DefaultBeta,
		Gamma:      imaging.DefaultGamma,
	}
}

// Validate reports the first invalid parameter.
func (p Params) Validate() error {
	if p.KernelSize <= 0 || p.KernelSize%2 == 0 {
		return fmt.Errorf("%w: got %d", imaging.ErrInvalidKernelSize, p.KernelSize)
	}
	if p.CannySigma < 0 || math.IsNaN(p.CannySigma) || math.IsInf(p.CannySigma, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSigma, p.CannySigma)
	}
	if p.Region != nil && len(p.Region) < 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidRegion, len(p.Region))
	}
	if err := p.Hough.Validate(); err != nil {
		return err
	}
	if p.Draw.Thickness <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThickness, p.Draw.Thickness)
	}
	return nil
}
