package config

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/ironsheep/lane-detector/internal/detection"
	"github.com/ironsheep/lane-detector/internal/imaging"
	"github.com/ironsheep/lane-detector/internal/pipeline"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "lane-detector"

	// DefaultWorkers processes video frames one at a time.
	DefaultWorkers = 1

	// DefaultLogLevel is the slog level name used when nothing is configured.
	DefaultLogLevel = "info"
)

// Config is the on-disk configuration.
type Config struct {
	Blur     BlurConfig  `yaml:"blur"`
	Edges    EdgeConfig  `yaml:"edges"`
	Region   [][]int     `yaml:"region"`
	Hough    HoughConfig `yaml:"hough"`
	Lanes    LaneConfig  `yaml:"lanes"`
	Blend    BlendConfig `yaml:"blend"`
	Video    VideoConfig `yaml:"video"`
	LogLevel string      `yaml:"log_level"`
}

// BlurConfig configures Gaussian smoothing.
type BlurConfig struct {
	KernelSize int `yaml:"kernel_size"`
}

// EdgeConfig configures Canny edge detection.
type EdgeConfig struct {
	Sigma     float64 `yaml:"sigma"`
	Grayscale bool    `yaml:"grayscale"`
}

// HoughConfig configures segment extraction. Theta is given in degrees.
type HoughConfig struct {
	Rho           float64 `yaml:"rho"`
	ThetaDegrees  float64 `yaml:"theta_degrees"`
	Threshold     int     `yaml:"threshold"`
	MinLineLength int     `yaml:"min_line_length"`
	MaxLineGap    int     `yaml:"max_line_gap"`
	MaxLines      int     `yaml:"max_lines"`
	Seed          uint64  `yaml:"seed"`
}

// LaneConfig configures lane drawing.
type LaneConfig struct {
	Color     string           `yaml:"color"`
	Thickness int              `yaml:"thickness"`
	Extent    detection.Extent `yaml:"extent"`
}

// BlendConfig holds the compositing weights.
type BlendConfig struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`
}

// VideoConfig configures video processing.
type VideoConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns a Config that reproduces pipeline.DefaultParams.
func Default() *Config {
	p := pipeline.DefaultParams()
	return &Config{
		Blur:  BlurConfig{KernelSize: p.KernelSize},
		Edges: EdgeConfig{Sigma: p.CannySigma, Grayscale: p.GrayscaleEdges},
		Hough: HoughConfig{
			Rho:           p.Hough.Rho,
			ThetaDegrees:  3,
			Threshold:     p.Hough.Threshold,
			MinLineLength: p.Hough.MinLineLength,
			MaxLineGap:    p.Hough.MaxLineGap,
			MaxLines:      p.Hough.MaxLines,
			Seed:          p.Hough.Seed,
		},
		Lanes: LaneConfig{
			Color:     imaging.HexColor(p.Draw.Color),
			Thickness: p.Draw.Thickness,
			Extent:    p.Draw.Extent,
		},
		Blend:    BlendConfig{Alpha: p.Alpha, Beta: p.Beta, Gamma: p.Gamma},
		Video:    VideoConfig{Workers: DefaultWorkers},
		LogLevel: DefaultLogLevel,
	}
}

// XDGConfigDir returns the XDG config directory for lane-detector.
// On Linux: ~/.config/lane-detector
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Stage parameter problems are reported as ErrInvalidPipeline wrapping the
// stage sentinel, e.g. imaging.ErrInvalidKernelSize.
func (c *Config) Validate() error {
	if c.Hough.ThetaDegrees <= 0 || c.Hough.ThetaDegrees > 180 || math.IsNaN(c.Hough.ThetaDegrees) {
		return fmt.Errorf("%w: got %v", ErrInvalidTheta, c.Hough.ThetaDegrees)
	}
	if _, err := imaging.ParseColor(c.Lanes.Color); err != nil {
		return err
	}
	if err := validateExtent(c.Lanes.Extent); err != nil {
		return err
	}
	if c.Video.Workers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Video.Workers)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	params, err := c.PipelineParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
	}
	return nil
}

func validateExtent(e detection.Extent) error {
	for _, v := range []float64{e.LeftFrom, e.LeftTo, e.RightFrom, e.RightTo} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: got %v", ErrInvalidExtent, v)
		}
	}
	if e.LeftFrom == e.LeftTo {
		return fmt.Errorf("%w: left_from = left_to = %v", ErrInvalidExtent, e.LeftFrom)
	}
	if e.RightFrom == e.RightTo {
		return fmt.Errorf("%w: right_from = right_to = %v", ErrInvalidExtent, e.RightFrom)
	}
	return nil
}

// SlogLevel parses LogLevel. An empty level means info.
func (c *Config) SlogLevel() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}

// PipelineParams converts the configuration into pipeline parameters.
func (c *Config) PipelineParams() (pipeline.Params, error) {
	col, err := imaging.ParseColor(c.Lanes.Color)
	if err != nil {
		return pipeline.Params{}, err
	}

	var region imaging.Polygon
	if len(c.Region) > 0 {
		region = make(imaging.Polygon, len(c.Region))
		for i, pt := range c.Region {
			if len(pt) != 2 {
				return pipeline.Params{}, fmt.Errorf("%w: vertex %d has %d values", ErrInvalidRegionPoint, i, len(pt))
			}
			region[i] = image.Pt(pt[0], pt[1])
		}
	}

	return pipeline.Params{
		KernelSize:     c.Blur.KernelSize,
		CannySigma:     c.Edges.Sigma,
		GrayscaleEdges: c.Edges.Grayscale,
		Region:         region,
		Hough: detection.HoughParams{
			Rho:           c.Hough.Rho,
			Theta:         c.Hough.ThetaDegrees * math.Pi / 180,
			Threshold:     c.Hough.Threshold,
			MinLineLength: c.Hough.MinLineLength,
			MaxLineGap:    c.Hough.MaxLineGap,
			MaxLines:      c.Hough.MaxLines,
			Seed:          c.Hough.Seed,
		},
		Draw: detection.DrawOptions{
			Extent:    c.Lanes.Extent,
			Color:     col,
			Thickness: c.Lanes.Thickness,
		},
		Alpha: c.Blend.Alpha,
		Beta:  c.Blend.Beta,
		Gamma: c.Blend.Gamma,
	}, nil
}
