package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/lane-detector/internal/imaging"
	"github.com/ironsheep/lane-detector/internal/pipeline"
	"github.com/ironsheep/lane-detector/internal/video"
)

// Interactive prompts used when flags are missing.
const (
	promptVideo  = "Video? Enter N for image"
	promptInput  = "What is the file name of the input?"
	promptOutput = "What is the file name of the output?"
)

// errNoAnswer is returned when stdin ends before a prompt is answered.
var errNoAnswer = errors.New("no answer provided")

// detectOptions holds the detect command flags.
type detectOptions struct {
	video   bool
	input   string
	output  string
	workers int
}

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	opts := &detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect lanes in an image or a video",
		Long: `Detect the left and right lanes in an image or video and write the
annotated result to the output file.

Missing options are asked for interactively:
  Video? Enter N for image
  What is the file name of the input?
  What is the file name of the output?

Images are read and written in any format supported by the extension
(jpg, png, gif, bmp, tiff). Videos use GIF natively and ffmpeg for other
containers; the output video has no audio.`,
		Example: `  lane-detector detect -i road.jpg -o road_lanes.jpg
  lane-detector detect --video -i drive.mp4 -o drive_lanes.mp4 -w 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetect(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.video, "video", "v", false, "Treat the input as a video")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input file name")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file name")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Video frames processed concurrently (default from config)")

	return cmd
}

func runDetect(cmd *cobra.Command, opts *detectOptions) error {
	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Video.Workers = opts.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("configuration loaded", "path", cfgPath)
	}

	if err := promptMissing(cmd.InOrStdin(), cmd.OutOrStdout(), opts, !cmd.Flags().Changed("video")); err != nil {
		return err
	}

	if err := checkMode(opts); err != nil {
		return err
	}

	params, err := cfg.PipelineParams()
	if err != nil {
		return err
	}
	p, err := pipeline.New(params, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.video {
		fmt.Fprintf(out, "Detecting lanes in video %s and writing to %s\n", opts.input, opts.output)
		return detectVideo(cmd.Context(), p, opts.input, opts.output, cfg.Video.Workers, logger)
	}
	fmt.Fprintf(out, "Detecting lanes in image %s and writing to %s\n", opts.input, opts.output)
	return detectImage(p, opts.input, opts.output, logger)
}

// promptMissing asks for every option that was not given on the command
// line. When anything is missing and --video was not given, the mode is
// asked for first.
func promptMissing(in io.Reader, out io.Writer, opts *detectOptions, askVideo bool) error {
	if opts.input != "" && opts.output != "" {
		return nil
	}
	r := bufio.NewReader(in)

	if askVideo {
		for {
			answer, err := ask(r, out, promptVideo+" [y/N]")
			if err != nil {
				return err
			}
			v, ok := parseYesNo(answer, false)
			if ok {
				opts.video = v
				break
			}
			fmt.Fprintln(out, "Error: invalid input")
		}
	}

	for _, q := range []struct {
		prompt string
		dst    *string
	}{
		{promptInput, &opts.input},
		{promptOutput, &opts.output},
	} {
		for *q.dst == "" {
			answer, err := ask(r, out, q.prompt)
			if err != nil {
				return err
			}
			*q.dst = answer
		}
	}
	return nil
}

// checkMode rejects file names that do not fit the selected mode.
func checkMode(opts *detectOptions) error {
	if opts.video {
		for _, path := range []string{opts.input, opts.output} {
			if !video.IsVideoPath(path) {
				return fmt.Errorf("%w: %s", video.ErrUnsupportedFormat, path)
			}
		}
		return nil
	}
	if !imaging.IsImagePath(opts.input) && video.IsVideoPath(opts.input) {
		return fmt.Errorf("input %s is a video, run with --video", opts.input)
	}
	return nil
}

// ask prints prompt and reads one trimmed line.
func ask(r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprintf(out, "%s: ", prompt)
	line, err := r.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
		// last line without a newline
	case errors.Is(err, io.EOF):
		return "", fmt.Errorf("%w: %s", errNoAnswer, prompt)
	default:
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// parseYesNo interprets a yes/no answer. An empty answer yields def.
func parseYesNo(s string, def bool) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, true
	case "y", "yes", "t", "true", "1":
		return true, true
	case "n", "no", "f", "false", "0":
		return false, true
	}
	return false, false
}

func detectImage(p *pipeline.Pipeline, in, out string, logger *slog.Logger) error {
	if !imaging.IsImagePath(out) {
		return fmt.Errorf("unsupported output image format: %s", out)
	}

	img, err := imaging.Open(in)
	if err != nil {
		return err
	}
	r, err := p.Detect(img)
	if err != nil {
		return err
	}
	if err := imaging.Save(r.Image, out); err != nil {
		return err
	}

	for _, lane := range r.Lanes {
		logger.Info("lane detected",
			"side", lane.Side,
			"slope", lane.Model.M,
			"intercept", lane.Model.B,
			"segments", lane.Segments,
		)
	}
	logger.Info("image written", "path", out, "lanes", len(r.Lanes))
	return nil
}

func detectVideo(ctx context.Context, p *pipeline.Pipeline, in, out string, workers int, logger *slog.Logger) error {
	sum, err := video.ConvertFile(ctx, in, out, p.Process,
		video.WithWorkers(workers),
		video.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	logger.Info("video written", "path", out, "frames", sum.Frames, "fps", sum.FrameRate)
	return nil
}
