package video

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ffmpegBackend pipes raw RGBA frames through ffmpeg and ffprobe processes.
var ffmpegBackend = Backend{
	Name:   "ffmpeg",
	Open:   openFFmpeg,
	Create: createFFmpeg,
}

// Executable names looked up in PATH.
var (
	ffmpegBin  = "ffmpeg"
	ffprobeBin = "ffprobe"
)

// FFmpegAvailable reports whether both ffmpeg and ffprobe are in PATH.
func FFmpegAvailable() bool {
	_, err1 := exec.LookPath(ffmpegBin)
	_, err2 := exec.LookPath(ffprobeBin)
	return err1 == nil && err2 == nil
}

func lookPath(name string) (string, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, name, err)
	}
	return bin, nil
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// probe returns the frame size and rate of the first video stream in path.
func probe(path string) (image.Point, float64, error) {
	bin, err := lookPath(ffprobeBin)
	if err != nil {
		return image.Point{}, 0, err
	}

	out, err := exec.Command(bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return image.Point{}, 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return image.Point{}, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return image.Point{}, 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 || po.Streams[0].Width <= 0 || po.Streams[0].Height <= 0 {
		return image.Point{}, 0, fmt.Errorf("no video stream in %s", path)
	}

	st := po.Streams[0]
	fps := parseRate(st.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(st.RFrameRate)
	}
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return image.Pt(st.Width, st.Height), fps, nil
}

// parseRate parses an ffprobe rate such as "30000/1001" or "25".
// Unparseable or undefined rates yield 0.
func parseRate(s string) float64 {
	num, den, hasDen := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !hasDen {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

type ffmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	size   image.Point
	fps    float64
	waited bool
	err    error
}

func openFFmpeg(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	size, fps, err := probe(path)
	if err != nil {
		return nil, err
	}
	bin, err := lookPath(ffmpegBin)
	if err != nil {
		return nil, err
	}

	s := &ffmpegSource{size: size, fps: fps}
	s.cmd = exec.Command(bin,
		"-v", "error",
		"-i", path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	s.cmd.Stderr = &s.stderr
	if s.stdout, err = s.cmd.StdoutPipe(); err != nil {
		return nil, err
	}
	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return s, nil
}

func (s *ffmpegSource) Next() (image.Image, error) {
	if s.waited {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	frame := image.NewRGBA(image.Rectangle{Max: s.size})
	_, err := io.ReadFull(s.stdout, frame.Pix)
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.EOF):
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	default:
		s.wait()
		s.err = fmt.Errorf("failed to read frame: %w", err)
		return nil, s.err
	}
}

func (s *ffmpegSource) wait() error {
	s.waited = true
	if err := s.cmd.Wait(); err != nil {
		s.err = fmt.Errorf("ffmpeg decode failed: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return s.err
}

func (s *ffmpegSource) FrameRate() float64 { return s.fps }

func (s *ffmpegSource) Size() image.Point { return s.size }

func (s *ffmpegSource) Close() error {
	if s.waited {
		return nil
	}
	s.waited = true
	s.stdout.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return nil
}

// codecFor picks an encoder the output container accepts.
func codecFor(path string) []string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return []string{"-c:v", "libvpx-vp9"}
	case ".mpg", ".mpeg":
		return []string{"-c:v", "mpeg2video", "-q:v", "2"}
	default:
		return []string{"-c:v", "libx264", "-preset", "medium", "-crf", "20"}
	}
}

type ffmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	size   image.Point
	frames int
	closed bool
}

func createFFmpeg(path string, fps float64, size image.Point) (Sink, error) {
	bin, err := lookPath(ffmpegBin)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", size.X, size.Y),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-an",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
	}
	args = append(args, codecFor(path)...)
	args = append(args, "-pix_fmt", "yuv420p", path)

	s := &ffmpegSink{size: size}
	s.cmd = exec.Command(bin, args...)
	s.cmd.Stderr = &s.stderr
	if s.stdin, err = s.cmd.StdinPipe(); err != nil {
		return nil, err
	}
	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return s, nil
}

func (s *ffmpegSink) Write(img image.Image) error {
	if s.closed {
		return os.ErrClosed
	}
	rgba := fitFrame(img, s.size)
	if _, err := s.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("failed to write frame %d: %w: %s", s.frames, err, strings.TrimSpace(s.stderr.String()))
	}
	s.frames++
	return nil
}

func (s *ffmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		if s.frames == 0 {
			return fmt.Errorf("failed to encode video: %w", ErrNoFrames)
		}
		return fmt.Errorf("ffmpeg encode failed: %w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	if s.frames == 0 {
		return fmt.Errorf("failed to encode video: %w", ErrNoFrames)
	}
	return nil
}
