package video

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := parseRate(tt.in); got != tt.want {
			t.Errorf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFFmpeg_MissingBinary(t *testing.T) {
	saved := ffmpegBin
	ffmpegBin = "lane-detector-no-such-ffmpeg"
	defer func() { ffmpegBin = saved }()

	_, err := createFFmpeg(filepath.Join(t.TempDir(), "out.mp4"), 25, image.Pt(4, 4))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestFFmpeg_RoundTrip(t *testing.T) {
	if !FFmpegAvailable() {
		t.Skip("ffmpeg not installed")
	}

	path := filepath.Join(t.TempDir(), "out.mp4")
	dst, err := createFFmpeg(path, 10, image.Pt(32, 24))
	if err != nil {
		t.Fatalf("createFFmpeg failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := dst.Write(createUniformFrame(32, 24, color.RGBA{128, 128, 128, 255})); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := dst.Close(); err != nil {
		t.Skipf("ffmpeg could not encode (encoder missing?): %v", err)
	}

	src, err := openFFmpeg(path)
	if err != nil {
		t.Fatalf("openFFmpeg failed: %v", err)
	}
	defer src.Close()

	if src.Size() != image.Pt(32, 24) {
		t.Errorf("Size = %v, want (32,24)", src.Size())
	}
	if fps := src.FrameRate(); fps < 9.9 || fps > 10.1 {
		t.Errorf("FrameRate = %v, want 10", fps)
	}
	if frames := readAll(t, src); len(frames) != 5 {
		t.Errorf("decoded %d frames, want 5", len(frames))
	}
}
