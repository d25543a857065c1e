package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runRoot executes the root command with args and stdin, returning stdout
// and stderr.
func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a minimal configuration file so tests never pick up
// a user configuration.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func blackFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// roadFrame draws one stroke per lane side inside the default region.
func roadFrame() *image.RGBA {
	img := blackFrame(640, 480)
	white := color.RGBA{255, 255, 255, 255}
	for x := 190; x <= 300; x++ {
		for d := -1; d <= 1; d++ {
			img.SetRGBA(x, x+170+d, white)
		}
	}
	for x := 340; x <= 450; x++ {
		for d := -1; d <= 1; d++ {
			img.SetRGBA(x, 810-x+d, white)
		}
	}
	return img
}
