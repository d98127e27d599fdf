package driftgrid

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-pan", "after-pan"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"café@1", "caf__1"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := fileLabel(tt.in); got != tt.want {
			t.Errorf("fileLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueue(t *testing.T) {
	g := newTestGame(t)
	g.Screenshot("a")
	g.Screenshot("b")
	if len(g.screenshotQueue) != 2 || g.screenshotQueue[0] != "a" || g.screenshotQueue[1] != "b" {
		t.Errorf("queue = %v, want [a b]", g.screenshotQueue)
	}
}

func TestScreenshotDirDefault(t *testing.T) {
	g, err := NewGame(DefaultConfig(), nil, GameOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	if g.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", g.ScreenshotDir)
	}
}

func TestUnpremultiply(t *testing.T) {
	// Half-transparent red, premultiplied.
	img := unpremultiply([]byte{128, 0, 0, 128, 0, 0, 0, 0}, 2, 1)
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 128}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{}) {
		t.Errorf("pixel 1 = %v", got)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shot.png")
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	if err := writePNG(path, src); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
}
