package driftgrid

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const screenshotStamp = "20060102_150405"

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to ScreenshotDir as <timestamp>_<label>.png.
func (g *Game) Screenshot(label string) {
	g.screenshotQueue = append(g.screenshotQueue, label)
}

// flushScreenshots writes the frame just drawn once per queued label.
func (g *Game) flushScreenshots(screen *ebiten.Image) {
	labels := g.screenshotQueue
	if len(labels) == 0 {
		return
	}
	g.screenshotQueue = labels[:0]

	img := captureFrame(screen)
	stamp := time.Now().Format(screenshotStamp)
	for _, label := range labels {
		path := filepath.Join(g.ScreenshotDir, stamp+"_"+fileLabel(label)+".png")
		if err := writePNG(path, img); err != nil {
			log.Printf("driftgrid: screenshot %q: %v", label, err)
		}
	}
}

// captureFrame copies screen into a straight-alpha image.
func captureFrame(screen *ebiten.Image) *image.NRGBA {
	b := screen.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	screen.ReadPixels(pixels)
	return unpremultiply(pixels, b.Dx(), b.Dy())
}

// unpremultiply converts premultiplied RGBA pixels to straight-alpha NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		a := pixels[i+3]
		for c := 0; c < 3; c++ {
			v := pixels[i+c]
			if a > 0 && a < 255 {
				v = uint8(min(int(v)*255/int(a), 255))
			}
			img.Pix[i+c] = v
		}
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes img to path, creating the directory if needed.
func writePNG(path string, img *image.NRGBA) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// fileLabel maps label to a file-name fragment. Runes other than ASCII
// letters, digits, '-' and '.' become '_'.
func fileLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r|0x20 && r|0x20 <= 'z', '0' <= r && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
