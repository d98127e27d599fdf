package driftgrid

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	fpsWidgetWidth  = 100
	fpsWidgetHeight = 32
	fpsRefresh      = 0.5 // seconds
)

// fpsCounter renders the current FPS and TPS into a small cached image,
// refreshed about twice a second.
type fpsCounter struct {
	img     *ebiten.Image
	elapsed float64
	stale   bool
}

func newFPSCounter() *fpsCounter {
	return &fpsCounter{stale: true}
}

func (f *fpsCounter) update(dt float64) {
	f.elapsed += dt
	if f.elapsed >= fpsRefresh {
		f.elapsed = 0
		f.stale = true
	}
}

func (f *fpsCounter) draw(screen *ebiten.Image) {
	if f.img == nil {
		f.img = ebiten.NewImage(fpsWidgetWidth, fpsWidgetHeight)
	}
	if f.stale {
		f.stale = false
		f.img.Clear()
		// Semi-transparent background for readability
		f.img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(f.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	screen.DrawImage(f.img, nil)
}
