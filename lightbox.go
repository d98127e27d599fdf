package driftgrid

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	// lightboxFill is the fraction of the viewport the enlarged image may
	// occupy on each axis.
	lightboxFill = 0.8

	lightboxOpenSeconds = 0.2

	// closeButtonSize is the side of the close control's hit box, in pixels.
	closeButtonSize = 40
)

// Lightbox shows one image enlarged over the grid. Only the open flag and
// the displayed image persist between open/close cycles.
type Lightbox struct {
	ratio float64

	open  bool
	image ImageRef

	tween    *gween.Tween
	progress float64
}

// NewLightbox creates a closed lightbox that displays images at the given
// width/height ratio.
func NewLightbox(ratio float64) *Lightbox {
	if !(ratio > 0) {
		ratio = 1
	}
	return &Lightbox{ratio: ratio}
}

// Open shows ref and restarts the open animation.
func (l *Lightbox) Open(ref ImageRef) {
	l.open = true
	l.image = ref
	l.progress = 0
	l.tween = gween.New(0, 1, lightboxOpenSeconds, ease.OutQuad)
}

// Close hides the lightbox.
func (l *Lightbox) Close() {
	l.open = false
	l.tween = nil
	l.progress = 0
}

// IsOpen reports whether the lightbox is showing.
func (l *Lightbox) IsOpen() bool {
	return l.open
}

// Image returns the displayed image reference.
func (l *Lightbox) Image() ImageRef {
	return l.image
}

// Progress returns the open animation progress in [0, 1].
func (l *Lightbox) Progress() float64 {
	if !l.open {
		return 0
	}
	return l.progress
}

// update advances the open animation by dt seconds.
func (l *Lightbox) update(dt float32) {
	if l.tween == nil {
		return
	}
	v, done := l.tween.Update(dt)
	l.progress = float64(v)
	if done {
		l.progress = 1
		l.tween = nil
	}
}

// FitSize returns the displayed image size for a viewW x viewH viewport:
// the largest box with the lightbox ratio that fits in 80% of each axis.
func (l *Lightbox) FitSize(viewW, viewH float64) (w, h float64) {
	return fitRatio(viewW*lightboxFill, viewH*lightboxFill, l.ratio)
}

// fitRatio fits a box with the given width/height ratio inside maxW x maxH.
func fitRatio(maxW, maxH, ratio float64) (w, h float64) {
	if maxW <= 0 || maxH <= 0 || !(ratio > 0) {
		return 0, 0
	}
	if maxW/ratio <= maxH {
		return maxW, maxW / ratio
	}
	return maxH * ratio, maxH
}

// ImageRect returns the screen rectangle of the displayed image, centered
// in the viewport.
func (l *Lightbox) ImageRect(viewW, viewH float64) Rect {
	w, h := l.FitSize(viewW, viewH)
	return Rect{X: (viewW - w) / 2, Y: (viewH - h) / 2, Width: w, Height: h}
}

// CloseButtonRect returns the screen rectangle of the close control in the
// top-right corner of the viewport.
func (l *Lightbox) CloseButtonRect(viewW, viewH float64) Rect {
	return Rect{X: viewW - closeButtonSize - 10, Y: 10, Width: closeButtonSize, Height: closeButtonSize}
}

// HandleClick closes the lightbox when (x, y) hits the close control or
// falls outside the image. Returns true if the click was consumed, which
// is always the case while open.
func (l *Lightbox) HandleClick(x, y, viewW, viewH float64) bool {
	if !l.open {
		return false
	}
	if l.CloseButtonRect(viewW, viewH).Contains(x, y) ||
		!l.ImageRect(viewW, viewH).Contains(x, y) {
		l.Close()
	}
	return true
}
