package driftgrid

import "testing"

func TestLightboxFitSize(t *testing.T) {
	tests := []struct {
		ratio        float64
		vw, vh       float64
		wantW, wantH float64
	}{
		{1, 1000, 800, 640, 640},
		{4.0 / 3, 1000, 800, 800, 600},
		{16.0 / 9, 800, 800, 640, 360},
		{0.5, 1000, 1000, 400, 800},
	}
	for _, tt := range tests {
		lb := NewLightbox(tt.ratio)
		w, h := lb.FitSize(tt.vw, tt.vh)
		if !approxEqual(w, tt.wantW, 1e-9) || !approxEqual(h, tt.wantH, 1e-9) {
			t.Errorf("ratio %v in %vx%v: FitSize = (%v, %v), want (%v, %v)",
				tt.ratio, tt.vw, tt.vh, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestLightboxDegenerateViewport(t *testing.T) {
	lb := NewLightbox(1)
	if w, h := lb.FitSize(0, 600); w != 0 || h != 0 {
		t.Errorf("FitSize(0, 600) = (%v, %v), want (0, 0)", w, h)
	}
}

func TestLightboxImageRectCentered(t *testing.T) {
	lb := NewLightbox(1)
	r := lb.ImageRect(1000, 800)
	if r.X != 180 || r.Y != 80 || r.Width != 640 || r.Height != 640 {
		t.Errorf("ImageRect = %+v", r)
	}
}

func TestLightboxOpenAnimation(t *testing.T) {
	lb := NewLightbox(1)
	if lb.IsOpen() || lb.Progress() != 0 {
		t.Fatal("new lightbox is open")
	}
	lb.Open("a.jpg")
	if !lb.IsOpen() || lb.Image() != "a.jpg" {
		t.Fatalf("after Open: open=%v image=%q", lb.IsOpen(), lb.Image())
	}
	lb.update(0.1)
	if p := lb.Progress(); p <= 0 || p >= 1 {
		t.Errorf("Progress mid-animation = %v, want in (0, 1)", p)
	}
	lb.update(0.2)
	if lb.Progress() != 1 {
		t.Errorf("Progress after animation = %v, want 1", lb.Progress())
	}
}

func TestLightboxClicks(t *testing.T) {
	lb := NewLightbox(1)
	if lb.HandleClick(500, 400, 1000, 800) {
		t.Error("closed lightbox consumed a click")
	}

	lb.Open("a.jpg")
	if !lb.HandleClick(500, 400, 1000, 800) || !lb.IsOpen() {
		t.Error("click on the image should be consumed and keep the lightbox open")
	}

	cb := lb.CloseButtonRect(1000, 800)
	if cb.X != 950 || cb.Y != 10 {
		t.Errorf("CloseButtonRect = %+v", cb)
	}
	if !lb.HandleClick(cb.X+5, cb.Y+5, 1000, 800) || lb.IsOpen() {
		t.Error("close button did not close")
	}

	lb.Open("b.jpg")
	if !lb.HandleClick(20, 400, 1000, 800) || lb.IsOpen() {
		t.Error("click on the backdrop did not close")
	}
	if lb.Image() != "b.jpg" {
		t.Errorf("Image after close = %q, want last opened", lb.Image())
	}
}
