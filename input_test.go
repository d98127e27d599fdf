package driftgrid

import (
	"math/rand/v2"
	"testing"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := NewGame(DefaultConfig(), makeImages(500), GameOptions{
		Rand:          rand.New(rand.NewPCG(5, 6)),
		ScreenshotDir: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Close)
	g.engine.Resize(800, 600)
	return g
}

// stepFrame runs the input and tick parts of Update without polling ebiten.
func stepFrame(g *Game) {
	if g.testRunner != nil {
		g.testRunner.step(g)
	}
	g.stepInput([numDirections]bool{})
	g.engine.Tick(frame)
}

func TestGameTextureCacheCoversWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CellSize = 20
	cfg.TextureCacheSize = 16
	g, err := NewGame(cfg, makeImages(500), GameOptions{Rand: rand.New(rand.NewPCG(1, 2))})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Close)
	g.engine.Resize(1920, 1080)
	g.fitTextureCache()

	win := g.engine.Grid().Window().Len()
	if win <= 16 {
		t.Fatalf("window = %d cells, want more than the configured cache", win)
	}
	if g.textures.Cap() < win+textureHeadroom {
		t.Errorf("texture cache = %d, want at least %d", g.textures.Cap(), win+textureHeadroom)
	}
}

func TestNewGameRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CellSize = -1
	if _, err := NewGame(cfg, nil, GameOptions{}); err == nil {
		t.Error("expected an error for an invalid config")
	}
}

func TestApplyKeysPressRelease(t *testing.T) {
	g := newTestGame(t)
	m := g.engine.Motion()

	g.applyKeys([numDirections]bool{DirUp: true})
	if m.Mode() != DriveManual || !m.Held(DirUp) {
		t.Fatalf("mode = %v, held up = %v", m.Mode(), m.Held(DirUp))
	}
	// Switching keys in one frame never starts the cooldown.
	g.applyKeys([numDirections]bool{DirLeft: true})
	if m.Held(DirUp) || !m.Held(DirLeft) {
		t.Error("held set not updated")
	}
	if m.ResumePending() {
		t.Error("cooldown started while switching keys")
	}
	g.applyKeys([numDirections]bool{})
	if !m.ResumePending() {
		t.Error("cooldown not started after releasing everything")
	}
}

func TestClickOpensLightbox(t *testing.T) {
	g := newTestGame(t)
	g.processPointer(10, 10, true)
	g.processPointer(11, 12, true)
	g.processPointer(11, 12, false)
	if !g.engine.Lightbox().IsOpen() {
		t.Fatal("click within the dead zone did not open the lightbox")
	}
	if want := g.engine.Grid().Cell(Coord{}).Image; g.engine.Lightbox().Image() != want {
		t.Errorf("lightbox image = %q, want %q", g.engine.Lightbox().Image(), want)
	}
}

func TestDragIsNotAClick(t *testing.T) {
	g := newTestGame(t)
	g.processPointer(10, 10, true)
	g.processPointer(40, 10, true)
	g.processPointer(10, 10, false)
	if g.engine.Lightbox().IsOpen() {
		t.Error("a drag that returned to its start counted as a click")
	}

	g.SetClickDeadZone(50)
	g.processPointer(10, 10, true)
	g.processPointer(40, 10, false)
	if !g.engine.Lightbox().IsOpen() {
		t.Error("release within a widened dead zone did not click")
	}
}

func TestInjectedClickAndDismiss(t *testing.T) {
	g := newTestGame(t)
	g.InjectClick(10, 10)
	if len(g.injectQueue) != 2 {
		t.Fatalf("queue = %d, want 2", len(g.injectQueue))
	}
	stepFrame(g)
	if g.engine.Lightbox().IsOpen() {
		t.Fatal("opened on press")
	}
	stepFrame(g)
	if !g.engine.Lightbox().IsOpen() {
		t.Fatal("injected click did not open the lightbox")
	}
	g.InjectDismiss()
	stepFrame(g)
	if g.engine.Lightbox().IsOpen() {
		t.Error("injected dismiss did not close the lightbox")
	}
}

func TestInjectedKeysHoldAcrossFrames(t *testing.T) {
	g := newTestGame(t)
	g.InjectKeyPress(DirRight)
	for i := 0; i < 5; i++ {
		stepFrame(g)
	}
	if p := g.engine.Motion().Position(); p.X != -15 {
		t.Errorf("Position.X = %v after 5 frames right, want -15", p.X)
	}
	g.InjectKeyRelease(DirRight)
	stepFrame(g)
	if g.engine.Motion().Held(DirRight) {
		t.Error("injected release ignored")
	}
}

func TestModeChangeStartsIndicator(t *testing.T) {
	g := newTestGame(t)
	g.applyKeys([numDirections]bool{DirDown: true})
	if g.indicator == nil {
		t.Fatal("no indicator tween after switching to manual")
	}
	for i := 0; i < 30; i++ {
		g.updateIndicator(float32(frame.Seconds()))
	}
	if g.indicatorA != 1 {
		t.Errorf("indicator alpha = %v, want 1", g.indicatorA)
	}
}
