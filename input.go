package driftgrid

import (
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

const defaultClickDeadZone = 4.0 // pixels

// keyBindings maps each pan direction to the keys that drive it.
var keyBindings = [numDirections][]ebiten.Key{
	DirUp:    {ebiten.KeyArrowUp, ebiten.KeyW},
	DirDown:  {ebiten.KeyArrowDown, ebiten.KeyS},
	DirLeft:  {ebiten.KeyArrowLeft, ebiten.KeyA},
	DirRight: {ebiten.KeyArrowRight, ebiten.KeyD},
}

type pointerState struct {
	down   bool
	startX float64
	startY float64
	moved  bool
}

// inputState is the per-game input bookkeeping.
type inputState struct {
	pointer  pointerState
	held     [numDirections]bool // directions last reported to the engine
	injected [numDirections]bool // directions held by injected events
	deadZone float64
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// copyToClipboard writes s to the system clipboard, initializing it on
// first use. Headless systems without a clipboard only get a log line.
func copyToClipboard(s string) {
	clipboardOnce.Do(func() { clipboardErr = clipboard.Init() })
	if clipboardErr != nil {
		log.Printf("driftgrid: clipboard unavailable: %v", clipboardErr)
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
}

// SetClickDeadZone sets how far (in pixels) the pointer may travel between
// press and release for the release to count as a click.
func (g *Game) SetClickDeadZone(pixels float64) {
	g.input.deadZone = pixels
}

func (g *Game) clickDeadZone() float64 {
	if g.input.deadZone > 0 {
		return g.input.deadZone
	}
	return defaultClickDeadZone
}

// processInput polls the keyboard and mouse once per Update. One injected
// event per frame replaces real pointer input.
func (g *Game) processInput() {
	var keys [numDirections]bool
	for d := range numDirections {
		for _, k := range keyBindings[d] {
			if ebiten.IsKeyPressed(k) {
				keys[d] = true
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.engine.Dismiss()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.Screenshot("manual")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.showStats = !g.showStats
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && copyModifier() {
		g.copyLightboxImage()
	}

	if g.stepInput(keys) {
		return
	}
	mx, my := ebiten.CursorPosition()
	g.processPointer(float64(mx), float64(my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

// stepInput applies at most one injected event, then reports the union of
// the polled and injected direction keys to the engine. Returns true if an
// injected event was consumed.
func (g *Game) stepInput(keys [numDirections]bool) bool {
	consumed := g.processInjectedInput()
	for d := range numDirections {
		keys[d] = keys[d] || g.input.injected[d]
	}
	g.applyKeys(keys)
	return consumed
}

func copyModifier() bool {
	return ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
}

// copyLightboxImage puts the open lightbox's image reference on the clipboard.
func (g *Game) copyLightboxImage() {
	lb := g.engine.Lightbox()
	if !lb.IsOpen() {
		return
	}
	copyToClipboard(string(lb.Image()))
}

// applyKeys reports held-direction changes to the engine. Presses are sent
// before releases so switching keys never empties the held set.
func (g *Game) applyKeys(keys [numDirections]bool) {
	for d := range numDirections {
		if !g.input.held[d] && keys[d] {
			g.input.held[d] = true
			g.engine.Press(d)
		}
	}
	for d := range numDirections {
		if g.input.held[d] && !keys[d] {
			g.input.held[d] = false
			g.engine.Release(d)
		}
	}
}

// processPointer tracks one pointer sample in screen coordinates. A release
// within the dead zone of its press is a click.
func (g *Game) processPointer(sx, sy float64, pressed bool) {
	p := &g.input.pointer
	switch {
	case pressed && !p.down:
		*p = pointerState{down: true, startX: sx, startY: sy}
	case pressed && p.down:
		dx, dy := sx-p.startX, sy-p.startY
		dz := g.clickDeadZone()
		if dx*dx+dy*dy > dz*dz {
			p.moved = true
		}
	case !pressed && p.down:
		dx, dy := sx-p.startX, sy-p.startY
		dz := g.clickDeadZone()
		click := !p.moved && dx*dx+dy*dy <= dz*dz
		*p = pointerState{}
		if click {
			g.engine.Click(sx, sy)
		}
	}
}
