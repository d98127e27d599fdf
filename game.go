package driftgrid

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	placeholderColor = Color{R: 0.16, G: 0.16, B: 0.18, A: 1}
	brokenColor      = Color{R: 0.3, G: 0.12, B: 0.12, A: 1}
	backdropColor    = Color{R: 0, G: 0, B: 0, A: 0.9}
	indicatorBG      = Color{R: 0, G: 0, B: 0, A: 0.5}
)

const indicatorText = "Keyboard Control Active"

// textureHeadroom is kept above the window size so cells scrolling in and
// the lightbox image do not evict visible textures.
const textureHeadroom = 64

// GameOptions configures NewGame. Zero values are valid.
type GameOptions struct {
	// Client and BaseDir are used to fetch cell images.
	Client  *http.Client
	BaseDir string
	// Rand drives the random walk.
	Rand *rand.Rand
	// ScreenshotDir receives F12 and scripted screenshots. Default "screenshots".
	ScreenshotDir string
	// ShowFPS draws an FPS/TPS readout in the top-left corner.
	ShowFPS bool
}

// Game is the ebiten.Game that drives an Engine: it polls input, ticks the
// engine once per Update, and draws the materialized cells, the lightbox,
// and overlays.
type Game struct {
	engine   *Engine
	surface  *Surface
	textures *TextureCache[*ebiten.Image]

	// ClearColor fills the screen behind the grid.
	ClearColor Color
	// ScreenshotDir is where screenshots are written.
	ScreenshotDir string

	input      inputState
	face       *text.GoTextFace
	fps        *fpsCounter
	showStats  bool
	debug      bool
	layoutW    int
	layoutH    int
	indicator  *gween.Tween
	indicatorA float64

	injectQueue     []syntheticEvent
	testRunner      *TestRunner
	screenshotQueue []string
}

// NewGame builds the engine, render surface, and texture cache for images.
func NewGame(cfg *Config, images []ImageRef, opts GameOptions) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	surface := NewSurface()
	textures, err := NewTextureCache(TextureOptions[*ebiten.Image]{
		Client:        opts.Client,
		BaseDir:       opts.BaseDir,
		Capacity:      cfg.TextureCacheSize,
		MaxConcurrent: cfg.MaxConcurrentLoads,
		Upload:        ebiten.NewImageFromImage,
		Evict:         func(img *ebiten.Image) { img.Deallocate() },
	})
	if err != nil {
		return nil, err
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	g := &Game{
		engine:        NewEngine(cfg, images, EngineOptions{Surface: surface, Rand: opts.Rand}),
		surface:       surface,
		textures:      textures,
		ClearColor:    Color{R: 0.07, G: 0.07, B: 0.08, A: 1},
		ScreenshotDir: opts.ScreenshotDir,
		face:          &text.GoTextFace{Source: src, Size: 14},
		debug:         cfg.Debug,
	}
	if g.ScreenshotDir == "" {
		g.ScreenshotDir = "screenshots"
	}
	if opts.ShowFPS {
		g.fps = newFPSCounter()
	}
	g.engine.Motion().OnModeChange = g.modeChanged
	CellEventType.Subscribe(surface.World(), g.prefetch)
	g.engine.Grid().OnError = func(c Coord, err error) {
		if g.debug {
			debugf("cell %v: %v", c, err)
		}
	}
	return g, nil
}

// Engine returns the engine driven by the game.
func (g *Game) Engine() *Engine {
	return g.engine
}

// Surface returns the render surface.
func (g *Game) Surface() *Surface {
	return g.surface
}

// SetDebugMode enables per-frame stats on stderr.
func (g *Game) SetDebugMode(enabled bool) {
	g.debug = enabled
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := time.Second / time.Duration(ebiten.TPS())

	if g.layoutW > 0 && g.layoutH > 0 {
		g.engine.Resize(float64(g.layoutW), float64(g.layoutH))
	}
	g.textures.Drain()
	if g.testRunner != nil {
		g.testRunner.step(g)
	}
	g.processInput()
	g.engine.Tick(dt)
	g.fitTextureCache()
	g.surface.ProcessEvents()
	g.updateIndicator(float32(dt.Seconds()))
	if g.fps != nil {
		g.fps.update(dt.Seconds())
	}
	if g.debug {
		g.debugLog(g.engine.Stats())
	}
	return nil
}

// Layout implements ebiten.Game. The viewport follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.layoutW, g.layoutH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.ClearColor.toRGBA())
	g.drawCells(screen)
	g.drawLightbox(screen)
	g.drawIndicator(screen)
	if g.fps != nil {
		g.fps.draw(screen)
	}
	if g.showStats {
		g.drawStats(screen)
	}
	g.flushScreenshots(screen)
}

func (g *Game) drawCells(screen *ebiten.Image) {
	cam := g.engine.Camera()
	g.surface.Each(func(cs *CellSprite) {
		if !cam.InView(cs.Bounds) {
			return
		}
		x, y := cam.WorldToScreen(cs.Bounds.X, cs.Bounds.Y)
		g.drawImage(screen, cs.Image, Rect{X: x, Y: y, Width: cs.Bounds.Width, Height: cs.Bounds.Height}, 1)
	})
}

// drawImage draws ref into dst, or a placeholder until its texture loads.
func (g *Game) drawImage(screen *ebiten.Image, ref ImageRef, dst Rect, alpha float64) {
	w, h := int(dst.Width+0.5), int(dst.Height+0.5)
	tex, ok := g.textures.Get(ref, w, h)
	if !ok {
		c := placeholderColor
		if g.textures.Err(ref, w, h) != nil {
			c = brokenColor
		}
		c.A *= alpha
		vector.DrawFilledRect(screen, float32(dst.X), float32(dst.Y),
			float32(dst.Width), float32(dst.Height), c.toRGBA(), false)
		return
	}
	b := tex.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(dst.Width/float64(b.Dx()), dst.Height/float64(b.Dy()))
	op.GeoM.Translate(dst.X, dst.Y)
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(tex, op)
}

func (g *Game) drawLightbox(screen *ebiten.Image) {
	lb := g.engine.Lightbox()
	if !lb.IsOpen() {
		return
	}
	vp := g.engine.Camera().Viewport
	p := lb.Progress()

	bg := backdropColor
	bg.A *= p
	vector.DrawFilledRect(screen, 0, 0, float32(vp.Width), float32(vp.Height), bg.toRGBA(), false)

	r := lb.ImageRect(vp.Width, vp.Height)
	// Grow from 95% to full size while fading in.
	s := 0.95 + 0.05*p
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	scaled := Rect{X: cx - r.Width*s/2, Y: cy - r.Height*s/2, Width: r.Width * s, Height: r.Height * s}
	// Request at the final size so the texture is not refetched per frame.
	w, h := int(r.Width+0.5), int(r.Height+0.5)
	if tex, ok := g.textures.Get(lb.Image(), w, h); ok {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scaled.Width/float64(w), scaled.Height/float64(h))
		op.GeoM.Translate(scaled.X, scaled.Y)
		op.ColorScale.ScaleAlpha(float32(p))
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(tex, op)
	} else {
		c := placeholderColor
		c.A *= p
		vector.DrawFilledRect(screen, float32(scaled.X), float32(scaled.Y),
			float32(scaled.Width), float32(scaled.Height), c.toRGBA(), false)
	}

	// Close control: an X inside its hit box.
	cb := lb.CloseButtonRect(vp.Width, vp.Height)
	inset := cb.Width * 0.25
	white := Color{R: 1, G: 1, B: 1, A: p}.toRGBA()
	x0, y0 := float32(cb.X+inset), float32(cb.Y+inset)
	x1, y1 := float32(cb.X+cb.Width-inset), float32(cb.Y+cb.Height-inset)
	vector.StrokeLine(screen, x0, y0, x1, y1, 3, white, true)
	vector.StrokeLine(screen, x0, y1, x1, y0, 3, white, true)
}

// fitTextureCache keeps the texture cache larger than the window.
func (g *Game) fitTextureCache() {
	need := g.engine.Grid().Window().Len() + textureHeadroom
	if g.textures.Reserve(need) && g.debug {
		debugf("texture cache grown to %d", need)
	}
}

// prefetch starts loading a new cell's texture before it scrolls into view.
func (g *Game) prefetch(_ donburi.World, ev CellEvent) {
	if ev.Released {
		return
	}
	b := ev.Sprite.Bounds
	g.textures.Get(ev.Sprite.Image, int(b.Width+0.5), int(b.Height+0.5))
}

// modeChanged starts the indicator fade for the new drive mode.
func (g *Game) modeChanged(mode DriveMode) {
	target := float32(0)
	if mode == DriveManual {
		target = 1
	}
	g.indicator = gween.New(float32(g.indicatorA), target, 0.25, ease.OutQuad)
}

func (g *Game) updateIndicator(dt float32) {
	if g.indicator == nil {
		return
	}
	v, done := g.indicator.Update(dt)
	g.indicatorA = float64(v)
	if done {
		g.indicator = nil
	}
}

func (g *Game) drawIndicator(screen *ebiten.Image) {
	if g.indicatorA <= 0 {
		return
	}
	vp := g.engine.Camera().Viewport
	tw, th := text.Measure(indicatorText, g.face, 0)
	padX, padY := 16.0, 8.0
	bw, bh := tw+2*padX, th+2*padY
	bx := (vp.Width - bw) / 2
	by := vp.Height - 20 - bh

	bg := indicatorBG
	bg.A *= g.indicatorA
	vector.DrawFilledRect(screen, float32(bx), float32(by), float32(bw), float32(bh), bg.toRGBA(), false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(bx+padX, by+padY)
	op.ColorScale.ScaleAlpha(float32(g.indicatorA))
	text.Draw(screen, indicatorText, g.face, op)
}

// Close stops background loads and releases all cells and textures.
func (g *Game) Close() {
	g.engine.Close()
	g.textures.Close()
}

// RunConfig holds window settings for Run.
type RunConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
}

// Run opens a window and runs g until the window is closed.
func Run(g *Game, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	defer g.Close()
	return ebiten.RunGame(g)
}
