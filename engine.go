package driftgrid

import (
	"math/rand/v2"
	"time"
)

// EngineOptions configures NewEngine. Zero values are valid.
type EngineOptions struct {
	// Surface receives cell create/release calls. May be nil.
	Surface CellSurface
	// Rand drives the random walk. Defaults to a randomly seeded source.
	Rand *rand.Rand
	// Viewport is the initial screen rectangle.
	Viewport Rect
}

// FrameStats describes the most recent tick.
type FrameStats struct {
	Tick         uint64
	Created      int
	Destroyed    int
	Skipped      int
	Materialized int
	SyncTime     time.Duration
}

// Engine owns all mutable grid state: the clock, camera motion, the
// virtual grid, the image pool, and the lightbox. Everything runs on the
// goroutine that calls Tick.
type Engine struct {
	cfg      *Config
	clock    *Clock
	motion   *MotionController
	camera   *Camera
	pool     *ImagePool
	grid     *Grid
	lightbox *Lightbox

	stats FrameStats
	diff  Diff
}

// NewEngine builds an engine over a ready list of images. cfg is not
// copied and must not be modified afterwards.
func NewEngine(cfg *Config, images []ImageRef, opts EngineOptions) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	clock := NewClock()
	layout := NewLayout(cfg)
	pool := NewImagePool(images, cfg.UsedImageMemory)
	return &Engine{
		cfg:      cfg,
		clock:    clock,
		motion:   NewMotionController(NewMotionConfig(cfg), clock, rng),
		camera:   NewCamera(opts.Viewport),
		pool:     pool,
		grid:     NewGrid(layout, pool, opts.Surface),
		lightbox: NewLightbox(cfg.AspectRatio.Ratio()),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config { return e.cfg }

// Clock returns the engine clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Motion returns the camera motion controller.
func (e *Engine) Motion() *MotionController { return e.motion }

// Camera returns the camera.
func (e *Engine) Camera() *Camera { return e.camera }

// Pool returns the image pool.
func (e *Engine) Pool() *ImagePool { return e.pool }

// Grid returns the virtual grid.
func (e *Engine) Grid() *Grid { return e.grid }

// Lightbox returns the lightbox.
func (e *Engine) Lightbox() *Lightbox { return e.lightbox }

// Stats returns the stats of the last tick.
func (e *Engine) Stats() FrameStats { return e.stats }

// LastDiff returns the diff of the last sync. See Diff for reuse rules.
func (e *Engine) LastDiff() Diff { return e.diff }

// Tick advances one frame: timers due within dt fire first, then the
// camera integrates, then the grid is synced against the new position.
func (e *Engine) Tick(dt time.Duration) {
	e.clock.Advance(dt)
	e.motion.Step()
	e.sync()
	e.lightbox.update(float32(dt.Seconds()))
}

// Resize changes the viewport size and re-syncs immediately.
func (e *Engine) Resize(w, h float64) {
	if w == e.camera.Viewport.Width && h == e.camera.Viewport.Height {
		return
	}
	e.camera.SetViewportSize(w, h)
	e.sync()
}

func (e *Engine) sync() {
	e.camera.Offset = e.motion.Position()
	vp := e.camera.Viewport

	start := time.Now()
	e.diff = e.grid.Sync(e.camera.Offset, vp.Width, vp.Height)
	e.stats = FrameStats{
		Tick:         e.stats.Tick + 1,
		Created:      len(e.diff.Created),
		Destroyed:    len(e.diff.Destroyed),
		Skipped:      e.diff.Skipped,
		Materialized: e.grid.Len(),
		SyncTime:     time.Since(start),
	}
}

// Press handles a direction key going down.
func (e *Engine) Press(d Direction) {
	e.motion.Press(d)
}

// Release handles a direction key going up.
func (e *Engine) Release(d Direction) {
	e.motion.Release(d)
}

// Click handles a primary click at screen coordinates. While the lightbox
// is open the click may dismiss it; otherwise a click on a cell opens that
// cell's image. Returns the opened image, if any.
func (e *Engine) Click(sx, sy float64) (ImageRef, bool) {
	vp := e.camera.Viewport
	if e.lightbox.HandleClick(sx-vp.X, sy-vp.Y, vp.Width, vp.Height) {
		return "", false
	}
	wx, wy := e.camera.ScreenToWorld(sx, sy)
	cell := e.grid.CellAt(wx, wy)
	if cell == nil {
		return "", false
	}
	e.lightbox.Open(cell.Image)
	return cell.Image, true
}

// Dismiss closes the lightbox (cancel/escape input).
func (e *Engine) Dismiss() {
	e.lightbox.Close()
}

// Close releases every cell and stops the timers.
func (e *Engine) Close() {
	e.motion.Stop()
	e.grid.Clear()
}
