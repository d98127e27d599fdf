package driftgrid

// Camera maps grid space to screen space. The grid is drawn translated by
// Offset, so a grid point (x, y) appears at (x+Offset.X, y+Offset.Y) inside
// Viewport.
type Camera struct {
	// Offset is the grid translation, normally the motion controller's
	// position.
	Offset Vec2
	// Viewport is the screen-space rectangle the grid renders into.
	Viewport Rect
}

// NewCamera creates a camera at the origin with the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{Viewport: viewport}
}

// SetViewportSize resizes the viewport, keeping its origin.
func (c *Camera) SetViewportSize(w, h float64) {
	c.Viewport.Width = w
	c.Viewport.Height = h
}

// WorldToScreen converts grid coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return wx + c.Offset.X + c.Viewport.X, wy + c.Offset.Y + c.Viewport.Y
}

// ScreenToWorld converts screen coordinates to grid coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return sx - c.Viewport.X - c.Offset.X, sy - c.Viewport.Y - c.Offset.Y
}

// VisibleBounds returns the grid-space rectangle currently on screen.
func (c *Camera) VisibleBounds() Rect {
	return Rect{
		X:      -c.Offset.X,
		Y:      -c.Offset.Y,
		Width:  c.Viewport.Width,
		Height: c.Viewport.Height,
	}
}

// InView reports whether a grid-space rectangle intersects the viewport.
func (c *Camera) InView(r Rect) bool {
	return r.Intersects(c.VisibleBounds())
}
