package driftgrid

import (
	"image/color"
	"math"
	"strconv"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// toRGBA converts to a premultiplied color.RGBA for ebiten draw calls.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Vec2 is a 2D vector used for positions, velocities, and sizes.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the magnitude of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Coord identifies a grid cell by column and row. Columns grow to the right
// and rows grow downward.
type Coord struct {
	Col, Row int
}

// Key returns the "col,row" string used to seed image assignment.
func (c Coord) Key() string {
	return strconv.Itoa(c.Col) + "," + strconv.Itoa(c.Row)
}

// ImageRef is an opaque image reference: a URL or a file path.
type ImageRef string

// DriveMode is the camera's current source of motion.
type DriveMode uint8

const (
	DriveAutonomous DriveMode = iota // random walk
	DriveManual                      // keyboard pan
)

// String returns a readable name for the mode.
func (m DriveMode) String() string {
	switch m {
	case DriveAutonomous:
		return "autonomous"
	case DriveManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Direction is one of the four pan directions.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight

	numDirections Direction = 4
)

// unit returns the grid offset change for one step in direction d. Panning
// left slides the grid content to the right, matching arrow-key scrolling.
func (d Direction) unit() Vec2 {
	switch d {
	case DirUp:
		return Vec2{0, 1}
	case DirDown:
		return Vec2{0, -1}
	case DirLeft:
		return Vec2{1, 0}
	case DirRight:
		return Vec2{-1, 0}
	default:
		return Vec2{}
	}
}

// String returns a readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection maps "up", "down", "left", and "right" to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	}
	return 0, false
}
