package driftgrid

import "math"

// Layout computes cell geometry. Cells keep an area of roughly CellSize²
// regardless of the aspect ratio.
type Layout struct {
	CellSize float64
	Padding  float64
	// Ratio is width/height. Non-positive or non-finite values mean square.
	Ratio float64
}

// NewLayout builds a Layout from the grid settings of cfg.
func NewLayout(cfg *Config) Layout {
	return Layout{
		CellSize: cfg.CellSize,
		Padding:  cfg.GridPadding,
		Ratio:    cfg.AspectRatio.Ratio(),
	}
}

func (l Layout) ratio() float64 {
	if !(l.Ratio > 0) || math.IsInf(l.Ratio, 0) {
		return 1
	}
	return l.Ratio
}

// CellDims returns the rendered width and height of every cell.
func (l Layout) CellDims() (w, h float64) {
	r := l.ratio()
	if r >= 1 {
		w = l.CellSize * math.Sqrt(r)
		h = w / r
	} else {
		h = l.CellSize / math.Sqrt(r)
		w = h * r
	}
	return w, h
}

// Pitch returns the distance between the origins of adjacent cells on
// each axis.
func (l Layout) Pitch() Vec2 {
	w, h := l.CellDims()
	return Vec2{X: w + l.Padding, Y: h + l.Padding}
}

// Bounds returns the grid-space rectangle of the cell at c.
func (l Layout) Bounds(c Coord) Rect {
	w, h := l.CellDims()
	return Rect{
		X:      float64(c.Col) * (w + l.Padding),
		Y:      float64(c.Row) * (h + l.Padding),
		Width:  w,
		Height: h,
	}
}

// CoordAt returns the coordinate whose pitch slot contains the grid-space
// point (x, y). The point may fall in the padding after the cell.
func (l Layout) CoordAt(x, y float64) Coord {
	p := l.Pitch()
	return Coord{
		Col: int(math.Floor(x / p.X)),
		Row: int(math.Floor(y / p.Y)),
	}
}

// validRect reports whether every field of r is finite and the size is
// positive.
func validRect(r Rect) bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}
