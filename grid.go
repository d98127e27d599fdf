package driftgrid

import (
	"fmt"
	"math"
)

// RenderHandle is the surface-side resource backing a materialized cell.
type RenderHandle interface {
	Release()
}

// CellSurface turns cells into renderable units. Materialize is called once
// per cell lifetime; the returned handle is released when the cell leaves
// the window.
type CellSurface interface {
	Materialize(c *Cell) (RenderHandle, error)
}

// Cell is a materialized grid cell. Its image is fixed for its lifetime.
type Cell struct {
	Coord Coord
	Image ImageRef
	// Bounds is the cell rectangle in grid space (before the camera offset).
	Bounds Rect

	handle RenderHandle
}

// Handle returns the render handle the surface produced for this cell.
func (c *Cell) Handle() RenderHandle {
	return c.handle
}

// Window is an inclusive range of columns and rows. Start > End on either
// axis means the window is empty.
type Window struct {
	StartCol, EndCol int
	StartRow, EndRow int
}

// Empty reports whether the window contains no coordinates.
func (w Window) Empty() bool {
	return w.StartCol > w.EndCol || w.StartRow > w.EndRow
}

// Len returns the number of coordinates in the window.
func (w Window) Len() int {
	if w.Empty() {
		return 0
	}
	return (w.EndCol - w.StartCol + 1) * (w.EndRow - w.StartRow + 1)
}

// Contains reports whether c lies inside the window.
func (w Window) Contains(c Coord) bool {
	return c.Col >= w.StartCol && c.Col <= w.EndCol &&
		c.Row >= w.StartRow && c.Row <= w.EndRow
}

// emptyWindow never contains anything.
var emptyWindow = Window{StartCol: 0, EndCol: -1, StartRow: 0, EndRow: -1}

// ComputeWindow returns the cells needed to cover a viewW x viewH viewport
// when the grid is offset by pos, with one pitch of margin on every side so
// cells are created before they scroll into view. Non-positive or
// non-finite inputs yield an empty window.
func ComputeWindow(pos Vec2, viewW, viewH float64, pitch Vec2) Window {
	if !(viewW > 0) || !(viewH > 0) || !(pitch.X > 0) || !(pitch.Y > 0) ||
		math.IsNaN(pos.X) || math.IsNaN(pos.Y) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) ||
		math.IsInf(viewW, 0) || math.IsInf(viewH, 0) {
		return emptyWindow
	}
	return Window{
		StartCol: int(math.Floor((-pos.X - pitch.X) / pitch.X)),
		EndCol:   int(math.Floor((-pos.X + viewW + pitch.X) / pitch.X)),
		StartRow: int(math.Floor((-pos.Y - pitch.Y) / pitch.Y)),
		EndRow:   int(math.Floor((-pos.Y + viewH + pitch.Y) / pitch.Y)),
	}
}

// Diff lists what one Sync created and destroyed. The slices are reused by
// the next Sync; copy them to keep them.
type Diff struct {
	Created   []Coord
	Destroyed []Coord
	// Skipped counts window cells that could not be materialized this sync.
	Skipped int
}

// Grid is the virtual grid. It is the sole owner of the materialized
// cells: after every Sync the set of materialized coordinates equals the
// current window, minus any cell whose creation failed.
type Grid struct {
	layout  Layout
	pool    *ImagePool
	surface CellSurface

	cells  map[Coord]*Cell
	window Window
	diff   Diff

	// OnError, if set, is called for each cell that fails to materialize.
	OnError func(c Coord, err error)
}

// NewGrid creates an empty grid. surface may be nil, in which case cells
// carry no render handle.
func NewGrid(layout Layout, pool *ImagePool, surface CellSurface) *Grid {
	return &Grid{
		layout:  layout,
		pool:    pool,
		surface: surface,
		cells:   make(map[Coord]*Cell),
		window:  emptyWindow,
	}
}

// Layout returns the grid's cell layout.
func (g *Grid) Layout() Layout {
	return g.layout
}

// Window returns the window computed by the last Sync.
func (g *Grid) Window() Window {
	return g.window
}

// Len returns the number of materialized cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cell returns the materialized cell at c, or nil.
func (g *Grid) Cell(c Coord) *Cell {
	return g.cells[c]
}

// CellAt returns the materialized cell whose bounds contain the grid-space
// point (x, y), or nil if the point is in padding or nothing is there.
func (g *Grid) CellAt(x, y float64) *Cell {
	cell := g.cells[g.layout.CoordAt(x, y)]
	if cell == nil || !cell.Bounds.Contains(x, y) {
		return nil
	}
	return cell
}

// Each calls fn for every materialized cell in unspecified order.
func (g *Grid) Each(fn func(*Cell)) {
	for _, c := range g.cells {
		fn(c)
	}
}

// Sync brings the materialized set in line with the window for a grid
// offset of pos and a viewW x viewH viewport.
func (g *Grid) Sync(pos Vec2, viewW, viewH float64) Diff {
	g.diff.Created = g.diff.Created[:0]
	g.diff.Destroyed = g.diff.Destroyed[:0]
	g.diff.Skipped = 0

	win := ComputeWindow(pos, viewW, viewH, g.layout.Pitch())
	g.window = win

	for row := win.StartRow; row <= win.EndRow; row++ {
		for col := win.StartCol; col <= win.EndCol; col++ {
			c := Coord{Col: col, Row: row}
			if _, ok := g.cells[c]; ok {
				continue
			}
			if err := g.create(c); err != nil {
				g.diff.Skipped++
				if g.OnError != nil {
					g.OnError(c, err)
				}
				continue
			}
			g.diff.Created = append(g.diff.Created, c)
		}
	}

	for c := range g.cells {
		if !win.Contains(c) {
			g.release(c)
			g.diff.Destroyed = append(g.diff.Destroyed, c)
		}
	}
	return g.diff
}

// create materializes one cell. On error nothing is inserted and the cell
// is retried on the next Sync.
func (g *Grid) create(c Coord) error {
	ref, ok := g.pool.Assign(c.Key())
	if !ok {
		return ErrNoImages
	}
	bounds := g.layout.Bounds(c)
	if !validRect(bounds) {
		return fmt.Errorf("cell %v: invalid bounds %v", c, bounds)
	}
	cell := &Cell{Coord: c, Image: ref, Bounds: bounds}
	if g.surface != nil {
		h, err := g.surface.Materialize(cell)
		if err != nil {
			return fmt.Errorf("cell %v: materialize: %w", c, err)
		}
		cell.handle = h
	}
	g.cells[c] = cell
	return nil
}

// release is the only path that removes a cell.
func (g *Grid) release(c Coord) {
	cell, ok := g.cells[c]
	if !ok {
		return
	}
	delete(g.cells, c)
	if cell.handle != nil {
		cell.handle.Release()
		cell.handle = nil
	}
}

// Clear releases every materialized cell.
func (g *Grid) Clear() {
	for c := range g.cells {
		g.release(c)
	}
	g.window = emptyWindow
}
