package driftgrid

import (
	"errors"
	"math"
	"testing"
)

// recordingSurface counts materialize and release calls.
type recordingSurface struct {
	live     map[Coord]*recordingHandle
	created  int
	released int
	failAt   map[Coord]bool
}

type recordingHandle struct {
	s        *recordingSurface
	coord    Coord
	released int
}

func (h *recordingHandle) Release() {
	h.released++
	h.s.released++
	delete(h.s.live, h.coord)
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{live: make(map[Coord]*recordingHandle), failAt: make(map[Coord]bool)}
}

var errSurface = errors.New("surface failure")

func (s *recordingSurface) Materialize(c *Cell) (RenderHandle, error) {
	if s.failAt[c.Coord] {
		return nil, errSurface
	}
	s.created++
	h := &recordingHandle{s: s, coord: c.Coord}
	s.live[c.Coord] = h
	return h, nil
}

func newTestGrid(t *testing.T, images int) (*Grid, *recordingSurface) {
	t.Helper()
	s := newRecordingSurface()
	l := Layout{CellSize: 150, Padding: 2, Ratio: 1}
	return NewGrid(l, NewImagePool(makeImages(images), DefaultRecentImages), s), s
}

func TestComputeWindowAtOrigin(t *testing.T) {
	w := ComputeWindow(Vec2{}, 800, 600, Vec2{X: 152, Y: 152})
	want := Window{StartCol: -1, EndCol: 6, StartRow: -1, EndRow: 4}
	if w != want {
		t.Fatalf("window = %+v, want %+v", w, want)
	}
	if w.Len() != 48 {
		t.Errorf("Len = %d, want 48", w.Len())
	}
}

func TestComputeWindowDegenerate(t *testing.T) {
	pitch := Vec2{X: 152, Y: 152}
	tests := []struct {
		name string
		pos  Vec2
		w, h float64
		p    Vec2
	}{
		{"zero width", Vec2{}, 0, 600, pitch},
		{"negative height", Vec2{}, 800, -1, pitch},
		{"zero pitch", Vec2{}, 800, 600, Vec2{}},
		{"nan position", Vec2{X: math.NaN()}, 800, 600, pitch},
		{"inf position", Vec2{Y: math.Inf(-1)}, 800, 600, pitch},
	}
	for _, tt := range tests {
		w := ComputeWindow(tt.pos, tt.w, tt.h, tt.p)
		if !w.Empty() || w.Len() != 0 {
			t.Errorf("%s: window = %+v, want empty", tt.name, w)
		}
	}
}

func TestGridSyncMaterializesWindow(t *testing.T) {
	g, s := newTestGrid(t, 500)
	d := g.Sync(Vec2{}, 800, 600)
	if len(d.Created) != 48 || len(d.Destroyed) != 0 {
		t.Fatalf("diff = +%d -%d, want +48 -0", len(d.Created), len(d.Destroyed))
	}
	if g.Len() != 48 || s.created != 48 {
		t.Errorf("Len = %d, surface created = %d, want 48", g.Len(), s.created)
	}
	win := g.Window()
	for row := win.StartRow; row <= win.EndRow; row++ {
		for col := win.StartCol; col <= win.EndCol; col++ {
			c := g.Cell(Coord{col, row})
			if c == nil {
				t.Fatalf("cell %d,%d missing", col, row)
			}
			if c.Handle() == nil {
				t.Errorf("cell %d,%d has no handle", col, row)
			}
		}
	}
}

func TestGridResyncIsStable(t *testing.T) {
	g, s := newTestGrid(t, 500)
	g.Sync(Vec2{}, 800, 600)
	before := make(map[Coord]ImageRef)
	g.Each(func(c *Cell) { before[c.Coord] = c.Image })

	win := g.Window()
	// Pitch 152 at 800x600: any X in (-40, 0] and Y in (-8, 0] keeps the window.
	d := g.Sync(Vec2{X: -5, Y: -5}, 800, 600)
	if g.Window() != win {
		t.Fatalf("window = %+v, want %+v", g.Window(), win)
	}
	if len(d.Created) != 0 || len(d.Destroyed) != 0 {
		t.Errorf("small move diff = +%d -%d, want none", len(d.Created), len(d.Destroyed))
	}
	g.Each(func(c *Cell) {
		if before[c.Coord] != c.Image {
			t.Errorf("cell %v image changed from %q to %q", c.Coord, before[c.Coord], c.Image)
		}
	})
	if s.created != 48 {
		t.Errorf("surface created = %d, want 48", s.created)
	}
}

func TestGridAspectWindow(t *testing.T) {
	l := Layout{CellSize: 150, Padding: 2, Ratio: 4.0 / 3}
	w, h := l.CellDims()
	if !approxEqual(w, 150*math.Sqrt(4.0/3), epsilon) || !approxEqual(h, w*3/4, epsilon) {
		t.Fatalf("cell = %vx%v", w, h)
	}
	p := l.Pitch()
	if !approxEqual(p.X, w+2, epsilon) || !approxEqual(p.Y, h+2, epsilon) {
		t.Fatalf("pitch = %+v, want (%v, %v)", p, w+2, h+2)
	}

	s := newRecordingSurface()
	g := NewGrid(l, NewImagePool(makeImages(500), DefaultRecentImages), s)
	g.Sync(Vec2{}, 800, 600)
	// Pitch is about 175.2 x 131.9.
	want := Window{StartCol: -1, EndCol: 5, StartRow: -1, EndRow: 5}
	if g.Window() != want {
		t.Fatalf("window = %+v, want %+v", g.Window(), want)
	}
	if g.Len() != 49 {
		t.Errorf("Len = %d, want 49", g.Len())
	}

	positions := []Vec2{{}, {X: -1000.5, Y: 333.3}, {X: 12345.6, Y: -789.1}, {X: -87.6, Y: -65.9}}
	for _, pos := range positions {
		g.Sync(pos, 800, 600)
		win := g.Window()
		if win != ComputeWindow(pos, 800, 600, p) {
			t.Errorf("pos %+v: window = %+v, want the per-axis pitch window", pos, win)
		}
		if g.Len() != win.Len() {
			t.Errorf("pos %+v: cells = %d, window = %d", pos, g.Len(), win.Len())
		}
		g.Each(func(c *Cell) {
			if !win.Contains(c.Coord) {
				t.Errorf("pos %+v: cell %v outside window", pos, c.Coord)
			}
		})
		for _, corner := range [][2]float64{{0, 0}, {800, 0}, {0, 600}, {800, 600}} {
			c := l.CoordAt(corner[0]-pos.X, corner[1]-pos.Y)
			if g.Cell(c) == nil {
				t.Errorf("pos %+v: screen corner %v maps to %v, not materialized", pos, corner, c)
			}
		}
	}
}

func TestGridPanOnePitch(t *testing.T) {
	g, s := newTestGrid(t, 500)
	g.Sync(Vec2{}, 800, 600)
	handles := make(map[Coord]RenderHandle)
	g.Each(func(c *Cell) { handles[c.Coord] = c.Handle() })

	d := g.Sync(Vec2{X: -152}, 800, 600)
	if len(d.Created) != 6 || len(d.Destroyed) != 6 {
		t.Fatalf("diff = +%d -%d, want +6 -6 (one column of 6 rows)", len(d.Created), len(d.Destroyed))
	}
	for _, c := range d.Created {
		if c.Col != 7 {
			t.Errorf("created %v, want column 7", c)
		}
	}
	for _, c := range d.Destroyed {
		if c.Col != -1 {
			t.Errorf("destroyed %v, want column -1", c)
		}
		if handles[c].(*recordingHandle).released != 1 {
			t.Errorf("handle for %v released %d times, want 1", c, handles[c].(*recordingHandle).released)
		}
	}
	// Interior cells keep their identity.
	g.Each(func(c *Cell) {
		if c.Coord.Col == 7 {
			return
		}
		if handles[c.Coord] != c.Handle() {
			t.Errorf("cell %v was recreated", c.Coord)
		}
	})
	if len(s.live) != g.Len() {
		t.Errorf("live handles = %d, cells = %d", len(s.live), g.Len())
	}
}

func TestGridEmptyViewportReleasesEverything(t *testing.T) {
	g, s := newTestGrid(t, 500)
	g.Sync(Vec2{}, 800, 600)
	d := g.Sync(Vec2{}, 0, 0)
	if g.Len() != 0 || len(d.Destroyed) != 48 {
		t.Errorf("Len = %d, destroyed = %d, want 0 and 48", g.Len(), len(d.Destroyed))
	}
	if len(s.live) != 0 {
		t.Errorf("live handles = %d, want 0", len(s.live))
	}
}

func TestGridEmptyPoolMaterializesNothing(t *testing.T) {
	g, s := newTestGrid(t, 0)
	var errs int
	g.OnError = func(c Coord, err error) {
		if !errors.Is(err, ErrNoImages) {
			t.Errorf("cell %v: err = %v, want ErrNoImages", c, err)
		}
		errs++
	}
	d := g.Sync(Vec2{}, 800, 600)
	if g.Len() != 0 || s.created != 0 {
		t.Errorf("Len = %d, created = %d, want 0", g.Len(), s.created)
	}
	if d.Skipped != 48 || errs != 48 {
		t.Errorf("Skipped = %d, errors = %d, want 48", d.Skipped, errs)
	}
}

func TestGridFailureIsolated(t *testing.T) {
	g, s := newTestGrid(t, 500)
	bad := Coord{Col: 2, Row: 1}
	s.failAt[bad] = true

	d := g.Sync(Vec2{}, 800, 600)
	if d.Skipped != 1 || len(d.Created) != 47 {
		t.Fatalf("diff = +%d skipped %d, want +47 skipped 1", len(d.Created), d.Skipped)
	}
	if g.Cell(bad) != nil {
		t.Error("failed cell was inserted")
	}

	// Retried on the next sync.
	delete(s.failAt, bad)
	d = g.Sync(Vec2{}, 800, 600)
	if len(d.Created) != 1 || d.Created[0] != bad {
		t.Errorf("retry created %v, want [%v]", d.Created, bad)
	}
}

func TestGridCellAt(t *testing.T) {
	g, _ := newTestGrid(t, 500)
	g.Sync(Vec2{}, 800, 600)
	if c := g.CellAt(160, 10); c == nil || c.Coord != (Coord{1, 0}) {
		t.Errorf("CellAt(160,10) = %v, want cell 1,0", c)
	}
	if c := g.CellAt(151, 10); c != nil {
		t.Errorf("CellAt in padding = %v, want nil", c.Coord)
	}
	if c := g.CellAt(5000, 5000); c != nil {
		t.Errorf("CellAt outside window = %v, want nil", c.Coord)
	}
}

func TestGridClear(t *testing.T) {
	g, s := newTestGrid(t, 500)
	g.Sync(Vec2{}, 800, 600)
	g.Clear()
	if g.Len() != 0 || s.released != 48 || len(s.live) != 0 {
		t.Errorf("after Clear: Len = %d, released = %d, live = %d", g.Len(), s.released, len(s.live))
	}
	if !g.Window().Empty() {
		t.Error("window not empty after Clear")
	}
}

func TestGridNilSurface(t *testing.T) {
	g := NewGrid(Layout{CellSize: 100, Ratio: 1}, NewImagePool(makeImages(5), 0), nil)
	g.Sync(Vec2{}, 200, 200)
	if g.Len() == 0 {
		t.Fatal("no cells without a surface")
	}
	g.Each(func(c *Cell) {
		if c.Handle() != nil {
			t.Errorf("cell %v has a handle without a surface", c.Coord)
		}
	})
}
