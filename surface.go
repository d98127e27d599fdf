package driftgrid

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// CellSprite is the drawable state of one materialized cell.
type CellSprite struct {
	Coord  Coord
	Image  ImageRef
	Bounds Rect
}

// CellSpriteComponent is the donburi component holding a CellSprite.
var CellSpriteComponent = donburi.NewComponentType[CellSprite]()

// CellEvent reports a cell entering or leaving the surface.
type CellEvent struct {
	Sprite   CellSprite
	Released bool
}

// CellEventType is the donburi event type for cell lifecycle events.
// Subscribe to it and call Surface.ProcessEvents once per frame.
var CellEventType = events.NewEventType[CellEvent]()

// Surface is the CellSurface used by Game. Each materialized cell is an
// entity in a donburi world; releasing the handle removes the entity.
type Surface struct {
	world donburi.World
	cells *donburi.Query

	created  uint64
	released uint64
}

// NewSurface creates a surface with an empty world.
func NewSurface() *Surface {
	return &Surface{
		world: donburi.NewWorld(),
		cells: donburi.NewQuery(filter.Contains(CellSpriteComponent)),
	}
}

// World exposes the underlying world, e.g. for attaching extra systems.
func (s *Surface) World() donburi.World {
	return s.world
}

// Materialize creates the entity for c.
func (s *Surface) Materialize(c *Cell) (RenderHandle, error) {
	sprite := CellSprite{Coord: c.Coord, Image: c.Image, Bounds: c.Bounds}
	e := s.world.Create(CellSpriteComponent)
	CellSpriteComponent.SetValue(s.world.Entry(e), sprite)
	s.created++
	CellEventType.Publish(s.world, CellEvent{Sprite: sprite})
	return &spriteHandle{surface: s, entity: e}, nil
}

// Len returns the number of live cell entities.
func (s *Surface) Len() int {
	return s.cells.Count(s.world)
}

// Each calls fn for every live cell sprite.
func (s *Surface) Each(fn func(*CellSprite)) {
	s.cells.Each(s.world, func(entry *donburi.Entry) {
		fn(CellSpriteComponent.Get(entry))
	})
}

// Counts returns how many entities were ever created and released.
func (s *Surface) Counts() (created, released uint64) {
	return s.created, s.released
}

// ProcessEvents delivers queued cell events to subscribers.
func (s *Surface) ProcessEvents() {
	CellEventType.ProcessEvents(s.world)
}

// spriteHandle releases its entity exactly once.
type spriteHandle struct {
	surface  *Surface
	entity   donburi.Entity
	released bool
}

func (h *spriteHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	w := h.surface.world
	if !w.Valid(h.entity) {
		return
	}
	sprite := *CellSpriteComponent.Get(w.Entry(h.entity))
	w.Remove(h.entity)
	h.surface.released++
	CellEventType.Publish(w, CellEvent{Sprite: sprite, Released: true})
}
