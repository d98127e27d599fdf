package driftgrid

type syntheticKind uint8

const (
	synthPointer syntheticKind = iota
	synthKey
	synthDismiss
)

// syntheticEvent is a single injected input event. Pointer events use
// screen coordinates, the same space real mouse input arrives in.
type syntheticEvent struct {
	kind             syntheticKind
	screenX, screenY float64
	pressed          bool
	dir              Direction
}

// InjectPointerPress queues a pointer press at the given screen coordinates.
// The event is consumed on the next frame's processInput call.
func (g *Game) InjectPointerPress(x, y float64) {
	g.injectQueue = append(g.injectQueue, syntheticEvent{
		kind: synthPointer, screenX: x, screenY: y, pressed: true,
	})
}

// InjectPointerRelease queues a pointer release at the given screen coordinates.
func (g *Game) InjectPointerRelease(x, y float64) {
	g.injectQueue = append(g.injectQueue, syntheticEvent{
		kind: synthPointer, screenX: x, screenY: y,
	})
}

// InjectClick queues a press followed by a release at the same screen
// coordinates. Consumes two frames.
func (g *Game) InjectClick(x, y float64) {
	g.InjectPointerPress(x, y)
	g.InjectPointerRelease(x, y)
}

// InjectKeyPress queues a direction key going down. The key stays held
// until a matching InjectKeyRelease is consumed.
func (g *Game) InjectKeyPress(d Direction) {
	g.injectQueue = append(g.injectQueue, syntheticEvent{kind: synthKey, dir: d, pressed: true})
}

// InjectKeyRelease queues a direction key going up.
func (g *Game) InjectKeyRelease(d Direction) {
	g.injectQueue = append(g.injectQueue, syntheticEvent{kind: synthKey, dir: d})
}

// InjectDismiss queues an escape press.
func (g *Game) InjectDismiss() {
	g.injectQueue = append(g.injectQueue, syntheticEvent{kind: synthDismiss})
}

// processInjectedInput pops one event from the inject queue and applies it.
// Returns true if an event was consumed (real pointer input is skipped).
func (g *Game) processInjectedInput() bool {
	if len(g.injectQueue) == 0 {
		return false
	}
	evt := g.injectQueue[0]
	copy(g.injectQueue, g.injectQueue[1:])
	g.injectQueue = g.injectQueue[:len(g.injectQueue)-1]

	switch evt.kind {
	case synthPointer:
		g.processPointer(evt.screenX, evt.screenY, evt.pressed)
	case synthKey:
		if evt.dir < numDirections {
			g.input.injected[evt.dir] = evt.pressed
		}
	case synthDismiss:
		g.engine.Dismiss()
	}
	return true
}
