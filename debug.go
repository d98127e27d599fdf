package driftgrid

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// debugLogEvery is how many frames pass between stderr stat lines.
const debugLogEvery = 60

// debugf prints a tagged line to stderr.
func debugf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[driftgrid] "+format+"\n", args...)
}

// debugLog prints grid and loader stats to stderr. Frames with cell churn
// are always logged; quiet frames once every debugLogEvery ticks.
func (g *Game) debugLog(stats FrameStats) {
	if !g.debug {
		return
	}
	if stats.Created == 0 && stats.Destroyed == 0 && stats.Tick%debugLogEvery != 0 {
		return
	}
	assigned, exhausted := g.engine.Pool().Stats()
	debugf("tick %d | cells: %d (+%d -%d, skipped %d) | sync: %v",
		stats.Tick, stats.Materialized, stats.Created, stats.Destroyed, stats.Skipped, stats.SyncTime)
	debugf("pool: %d images, %d assigned, %d fallback picks | textures: %d cached, %d loading",
		g.engine.Pool().Len(), assigned, exhausted, g.textures.Len(), g.textures.Pending())
}

// statsText formats the F3 overlay.
func (g *Game) statsText() string {
	stats := g.engine.Stats()
	pos := g.engine.Motion().Position()
	w := g.engine.Grid().Window()
	return fmt.Sprintf("mode: %s\npos: %.0f, %.0f\ncols %d..%d rows %d..%d\ncells: %d\ntextures: %d (+%d loading)",
		g.engine.Motion().Mode(), pos.X, pos.Y,
		w.StartCol, w.EndCol, w.StartRow, w.EndRow,
		stats.Materialized, g.textures.Len(), g.textures.Pending())
}

func (g *Game) drawStats(screen *ebiten.Image) {
	y := 0
	if g.fps != nil {
		y = fpsWidgetHeight
	}
	ebitenutil.DebugPrintAt(screen, g.statsText(), 4, y+4)
}
