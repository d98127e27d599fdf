package driftgrid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep is one entry of a JSON test script.
type scriptStep struct {
	Action    string  `json:"action"`
	Label     string  `json:"label,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Frames    int     `json:"frames,omitempty"`
}

// stepAction runs one script step against the game. It returns how many
// further frames the runner should stay idle.
type stepAction struct {
	needsDirection bool
	run            func(g *Game, st scriptStep) int
}

var scriptActions = map[string]stepAction{
	"press": {needsDirection: true, run: func(g *Game, st scriptStep) int {
		d, _ := ParseDirection(st.Direction)
		g.InjectKeyPress(d)
		return 0
	}},
	"release": {needsDirection: true, run: func(g *Game, st scriptStep) int {
		d, _ := ParseDirection(st.Direction)
		g.InjectKeyRelease(d)
		return 0
	}},
	"click": {run: func(g *Game, st scriptStep) int {
		g.InjectClick(st.X, st.Y)
		return 0
	}},
	"escape": {run: func(g *Game, _ scriptStep) int {
		g.InjectDismiss()
		return 0
	}},
	"screenshot": {run: func(g *Game, st scriptStep) int {
		g.Screenshot(st.Label)
		return 0
	}},
	// The frame that reads the step is the first frame waited.
	"wait": {run: func(_ *Game, st scriptStep) int {
		return max(st.Frames-1, 0)
	}},
}

var errEmptyScript = errors.New("no steps")

// TestRunner plays a JSON script of injected input and screenshots, one
// step per frame, for automated visual checks. Attach it with
// Game.SetTestRunner.
//
// A script is {"steps": [...]}. Actions: "press" and "release" take a
// "direction"; "click" takes "x" and "y"; "escape"; "wait" takes
// "frames"; "screenshot" takes a "label".
type TestRunner struct {
	steps []scriptStep
	next  int
	idle  int
	done  bool
}

// LoadTestScript parses and checks a JSON test script.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script struct {
		Steps []scriptStep `json:"steps"`
	}
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: %w", errEmptyScript)
	}
	for i, st := range script.Steps {
		act, ok := scriptActions[st.Action]
		if !ok {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if _, ok := ParseDirection(st.Direction); act.needsDirection && !ok {
			return nil, fmt.Errorf("parse test script: step %d: bad direction %q", i, st.Direction)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches runner to the game. Update steps it once per
// frame before input is processed.
func (g *Game) SetTestRunner(runner *TestRunner) {
	g.testRunner = runner
}

// Done reports whether every step has run and its input was consumed.
func (r *TestRunner) Done() bool {
	return r.done
}

// busy reports whether the runner must hold this frame: injected events
// are still queued or a wait is in progress.
func (r *TestRunner) busy(g *Game) bool {
	if len(g.injectQueue) > 0 {
		return true
	}
	if r.idle > 0 {
		r.idle--
		return true
	}
	return false
}

func (r *TestRunner) step(g *Game) {
	if r.done || r.busy(g) {
		return
	}
	if r.next < len(r.steps) {
		st := r.steps[r.next]
		r.next++
		r.idle = scriptActions[st.Action].run(g, st)
	}
	r.done = r.next == len(r.steps) && r.idle == 0 && len(g.injectQueue) == 0
}
