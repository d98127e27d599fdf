package driftgrid

import "testing"

func TestLoadTestScript(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "press", "direction": "left"},
		{"action": "wait", "frames": 3},
		{"action": "release", "direction": "left"},
		{"action": "click", "x": 10, "y": 20},
		{"action": "escape"},
		{"action": "screenshot", "label": "end"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.steps) != 6 || r.Done() {
		t.Errorf("steps = %d, done = %v", len(r.steps), r.Done())
	}
}

func TestLoadTestScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{"steps": [`},
		{"no steps", `{"steps": []}`},
		{"unknown action", `{"steps": [{"action": "fly"}]}`},
		{"bad direction", `{"steps": [{"action": "press", "direction": "north"}]}`},
	}
	for _, tt := range tests {
		if _, err := LoadTestScript([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestTestRunnerDrivesGame(t *testing.T) {
	g := newTestGame(t)
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "press", "direction": "left"},
		{"action": "wait", "frames": 2},
		{"action": "release", "direction": "left"},
		{"action": "screenshot", "label": "after pan"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	g.SetTestRunner(r)

	// Frame 1: runner queues the press; it is consumed the same frame.
	stepFrame(g)
	if g.engine.Motion().Mode() != DriveManual || !g.engine.Motion().Held(DirLeft) {
		t.Fatalf("after press: mode = %v, held = %v", g.engine.Motion().Mode(), g.engine.Motion().Held(DirLeft))
	}
	// Frames 2-3: wait.
	stepFrame(g)
	stepFrame(g)
	if !g.engine.Motion().Held(DirLeft) {
		t.Fatal("key released during wait")
	}
	// Frame 4: release.
	stepFrame(g)
	if g.engine.Motion().Held(DirLeft) || !g.engine.Motion().ResumePending() {
		t.Error("release not applied")
	}
	// Frame 5: screenshot queued, script done.
	stepFrame(g)
	if len(g.screenshotQueue) != 1 || g.screenshotQueue[0] != "after pan" {
		t.Errorf("screenshot queue = %q", g.screenshotQueue)
	}
	if !r.Done() {
		t.Error("runner not done")
	}
}

func TestTestRunnerWaitsForInjectedInput(t *testing.T) {
	g := newTestGame(t)
	r, err := LoadTestScript([]byte(`{"steps": [{"action": "click", "x": 5, "y": 5}]}`))
	if err != nil {
		t.Fatal(err)
	}
	g.SetTestRunner(r)

	// Frame 1 queues press and release and consumes the press.
	stepFrame(g)
	if r.Done() {
		t.Fatal("done with a release still queued")
	}
	// Frame 2 consumes the release; the runner holds.
	stepFrame(g)
	if r.Done() || len(g.injectQueue) != 0 {
		t.Fatalf("done = %v, queued = %d", r.Done(), len(g.injectQueue))
	}
	stepFrame(g)
	if !r.Done() {
		t.Error("runner not done after its input drained")
	}
}
