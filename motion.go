package driftgrid

import (
	"math"
	"math/rand/v2"
	"time"
)

// MotionConfig holds the motion settings. See Config for the defaults.
type MotionConfig struct {
	MoveSpeed             float64
	PanSpeed              float64
	WalkInterval          time.Duration
	WalkIntensity         float64
	DirectionChangeChance float64
	ResumeDelay           time.Duration
}

// NewMotionConfig extracts the motion settings from cfg.
func NewMotionConfig(cfg *Config) MotionConfig {
	return MotionConfig{
		MoveSpeed:             cfg.MoveSpeed,
		PanSpeed:              cfg.PanSpeed,
		WalkInterval:          cfg.WalkInterval(),
		WalkIntensity:         cfg.RandomWalkIntensity,
		DirectionChangeChance: cfg.DirectionChangeChance,
		ResumeDelay:           cfg.ResumeAfter(),
	}
}

// MotionController owns the camera position and drives it either by a
// random walk (DriveAutonomous) or by held direction keys (DriveManual).
type MotionController struct {
	cfg   MotionConfig
	clock *Clock
	rng   *rand.Rand

	position Vec2
	velocity Vec2
	mode     DriveMode
	held     [numDirections]bool

	walk   TimerHandle
	resume TimerHandle

	// OnModeChange, if set, is called after every mode transition.
	OnModeChange func(DriveMode)
}

// NewMotionController starts in DriveAutonomous with a random heading and
// registers the random-walk timer on clock.
func NewMotionController(cfg MotionConfig, clock *Clock, rng *rand.Rand) *MotionController {
	m := &MotionController{
		cfg:   cfg,
		clock: clock,
		rng:   rng,
		mode:  DriveAutonomous,
	}
	m.velocity = m.randomHeading()
	m.walk = clock.Every(cfg.WalkInterval, m.wander)
	return m
}

// Position returns the latest integrated position.
func (m *MotionController) Position() Vec2 {
	return m.position
}

// SetPosition teleports the camera.
func (m *MotionController) SetPosition(p Vec2) {
	m.position = p
}

// Velocity returns the autonomous velocity. It is zero while manual.
func (m *MotionController) Velocity() Vec2 {
	return m.velocity
}

// Mode returns the current drive mode.
func (m *MotionController) Mode() DriveMode {
	return m.mode
}

// Held reports whether direction d is currently pressed.
func (m *MotionController) Held(d Direction) bool {
	return d < numDirections && m.held[d]
}

// ResumePending reports whether the cooldown back to autonomous mode is
// running.
func (m *MotionController) ResumePending() bool {
	return m.resume.Active()
}

// Step integrates one animation tick.
func (m *MotionController) Step() {
	if m.mode == DriveManual {
		var delta Vec2
		for d := Direction(0); d < numDirections; d++ {
			if m.held[d] {
				delta = delta.Add(d.unit())
			}
		}
		m.position = m.position.Add(delta.Scale(m.cfg.PanSpeed))
		return
	}
	m.position = m.position.Add(m.velocity)
}

// Press marks d as held and switches to manual mode, cancelling any
// pending resume.
func (m *MotionController) Press(d Direction) {
	if d >= numDirections {
		return
	}
	m.held[d] = true
	m.resume.Cancel()
	if m.mode != DriveManual {
		m.mode = DriveManual
		m.velocity = Vec2{}
		m.notify()
	}
}

// Release marks d as released. Once nothing is held the resume cooldown
// starts; a press before it fires cancels it.
func (m *MotionController) Release(d Direction) {
	if d >= numDirections || !m.held[d] {
		return
	}
	m.held[d] = false
	if m.mode != DriveManual || m.anyHeld() {
		return
	}
	m.resume.Cancel()
	m.resume = m.clock.After(m.cfg.ResumeDelay, m.resumeAutonomous)
}

// Stop cancels the controller's timers.
func (m *MotionController) Stop() {
	m.walk.Cancel()
	m.resume.Cancel()
}

func (m *MotionController) anyHeld() bool {
	for _, h := range m.held {
		if h {
			return true
		}
	}
	return false
}

func (m *MotionController) resumeAutonomous() {
	if m.anyHeld() {
		return
	}
	m.mode = DriveAutonomous
	m.velocity = m.randomHeading()
	m.notify()
}

// wander is the random-walk timer callback.
func (m *MotionController) wander() {
	if m.mode != DriveAutonomous {
		return
	}
	if m.rng.Float64() < m.cfg.DirectionChangeChance {
		m.velocity = m.randomHeading()
		return
	}
	k := m.cfg.WalkIntensity
	m.velocity.X += (m.rng.Float64()*2 - 1) * k
	m.velocity.Y += (m.rng.Float64()*2 - 1) * k
	if speed := m.velocity.Len(); speed > 0 {
		m.velocity = m.velocity.Scale(m.cfg.MoveSpeed / speed)
	}
}

// randomHeading returns a uniformly random direction at MoveSpeed.
func (m *MotionController) randomHeading() Vec2 {
	angle := m.rng.Float64() * 2 * math.Pi
	return Vec2{
		X: math.Cos(angle) * m.cfg.MoveSpeed,
		Y: math.Sin(angle) * m.cfg.MoveSpeed,
	}
}

func (m *MotionController) notify() {
	if m.OnModeChange != nil {
		m.OnModeChange(m.mode)
	}
}
