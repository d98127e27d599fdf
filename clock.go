package driftgrid

import "time"

// Clock is a cooperative timer scheduler. Time only moves when Advance is
// called, and due callbacks run to completion one at a time on the caller's
// goroutine, in deadline order. It is not safe for concurrent use.
type Clock struct {
	now    time.Duration
	timers []*timer
	seq    uint64
}

type timer struct {
	deadline time.Duration
	interval time.Duration // 0 for one-shot timers
	seq      uint64        // FIFO tie-break for equal deadlines
	fn       func()
	gen      uint64
	dead     bool
}

// TimerHandle cancels a scheduled callback. The zero value is inert.
type TimerHandle struct {
	t   *timer
	gen uint64
}

// NewClock returns a clock at time zero with no timers.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the elapsed clock time.
func (c *Clock) Now() time.Duration {
	return c.now
}

// After schedules fn to run once, d from now.
func (c *Clock) After(d time.Duration, fn func()) TimerHandle {
	return c.schedule(d, 0, fn)
}

// Every schedules fn to run every d, starting d from now. Non-positive
// intervals are clamped to one millisecond.
func (c *Clock) Every(d time.Duration, fn func()) TimerHandle {
	if d <= 0 {
		d = time.Millisecond
	}
	return c.schedule(d, d, fn)
}

func (c *Clock) schedule(d, interval time.Duration, fn func()) TimerHandle {
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &timer{deadline: c.now + d, interval: interval, seq: c.seq, fn: fn, gen: 1}
	c.timers = append(c.timers, t)
	return TimerHandle{t: t, gen: t.gen}
}

// Cancel stops the timer. Cancelling an already fired, cancelled, or zero
// handle is a no-op. A cancelled callback never runs, even if it was due in
// the same Advance call.
func (h TimerHandle) Cancel() {
	if h.t == nil || h.t.gen != h.gen {
		return
	}
	h.t.gen++
	h.t.dead = true
}

// Active reports whether the timer will still fire.
func (h TimerHandle) Active() bool {
	return h.t != nil && h.t.gen == h.gen && !h.t.dead
}

// Advance moves time forward by dt and runs every callback that falls due,
// including repeats of interval timers and timers scheduled by callbacks.
func (c *Clock) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	target := c.now + dt
	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		c.now = t.deadline
		if t.interval > 0 {
			c.seq++
			t.deadline += t.interval
			t.seq = c.seq
		} else {
			t.dead = true
		}
		t.fn()
	}
	c.now = target
	c.compact()
}

// nextDue returns the live timer with the earliest deadline <= target.
func (c *Clock) nextDue(target time.Duration) *timer {
	var best *timer
	for _, t := range c.timers {
		if t.dead || t.deadline > target {
			continue
		}
		if best == nil || t.deadline < best.deadline ||
			(t.deadline == best.deadline && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// compact drops dead timers.
func (c *Clock) compact() {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.dead {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(c.timers); i++ {
		c.timers[i] = nil
	}
	c.timers = live
}

// Pending returns the number of live timers.
func (c *Clock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.dead {
			n++
		}
	}
	return n
}
