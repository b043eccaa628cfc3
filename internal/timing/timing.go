// Package timing wraps the authoritative playback clock. Elapsed time starts
// at -leadTime on round start so notes are visible before the audio begins,
// freezes while paused, and never runs backwards while playing.
package timing

import "time"

const DefaultLeadTimeMs = 5000

// Source is what the engine and effects timeline consume.
type Source interface {
	ElapsedMs() float64
}

// Clock is the round clock. Not safe for concurrent use; the round runner
// owns it on a single goroutine, matching the engine's scheduling model.
type Clock struct {
	now        func() time.Time
	leadTimeMs float64
	startedAt  time.Time
	running    bool
	paused     bool
	pausedAt   time.Time
	pausedFor  time.Duration
	lastMs     float64
}

func NewClock(leadTimeMs float64) *Clock {
	return &Clock{now: time.Now, leadTimeMs: leadTimeMs}
}

// Start (re)starts the round: elapsed resets to -leadTime.
func (c *Clock) Start() {
	c.startedAt = c.now()
	c.running = true
	c.paused = false
	c.pausedFor = 0
	c.lastMs = -c.leadTimeMs
}

func (c *Clock) Pause() {
	if !c.running || c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.now()
}

func (c *Clock) Resume() {
	if !c.running || !c.paused {
		return
	}
	c.pausedFor += c.now().Sub(c.pausedAt)
	c.paused = false
}

// ElapsedMs reads the clock with no side effects on game state. While playing
// the value is clamped monotonically non-decreasing; while paused it is
// frozen at the pause point.
func (c *Clock) ElapsedMs() float64 {
	if !c.running {
		return -c.leadTimeMs
	}
	ref := c.now()
	if c.paused {
		ref = c.pausedAt
	}
	ms := float64(ref.Sub(c.startedAt)-c.pausedFor)/float64(time.Millisecond) - c.leadTimeMs
	if ms < c.lastMs {
		return c.lastMs
	}
	c.lastMs = ms
	return ms
}
