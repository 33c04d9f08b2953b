package runtime

import (
	"sync"
	"time"

	"github.com/aretw0/cadence/pkg/ports"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock for tests and replays.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TaskClock measures task time: unscaled time since the run started,
// minus every completed or ongoing pause. Conditions read it, so a pause
// freezes their timers without losing what already elapsed. The pause
// itself is measured on the unscaled clock.
type TaskClock struct {
	clock    ports.Clock
	origin   time.Time
	excluded time.Duration
	paused   bool
	pausedAt time.Time
}

// NewTaskClock starts a task clock at the current reading of clock.
func NewTaskClock(clock ports.Clock) *TaskClock {
	return &TaskClock{clock: clock, origin: clock.Now()}
}

// Elapsed returns the task time.
func (c *TaskClock) Elapsed() time.Duration {
	now := c.clock.Now()
	if c.paused {
		now = c.pausedAt
	}
	return now.Sub(c.origin) - c.excluded
}

// Pause freezes task time. Pausing twice is a no-op.
func (c *TaskClock) Pause() {
	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = c.clock.Now()
}

// Resume unfreezes task time and returns how long the pause lasted.
func (c *TaskClock) Resume() time.Duration {
	if !c.paused {
		return 0
	}
	d := c.PausedFor()
	c.excluded += d
	c.paused = false
	return d
}

// Paused reports whether task time is frozen.
func (c *TaskClock) Paused() bool {
	return c.paused
}

// PausedFor returns the length of the ongoing pause, or zero.
func (c *TaskClock) PausedFor() time.Duration {
	if !c.paused {
		return 0
	}
	return c.clock.Now().Sub(c.pausedAt)
}
