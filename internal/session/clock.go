package session

import "time"

// Clock abstracts monotonic time and the precise short sleep used by the
// sampling loop, so tests run sessions instantly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// WallClock is the production clock.
type WallClock struct{}

// Now returns the current time (carrying Go's monotonic reading).
func (WallClock) Now() time.Time { return time.Now() }

// Sleep pauses for d.
func (WallClock) Sleep(d time.Duration) { time.Sleep(d) }

// SimClock is a test clock: Sleep advances it instead of pausing, and tests
// can advance it directly (e.g. from a sensor ReadHook to provoke overruns).
type SimClock struct {
	now   time.Time
	Slept []time.Duration
}

// NewSimClock creates a SimClock starting at the given time.
func NewSimClock(start time.Time) *SimClock {
	return &SimClock{now: start}
}

// Now returns the simulated time.
func (c *SimClock) Now() time.Time { return c.now }

// Sleep advances the simulated time by d and records the request.
func (c *SimClock) Sleep(d time.Duration) {
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.Slept = append(c.Slept, d)
}

// Advance moves the simulated time forward by d.
func (c *SimClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
