// Package trigger contains the pure debounce logic for the external
// control-signal line. It has no GPIO, OS, or time.Sleep dependencies; time is
// always injected via time.Time parameters. The edge handler only records that
// an edge happened; the main loop's poll tick advances the observation window,
// so the interrupt path never blocks.
package trigger

import "time"

// Result is the outcome of advancing the debouncer by one poll.
type Result int

const (
	// ResultNone means the observation window is still open (or idle).
	ResultNone Result = iota
	// ResultConfirmed means the window closed with enough asserted polls.
	ResultConfirmed
	// ResultRejected means the window closed without enough asserted polls.
	ResultRejected
)

// Counts tracks debounce attempt outcomes since startup.
type Counts struct {
	Attempts  int
	Confirmed int
	Rejected  int
}

// Debouncer confirms genuine control-signal assertion by sampling the line a
// fixed number of times over an observation window before acting on it.
type Debouncer struct {
	polls     int
	threshold int
	interval  time.Duration

	active   bool
	seen     int
	asserted int
	nextPoll time.Time

	counts Counts
}

// Standard observation parameters: 50 polls at 10 ms, 45 required.
const (
	DefaultPolls     = 50
	DefaultThreshold = 45
	DefaultInterval  = 10 * time.Millisecond
)

// New creates a Debouncer sampling the line polls times at the given interval,
// confirming when at least threshold polls read asserted.
func New(polls, threshold int, interval time.Duration) *Debouncer {
	return &Debouncer{
		polls:     polls,
		threshold: threshold,
		interval:  interval,
	}
}

// Edge records a rising edge on the control-signal line and opens a new
// observation window. Returns false if a window is already open (the edge is
// absorbed into the running attempt).
func (d *Debouncer) Edge(now time.Time) bool {
	if d.active {
		return false
	}
	d.active = true
	d.seen = 0
	d.asserted = 0
	d.nextPoll = now
	d.counts.Attempts++
	return true
}

// Active reports whether an observation window is open.
func (d *Debouncer) Active() bool {
	return d.active
}

// Poll advances the observation by one sample of the line level. Samples
// arriving before the next poll instant are ignored so a faster main-loop tick
// does not compress the window. Returns ResultConfirmed or ResultRejected when
// the window closes, ResultNone otherwise.
func (d *Debouncer) Poll(asserted bool, now time.Time) Result {
	if !d.active {
		return ResultNone
	}
	if now.Before(d.nextPoll) {
		return ResultNone
	}

	d.seen++
	if asserted {
		d.asserted++
	}
	d.nextPoll = d.nextPoll.Add(d.interval)

	if d.seen < d.polls {
		return ResultNone
	}

	d.active = false
	if d.asserted >= d.threshold {
		d.counts.Confirmed++
		return ResultConfirmed
	}
	d.counts.Rejected++
	return ResultRejected
}

// Counts returns attempt outcome totals since startup.
func (d *Debouncer) Counts() Counts {
	return d.counts
}

// Window returns the total observation window duration.
func (d *Debouncer) Window() time.Duration {
	return time.Duration(d.polls) * d.interval
}
