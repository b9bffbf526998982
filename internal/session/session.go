// Package session implements the acquisition controller: the state machine
// driving one arm-and-sample cycle from confirmed trigger to journal closure.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/hollis/tms-stand/internal/diag"
	"github.com/hollis/tms-stand/internal/fsutil"
	"github.com/hollis/tms-stand/internal/journal"
	"github.com/hollis/tms-stand/internal/relay"
	"github.com/hollis/tms-stand/internal/sensor"
)

// State is the acquisition controller state, exposed for status reporting.
type State string

const (
	StateIdle             State = "IDLE"
	StateArmedWaitConfirm State = "ARMED_WAIT_CONFIRM"
	StateSampling         State = "SAMPLING"
	StateClosing          State = "CLOSING"
)

// CloseReason records how a session ended.
type CloseReason string

const (
	ReasonCompleted      CloseReason = "completed"
	ReasonConfirmTimeout CloseReason = "confirm_timeout"
)

// ErrConfirmTimeout is returned when the relay-circuit confirmation never
// asserted within the configured wait.
var ErrConfirmTimeout = errors.New("session: relay confirmation timeout")

// Descriptor configures one session profile. The default profile is the 15 s
// dual-channel session with a per-tick failsafe check; the historical
// fixed-tick single-channel capture is expressed through Ticks, LoadOnly and
// SkipFailsafeCheck instead of a separate implementation.
type Descriptor struct {
	// TickInterval is the fixed sampling period.
	TickInterval time.Duration

	// Duration is the fixed sampling window, measured from the moment the
	// relay confirmation was observed. Ignored when Ticks > 0.
	Duration time.Duration

	// Ticks, when positive, runs a fixed tick count instead of Duration.
	Ticks int

	// LoadOnly samples only the load channel, one record per tick.
	LoadOnly bool

	// SkipFailsafeCheck disables the per-tick failsafe re-check.
	SkipFailsafeCheck bool

	// ConfirmTimeout bounds the wait for relay confirmation. Zero waits
	// forever, which was the original behavior.
	ConfirmTimeout time.Duration
}

// Default session profile: 320 samples/second for 15 seconds.
const (
	DefaultTickInterval   = 3125 * time.Microsecond
	DefaultDuration       = 15 * time.Second
	DefaultConfirmTimeout = 10 * time.Second
)

// DefaultDescriptor returns the standard dual-channel failsafe profile.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		TickInterval:   DefaultTickInterval,
		Duration:       DefaultDuration,
		ConfirmTimeout: DefaultConfirmTimeout,
	}
}

// Summary describes one completed (or aborted) session.
type Summary struct {
	Sequence        int
	File            string
	Start           time.Time
	Duration        time.Duration
	Samples         int
	Overruns        int
	WriteErrors     int
	FailsafeTripped bool
	Reason          CloseReason
}

// Event kinds passed to the Runner's OnEvent hook.
const (
	EventArmed    = "armed"
	EventStart    = "start"
	EventFailsafe = "failsafe"
	EventClosed   = "closed"
)

// Runner executes sessions. Fields are wired once at startup; Run drives a
// single session to completion and may be called again for the next trigger.
type Runner struct {
	FS          fsutil.FileSystem
	DataDir     string
	MaxSessions int

	Load     sensor.Channel
	Pressure sensor.Channel
	Relay    *relay.Controller

	Clock Clock
	Desc  Descriptor

	// Trace logs every sample value; off by default.
	Trace bool

	// OnState, if set, observes controller state transitions.
	OnState func(State)

	// OnEvent, if set, observes session lifecycle points with the summary
	// as known at that moment.
	OnEvent func(kind string, s Summary)
}

func (r *Runner) setState(s State) {
	if r.OnState != nil {
		r.OnState(s)
	}
}

func (r *Runner) emit(kind string, s Summary) {
	if r.OnEvent != nil {
		r.OnEvent(kind, s)
	}
}

// Run executes one session: open a new journal, arm the relay, wait for the
// relay-circuit confirmation, sample at the fixed tick for the fixed window,
// then close the journal and disarm. The journal is closed on every exit
// path. A failsafe trip opens the relay but never shortens the window.
func (r *Runner) Run() (Summary, error) {
	j, err := journal.OpenNew(r.FS, r.DataDir, r.MaxSessions)
	if err != nil {
		return Summary{}, fmt.Errorf("open session journal: %w", err)
	}

	sum := Summary{Sequence: j.Seq(), File: j.Name()}

	if err := r.Relay.Arm(); err != nil {
		j.Close()
		return sum, fmt.Errorf("arm relay: %w", err)
	}
	r.setState(StateArmedWaitConfirm)
	r.emit(EventArmed, sum)

	if ok := r.waitConfirm(); !ok {
		sum.Reason = ReasonConfirmTimeout
		r.closeOut(j, &sum)
		return sum, ErrConfirmTimeout
	}

	sum.Start = r.Clock.Now()
	r.setState(StateSampling)
	r.emit(EventStart, sum)

	r.sample(j, &sum)

	sum.Reason = ReasonCompleted
	r.closeOut(j, &sum)
	return sum, nil
}

// waitConfirm polls the confirmation input until it asserts or the configured
// timeout elapses. Zero timeout polls forever.
func (r *Runner) waitConfirm() bool {
	var deadline time.Time
	if r.Desc.ConfirmTimeout > 0 {
		deadline = r.Clock.Now().Add(r.Desc.ConfirmTimeout)
	}

	for {
		ok, err := r.Relay.ConfirmAsserted()
		if err != nil {
			diag.Logf("session: read confirmation: %v", err)
		}
		if ok {
			return true
		}
		if !deadline.IsZero() && !r.Clock.Now().Before(deadline) {
			diag.Logf("session: confirmation not asserted within %v", r.Desc.ConfirmTimeout)
			return false
		}
		r.Clock.Sleep(r.Desc.TickInterval)
	}
}

// sample runs the fixed-interval acquisition loop. Each tick reads the
// channels, evaluates the failsafe, then appends the sample or the overrun
// marker. An overrun tick skips its sleep; timing is not retroactively
// corrected beyond the immediately following interval.
func (r *Runner) sample(j *journal.Journal, sum *Summary) {
	ticks := 0
	for {
		if r.Desc.Ticks > 0 {
			if ticks >= r.Desc.Ticks {
				break
			}
		} else if r.Clock.Now().Sub(sum.Start) >= r.Desc.Duration {
			break
		}

		tickStart := r.Clock.Now()

		load := int16(r.Load.Read())
		var pressure int32
		if !r.Desc.LoadOnly {
			pressure = r.Pressure.Read()
		}

		if !r.Desc.SkipFailsafeCheck {
			tripped, err := r.Relay.CheckFailsafe()
			if err != nil {
				diag.Logf("session: failsafe check: %v", err)
			}
			if tripped {
				sum.FailsafeTripped = true
				r.emit(EventFailsafe, *sum)
			}
		}

		elapsed := r.Clock.Now().Sub(tickStart)
		if elapsed > r.Desc.TickInterval {
			j.AppendOverrun()
			sum.Overruns++
		} else {
			if r.Desc.LoadOnly {
				j.AppendValue(int32(load))
			} else {
				j.AppendSample(journal.Sample{Load: load, Pressure: pressure})
			}
			sum.Samples++
			if r.Trace {
				diag.Logf("tick %d: load=%d pressure=%d", ticks, load, pressure)
			}
			r.Clock.Sleep(r.Desc.TickInterval - r.Clock.Now().Sub(tickStart))
		}

		ticks++
	}

	sum.Duration = r.Clock.Now().Sub(sum.Start)
}

// closeOut runs the session teardown: close the journal, disarm the relay,
// report. Runs on every exit path.
func (r *Runner) closeOut(j *journal.Journal, sum *Summary) {
	r.setState(StateClosing)

	if err := j.Close(); err != nil {
		diag.Logf("session: %v", err)
	}
	sum.WriteErrors = j.WriteErrors()

	if err := r.Relay.Disarm(); err != nil {
		diag.Logf("session: disarm: %v", err)
	}

	r.emit(EventClosed, *sum)
	r.setState(StateIdle)
}
