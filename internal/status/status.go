// Package status provides a thread-safe status tracker for the tms-stand
// daemon. It is read by the HTTP handlers and serialized into MQTT system
// event payloads.
package status

import (
	"sync"
	"time"

	"github.com/hollis/tms-stand/internal/session"
	"github.com/hollis/tms-stand/internal/trigger"
)

// Config contains daemon configuration for display.
type Config struct {
	DataDir        string
	TickIntervalUS int64
	DurationMS     int64
	DebouncePolls  int
	Broker         string
	HTTPAddr       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State          session.State
	Health         session.Health
	RelayEnergized bool
	Debounce       trigger.Counts
	SessionsDone   int
	LastSession    *session.Summary
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     session.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetHealth records the startup health value.
func (t *Tracker) SetHealth(h session.Health) {
	t.mu.Lock()
	t.snap.Health = h
	t.mu.Unlock()
}

// SetState records the acquisition controller state.
func (t *Tracker) SetState(s session.State) {
	t.mu.Lock()
	t.snap.State = s
	t.mu.Unlock()
}

// SetRelay records the relay output state.
func (t *Tracker) SetRelay(energized bool) {
	t.mu.Lock()
	t.snap.RelayEnergized = energized
	t.mu.Unlock()
}

// SetDebounce records debounce attempt counts.
func (t *Tracker) SetDebounce(c trigger.Counts) {
	t.mu.Lock()
	t.snap.Debounce = c
	t.mu.Unlock()
}

// SessionDone records a finished session and its summary.
func (t *Tracker) SessionDone(sum session.Summary) {
	t.mu.Lock()
	t.snap.SessionsDone++
	s := sum
	t.snap.LastSession = &s
	t.mu.Unlock()
}

// SetSessionsDone seeds the completed-session counter (restored from the
// history index at boot).
func (t *Tracker) SetSessionsDone(n int) {
	t.mu.Lock()
	t.snap.SessionsDone = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
