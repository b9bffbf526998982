package gpio

import "sync"

// FakeLines is a test double with settable input levels and a recorded relay
// output. Safe for concurrent use so tests can flip levels from hooks.
type FakeLines struct {
	mu sync.Mutex

	trigger bool
	confirm bool
	relay   bool

	// RelaySets records every value written to the relay output.
	RelaySets []bool

	// TriggerError / ConfirmError / RelayError, if set, are returned by the
	// corresponding call.
	TriggerError error
	ConfirmError error
	RelayError   error

	// Closed tracks if Close was called.
	Closed bool

	// onEdge is invoked by FireEdge, mirroring the real event handler.
	onEdge func()
}

// NewFakeLines creates a FakeLines with all inputs low and the relay
// de-energized.
func NewFakeLines() *FakeLines {
	return &FakeLines{}
}

// SetEdgeHandler wires the function invoked by FireEdge.
func (f *FakeLines) SetEdgeHandler(onEdge func()) {
	f.mu.Lock()
	f.onEdge = onEdge
	f.mu.Unlock()
}

// FireEdge simulates a rising edge on the control-signal line.
func (f *FakeLines) FireEdge() {
	f.mu.Lock()
	h := f.onEdge
	f.mu.Unlock()
	if h != nil {
		h()
	}
}

// SetTrigger sets the level of the control-signal line.
func (f *FakeLines) SetTrigger(on bool) {
	f.mu.Lock()
	f.trigger = on
	f.mu.Unlock()
}

// SetConfirm sets the level of the confirmation line.
func (f *FakeLines) SetConfirm(on bool) {
	f.mu.Lock()
	f.confirm = on
	f.mu.Unlock()
}

// Trigger returns the scripted control-signal level.
func (f *FakeLines) Trigger() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TriggerError != nil {
		return false, f.TriggerError
	}
	return f.trigger, nil
}

// Confirm returns the scripted confirmation level.
func (f *FakeLines) Confirm() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfirmError != nil {
		return false, f.ConfirmError
	}
	return f.confirm, nil
}

// SetRelay records the relay write.
func (f *FakeLines) SetRelay(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RelayError != nil {
		return f.RelayError
	}
	f.relay = on
	f.RelaySets = append(f.RelaySets, on)
	return nil
}

// Relay returns the last value driven onto the relay output.
func (f *FakeLines) Relay() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relay
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
