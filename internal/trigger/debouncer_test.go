package trigger

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// runWindow feeds a full observation window where the first asserted polls
// read high and the remainder read low. Returns the final result.
func runWindow(t *testing.T, d *Debouncer, asserted int) Result {
	t.Helper()

	if !d.Edge(t0) {
		t.Fatal("edge should open a window")
	}

	now := t0
	for i := 0; i < DefaultPolls; i++ {
		r := d.Poll(i < asserted, now)
		if i < DefaultPolls-1 {
			if r != ResultNone {
				t.Fatalf("poll %d: window closed early with %v", i, r)
			}
		} else {
			return r
		}
		now = now.Add(DefaultInterval)
	}
	return ResultNone
}

func TestConfirmAtThreshold(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	// Exactly 45 of 50 asserted: confirmed.
	if r := runWindow(t, d, 45); r != ResultConfirmed {
		t.Errorf("45/50 asserted: expected confirmed, got %v", r)
	}

	c := d.Counts()
	if c.Attempts != 1 || c.Confirmed != 1 || c.Rejected != 0 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestRejectBelowThreshold(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	// Exactly 44 of 50 asserted: rejected.
	if r := runWindow(t, d, 44); r != ResultRejected {
		t.Errorf("44/50 asserted: expected rejected, got %v", r)
	}

	c := d.Counts()
	if c.Attempts != 1 || c.Confirmed != 0 || c.Rejected != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestSteadyAssertionConfirms(t *testing.T) {
	// Scenario: control line held high through the whole window.
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	if r := runWindow(t, d, DefaultPolls); r != ResultConfirmed {
		t.Errorf("50/50 asserted: expected confirmed, got %v", r)
	}
}

func TestShortPulseRejected(t *testing.T) {
	// Scenario: line asserted only 200 ms of the 500 ms window (20 polls).
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	if r := runWindow(t, d, 20); r != ResultRejected {
		t.Errorf("20/50 asserted: expected rejected, got %v", r)
	}
}

func TestEdgeDuringActiveWindowAbsorbed(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	if !d.Edge(t0) {
		t.Fatal("first edge should open a window")
	}
	if d.Edge(t0.Add(50 * time.Millisecond)) {
		t.Error("second edge during an open window should be absorbed")
	}

	c := d.Counts()
	if c.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", c.Attempts)
	}
}

func TestPollIgnoredWhenIdle(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	if r := d.Poll(true, t0); r != ResultNone {
		t.Errorf("poll without an open window: expected none, got %v", r)
	}
	if d.Counts().Attempts != 0 {
		t.Error("idle polls must not count as attempts")
	}
}

func TestEarlyPollsDoNotCompressWindow(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)
	d.Edge(t0)

	// Poll twice at the same instant: only the first advances the window.
	d.Poll(true, t0)
	d.Poll(true, t0)
	if d.seen != 1 {
		t.Errorf("expected 1 sample seen, got %d", d.seen)
	}

	// A poll after the interval advances it again.
	d.Poll(true, t0.Add(DefaultInterval))
	if d.seen != 2 {
		t.Errorf("expected 2 samples seen, got %d", d.seen)
	}
}

func TestNewWindowAfterRejection(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)

	runWindow(t, d, 10)
	if d.Active() {
		t.Fatal("window should be closed after rejection")
	}

	// A fresh edge opens a new attempt with clean counters.
	if !d.Edge(t0.Add(time.Second)) {
		t.Fatal("new edge should open a window")
	}
	if d.seen != 0 || d.asserted != 0 {
		t.Error("new window should start with clean counters")
	}
}

func TestWindowDuration(t *testing.T) {
	d := New(DefaultPolls, DefaultThreshold, DefaultInterval)
	if got := d.Window(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms window, got %v", got)
	}
}
