package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hollis/tms-stand/internal/session"
	"github.com/hollis/tms-stand/internal/trigger"
)

var startTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTracker() *Tracker {
	return NewTracker(startTime, Config{
		DataDir:        "/mnt/tms",
		TickIntervalUS: 3125,
		DurationMS:     15000,
		DebouncePolls:  50,
		Broker:         "tcp://broker:1883",
		HTTPAddr:       ":8080",
	})
}

func TestInitialSnapshot(t *testing.T) {
	tr := newTracker()
	snap := tr.Snapshot()

	if snap.State != session.StateIdle {
		t.Errorf("expected IDLE, got %s", snap.State)
	}
	if snap.RelayEnergized {
		t.Error("relay should start de-energized")
	}
	if snap.SessionsDone != 0 {
		t.Errorf("expected 0 sessions, got %d", snap.SessionsDone)
	}
	if !snap.Health.SessionsAllowed() {
		t.Error("empty health should allow sessions")
	}
}

func TestSessionDone(t *testing.T) {
	tr := newTracker()

	sum := session.Summary{
		Sequence: 2,
		File:     "/mnt/tms/tms_2.txt",
		Samples:  4800,
		Reason:   session.ReasonCompleted,
	}
	tr.SessionDone(sum)

	snap := tr.Snapshot()
	if snap.SessionsDone != 1 {
		t.Errorf("expected 1 session done, got %d", snap.SessionsDone)
	}
	if snap.LastSession == nil || snap.LastSession.Sequence != 2 {
		t.Errorf("unexpected last session: %+v", snap.LastSession)
	}

	// The snapshot holds a copy; mutating the original must not leak.
	sum.Samples = 0
	if snap.LastSession.Samples != 4800 {
		t.Error("snapshot shares memory with the caller's summary")
	}
}

func TestSetSessionsDoneSeedsCounter(t *testing.T) {
	tr := newTracker()
	tr.SetSessionsDone(7)
	tr.SessionDone(session.Summary{Sequence: 8})

	if got := tr.Snapshot().SessionsDone; got != 8 {
		t.Errorf("expected 8 sessions done, got %d", got)
	}
}

func TestFormatJSON(t *testing.T) {
	tr := newTracker()
	tr.SetState(session.StateSampling)
	tr.SetRelay(true)
	tr.SetDebounce(trigger.Counts{Attempts: 3, Confirmed: 1, Rejected: 2})
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.State != "SAMPLING" {
		t.Errorf("expected SAMPLING, got %s", parsed.Status.State)
	}
	if parsed.Status.Relay != "ENERGIZED" {
		t.Errorf("expected ENERGIZED, got %s", parsed.Status.Relay)
	}
	if !parsed.Status.Ready {
		t.Error("expected ready")
	}
	if parsed.Status.Debounce.Rejected != 2 {
		t.Errorf("expected 2 rejected, got %d", parsed.Status.Debounce.Rejected)
	}
	if parsed.Status.Event != "" {
		t.Errorf("web JSON must not carry an event, got %q", parsed.Status.Event)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
}

func TestFormatJSONDegradedHealth(t *testing.T) {
	tr := newTracker()
	tr.SetHealth(session.Health{Storage: errors.New("no medium")})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Ready {
		t.Error("failed storage must block sessions")
	}
	if len(parsed.Status.Problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", parsed.Status.Problems)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := newTracker()

	var parsed StatusJSON
	payload := FormatStatusEvent(tr.Snapshot(), "STARTUP", "")
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "STARTUP" {
		t.Errorf("expected STARTUP, got %s", parsed.Status.Event)
	}
	if parsed.Status.StartTime != "2026-03-14T12:00:00Z" {
		t.Errorf("unexpected start time: %s", parsed.Status.StartTime)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := newTracker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.SetState(session.StateSampling)
			tr.SetRelay(true)
			tr.SessionDone(session.Summary{Sequence: 1})
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
			_ = FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()
}
