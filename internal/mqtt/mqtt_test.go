package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var ts = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestFormatPayload(t *testing.T) {
	event := Event{
		Timestamp: ts,
		Type:      EventSessionClosed,
		Session:   2,
		File:      "/mnt/tms/tms_2.txt",
		Detail:    "completed",
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Stand.Event != "SESSION_CLOSED" {
		t.Errorf("expected SESSION_CLOSED, got %s", parsed.Stand.Event)
	}
	if parsed.Stand.Session != 2 {
		t.Errorf("expected session 2, got %d", parsed.Stand.Session)
	}
	if parsed.Stand.File != "/mnt/tms/tms_2.txt" {
		t.Errorf("unexpected file: %s", parsed.Stand.File)
	}
	if parsed.Stand.Timestamp != "2026-03-14T12:00:00Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Stand.Timestamp)
	}
}

func TestFormatPayloadOmitsEmptyFields(t *testing.T) {
	payload, err := FormatPayload(Event{Timestamp: ts, Type: EventTriggerRejected})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	stand := raw["stand"]
	if _, ok := stand["session"]; ok {
		t.Error("session 0 should be omitted")
	}
	if _, ok := stand["file"]; ok {
		t.Error("empty file should be omitted")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: ts,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "SHUTDOWN" || parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected payload: %+v", parsed.System)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"state":"IDLE"}}`)
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp:  ts,
		Event:      "STARTUP",
		RawPayload: raw,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Error("raw payload should pass through unchanged")
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(Event{Timestamp: ts, Type: EventSessionArmed, Session: 1})
	f.Publish(Event{Timestamp: ts, Type: EventSessionStart, Session: 1})
	f.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP"})

	if len(f.Events) != 2 || len(f.Payloads) != 2 {
		t.Fatalf("expected 2 recorded events, got %d/%d", len(f.Events), len(f.Payloads))
	}
	want := []EventType{EventSessionArmed, EventSessionStart}
	got := f.EventTypes()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	if err := f.Publish(Event{Type: EventSessionStart}); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Events) != 0 {
		t.Error("failed publish must not be recorded")
	}
}
