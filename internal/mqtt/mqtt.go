// Package mqtt publishes stand lifecycle events with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for session lifecycle events.
const Topic = "stand/tms/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "stand/tms/system"

// EventType identifies a session lifecycle event.
type EventType string

const (
	EventSessionArmed    EventType = "SESSION_ARMED"
	EventSessionStart    EventType = "SESSION_START"
	EventFailsafeTrip    EventType = "FAILSAFE_TRIP"
	EventSessionClosed   EventType = "SESSION_CLOSED"
	EventSessionBlocked  EventType = "SESSION_BLOCKED"
	EventSessionAborted  EventType = "SESSION_ABORTED"
	EventTriggerRejected EventType = "TRIGGER_REJECTED"
)

// Event is one session lifecycle event.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Session   int    // session sequence number, 0 when not applicable
	File      string // session file path, empty when not applicable
	Detail    string // free-form context (e.g. close reason, block cause)
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a session lifecycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Stand StandPayload `json:"stand"`
}

// StandPayload contains the session event details.
type StandPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Session   int    `json:"session,omitempty"`
	File      string `json:"file,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for a session event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Stand: StandPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Session:   event.Session,
			File:      event.File,
			Detail:    event.Detail,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
