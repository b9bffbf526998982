package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Relay         string       `json:"relay"`
	Ready         bool         `json:"ready"`
	Problems      []string     `json:"problems,omitempty"`
	SessionsDone  int          `json:"sessions_done"`
	LastSession   *SessionJSON `json:"last_session,omitempty"`
	Debounce      DebounceJSON `json:"debounce"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// DebounceJSON is the JSON representation of debounce attempt counts.
type DebounceJSON struct {
	Attempts  int `json:"attempts"`
	Confirmed int `json:"confirmed"`
	Rejected  int `json:"rejected"`
}

// SessionJSON is the JSON representation of a session summary.
type SessionJSON struct {
	Sequence        int    `json:"sequence"`
	File            string `json:"file"`
	Start           string `json:"start"`
	DurationUS      int64  `json:"duration_us"`
	Samples         int    `json:"samples"`
	Overruns        int    `json:"overruns"`
	WriteErrors     int    `json:"write_errors"`
	FailsafeTripped bool   `json:"failsafe_tripped"`
	Reason          string `json:"reason"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DataDir        string `json:"data_dir"`
	TickIntervalUS int64  `json:"tick_interval_us"`
	DurationMS     int64  `json:"duration_ms"`
	DebouncePolls  int    `json:"debounce_polls"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
}

func relayString(energized bool) string {
	if energized {
		return "ENERGIZED"
	}
	return "OPEN"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         string(snap.State),
		Relay:         relayString(snap.RelayEnergized),
		Ready:         snap.Health.SessionsAllowed(),
		Problems:      snap.Health.Problems(),
		SessionsDone:  snap.SessionsDone,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Debounce: DebounceJSON{
			Attempts:  snap.Debounce.Attempts,
			Confirmed: snap.Debounce.Confirmed,
			Rejected:  snap.Debounce.Rejected,
		},
		Config: ConfigJSON{
			DataDir:        snap.Config.DataDir,
			TickIntervalUS: snap.Config.TickIntervalUS,
			DurationMS:     snap.Config.DurationMS,
			DebouncePolls:  snap.Config.DebouncePolls,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}

	if snap.LastSession != nil {
		s := snap.LastSession
		inner.LastSession = &SessionJSON{
			Sequence:        s.Sequence,
			File:            s.File,
			Start:           s.Start.UTC().Format(time.RFC3339),
			DurationUS:      s.Duration.Microseconds(),
			Samples:         s.Samples,
			Overruns:        s.Overruns,
			WriteErrors:     s.WriteErrors,
			FailsafeTripped: s.FailsafeTripped,
			Reason:          string(s.Reason),
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
