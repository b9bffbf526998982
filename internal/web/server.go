// Package web provides the HTTP status surface for the tms-stand daemon:
// a human status page, a machine status endpoint, and recent session history.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/hollis/tms-stand/internal/history"
	"github.com/hollis/tms-stand/internal/status"
)

// SessionLister serves recent session records. Nil disables /sessions.json.
type SessionLister interface {
	Recent(n int) ([]history.Record, error)
}

// Server serves the status pages over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	sessions   SessionLister
}

// New creates a Server that reads state from the given tracker and session
// history (may be nil).
func New(addr string, tracker *status.Tracker, sessions SessionLister) *Server {
	s := &Server{tracker: tracker, sessions: sessions}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/sessions.json", s.handleSessions)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// sessionsJSON is the /sessions.json response shape.
type sessionsJSON struct {
	Sessions []sessionEntry `json:"sessions"`
}

type sessionEntry struct {
	Sequence        int    `json:"sequence"`
	File            string `json:"file"`
	Start           string `json:"start"`
	DurationUS      int64  `json:"duration_us"`
	Samples         int    `json:"samples"`
	Overruns        int    `json:"overruns"`
	WriteErrors     int    `json:"write_errors"`
	FailsafeTripped bool   `json:"failsafe_tripped"`
	Reason          string `json:"reason"`
	RecordedAt      string `json:"recorded_at"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "session history disabled", http.StatusNotFound)
		return
	}

	recs, err := s.sessions.Recent(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := sessionsJSON{Sessions: make([]sessionEntry, 0, len(recs))}
	for _, rec := range recs {
		sum := rec.Summary
		out.Sessions = append(out.Sessions, sessionEntry{
			Sequence:        sum.Sequence,
			File:            sum.File,
			Start:           sum.Start.UTC().Format(time.RFC3339),
			DurationUS:      sum.Duration.Microseconds(),
			Samples:         sum.Samples,
			Overruns:        sum.Overruns,
			WriteErrors:     sum.WriteErrors,
			FailsafeTripped: sum.FailsafeTripped,
			Reason:          string(sum.Reason),
			RecordedAt:      rec.RecordedAt.UTC().Format(time.RFC3339),
		})
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
