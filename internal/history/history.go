// Package history keeps a sqlite index of completed sessions. It is
// best-effort: open or record failures are logged and the stand keeps
// running; only the journal files are authoritative.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hollis/tms-stand/internal/session"
)

// Record is one indexed session.
type Record struct {
	Summary    session.Summary
	RecordedAt time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session index at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			sequence INTEGER,
			file TEXT,
			started_at TIMESTAMP,
			duration_us INTEGER,
			samples INTEGER,
			overruns INTEGER,
			write_errors INTEGER,
			failsafe_tripped INTEGER,
			reason TEXT,
			recorded_at TEXT
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts one session summary.
func (s *Store) Record(sum session.Summary) error {
	tripped := 0
	if sum.FailsafeTripped {
		tripped = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO sessions
			(sequence, file, started_at, duration_us, samples, overruns, write_errors, failsafe_tripped, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.Sequence, sum.File, sum.Start.UTC().Format(time.RFC3339Nano),
		sum.Duration.Microseconds(), sum.Samples, sum.Overruns,
		sum.WriteErrors, tripped, string(sum.Reason),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// Recent returns up to n sessions, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT sequence, file, started_at, duration_us, samples, overruns,
		       write_errors, failsafe_tripped, reason, recorded_at
		FROM sessions ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r          Record
			startedAt  string
			recordedAt string
			durUS      int64
			tripped    int
			reason     string
		)
		if err := rows.Scan(&r.Summary.Sequence, &r.Summary.File, &startedAt,
			&durUS, &r.Summary.Samples, &r.Summary.Overruns,
			&r.Summary.WriteErrors, &tripped, &reason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			r.Summary.Start = t
		}
		if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			r.RecordedAt = t
		}
		r.Summary.Duration = time.Duration(durUS) * time.Microsecond
		r.Summary.FailsafeTripped = tripped != 0
		r.Summary.Reason = session.CloseReason(reason)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded sessions.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
