// Package journal owns the append-only output file for one test session. A
// session file is named tms_<n>.txt with the first free n, is never
// overwritten, and holds newline-separated integers, two per sample (load
// value then pressure value), with a literal marker line in place of a sample
// pair when a tick overran its interval.
package journal

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/hollis/tms-stand/internal/diag"
	"github.com/hollis/tms-stand/internal/fsutil"
)

// OverrunMarker is written in place of a sample pair for an overrun tick.
const OverrunMarker = "over"

// ErrNoFreeFilename is returned when every candidate name up to the scan
// bound already exists.
var ErrNoFreeFilename = fmt.Errorf("journal: no free session filename")

// Sample is one acquisition: the raw load cell reading and the raw pressure
// reading, persisted immediately and not retained.
type Sample struct {
	Load     int16
	Pressure int32
}

// Journal is the open session file. Exactly one is open during an active
// session; Close must run on every exit path.
type Journal struct {
	w    io.WriteCloser
	bw   *bufio.Writer
	name string
	seq  int

	writeErrs int
	closed    bool
}

// Filename returns the session file name for sequence number n.
func Filename(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("tms_%d.txt", n))
}

// OpenNew scans tms_1.txt, tms_2.txt, … under dir and opens the first name
// that does not already exist, for append. The scan is bounded by maxSessions;
// exhausting it returns ErrNoFreeFilename instead of looping forever.
func OpenNew(fs fsutil.FileSystem, dir string, maxSessions int) (*Journal, error) {
	for n := 1; n <= maxSessions; n++ {
		name := Filename(dir, n)
		if fs.Exists(name) {
			continue
		}
		w, err := fs.OpenAppend(name)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return &Journal{
			w:    w,
			bw:   bufio.NewWriter(w),
			name: name,
			seq:  n,
		}, nil
	}
	return nil, fmt.Errorf("%w (scanned 1..%d in %s)", ErrNoFreeFilename, maxSessions, dir)
}

// Name returns the session file path.
func (j *Journal) Name() string { return j.name }

// Seq returns the session sequence number encoded in the filename.
func (j *Journal) Seq() int { return j.seq }

// AppendSample writes the sample as the next two records, load then pressure.
// A write failure never aborts the session: it is counted, logged on first
// occurrence, and reported in the session summary.
func (j *Journal) AppendSample(s Sample) {
	j.writeLine(strconv.FormatInt(int64(s.Load), 10))
	j.writeLine(strconv.FormatInt(int64(s.Pressure), 10))
}

// AppendValue writes a single record, used by single-channel sessions.
func (j *Journal) AppendValue(v int32) {
	j.writeLine(strconv.FormatInt(int64(v), 10))
}

// AppendOverrun writes the overrun marker in place of a sample pair.
func (j *Journal) AppendOverrun() {
	j.writeLine(OverrunMarker)
}

func (j *Journal) writeLine(line string) {
	if _, err := j.bw.WriteString(line + "\n"); err != nil {
		if j.writeErrs == 0 {
			diag.Logf("journal %s: write failed: %v", j.name, err)
		}
		j.writeErrs++
	}
}

// WriteErrors returns the number of failed record writes this session.
func (j *Journal) WriteErrors() int { return j.writeErrs }

// Close flushes and releases the handle. Safe to call more than once; only
// the first call has effect.
func (j *Journal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true

	var errs []error
	if err := j.bw.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := j.w.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close %s: %v", j.name, errs)
	}
	return nil
}

// SelfTest exercises the storage path at boot: open a new session file and
// close it immediately. The empty file consumes one sequence number; its
// success feeds the startup health value.
func SelfTest(fs fsutil.FileSystem, dir string, maxSessions int) error {
	j, err := OpenNew(fs, dir, maxSessions)
	if err != nil {
		return fmt.Errorf("storage self-test: %w", err)
	}
	if err := j.Close(); err != nil {
		return fmt.Errorf("storage self-test: %w", err)
	}
	return nil
}
