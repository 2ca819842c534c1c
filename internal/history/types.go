package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the run-history store.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Origin says what started a run.
type Origin string

const (
	OriginManual    Origin = "manual"
	OriginScheduled Origin = "scheduled"
)

// Entry records one script run. Keep it compact and schema-stable: the
// authoritative capture lives in the per-run log file, this is the
// queryable summary.
type Entry struct {
	RunID    string    `json:"run_id"`
	Script   string    `json:"script"`
	Origin   Origin    `json:"origin"`
	Outcome  string    `json:"outcome"`
	ExitCode int       `json:"exit_code"`
	Started  time.Time `json:"started"`
	Ended    time.Time `json:"ended"`
	LogPath  string    `json:"log_path,omitempty"`
}
