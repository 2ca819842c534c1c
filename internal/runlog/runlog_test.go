package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolshed/internal/runner"
)

func TestFilename(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 26, 9, 15, 42, 0, time.Local)
	got := Filename("Backup Home", start, "4f9d2c1a-aaaa-bbbb-cccc-000000000000")
	want := "run_Backup_Home_20260826-091542_4f9d2c1a.log"
	if got != want {
		t.Fatalf("Filename() = %q, want %q", got, want)
	}
}

func TestWriteRendersAllSections(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	start := time.Date(2026, 8, 26, 9, 0, 0, 0, time.Local)
	res := runner.Result{
		RunID:    "11112222-3333-4444-5555-666677778888",
		Script:   "disk report",
		Command:  []string{"sh", "/scripts/disk report.sh"},
		Stdout:   "all good\n",
		Stderr:   "minor warning",
		ExitCode: 0,
		Outcome:  runner.OutcomeCompleted,
		Start:    start,
		End:      start.Add(1400 * time.Millisecond),
	}

	path, err := Write(dir, res)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("log written to %q, want inside %q", path, dir)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(b)
	for _, want := range []string{
		"Script:    disk report",
		"Run ID:    11112222-3333-4444-5555-666677778888",
		`Command:   sh '/scripts/disk report.sh'`,
		"Output:\nall good\n",
		"Errors:\nminor warning\n",
		"Outcome:   completed",
		"Exit code: 0",
		"Duration:  1.4s",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("log missing %q:\n%s", want, content)
		}
	}
}

func TestWriteRecordsFailureDetails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	start := time.Now()
	res := runner.Result{
		RunID:    "run-1",
		Script:   "slow",
		Command:  []string{"sh", "/scripts/slow.sh"},
		Stdout:   "partial",
		ExitCode: runner.ExitTimeout,
		Outcome:  runner.OutcomeTimeout,
		Err:      os.ErrDeadlineExceeded,
		Start:    start,
		End:      start.Add(time.Hour),
	}

	path, err := Write(dir, res)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	b, _ := os.ReadFile(path)
	content := string(b)
	for _, want := range []string{
		"Outcome:   timeout",
		"Error:     ",
		"Exit code: 124",
		"partial",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("log missing %q:\n%s", want, content)
		}
	}
}

func TestWriteFailsOnUnwritableDir(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	res := runner.Result{RunID: "x", Script: "x", Start: time.Now(), End: time.Now()}
	if _, err := Write(dir, res); err == nil {
		t.Fatalf("Write() succeeded in a read-only directory")
	}
}
