package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "toolshed/pkg/logx"
)

func openTestStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func entryAt(i int, script string) Entry {
	start := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return Entry{
		RunID:    fmt.Sprintf("run-%d", i),
		Script:   script,
		Origin:   OriginManual,
		Outcome:  "completed",
		ExitCode: 0,
		Started:  start,
		Ended:    start.Add(10 * time.Second),
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		s, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || s != nil {
			t.Fatalf("Open(%q) = %v, %v, want nil store and nil error", driver, s, err)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, entryAt(i, "backup")); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	got, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() = %d entries, want 3", len(got))
	}
	// most recent first
	if got[0].RunID != "run-2" || got[2].RunID != "run-0" {
		t.Fatalf("Recent() order = %s..%s, want newest first", got[0].RunID, got[2].RunID)
	}
}

func TestFileStoreLimitAndFilter(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		script := "backup"
		if i%2 == 1 {
			script = "report"
		}
		if err := s.Append(ctx, entryAt(i, script)); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	got, err := s.Recent(ctx, "backup", 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(limit=2) = %d entries", len(got))
	}
	for _, e := range got {
		if e.Script != "backup" {
			t.Fatalf("filter leaked entry %+v", e)
		}
	}
	if got[0].RunID != "run-4" {
		t.Fatalf("Recent()[0] = %s, want run-4", got[0].RunID)
	}
}

func TestFileStoreSkipsCorruptLine(t *testing.T) {
	t.Parallel()
	s, path := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, entryAt(0, "backup")); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	// Simulate a crash mid-append.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("opening history file: %v", err)
	}
	if _, err := f.WriteString("{\"run_id\": \"trunc\n"); err != nil {
		t.Fatalf("writing corrupt line: %v", err)
	}
	_ = f.Close()
	if err := s.Append(ctx, entryAt(1, "backup")); err != nil {
		t.Fatalf("Append() after corruption: %v", err)
	}

	got, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "run-1" || got[1].RunID != "run-0" {
		t.Fatalf("Recent() = %+v, want the two valid entries", got)
	}
}

func TestFileStoreAppendAfterClose(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := s.Append(context.Background(), entryAt(0, "x")); err == nil {
		t.Fatalf("Append() succeeded on a closed store")
	}
}
