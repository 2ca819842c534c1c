// Package runlog writes the per-invocation execution log: one plain
// text file per run, append-only by construction (a file is written
// once and never touched again). Retention is left to the operator.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"toolshed/internal/runner"
	"toolshed/internal/schedule"
)

const timeLayout = "2006-01-02 15:04:05"

// Filename derives the log file name from script identity and start
// timestamp. The timestamp component keeps names chronologically
// sortable; the run-id suffix disambiguates same-second overlapping
// runs of one script.
func Filename(script string, start time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("run_%s_%s_%s.log",
		schedule.SafeName(script), start.Format("20060102-150405"), short)
}

// Write renders res into the logs directory and returns the file path.
// A write failure here is the one fatal condition of an invocation: it
// removes the only audit trail, so callers must treat the error as
// run-ending (while still exiting with a failure code).
func Write(dir string, res runner.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, Filename(res.Script, res.Start, res.RunID))

	var b strings.Builder
	sep := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "%s\n", sep)
	fmt.Fprintf(&b, "Script:    %s\n", res.Script)
	fmt.Fprintf(&b, "Run ID:    %s\n", res.RunID)
	fmt.Fprintf(&b, "Command:   %s\n", shellquote.Join(res.Command...))
	fmt.Fprintf(&b, "Started:   %s\n", res.Start.Format(timeLayout))
	fmt.Fprintf(&b, "%s\n\n", sep)

	b.WriteString("Output:\n")
	if res.Stdout != "" {
		b.WriteString(res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nErrors:\n")
	if res.Stderr != "" {
		b.WriteString(res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\n%s\n", sep)
	fmt.Fprintf(&b, "Outcome:   %s\n", res.Outcome)
	if res.Err != nil {
		fmt.Fprintf(&b, "Error:     %v\n", res.Err)
	}
	fmt.Fprintf(&b, "Exit code: %d\n", res.ExitCode)
	fmt.Fprintf(&b, "Ended:     %s\n", res.End.Format(timeLayout))
	fmt.Fprintf(&b, "Duration:  %s\n", res.End.Sub(res.Start).Round(time.Millisecond))

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
