package runner

import "time"

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeCompleted: the child ran to completion; ExitCode is the
	// child's own (zero or not).
	OutcomeCompleted Outcome = "completed"
	// OutcomeTimeout: the ceiling elapsed and the child was killed.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCancelled: the operator cancelled an interactive run.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeLaunchFailure: the child never started (interpreter
	// missing, permission denied, ...).
	OutcomeLaunchFailure Outcome = "launch-failure"
	// OutcomeUnsupported: the extension maps to no interpreter.
	OutcomeUnsupported Outcome = "unsupported-script-type"
)

// Reserved process exit codes, distinct from anything a well-behaved
// child returns, so the host scheduler's run history stays readable.
// They follow the coreutils/shell conventions (timeout(1) exits 124,
// "cannot execute" is 126, "not found" is 127, SIGINT is 130).
const (
	ExitTimeout       = 124
	ExitLaunchFailure = 126
	ExitUnsupported   = 127
	ExitCancelled     = 130
)

// ExitCodeFor maps a non-completed outcome to its reserved exit code.
func ExitCodeFor(o Outcome) int {
	switch o {
	case OutcomeTimeout:
		return ExitTimeout
	case OutcomeLaunchFailure:
		return ExitLaunchFailure
	case OutcomeUnsupported:
		return ExitUnsupported
	case OutcomeCancelled:
		return ExitCancelled
	default:
		return 0
	}
}

// Result is everything one invocation produced. Stdout and stderr are
// captured independently and completely; on timeout or cancellation
// they hold whatever had been read so far.
type Result struct {
	RunID    string
	Script   string
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Outcome  Outcome
	Err      error
	Start    time.Time
	End      time.Time
}

// Failed reports whether the host scheduler should see this as failure.
func (r Result) Failed() bool {
	return r.Outcome != OutcomeCompleted || r.ExitCode != 0
}

// StreamSource tags a streamed line with the pipe it came from.
type StreamSource string

const (
	SourceStdout StreamSource = "stdout"
	SourceStderr StreamSource = "stderr"
)

// StreamEvent is one line of child output, delivered incrementally to
// an interactive observer. Streaming is best-effort presentation sugar:
// the full capture in Result is authoritative, and a slow observer only
// loses display lines, never captured ones.
type StreamEvent struct {
	Source StreamSource
	Line   string
}
