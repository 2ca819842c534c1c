package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	logx "toolshed/pkg/logx"
)

// Runner executes one script per call. It holds no per-run state, so a
// single Runner serves concurrent runs; overlapping runs of the same
// script are deliberately not serialized (each gets its own process,
// result and log entry).
type Runner struct {
	timeout      time.Duration
	interpreters map[ScriptKind][]string
	log          logx.Logger
}

// New builds a Runner. overrides (from config, keyed by ScriptKind
// string values) replace the per-OS default interpreter argv prefixes.
func New(timeout time.Duration, overrides map[string][]string, log logx.Logger) *Runner {
	interp := defaultInterpreters()
	for k, v := range overrides {
		if len(v) > 0 {
			interp[ScriptKind(strings.ToLower(k))] = append([]string(nil), v...)
		}
	}
	return &Runner{timeout: timeout, interpreters: interp, log: log}
}

// Run executes the script at scriptPath (absolute) and blocks until it
// finishes, times out, or ctx is cancelled. events, when non-nil,
// receives tagged output lines incrementally; sends never block, a slow
// consumer just misses display lines.
//
// Run never returns an error for the child failing: every ending is
// encoded in the Result so the caller can log it uniformly.
func (r *Runner) Run(ctx context.Context, scriptName, scriptPath string, events chan<- StreamEvent) Result {
	res := Result{
		RunID:  uuid.NewString(),
		Script: scriptName,
		Start:  time.Now(),
	}

	argv, err := r.Command(scriptPath)
	if err != nil {
		res.Outcome = OutcomeUnsupported
		res.ExitCode = ExitUnsupported
		res.Err = err
		res.End = time.Now()
		return res
	}
	res.Command = argv

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	// A script can hand its pipes to a long-lived grandchild; WaitDelay
	// keeps Wait from blocking on those after the script itself is gone.
	cmd.WaitDelay = 5 * time.Second

	// The two streams are captured independently and completely; they
	// are never interleaved into one buffer.
	var dropped atomic.Int64
	outW := &lineWriter{src: SourceStdout, events: events, dropped: &dropped}
	errW := &lineWriter{src: SourceStderr, events: events, dropped: &dropped}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		return r.launchFailure(res, err)
	}

	r.log.Debug("script started",
		logx.String("run_id", res.RunID),
		logx.String("script", scriptName),
		logx.String("interpreter", argv[0]))

	waitErr := cmd.Wait()

	res.Stdout = outW.buf.String()
	res.Stderr = errW.buf.String()
	res.End = time.Now()
	if n := dropped.Load(); n > 0 {
		r.log.Debug("stream consumer lagged, display lines skipped",
			logx.String("run_id", res.RunID), logx.Int64("lines", n))
	}

	switch {
	case ctx.Err() != nil:
		// Cancelled by the operator (interactive runs only). The
		// partial capture is preserved; the log entry says so.
		res.Outcome = OutcomeCancelled
		res.ExitCode = ExitCancelled
		res.Err = ctx.Err()
	case runCtx.Err() != nil:
		res.Outcome = OutcomeTimeout
		res.ExitCode = ExitTimeout
		res.Err = runCtx.Err()
	default:
		res.Outcome = OutcomeCompleted
		res.ExitCode = exitCode(waitErr)
		res.Err = nil
	}

	r.log.Info("script finished",
		logx.String("run_id", res.RunID),
		logx.String("script", scriptName),
		logx.String("outcome", string(res.Outcome)),
		logx.Int("exit_code", res.ExitCode),
		logx.Duration("took", res.End.Sub(res.Start)))
	return res
}

func (r *Runner) launchFailure(res Result, err error) Result {
	res.Outcome = OutcomeLaunchFailure
	res.ExitCode = ExitLaunchFailure
	res.Err = err
	res.End = time.Now()
	r.log.Error("script launch failed",
		logx.String("run_id", res.RunID),
		logx.String("script", res.Script),
		logx.Err(err))
	return res
}

// lineWriter accumulates one stream's full capture and mirrors complete
// lines to the event channel without ever blocking on the consumer.
// exec serializes writes per stream, so no locking is needed.
type lineWriter struct {
	buf     strings.Builder
	rem     []byte // trailing partial line, not yet emitted
	src     StreamSource
	events  chan<- StreamEvent
	dropped *atomic.Int64
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	if w.events == nil {
		return len(p), nil
	}
	w.rem = append(w.rem, p...)
	for {
		i := bytes.IndexByte(w.rem, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(w.rem[:i])
		w.rem = w.rem[i+1:]
		select {
		case w.events <- StreamEvent{Source: w.src, Line: line}:
		default:
			w.dropped.Add(1)
		}
	}
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if ec := exitErr.ExitCode(); ec >= 0 {
			return ec
		}
		return 1 // killed by a signal we did not send
	}
	return 1
}
