package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	logx "toolshed/pkg/logx"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		kind ScriptKind
		err  bool
	}{
		{"backup.ps1", KindPowerShell, false},
		{"Report.PS1", KindPowerShell, false},
		{"tool.py", KindPython, false},
		{"legacy.bat", KindBatch, false},
		{"legacy.cmd", KindBatch, false},
		{"clean.sh", KindShell, false},
		{"readme.md", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		kind, err := Classify(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedScriptType) {
				t.Fatalf("Classify(%q) = %v, want ErrUnsupportedScriptType", tt.path, err)
			}
			continue
		}
		if err != nil || kind != tt.kind {
			t.Fatalf("Classify(%q) = %v, %v, want %v", tt.path, kind, err, tt.kind)
		}
	}
}

func TestCommandAppendsScriptPath(t *testing.T) {
	t.Parallel()
	r := New(time.Minute, map[string][]string{"python": {"/opt/py/bin/python3", "-u"}}, logx.Nop())
	argv, err := r.Command("/scripts/tool.py")
	if err != nil {
		t.Fatalf("Command() error: %v", err)
	}
	want := []string{"/opt/py/bin/python3", "-u", "/scripts/tool.py"}
	if len(argv) != len(want) {
		t.Fatalf("Command() = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("Command()[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tests need sh")
	}
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestRunCapturesBothStreams(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "echo out-line\necho err-line >&2\n")
	r := New(time.Minute, nil, logx.Nop())

	events := make(chan StreamEvent, 16)
	res := r.Run(context.Background(), "demo", path, events)
	close(events)

	if res.Outcome != OutcomeCompleted || res.ExitCode != 0 {
		t.Fatalf("res = %+v, want clean completion", res)
	}
	if res.Stdout != "out-line\n" {
		t.Fatalf("Stdout = %q", res.Stdout)
	}
	if res.Stderr != "err-line\n" {
		t.Fatalf("Stderr = %q", res.Stderr)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}

	seen := map[StreamSource]string{}
	for ev := range events {
		seen[ev.Source] = ev.Line
	}
	if seen[SourceStdout] != "out-line" || seen[SourceStderr] != "err-line" {
		t.Fatalf("streamed events = %v", seen)
	}
}

func TestRunPropagatesChildExitCode(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "exit 3\n")
	r := New(time.Minute, nil, logx.Nop())

	res := r.Run(context.Background(), "demo", path, nil)
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("Outcome = %s, want completed", res.Outcome)
	}
	if res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !res.Failed() {
		t.Fatalf("Failed() = false for exit code 3")
	}
}

func TestRunTimeoutKillsChild(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "echo before\nsleep 30\necho after\n")
	r := New(300*time.Millisecond, nil, logx.Nop())

	start := time.Now()
	res := r.Run(context.Background(), "slow", path, nil)
	if took := time.Since(start); took > 10*time.Second {
		t.Fatalf("run blocked for %v after timeout", took)
	}
	if res.Outcome != OutcomeTimeout || res.ExitCode != ExitTimeout {
		t.Fatalf("res = %+v, want timeout with exit %d", res, ExitTimeout)
	}
	if res.Stdout != "before\n" {
		t.Fatalf("partial capture = %q, want output up to the kill", res.Stdout)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "sleep 30\n")
	r := New(time.Minute, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	res := r.Run(ctx, "slow", path, nil)
	if res.Outcome != OutcomeCancelled || res.ExitCode != ExitCancelled {
		t.Fatalf("res = %+v, want cancellation with exit %d", res, ExitCancelled)
	}
}

func TestRunUnsupportedExtension(t *testing.T) {
	t.Parallel()
	r := New(time.Minute, nil, logx.Nop())
	res := r.Run(context.Background(), "doc", "/tmp/readme.md", nil)
	if res.Outcome != OutcomeUnsupported || res.ExitCode != ExitUnsupported {
		t.Fatalf("res = %+v, want unsupported-script-type with exit %d", res, ExitUnsupported)
	}
	if !errors.Is(res.Err, ErrUnsupportedScriptType) {
		t.Fatalf("Err = %v, want ErrUnsupportedScriptType", res.Err)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	t.Parallel()
	r := New(time.Minute, map[string][]string{"shell": {"/nonexistent/interpreter"}}, logx.Nop())
	path := writeScript(t, "echo never\n")
	res := r.Run(context.Background(), "demo", path, nil)
	if res.Outcome != OutcomeLaunchFailure || res.ExitCode != ExitLaunchFailure {
		t.Fatalf("res = %+v, want launch failure with exit %d", res, ExitLaunchFailure)
	}
	if res.Err == nil {
		t.Fatalf("launch failure carries no error")
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		outcome Outcome
		want    int
	}{
		{OutcomeTimeout, ExitTimeout},
		{OutcomeLaunchFailure, ExitLaunchFailure},
		{OutcomeUnsupported, ExitUnsupported},
		{OutcomeCancelled, ExitCancelled},
		{OutcomeCompleted, 0},
	}
	for _, tt := range tests {
		if got := ExitCodeFor(tt.outcome); got != tt.want {
			t.Fatalf("ExitCodeFor(%s) = %d, want %d", tt.outcome, got, tt.want)
		}
	}
}
