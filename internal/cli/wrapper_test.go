package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// A scheduled firing must survive a corrupt script index: the wrapper
// already knows the script path and only loses the display name.
func TestWrapperRunsDespiteCorruptIndex(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}

	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(scripts, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	script := filepath.Join(scripts, "hello.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho greetings\n"), 0o755); err != nil {
		t.Fatalf("WriteFile script: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scripts, "index.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile index: %v", err)
	}
	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("logging:\n  console: false\n"), 0o644); err != nil {
		t.Fatalf("WriteFile config: %v", err)
	}

	root := NewRootCmd()
	root.SetArgs([]string{"--config", cfgFile, "wrapper", script})
	t.Cleanup(func() { cfgPath = "" })
	if err := root.Execute(); err != nil {
		t.Fatalf("wrapper failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	if err != nil {
		t.Fatalf("ReadDir logs: %v", err)
	}
	var logName string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "run_hello_") {
			logName = e.Name()
		}
	}
	if logName == "" {
		t.Fatalf("no execution log written, logs dir holds %v", entries)
	}
	b, err := os.ReadFile(filepath.Join(dir, "logs", logName))
	if err != nil {
		t.Fatalf("ReadFile log: %v", err)
	}
	if !strings.Contains(string(b), "greetings") {
		t.Fatalf("execution log missing script output:\n%s", b)
	}
}
