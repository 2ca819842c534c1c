// Package runner executes catalog scripts as child processes: resolve
// the interpreter from the file extension, run with captured output
// under a hard timeout, and report a structured result. It is the only
// code path the host scheduler ever invokes, so it depends on nothing
// but configuration and the filesystem.
package runner

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// ScriptKind is the closed set of script types toolshed can launch.
// Unrecognized extensions are a distinct error, never a fallthrough to
// "just execute it".
type ScriptKind string

const (
	KindPowerShell ScriptKind = "powershell"
	KindPython     ScriptKind = "python"
	KindBatch      ScriptKind = "batch"
	KindShell      ScriptKind = "shell"
)

// ErrUnsupportedScriptType marks a script whose extension maps to no
// known interpreter.
var ErrUnsupportedScriptType = errors.New("unsupported script type")

// Classify maps a script path to its interpreter family.
func Classify(path string) (ScriptKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ps1":
		return KindPowerShell, nil
	case ".py":
		return KindPython, nil
	case ".bat", ".cmd":
		return KindBatch, nil
	case ".sh":
		return KindShell, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScriptType, filepath.Ext(path))
	}
}

// defaultInterpreters returns the per-OS argv prefix for each kind.
// Config may override any entry (keys match ScriptKind values).
func defaultInterpreters() map[ScriptKind][]string {
	if runtime.GOOS == "windows" {
		return map[ScriptKind][]string{
			KindPowerShell: {"powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-File"},
			KindPython:     {"python"},
			KindBatch:      {"cmd", "/c"},
			KindShell:      {"sh"},
		}
	}
	return map[ScriptKind][]string{
		KindPowerShell: {"pwsh", "-NoProfile", "-File"},
		KindPython:     {"python3"},
		KindBatch:      {"cmd", "/c"},
		KindShell:      {"sh"},
	}
}

// Command builds the full argv for a script: interpreter prefix plus
// the script's absolute path.
func (r *Runner) Command(scriptPath string) ([]string, error) {
	kind, err := Classify(scriptPath)
	if err != nil {
		return nil, err
	}
	prefix, ok := r.interpreters[kind]
	if !ok || len(prefix) == 0 {
		return nil, fmt.Errorf("%w: no interpreter configured for %s", ErrUnsupportedScriptType, kind)
	}
	argv := append(append([]string(nil), prefix...), scriptPath)
	return argv, nil
}
