package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config is the process-wide configuration. It is loaded once at startup
// and passed explicitly to every component that needs it; nothing reads
// it through a global.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Paths   PathsConfig   `json:"paths"`
	Run     RunConfig     `json:"run"`
	History HistoryConfig `json:"history,omitempty"`
	Notify  NotifyConfig  `json:"notify,omitempty"`

	// baseDir is the directory relative paths resolve against
	// (the directory the config file was found in, or the cwd).
	baseDir string
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console *bool         `json:"console,omitempty"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// PathsConfig locates the script catalog, the per-script Markdown docs,
// the execution log directory and the schedule record directory.
//
// Relative paths resolve against the directory the config file lives in,
// so a packaged install can ship everything next to the executable.
type PathsConfig struct {
	ScriptsDir   string `json:"scripts_dir,omitempty"`
	DocsDir      string `json:"docs_dir,omitempty"`
	LogsDir      string `json:"logs_dir,omitempty"`
	SchedulesDir string `json:"schedules_dir,omitempty"`
}

// RunConfig controls script execution.
//
// Timeout is a Go duration string (e.g. "45m", "2h"). It is a hard
// ceiling applied to every run, interactive or scheduled, so a hung
// child can never hold a host-scheduler slot forever.
type RunConfig struct {
	Timeout string `json:"timeout,omitempty"`

	// Interpreters overrides the command used per script kind.
	// Keys: "powershell", "python", "batch", "shell".
	// Values are argv prefixes, e.g. ["pwsh", "-NoProfile", "-File"].
	Interpreters map[string][]string `json:"interpreters,omitempty"`
}

// HistoryConfig controls the run-history store.
//
// Driver values:
//   - "file": append-only JSON Lines file
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", history is disabled.
type HistoryConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

// NotifyConfig enables Telegram alerts for failed scheduled runs.
// Interactive runs never notify; the operator is already watching.
type NotifyConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

const defaultRunTimeout = time.Hour

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Paths.ScriptsDir == "" {
		c.Paths.ScriptsDir = "scripts"
	}
	if c.Paths.DocsDir == "" {
		c.Paths.DocsDir = "docs"
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = "logs"
	}
	if c.Paths.SchedulesDir == "" {
		c.Paths.SchedulesDir = "schedules"
	}
}

func (c *Config) validate() error {
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	driver := strings.ToLower(strings.TrimSpace(c.History.Driver))
	switch driver {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("history.driver: unknown driver %q", c.History.Driver)
	}
	if c.Notify.Enabled {
		if strings.TrimSpace(c.Notify.Token) == "" {
			return fmt.Errorf("notify.token is required when notify.enabled")
		}
		if c.Notify.ChatID == 0 {
			return fmt.Errorf("notify.chat_id is required when notify.enabled")
		}
	}
	return nil
}

// RunTimeout returns the execution ceiling, defaulting to one hour.
func (c *Config) RunTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("run.timeout", c.Run.Timeout, defaultRunTimeout)
}

// ConsoleLogging reports whether console output is wanted (default true).
func (c *Config) ConsoleLogging() bool {
	if c.Logging.Console == nil {
		return true
	}
	return *c.Logging.Console
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// ScriptsDir returns the scripts directory, resolved against the config dir.
func (c *Config) ScriptsDir() string { return c.resolve(c.Paths.ScriptsDir) }

// DocsDir returns the per-script documentation directory.
func (c *Config) DocsDir() string { return c.resolve(c.Paths.DocsDir) }

// LogsDir returns the execution log directory.
func (c *Config) LogsDir() string { return c.resolve(c.Paths.LogsDir) }

// SchedulesDir returns the schedule record directory.
func (c *Config) SchedulesDir() string { return c.resolve(c.Paths.SchedulesDir) }

// LogFilePath returns the structured log sink path.
func (c *Config) LogFilePath() string { return c.resolve(c.Logging.File.Path) }

// HistoryPath returns the run-history store path, resolved like the rest.
func (c *Config) HistoryPath() string { return c.resolve(c.History.Path) }
