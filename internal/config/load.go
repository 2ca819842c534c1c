package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Find when no candidate path exists.
// Callers treat it as "run with defaults", not as a fatal condition.
var ErrNotFound = errors.New("config: no config file found")

// Candidates returns the ordered list of locations tried when no explicit
// path is given:
//
//  1. $TOOLSHED_CONFIG
//  2. config.yaml next to the executable (packaged installs)
//  3. ./config/config.yaml
//  4. ./config.yaml
//
// The list is a plain value so tests can inject temporary directories.
func Candidates() []string {
	var out []string
	if env := os.Getenv("TOOLSHED_CONFIG"); env != "" {
		out = append(out, env)
	}
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "config.yaml"))
	}
	out = append(out,
		filepath.Join("config", "config.yaml"),
		"config.yaml",
	)
	return out
}

// Find returns the first existing path from candidates.
func Find(candidates []string) (string, error) {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Load reads, strictly decodes and validates the config file at path.
// YAML and JSON are both accepted; unknown fields are rejected so typos
// fail loudly instead of silently falling back to defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.baseDir = abs
	return cfg, nil
}

// Discover finds a config file among candidates and loads it.
// With no file present it returns a default config rooted at the cwd.
func Discover(candidates []string) (*Config, error) {
	path, err := Find(candidates)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		cfg := &Config{}
		cfg.applyDefaults()
		if cfg.baseDir, err = os.Getwd(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

func parse(path string, b []byte) (*Config, error) {
	jb, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDirs creates the directories the application writes to.
// The scripts and docs dirs are read-only inputs and are left alone.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.LogsDir(), c.SchedulesDir()} {
		if err := os.MkdirAll(dir, fs.FileMode(0o755)); err != nil {
			return err
		}
	}
	return nil
}
