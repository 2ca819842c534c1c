// Package docs locates the bundled Markdown documentation shipped
// alongside the script catalog.
package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolshed/internal/schedule"
)

// ErrNoDoc means no documentation file exists for the script. Normal
// state for undocumented scripts, not a failure.
var ErrNoDoc = errors.New("no documentation for script")

// Find tries the candidate file names for a script, in order, and
// returns the first that exists.
func Find(docsDir, scriptName string) (string, error) {
	candidates := []string{
		schedule.SafeName(scriptName) + ".md",
		scriptName + ".md",
		strings.ToLower(schedule.SafeName(scriptName)) + ".md",
	}
	seen := map[string]bool{}
	for _, name := range candidates {
		if seen[name] {
			continue
		}
		seen[name] = true
		path := filepath.Join(docsDir, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDoc, scriptName)
}

// Read returns the Markdown content for a script.
func Read(docsDir, scriptName string) (string, error) {
	path, err := Find(docsDir, scriptName)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
