// Package catalog loads the script index: a JSON file mapping category
// name to an ordered list of script descriptors. The index is read-only
// input; toolshed never rewrites it.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	logx "toolshed/pkg/logx"
)

const IndexFileName = "index.json"

// Descriptor identifies one operational script. Immutable once loaded.
type Descriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Params      []string `json:"params,omitempty"`

	// Category is filled in during load; it is not part of the index entry.
	Category string `json:"-"`
}

// Catalog is the loaded snapshot of the script index.
type Catalog struct {
	scriptsDir string
	categories []string
	byCategory map[string][]Descriptor
	byName     map[string]Descriptor
}

// Load reads <scriptsDir>/index.json. A missing index is a normal empty
// state (fresh install); a malformed index is an error because the file
// is hand-maintained input and silent truncation would hide scripts.
func Load(scriptsDir string, log logx.Logger) (*Catalog, error) {
	path := filepath.Join(scriptsDir, IndexFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("script index missing, starting empty", logx.String("path", path))
			return empty(scriptsDir), nil
		}
		return nil, err
	}

	var raw map[string][]Descriptor
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	c := empty(scriptsDir)
	for cat := range raw {
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)

	for _, cat := range c.categories {
		scripts := raw[cat]
		for i := range scripts {
			scripts[i].Category = cat
			name := scripts[i].Name
			if name == "" {
				return nil, fmt.Errorf("catalog: unnamed script in category %q", cat)
			}
			if prev, dup := c.byName[name]; dup {
				log.Warn("duplicate script name in index, keeping first",
					logx.String("script", name),
					logx.String("kept_category", prev.Category),
					logx.String("dropped_category", cat))
				continue
			}
			c.byName[name] = scripts[i]
		}
		c.byCategory[cat] = scripts
	}

	log.Debug("script index loaded",
		logx.String("path", path),
		logx.Int("categories", len(c.categories)),
		logx.Int("scripts", len(c.byName)))
	return c, nil
}

func empty(scriptsDir string) *Catalog {
	return &Catalog{
		scriptsDir: scriptsDir,
		byCategory: map[string][]Descriptor{},
		byName:     map[string]Descriptor{},
	}
}

// Categories returns the category names, sorted.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Scripts returns the descriptors of one category in index order.
func (c *Catalog) Scripts(category string) []Descriptor {
	return append([]Descriptor(nil), c.byCategory[category]...)
}

// Lookup finds a script by its unique name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Len reports the total number of scripts.
func (c *Catalog) Len() int { return len(c.byName) }

// AbsolutePath resolves a descriptor's relative path against the scripts
// directory. Host-scheduler actions must always receive this form: the
// scheduler gives no working-directory guarantee.
func (c *Catalog) AbsolutePath(d Descriptor) (string, error) {
	p := d.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.scriptsDir, p)
	}
	return filepath.Abs(p)
}
