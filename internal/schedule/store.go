package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logx "toolshed/pkg/logx"
)

// Store persists one JSON record per scheduled script.
//
// Writes go through a temp file followed by rename, so a concurrent
// reader (another toolshed process, or the wrapper) never observes a
// half-written record. The store never reads host-scheduler state back.
type Store struct {
	dir string
	log logx.Logger
}

func NewStore(dir string, log logx.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Load returns the record for scriptName, or ok=false when none exists.
// A malformed record is treated as absent (with a warning): the caller
// must see "no schedule configured", never a fatal error.
func (s *Store) Load(scriptName string) (Record, bool) {
	path := s.recordPath(scriptName)
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("schedule record unreadable, treating as absent",
				logx.String("script", scriptName), logx.Err(err))
		}
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		s.log.Warn("schedule record malformed, treating as absent",
			logx.String("script", scriptName), logx.String("path", path), logx.Err(err))
		return Record{}, false
	}
	if err := rec.Validate(); err != nil {
		s.log.Warn("schedule record invalid, treating as absent",
			logx.String("script", scriptName), logx.Err(err))
		return Record{}, false
	}
	return rec, true
}

// Save atomically overwrites the on-disk record for rec.Script.
func (s *Store) Save(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	path := s.recordPath(rec.Script)
	tmp, err := os.CreateTemp(s.dir, ".record-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	s.log.Debug("schedule record saved",
		logx.String("script", rec.Script), logx.Int("triggers", len(rec.Triggers)))
	return nil
}

// Delete removes the persisted record. Deleting a record that does not
// exist is a no-op, not an error.
func (s *Store) Delete(scriptName string) error {
	err := os.Remove(s.recordPath(scriptName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns every valid record, sorted by script name. Malformed
// files are skipped with a warning, same as Load.
func (s *Store) List() []Record {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil || rec.Validate() != nil {
			s.log.Warn("skipping malformed schedule record", logx.String("file", e.Name()))
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Script < out[j].Script })
	return out
}

func (s *Store) recordPath(scriptName string) string {
	return filepath.Join(s.dir, SafeName(scriptName)+".json")
}

// SafeName maps a script name to a filesystem- and scheduler-safe token.
// The same mapping feeds host task names, so it must stay deterministic.
func SafeName(name string) string {
	repl := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	return repl.Replace(strings.TrimSpace(name))
}
