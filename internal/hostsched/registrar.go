package hostsched

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"

	"toolshed/internal/schedule"
	logx "toolshed/pkg/logx"
)

// Registrar reconciles a schedule record against the host scheduler:
// create what is missing, overwrite what changed, remove what is stale.
//
// To keep a no-op synchronize free of host mutations, the registrar
// remembers a fingerprint per registered task in a sidecar file. The
// sidecar is a cache, not a source of truth: losing it merely causes a
// harmless re-registration (Register overwrites by name).
type Registrar struct {
	backend  Backend
	stateDir string
	wrapper  string // absolute path of the wrapper executable
	log      logx.Logger
}

func NewRegistrar(backend Backend, stateDir, wrapperExe string, log logx.Logger) *Registrar {
	return &Registrar{backend: backend, stateDir: stateDir, wrapper: wrapperExe, log: log}
}

// Synchronize brings the host scheduler in line with rec. scriptPath is
// the script's absolute path, baked into every task action.
//
// Partial failure is the norm, not the exception: each task is
// attempted independently and the caller gets one Result per task,
// never a collapsed pass/fail.
func (r *Registrar) Synchronize(ctx context.Context, rec schedule.Record, scriptPath string) []Result {
	target := r.targetTasks(rec, scriptPath)

	prefix := ScriptPrefix(rec.Script)
	existing, err := r.backend.List(ctx, prefix)
	if err != nil {
		// Without a listing we cannot find stale tasks, but
		// registrations (idempotent overwrites) can still proceed.
		r.log.Warn("host task listing failed, skipping stale-task removal",
			logx.String("script", rec.Script), logx.Err(err))
		existing = nil
	}
	existingSet := map[string]bool{}
	for _, name := range existing {
		existingSet[name] = true
	}

	prints := r.loadFingerprints(rec.Script)
	next := map[string]uint64{}

	var results []Result
	for _, t := range target {
		fp := taskFingerprint(t.task)
		if existingSet[t.task.Name] && prints[t.task.Name] == fp {
			next[t.task.Name] = fp
			results = append(results, Result{TriggerIndex: t.index, TaskName: t.task.Name, Op: OpUnchanged})
			continue
		}
		if err := r.backend.Register(ctx, t.task); err != nil {
			results = append(results, Result{TriggerIndex: t.index, TaskName: t.task.Name, Op: OpRegistered, Err: err})
			continue
		}
		next[t.task.Name] = fp
		results = append(results, Result{TriggerIndex: t.index, TaskName: t.task.Name, Op: OpRegistered})
	}

	// Stale tasks: present on the host under this script's namespace but
	// absent from the target set.
	targetNames := map[string]bool{}
	for _, t := range target {
		targetNames[t.task.Name] = true
	}
	stale := make([]string, 0)
	for name := range existingSet {
		if !targetNames[name] {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	for _, name := range stale {
		if err := r.backend.Remove(ctx, name); err != nil {
			results = append(results, Result{TriggerIndex: -1, TaskName: name, Op: OpRemoved, Err: err})
			continue
		}
		results = append(results, Result{TriggerIndex: -1, TaskName: name, Op: OpRemoved})
	}

	r.saveFingerprints(rec.Script, next)
	return results
}

// UnregisterAll removes every host task under the script's namespace.
func (r *Registrar) UnregisterAll(ctx context.Context, script string) error {
	names, err := r.backend.List(ctx, ScriptPrefix(script))
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if err := r.backend.Remove(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	_ = os.Remove(r.fingerprintPath(script))
	return errors.Join(errs...)
}

type indexedTask struct {
	index int
	task  Task
}

// targetTasks expands the record into one task per enabled trigger.
// Ordinals count per kind, so names stay stable when an unrelated
// trigger of a different kind is inserted before them.
func (r *Registrar) targetTasks(rec schedule.Record, scriptPath string) []indexedTask {
	kindCount := map[schedule.TriggerKind]int{}
	var out []indexedTask
	for i, t := range rec.Triggers {
		if !t.Enabled {
			continue
		}
		ordinal := kindCount[t.Kind]
		kindCount[t.Kind]++
		out = append(out, indexedTask{
			index: i,
			task: Task{
				Name:       TaskName(rec.Script, t.Kind, ordinal),
				Trigger:    t,
				Command:    []string{r.wrapper, "wrapper", scriptPath},
				WorkingDir: filepath.Dir(scriptPath),
			},
		})
	}
	return out
}

func taskFingerprint(t Task) uint64 {
	b, err := json.Marshal(t)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// fingerprintPath names the sidecar holding the fingerprints of a
// script's registered tasks. The extension is deliberately not .json:
// the state dir is shared with the schedule record store, which scans
// for *.json and must not pick the sidecar up.
func (r *Registrar) fingerprintPath(script string) string {
	return filepath.Join(r.stateDir, schedule.SafeName(script)+".tasks")
}

func (r *Registrar) loadFingerprints(script string) map[string]uint64 {
	b, err := os.ReadFile(r.fingerprintPath(script))
	if err != nil {
		return map[string]uint64{}
	}
	var m map[string]uint64
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]uint64{}
	}
	return m
}

func (r *Registrar) saveFingerprints(script string, m map[string]uint64) {
	if err := os.MkdirAll(r.stateDir, 0o755); err != nil {
		r.log.Warn("fingerprint dir create failed", logx.Err(err))
		return
	}
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	path := r.fingerprintPath(script)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		r.log.Warn("fingerprint write failed", logx.Err(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		r.log.Warn("fingerprint rename failed", logx.Err(err))
	}
}
