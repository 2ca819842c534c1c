// Package hostsched mirrors schedule records into the operating
// system's native task scheduler. It only ever pushes record state to
// the host, never reads trigger definitions back; if an operator
// deletes a host task by hand, the next synchronize recreates it.
package hostsched

import (
	"context"
	"fmt"

	"toolshed/internal/schedule"
)

// Namespace is the fixed application prefix shared by every task
// toolshed registers. Foreign tasks never carry it and are never
// touched.
const Namespace = "ToolShed"

// Task is one host-scheduler-visible projection of a trigger.
type Task struct {
	// Name is the deterministic, namespaced task name.
	Name string

	// Trigger carries the scheduler-native timing settings.
	Trigger schedule.TriggerSpec

	// Command is the full action argv: the wrapper executable, the
	// "wrapper" verb and the script's absolute path. Never relative:
	// the host scheduler guarantees no working directory.
	Command []string

	// WorkingDir is advisory; backends that support it set it so
	// script-relative output lands in a predictable place.
	WorkingDir string
}

// Backend registers tasks with one concrete host scheduler.
//
// Register must overwrite an existing task with the same name in place
// (never delete+recreate: that would open a window with no task).
// Remove of a missing task is a no-op.
type Backend interface {
	Register(ctx context.Context, task Task) error
	Remove(ctx context.Context, name string) error
	// List returns the names of registered tasks carrying prefix,
	// limited to this application's namespace.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Op says what Synchronize did for one task.
type Op string

const (
	OpRegistered Op = "registered"
	OpUnchanged  Op = "unchanged"
	OpRemoved    Op = "removed"
)

// Result reports the outcome for a single task within one Synchronize
// call. TriggerIndex identifies the offending TriggerSpec by its
// position in the record; removals of stale tasks use index -1.
type Result struct {
	TriggerIndex int
	TaskName     string
	Op           Op
	Err          error
}

// Failed reports whether this task's operation failed.
func (r Result) Failed() bool { return r.Err != nil }

// TaskName derives the deterministic host task name for one trigger.
// Identical (script, kind, ordinal) always yields the same name, which
// is what makes repeated synchronization idempotent. The ordinal counts
// triggers of the same kind within one record, so a script with two
// daily triggers gets two distinct names.
func TaskName(script string, kind schedule.TriggerKind, ordinal int) string {
	return fmt.Sprintf("%s_%s__%s__%d", Namespace, schedule.SafeName(script), kind, ordinal)
}

// ScriptPrefix is the name prefix shared by all tasks of one script.
func ScriptPrefix(script string) string {
	return fmt.Sprintf("%s_%s__", Namespace, schedule.SafeName(script))
}
