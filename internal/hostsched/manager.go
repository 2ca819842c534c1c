package hostsched

import (
	"context"

	"toolshed/internal/schedule"
	logx "toolshed/pkg/logx"
)

// Manager couples the schedule store to the registrar: every save or
// delete of a record is immediately mirrored into the host scheduler,
// keeping the store the single source of truth.
type Manager struct {
	store *schedule.Store
	reg   *Registrar
	log   logx.Logger
}

func NewManager(store *schedule.Store, reg *Registrar, log logx.Logger) *Manager {
	return &Manager{store: store, reg: reg, log: log}
}

// Store exposes the underlying schedule store for read paths.
func (m *Manager) Store() *schedule.Store { return m.store }

// Save persists the record, then resynchronizes the host scheduler.
// The per-task results are returned even on partial failure so the
// presentation layer can show each trigger's outcome individually.
func (m *Manager) Save(ctx context.Context, rec schedule.Record, scriptPath string) ([]Result, error) {
	if err := m.store.Save(rec); err != nil {
		return nil, err
	}
	results := m.reg.Synchronize(ctx, rec, scriptPath)
	for _, res := range results {
		if res.Failed() {
			m.log.Warn("host task registration failed",
				logx.String("script", rec.Script),
				logx.String("task", res.TaskName),
				logx.Int("trigger", res.TriggerIndex),
				logx.Err(res.Err))
		}
	}
	return results, nil
}

// Delete removes the persisted record and unregisters every host task
// under the script's namespace. Deleting a record with no underlying
// host tasks is a no-op.
func (m *Manager) Delete(ctx context.Context, script string) error {
	if err := m.store.Delete(script); err != nil {
		return err
	}
	return m.reg.UnregisterAll(ctx, script)
}
