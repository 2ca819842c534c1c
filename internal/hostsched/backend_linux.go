//go:build linux

package hostsched

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"

	logx "toolshed/pkg/logx"
)

// systemdBackend registers tasks as systemd user timers: one .timer and
// one oneshot .service per task, written under the user unit directory
// and driven over D-Bus. User units keep firing while toolshed is
// closed, which is the whole point of delegating to the host scheduler.
type systemdBackend struct {
	conn    *dbus.Conn
	unitDir string
	log     logx.Logger
}

// NewBackend connects to the user systemd instance.
func NewBackend(ctx context.Context, log logx.Logger) (Backend, error) {
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("hostsched: connect to user systemd: %w", err)
	}
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &systemdBackend{
		conn:    conn,
		unitDir: filepath.Join(cfgDir, "systemd", "user"),
		log:     log,
	}, nil
}

func (b *systemdBackend) Register(ctx context.Context, task Task) error {
	if err := os.MkdirAll(b.unitDir, 0o755); err != nil {
		return err
	}

	// Overwriting the unit files in place and reloading updates a live
	// timer without a window where no task exists.
	servicePath := filepath.Join(b.unitDir, task.Name+".service")
	timerPath := filepath.Join(b.unitDir, task.Name+".timer")
	if err := os.WriteFile(servicePath, []byte(serviceUnit(task)), 0o644); err != nil {
		return fmt.Errorf("hostsched: write %s: %w", servicePath, err)
	}
	if err := os.WriteFile(timerPath, []byte(timerUnit(task)), 0o644); err != nil {
		return fmt.Errorf("hostsched: write %s: %w", timerPath, err)
	}

	if err := b.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("hostsched: daemon-reload: %w", err)
	}
	if _, _, err := b.conn.EnableUnitFilesContext(ctx, []string{task.Name + ".timer"}, false, true); err != nil {
		return fmt.Errorf("hostsched: enable %s.timer: %w", task.Name, err)
	}
	// "replace" restarts the timer if it is already active, picking up
	// the rewritten trigger.
	if _, err := b.conn.RestartUnitContext(ctx, task.Name+".timer", "replace", nil); err != nil {
		return fmt.Errorf("hostsched: start %s.timer: %w", task.Name, err)
	}
	b.log.Debug("systemd timer registered", logx.String("task", task.Name))
	return nil
}

func (b *systemdBackend) Remove(ctx context.Context, name string) error {
	timerPath := filepath.Join(b.unitDir, name+".timer")
	servicePath := filepath.Join(b.unitDir, name+".service")

	if _, err := os.Stat(timerPath); os.IsNotExist(err) {
		return nil // already gone
	}

	if _, err := b.conn.StopUnitContext(ctx, name+".timer", "replace", nil); err != nil {
		// A never-started timer cannot be stopped; keep going.
		b.log.Debug("timer stop skipped", logx.String("task", name), logx.Err(err))
	}
	if _, err := b.conn.DisableUnitFilesContext(ctx, []string{name + ".timer"}, false); err != nil {
		b.log.Debug("timer disable skipped", logx.String("task", name), logx.Err(err))
	}

	var firstErr error
	for _, p := range []string{timerPath, servicePath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.conn.ReloadContext(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("hostsched: remove %s: %w", name, firstErr)
	}
	b.log.Debug("systemd timer removed", logx.String("task", name))
	return nil
}

func (b *systemdBackend) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := b.conn.ListUnitFilesByPatternsContext(ctx, nil, []string{prefix + "*.timer"})
	if err != nil {
		return nil, fmt.Errorf("hostsched: list unit files: %w", err)
	}
	var names []string
	for _, f := range files {
		base := filepath.Base(f.Path)
		name := strings.TrimSuffix(base, ".timer")
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Close releases the D-Bus connection.
func (b *systemdBackend) Close() { b.conn.Close() }
