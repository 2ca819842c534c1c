//go:build windows

package hostsched

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	logx "toolshed/pkg/logx"
)

// schtasksBackend drives the Windows Task Scheduler through the
// schtasks command: a generated XML definition per task, registered
// with /F so re-registration overwrites in place.
type schtasksBackend struct {
	log logx.Logger
}

func NewBackend(_ context.Context, log logx.Logger) (Backend, error) {
	return &schtasksBackend{log: log}, nil
}

func (b *schtasksBackend) Register(ctx context.Context, task Task) error {
	xml := taskXML(task, time.Now())

	tmp, err := os.CreateTemp("", "toolshed-task-*.xml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	// The generated header declares UTF-16, so the bytes on disk must
	// be UTF-16 too; Task Scheduler rejects a mismatched declaration.
	if _, err := tmp.Write(utf16LEBytes(xml)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	out, err := b.run(ctx, "/Create", "/TN", taskFolder+task.Name, "/XML", tmpName, "/F")
	if err != nil {
		return fmt.Errorf("hostsched: schtasks create %s: %v: %s", task.Name, err, out)
	}
	b.log.Debug("windows task registered", logx.String("task", task.Name))
	return nil
}

func (b *schtasksBackend) Remove(ctx context.Context, name string) error {
	out, err := b.run(ctx, "/Delete", "/TN", taskFolder+name, "/F")
	if err != nil {
		// Deleting a task that does not exist is a no-op.
		if strings.Contains(strings.ToLower(out), "cannot find") {
			return nil
		}
		return fmt.Errorf("hostsched: schtasks delete %s: %v: %s", name, err, out)
	}
	b.log.Debug("windows task removed", logx.String("task", name))
	return nil
}

func (b *schtasksBackend) List(ctx context.Context, prefix string) ([]string, error) {
	// CSV output is locale-neutral; LIST labels its rows in the
	// system display language.
	out, err := b.run(ctx, "/Query", "/FO", "CSV", "/NH")
	if err != nil {
		return nil, fmt.Errorf("hostsched: schtasks query: %v: %s", err, out)
	}
	return parseTaskQueryCSV(out, prefix)
}

func (b *schtasksBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "schtasks", args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
