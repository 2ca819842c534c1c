package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toolshed/internal/catalog"
	"toolshed/internal/history"
	"toolshed/internal/notifier"
	"toolshed/internal/runlog"
	"toolshed/internal/runner"
	logx "toolshed/pkg/logx"
)

// newWrapperCmd is the entry point the host scheduler invokes. It is
// hidden from help output: operators schedule scripts through the
// schedule subcommands, never by calling the wrapper directly.
//
// The wrapper must stay self-sufficient: no terminal, no operator
// watching. Everything it learns about the run goes into the per-run
// log file, which is therefore the one write that is allowed to fail
// the process even when the script itself succeeded.
func newWrapperCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "wrapper <script-path>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadBaseEnv()
			if err != nil {
				return err
			}
			defer e.close()

			scriptPath := args[0]
			// The wrapper receives an absolute path from the registered
			// task and must not depend on the catalog still listing the
			// script: the file on disk is authoritative here, and a
			// corrupt index only costs the display name.
			scriptName := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
			if cat, catErr := catalog.Load(e.cfg.ScriptsDir(), e.log); catErr != nil {
				e.log.Warn("script index unusable, running by path",
					logx.String("path", scriptPath), logx.Err(catErr))
			} else if desc, ok := cat.Lookup(scriptName); ok {
				scriptName = desc.Name
			}

			timeout, err := e.cfg.RunTimeout()
			if err != nil {
				return err
			}
			r := runner.New(timeout, e.cfg.Run.Interpreters, e.log)

			e.log.Info("scheduled run starting",
				logx.String("script", scriptName),
				logx.String("path", scriptPath),
				logx.Duration("timeout", timeout))

			res := r.Run(context.Background(), scriptName, scriptPath, nil)

			logPath, logErr := runlog.Write(e.cfg.LogsDir(), res)
			if logErr != nil {
				e.log.Error("execution log write failed", logx.Err(logErr))
			}
			recordHistory(e, res, history.OriginScheduled, logPath)

			if res.Failed() || logErr != nil {
				notifyFailure(e, res, logPath)
			}

			e.log.Info("scheduled run finished",
				logx.String("script", scriptName),
				logx.String("outcome", string(res.Outcome)),
				logx.Int("exit_code", res.ExitCode),
				logx.Duration("took", res.End.Sub(res.Start)))

			code := res.ExitCode
			if code == 0 && logErr != nil {
				code = 1
			}
			if code != 0 {
				return &exitError{code: code, msg: fmt.Sprintf("scheduled run ended with exit code %d", code)}
			}
			return nil
		},
	}
}

func notifyFailure(e *env, res runner.Result, logPath string) {
	if !e.cfg.Notify.Enabled {
		return
	}
	n, err := notifier.New(e.cfg.Notify.Token, e.cfg.Notify.ChatID, e.log)
	if err != nil {
		e.log.Warn("notifier unavailable", logx.Err(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	n.RunFailed(ctx, res, logPath)
}
