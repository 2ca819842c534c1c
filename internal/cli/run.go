package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"toolshed/internal/history"
	"toolshed/internal/runlog"
	"toolshed/internal/runner"
	logx "toolshed/pkg/logx"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a catalog script now, streaming its output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			desc, ok := e.cat.Lookup(args[0])
			if !ok {
				return fmt.Errorf("script %q not found in the catalog", args[0])
			}
			scriptPath, err := e.cat.AbsolutePath(desc)
			if err != nil {
				return err
			}

			timeout, err := e.cfg.RunTimeout()
			if err != nil {
				return err
			}
			r := runner.New(timeout, e.cfg.Run.Interpreters, e.log)

			// Ctrl-C cancels the run: the child is killed, the partial
			// capture is kept, and a log entry marked cancelled is
			// still written.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			events := make(chan runner.StreamEvent, 256)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ev := range events {
					switch ev.Source {
					case runner.SourceStderr:
						fmt.Fprintln(cmd.ErrOrStderr(), ev.Line)
					default:
						fmt.Fprintln(cmd.OutOrStdout(), ev.Line)
					}
				}
			}()

			res := r.Run(ctx, desc.Name, scriptPath, events)
			close(events)
			wg.Wait()

			logPath, logErr := runlog.Write(e.cfg.LogsDir(), res)
			if logErr != nil {
				// Losing the audit trail is the one fatal write; still
				// exit with a failure code below.
				e.log.Error("execution log write failed", logx.Err(logErr))
			} else {
				printf(cmd, "\nlog: %s\n", logPath)
			}
			recordHistory(e, res, history.OriginManual, logPath)

			printf(cmd, "outcome: %s (exit code %d)\n", res.Outcome, res.ExitCode)

			code := res.ExitCode
			if code == 0 && logErr != nil {
				code = 1
			}
			if code != 0 {
				return &exitError{code: code, msg: fmt.Sprintf("run ended with exit code %d", code)}
			}
			return nil
		},
	}
}

func recordHistory(e *env, res runner.Result, origin history.Origin, logPath string) {
	store, err := e.openHistory()
	if err != nil {
		e.log.Warn("history store unavailable", logx.Err(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	err = store.Append(context.Background(), history.Entry{
		RunID:    res.RunID,
		Script:   res.Script,
		Origin:   origin,
		Outcome:  string(res.Outcome),
		ExitCode: res.ExitCode,
		Started:  res.Start,
		Ended:    res.End,
		LogPath:  logPath,
	})
	if err != nil {
		e.log.Warn("history append failed", logx.Err(err))
	}
}
