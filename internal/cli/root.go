// Package cli wires the toolshed commands: browsing the catalog,
// running scripts interactively, editing schedules and serving as the
// host-scheduler execution wrapper.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolshed/internal/catalog"
	"toolshed/internal/config"
	"toolshed/internal/history"
	logx "toolshed/pkg/logx"
)

var cfgPath string

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toolshed",
		Short:         "Categorized operational script launcher and scheduler",
		Long:          "toolshed lists categorized operational scripts, runs them on demand,\nand schedules them through the host operating system's task scheduler.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml (default: search order)")

	root.AddCommand(
		newListCmd(),
		newRunCmd(),
		newDocsCmd(),
		newScheduleCmd(),
		newHistoryCmd(),
		newWrapperCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

// env is everything a command needs, built once per invocation and
// passed explicitly (configuration is never read through a global).
type env struct {
	cfg *config.Config
	log logx.Logger
	cat *catalog.Catalog
}

func loadEnv() (*env, error) {
	e, err := loadBaseEnv()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(e.cfg.ScriptsDir(), e.log)
	if err != nil {
		e.close()
		return nil, err
	}
	e.cat = cat
	return e, nil
}

// loadBaseEnv builds config and logging but leaves the catalog unset.
// The wrapper path uses it directly: a broken script index must not
// stop a scheduled run whose script path is already known.
func loadBaseEnv() (*env, error) {
	candidates := config.Candidates()
	if cfgPath != "" {
		candidates = []string{cfgPath}
	}
	cfg, err := config.Discover(candidates)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	log, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.LogFilePath(),
		},
	})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) close() {
	_ = e.log.Close()
}

func (e *env) openHistory() (history.Store, error) {
	return history.Open(history.Config{
		Driver: e.cfg.History.Driver,
		Path:   e.cfg.HistoryPath(),
	}, e.log)
}

// exitError carries a specific process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
