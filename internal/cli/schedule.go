package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"toolshed/internal/hostsched"
	"toolshed/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage host-scheduler registrations for catalog scripts",
	}
	cmd.AddCommand(
		newScheduleListCmd(),
		newScheduleAddCmd(),
		newScheduleRemoveCmd(),
		newScheduleEnableCmd(true),
		newScheduleEnableCmd(false),
		newScheduleSyncCmd(),
	)
	return cmd
}

// loadManager builds the store/registrar pair on top of the platform
// backend. The running binary itself is registered as the command the
// host scheduler invokes (via the hidden wrapper subcommand).
func loadManager(ctx context.Context, e *env) (*hostsched.Manager, error) {
	backend, err := hostsched.NewBackend(ctx, e.log)
	if err != nil {
		return nil, err
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving own executable: %w", err)
	}
	store := schedule.NewStore(e.cfg.SchedulesDir(), e.log)
	reg := hostsched.NewRegistrar(backend, e.cfg.SchedulesDir(), exe, e.log)
	return hostsched.NewManager(store, reg, e.log), nil
}

func newScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [script]",
		Short: "Show stored schedules and their next run times",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			store := schedule.NewStore(e.cfg.SchedulesDir(), e.log)
			records := store.List()
			if len(args) == 1 {
				rec, ok := store.Load(args[0])
				if !ok {
					printf(cmd, "No schedule for %s.\n", args[0])
					return nil
				}
				records = []schedule.Record{rec}
			}
			if len(records) == 0 {
				printf(cmd, "No schedules stored.\n")
				return nil
			}

			now := time.Now()
			for _, rec := range records {
				printf(cmd, "%s\n", rec.Script)
				for i, t := range rec.Triggers {
					state := "enabled"
					if !t.Enabled {
						state = "disabled"
					}
					next := "-"
					if t.Enabled {
						if n := schedule.NextRun(t, now); !n.IsZero() {
							next = n.Format("2006-01-02 15:04")
						}
					}
					printf(cmd, "  [%d] %-8s %-32s next: %s\n", i, state, schedule.Describe(t), next)
				}
			}
			return nil
		},
	}
}

func newScheduleAddCmd() *cobra.Command {
	var (
		once     string
		daily    string
		weekly   string
		days     []string
		every    int
		unit     string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "add <script>",
		Short: "Add a trigger to a script's schedule and register it",
		Long: `Add one trigger to a script's schedule. Exactly one trigger shape
must be given:

  --once "2026-09-01 07:30"        fire once at a local timestamp
  --daily "07:30"                  fire every day at a local time
  --weekly "09:00" --days mon,fri  fire on weekdays at a local time
  --every 30 --unit minutes        fire on a fixed interval

The stored record is the source of truth; the matching host-scheduler
task is (re)registered immediately.`,
		Args: cobra.ExactArgs(1),
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

			trig, err := buildTrigger(once, daily, weekly, days, every, unit, !disabled)
			if err != nil {
				return err
			}

			mgr, err := loadManager(cmd.Context(), e)
			if err != nil {
				return err
			}

			rec, _ := mgr.Store().Load(desc.Name)
			rec.Script = desc.Name
			rec.Triggers = append(rec.Triggers, trig)

			results, err := mgr.Save(cmd.Context(), rec, scriptPath)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return resultsError(results)
		},
	}
	cmd.Flags().StringVar(&once, "once", "", `fire once at "2006-01-02 15:04" (local time)`)
	cmd.Flags().StringVar(&daily, "daily", "", `fire daily at "15:04" (local time)`)
	cmd.Flags().StringVar(&weekly, "weekly", "", `fire weekly at "15:04" on --days`)
	cmd.Flags().StringSliceVar(&days, "days", nil, "weekdays for --weekly (mon..sun)")
	cmd.Flags().IntVar(&every, "every", 0, "interval magnitude")
	cmd.Flags().StringVar(&unit, "unit", "", "interval unit: minutes, hours or days")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "store the trigger without registering it")
	return cmd
}

// buildTrigger maps the mutually exclusive flag groups onto one
// TriggerSpec and validates it.
func buildTrigger(once, daily, weekly string, days []string, every int, unit string, enabled bool) (schedule.TriggerSpec, error) {
	var trig schedule.TriggerSpec
	trig.Enabled = enabled

	shapes := 0
	if once != "" {
		shapes++
	}
	if daily != "" {
		shapes++
	}
	if weekly != "" {
		shapes++
	}
	if every != 0 || unit != "" {
		shapes++
	}
	if shapes != 1 {
		return trig, fmt.Errorf("exactly one of --once, --daily, --weekly or --every/--unit must be given")
	}

	switch {
	case once != "":
		at, err := time.ParseInLocation("2006-01-02 15:04", once, time.Local)
		if err != nil {
			return trig, fmt.Errorf("parsing --once: %w", err)
		}
		trig.Kind = schedule.KindOnce
		trig.At = &at
	case daily != "":
		h, m, err := parseClock(daily)
		if err != nil {
			return trig, fmt.Errorf("parsing --daily: %w", err)
		}
		trig.Kind = schedule.KindDaily
		trig.Hour, trig.Minute = h, m
	case weekly != "":
		h, m, err := parseClock(weekly)
		if err != nil {
			return trig, fmt.Errorf("parsing --weekly: %w", err)
		}
		trig.Kind = schedule.KindWeekly
		trig.Hour, trig.Minute = h, m
		trig.Days = days
	default:
		trig.Kind = schedule.KindInterval
		trig.Every = every
		trig.Unit = schedule.IntervalUnit(strings.ToLower(unit))
	}

	if err := trig.Validate(); err != nil {
		return trig, err
	}
	return trig, nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return hour, minute, nil
}

func newScheduleRemoveCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "remove <script> [index]",
		Short: "Remove one trigger (or the whole schedule) and unregister it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			mgr, err := loadManager(cmd.Context(), e)
			if err != nil {
				return err
			}

			rec, ok := mgr.Store().Load(args[0])
			if !ok {
				printf(cmd, "No schedule for %s.\n", args[0])
				return nil
			}

			if all || len(args) == 1 {
				if err := mgr.Delete(cmd.Context(), rec.Script); err != nil {
					return err
				}
				printf(cmd, "Removed schedule and host tasks for %s.\n", rec.Script)
				return nil
			}

			idx, err := strconv.Atoi(args[1])
			if err != nil || idx < 0 || idx >= len(rec.Triggers) {
				return fmt.Errorf("trigger index %q out of range (0..%d)", args[1], len(rec.Triggers)-1)
			}
			rec.Triggers = append(rec.Triggers[:idx], rec.Triggers[idx+1:]...)

			// Dropping the last trigger removes the record outright so
			// no empty schedule files accumulate.
			if len(rec.Triggers) == 0 {
				if err := mgr.Delete(cmd.Context(), rec.Script); err != nil {
					return err
				}
				printf(cmd, "Removed last trigger; schedule for %s deleted.\n", rec.Script)
				return nil
			}

			scriptPath, err := lookupScriptPath(e, rec.Script)
			if err != nil {
				return err
			}
			results, err := mgr.Save(cmd.Context(), rec, scriptPath)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return resultsError(results)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove the whole schedule")
	return cmd
}

func newScheduleEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <script> <index>", "Enable a stored trigger and register its host task"
	if !enable {
		use, short = "disable <script> <index>", "Disable a stored trigger and remove its host task"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			mgr, err := loadManager(cmd.Context(), e)
			if err != nil {
				return err
			}

			rec, ok := mgr.Store().Load(args[0])
			if !ok {
				return fmt.Errorf("no schedule for %s", args[0])
			}
			idx, err := strconv.Atoi(args[1])
			if err != nil || idx < 0 || idx >= len(rec.Triggers) {
				return fmt.Errorf("trigger index %q out of range (0..%d)", args[1], len(rec.Triggers)-1)
			}
			rec.Triggers[idx].Enabled = enable

			scriptPath, err := lookupScriptPath(e, rec.Script)
			if err != nil {
				return err
			}
			results, err := mgr.Save(cmd.Context(), rec, scriptPath)
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return resultsError(results)
		},
	}
}

func newScheduleSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [script]",
		Short: "Re-register host tasks from the stored schedules",
		Long: `Re-derive every host-scheduler task from the stored schedule records.
Unchanged tasks are left untouched, so running sync twice in a row does
nothing the second time. Useful after the binary moved or host tasks
were tampered with.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			mgr, err := loadManager(cmd.Context(), e)
			if err != nil {
				return err
			}

			records := mgr.Store().List()
			if len(args) == 1 {
				rec, ok := mgr.Store().Load(args[0])
				if !ok {
					return fmt.Errorf("no schedule for %s", args[0])
				}
				records = []schedule.Record{rec}
			}

			var failed bool
			for _, rec := range records {
				scriptPath, err := lookupScriptPath(e, rec.Script)
				if err != nil {
					printf(cmd, "%s: %v\n", rec.Script, err)
					failed = true
					continue
				}
				results, err := mgr.Save(cmd.Context(), rec, scriptPath)
				if err != nil {
					return err
				}
				printf(cmd, "%s:\n", rec.Script)
				printResults(cmd, results)
				if resultsError(results) != nil {
					failed = true
				}
			}
			if failed {
				return &exitError{code: 1, msg: "one or more host tasks failed to synchronize"}
			}
			return nil
		},
	}
}

func lookupScriptPath(e *env, scriptName string) (string, error) {
	desc, ok := e.cat.Lookup(scriptName)
	if !ok {
		return "", fmt.Errorf("script %q not found in the catalog", scriptName)
	}
	return e.cat.AbsolutePath(desc)
}

func printResults(cmd *cobra.Command, results []hostsched.Result) {
	for _, res := range results {
		if res.Failed() {
			printf(cmd, "  %-12s %s: %v\n", res.Op, res.TaskName, res.Err)
			continue
		}
		printf(cmd, "  %-12s %s\n", res.Op, res.TaskName)
	}
}

func resultsError(results []hostsched.Result) error {
	for _, res := range results {
		if res.Failed() {
			return &exitError{code: 1, msg: fmt.Sprintf("host task %s: %v", res.TaskName, res.Err)}
		}
	}
	return nil
}
