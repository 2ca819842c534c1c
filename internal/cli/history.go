package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		script string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent script runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			store, err := e.openHistory()
			if err != nil {
				return err
			}
			if store == nil {
				printf(cmd, "Run history is disabled in the configuration.\n")
				return nil
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), script, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printf(cmd, "No runs recorded.\n")
				return nil
			}

			for _, en := range entries {
				printf(cmd, "%s  %-9s  %-22s  %-10s exit %d  (%s)\n",
					en.Started.Format("2006-01-02 15:04:05"),
					en.Origin,
					en.Script,
					en.Outcome,
					en.ExitCode,
					en.Ended.Sub(en.Started).Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show (newest first)")
	cmd.Flags().StringVar(&script, "script", "", "only show runs of this script")
	return cmd
}
