package cli

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"toolshed/internal/catalog"
)

func newListCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List script categories, or the scripts of one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			category := ""
			if len(args) == 1 {
				category = args[0]
			}

			printCatalog(cmd, e.cat, category)
			if !watch {
				return nil
			}

			// Keep reprinting whenever index.json changes, until
			// interrupted. The watcher hands out snapshots over a
			// channel; we never poke at its internals.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w := catalog.NewWatcher(e.cfg.ScriptsDir(), e.cat, e.log)
			snapshots, unsubscribe := w.Subscribe(1)
			defer unsubscribe()

			go func() { _ = w.Watch(ctx) }()

			for {
				select {
				case <-ctx.Done():
					return nil
				case snap, ok := <-snapshots:
					if !ok {
						return nil
					}
					printf(cmd, "\n-- index changed --\n")
					printCatalog(cmd, snap, category)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and reprint when the index changes")
	return cmd
}

func printCatalog(cmd *cobra.Command, cat *catalog.Catalog, category string) {
	if category != "" {
		scripts := cat.Scripts(category)
		if len(scripts) == 0 {
			printf(cmd, "no scripts in category %q\n", category)
			return
		}
		for _, s := range scripts {
			extra := ""
			if len(s.Params) > 0 {
				extra = "  [" + strings.Join(s.Params, " ") + "]"
			}
			printf(cmd, "%-30s %s%s\n", s.Name, s.Description, extra)
		}
		return
	}
	for _, c := range cat.Categories() {
		printf(cmd, "%s (%d scripts)\n", c, len(cat.Scripts(c)))
	}
	if len(cat.Categories()) == 0 {
		printf(cmd, "script index is empty\n")
	}
}
