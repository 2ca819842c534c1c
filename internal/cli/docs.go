package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolshed/internal/docs"
)

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs <script>",
		Short: "Show the markdown documentation for a script",
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

			body, err := docs.Read(e.cfg.DocsDir(), desc.Name)
			if errors.Is(err, docs.ErrNoDoc) {
				printf(cmd, "No documentation for %s.\n", desc.Name)
				if desc.Description != "" {
					printf(cmd, "\n%s\n", desc.Description)
				}
				return nil
			}
			if err != nil {
				return err
			}
			printf(cmd, "%s", body)
			return nil
		},
	}
}
