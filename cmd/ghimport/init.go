package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/ui"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter mappings config",
		Long: `Write the current configuration (defaults plus environment overrides) to
the --config path. The GitHub token is never written to the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if err := opts.cfg.WriteFile(path, force); err != nil {
				return withCode(exitError, fmt.Errorf("%w (use --force to overwrite)", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.RenderPassIcon(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
