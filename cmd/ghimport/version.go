package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{"version": Version, "build": Build}
			return opts.render(cmd.OutOrStdout(), info, func(w io.Writer) {
				fmt.Fprintf(w, "ghimport version %s (%s)\n", Version, Build)
			})
		},
	}
}
