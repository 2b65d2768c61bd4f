package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/pipeline"
)

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what an import would create",
		Long: `Validate an import file locally and list the issues an import would create.

Nothing is sent to GitHub.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := opts.newPipeline(cmd, nil)
			res := p.Validate(cmd.Context(), csvPath)
			if !res.Valid {
				if err := opts.render(cmd.OutOrStdout(), res, func(w io.Writer) {
					printStage(w, res)
				}); err != nil {
					return err
				}
				if err := opts.writeReport(res); err != nil {
					return err
				}
				return withCode(exitValidation, fmt.Errorf("cannot preview: validation failed with %d error(s)", len(res.Errors())))
			}

			items := p.Preview(res)
			if err := opts.render(cmd.OutOrStdout(), items, func(w io.Writer) {
				fmt.Fprint(w, pipeline.RenderPreview(items))
			}); err != nil {
				return err
			}
			return opts.writeReport(items)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV or XLSX file")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
