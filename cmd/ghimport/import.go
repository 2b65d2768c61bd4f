package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/pipeline"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		csvPath string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a file into GitHub Issues",
		Long: `Validate, cross-check and import a CSV or XLSX file into GitHub Issues.

The import is previewed and confirmed interactively unless --confirm is
given. When stdin is not a terminal the import is declined without --confirm.
A row that fails to import is reported and does not stop the rest.`,
		Example: `  ghimport import --csv items.csv
  ghimport import --csv items.csv --confirm --report out/report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.Validate(); err != nil {
				return withCode(exitError, err)
			}

			p := opts.newPipeline(cmd, remoteFactory(opts.cfg))
			var (
				confirm pipeline.ConfirmFunc
				shown   bool
			)
			if !yes {
				confirm = opts.confirmFunc(cmd, &shown)
			}

			result, err := p.Import(cmd.Context(), csvPath, confirm)
			if err != nil {
				return withCode(exitError, err)
			}

			if err := opts.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				if !shown {
					last := result.Validation
					if result.Enrichment != nil {
						last = result.Enrichment
					}
					printStage(w, last)
				}
				if result.Report != nil {
					printReport(w, result.Report)
				}
			}); err != nil {
				return err
			}
			if err := opts.writeReport(result); err != nil {
				return err
			}

			switch result.State {
			case pipeline.StateValidationFailed, pipeline.StateEnrichmentBlocked:
				return withCode(exitValidation, fmt.Errorf("import stopped: %s", result.State))
			case pipeline.StateDeclined:
				return withCode(exitDeclined, errors.New("import cancelled"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV or XLSX file")
	_ = cmd.MarkFlagRequired("csv")
	cmd.Flags().BoolVar(&yes, "confirm", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Alias for --confirm")
	return cmd
}
