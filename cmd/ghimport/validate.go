package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/types"
)

// validateResult is what validate prints and reports. Enrichment is nil for
// --dry-run or when local validation failed.
type validateResult struct {
	Validation *types.StageResult `json:"validation" yaml:"validation"`
	Enrichment *types.StageResult `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		csvPath string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an import file",
		Long: `Validate an import file without creating anything.

The file is checked locally, then assignees and labels are looked up on
GitHub. With --dry-run only the local checks run and no credentials are needed.`,
		Example: `  ghimport validate --csv items.csv
  ghimport validate --csv items.xlsx --dry-run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var remote tracker.Remote
			if !dryRun {
				if err := opts.cfg.Validate(); err != nil {
					return withCode(exitError, fmt.Errorf("%w (use --dry-run to skip GitHub checks)", err))
				}
				remote = remoteFactory(opts.cfg)
			}

			ctx := cmd.Context()
			p := opts.newPipeline(cmd, remote)
			res := validateResult{Validation: p.Validate(ctx, csvPath)}
			final := res.Validation
			if !dryRun && final.Valid {
				res.Enrichment = p.Enrich(ctx, res.Validation)
				final = res.Enrichment
			}

			if err := opts.render(cmd.OutOrStdout(), res, func(w io.Writer) {
				printStage(w, final)
			}); err != nil {
				return err
			}
			if err := opts.writeReport(res); err != nil {
				return err
			}
			if !final.Valid {
				return withCode(exitValidation, fmt.Errorf("%s failed with %d error(s)", final.Stage, len(final.Errors())))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV or XLSX file")
	_ = cmd.MarkFlagRequired("csv")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Check the file locally without contacting GitHub")
	return cmd
}
