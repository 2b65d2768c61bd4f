package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/pipeline"
	"github.com/steveyegge/ghimport/internal/types"
	"github.com/steveyegge/ghimport/internal/ui"
)

// Replaced in tests.
var (
	inputIsTerminal = ui.IsInputTerminal
	confirmPrompt   = promptConfirm
)

// confirmFunc shows the enrichment findings and preview, then asks before
// commit. Without a terminal on stdin the import is declined. shown is set
// once the findings have been printed.
func (o *globalOptions) confirmFunc(cmd *cobra.Command, shown *bool) pipeline.ConfirmFunc {
	out := cmd.OutOrStdout()
	return func(ctx context.Context, preview []pipeline.PreviewItem, enrichment *types.StageResult) (bool, error) {
		if !o.machine() {
			printStage(out, enrichment)
			fmt.Fprintln(out)
			fmt.Fprint(out, pipeline.RenderPreview(preview))
			*shown = true
		}
		if !inputIsTerminal() {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderWarn("stdin is not a terminal: rerun with --confirm to import without prompting"))
			return false, nil
		}
		return confirmPrompt(ctx, len(preview))
	}
}

func promptConfirm(ctx context.Context, count int) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Proceed with import?").
				Description(fmt.Sprintf("%d issue(s) will be created on GitHub.", count)).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
