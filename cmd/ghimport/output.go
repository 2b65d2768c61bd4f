package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/steveyegge/ghimport/internal/debug"
	"github.com/steveyegge/ghimport/internal/report"
	"github.com/steveyegge/ghimport/internal/types"
	"github.com/steveyegge/ghimport/internal/ui"
)

// outputFormat is the --output flag value.
type outputFormat string

const (
	formatJSON outputFormat = outputFormat(report.FormatJSON)
	formatYAML outputFormat = outputFormat(report.FormatYAML)
)

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	parsed, err := report.ParseFormat(s)
	if err != nil {
		return err
	}
	*f = outputFormat(parsed)
	return nil
}

func (f *outputFormat) Type() string { return "format" }

// format returns the requested machine-readable format, or "" for human output.
func (o *globalOptions) format() report.Format {
	if o.jsonOutput {
		return report.FormatJSON
	}
	return report.Format(o.output)
}

func (o *globalOptions) machine() bool {
	return o.format() != ""
}

// render encodes v in the requested format, or calls human when none was asked for.
func (o *globalOptions) render(w io.Writer, v interface{}, human func(io.Writer)) error {
	if f := o.format(); f != "" {
		if err := report.Encode(w, v, f); err != nil {
			return withCode(exitError, err)
		}
		return nil
	}
	human(w)
	return nil
}

// writeReport writes v to --report when it was given.
func (o *globalOptions) writeReport(v interface{}) error {
	if o.reportPath == "" {
		return nil
	}
	if err := report.WriteFile(o.reportPath, v, o.format()); err != nil {
		return withCode(exitError, err)
	}
	debug.Logf("wrote report to %s\n", o.reportPath)
	return nil
}

func printStage(w io.Writer, r *types.StageResult) {
	status := ui.RenderPass("valid")
	if !r.Valid {
		status = ui.RenderFail("invalid")
	}
	fmt.Fprintf(w, "%s %s (%d rows)\n", ui.RenderCategory(r.Stage), status, r.RowCount)
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  %s\n", ui.RenderFinding(f))
	}
	counts := types.CountBySeverity(r.Findings)
	fmt.Fprintf(w, "%d %s, %d %s, %d %s\n",
		counts[types.SeverityError], ui.RenderSeverity(types.SeverityError),
		counts[types.SeverityWarn], ui.RenderSeverity(types.SeverityWarn),
		counts[types.SeverityInfo], ui.RenderSeverity(types.SeverityInfo))
}

func printReport(w io.Writer, r *types.Report) {
	fmt.Fprintln(w, ui.RenderSeparator())
	fmt.Fprintf(w, "Created %d of %d issue(s)\n", r.Created, r.Total)
	for _, o := range r.Outcomes {
		if o.OK() {
			fmt.Fprintf(w, "  %s row %d %s: %s %s\n", ui.RenderPassIcon(), o.Row, o.Title,
				o.Created.ItemID, ui.RenderMuted(o.Created.URL))
			continue
		}
		fmt.Fprintf(w, "  %s row %d %s: %s\n", ui.RenderFailIcon(), o.Row, o.Title, o.Message)
	}
	if r.Failed > 0 {
		fmt.Fprintln(w, ui.RenderWarn(fmt.Sprintf("%d row(s) failed", r.Failed)))
	}
	if r.Anomalous() {
		fmt.Fprintln(w, ui.RenderWarn(fmt.Sprintf("%d row(s) submitted but nothing was created or reported failed", r.Total)))
	}
}
