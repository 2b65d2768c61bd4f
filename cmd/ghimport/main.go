// Command ghimport bulk-imports Epics and Tasks from a CSV or XLSX file into
// GitHub Issues.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/ghimport/internal/config"
	"github.com/steveyegge/ghimport/internal/debug"
	"github.com/steveyegge/ghimport/internal/github"
	"github.com/steveyegge/ghimport/internal/pipeline"
	"github.com/steveyegge/ghimport/internal/telemetry"
	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/ui"
)

var (
	// Version is the current version of ghimport (overridden by ldflags at build time)
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
)

// remoteFactory builds the GitHub remote for commands that reach the network.
var remoteFactory = func(cfg *config.Config) tracker.Remote {
	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner).
		WithBaseURL(cfg.GitHub.APIURL).
		WithHTTPClient(&http.Client{Timeout: cfg.GitHub.Timeout})
	return telemetry.WrapRemote(github.NewRemote(client))
}

// globalOptions holds the persistent flags and what PersistentPreRunE
// derives from them.
type globalOptions struct {
	configPath string
	jsonOutput bool
	output     outputFormat
	reportPath string
	verbose    bool
	quiet      bool
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ghimport",
		Short: "ghimport - CSV/XLSX bulk importer for GitHub Issues",
		Long: `Import Epics and Tasks described in a CSV or XLSX file into GitHub Issues.

An import runs three stages: the file is validated locally, cross-checked
against GitHub (assignees, labels), and then committed one issue per row.`,
		Version:       fmt.Sprintf("%s (%s)", Version, Build),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.jsonOutput && opts.output != "" && opts.output != formatJSON {
				return withCode(exitError, fmt.Errorf("--json conflicts with --output %s", opts.output))
			}

			debug.SetVerbose(opts.verbose)
			debug.SetQuiet(opts.quiet)
			// Progress lines go to stderr; stdout carries only results.
			debug.SetOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
			ui.ConfigureColor(opts.noColor)

			if err := telemetry.Init(cmd.Context(), "ghimport", Version); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return withCode(exitError, err)
			}
			opts.cfg = cfg
			opts.logger = debug.Logger()
			if cfg.Path != "" {
				opts.logger.Debug("loaded config", "path", cfg.Path)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the mappings config file")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flags.Var(&opts.output, "output", "Machine-readable output format (json|yaml)")
	flags.StringVar(&opts.reportPath, "report", "", "Write the result to `FILE` (format from --output or the file extension)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newVersionCmd(opts))
	return cmd
}

// newPipeline wires a pipeline to remote. remote may be nil for commands
// that stay local.
func (o *globalOptions) newPipeline(cmd *cobra.Command, remote tracker.Remote) *pipeline.Pipeline {
	errOut := cmd.ErrOrStderr()
	return pipeline.New(remote, o.cfg,
		pipeline.WithLogger(o.logger),
		pipeline.WithOnMessage(func(msg string) {
			debug.PrintlnNormal(ui.RenderAccent(msg))
		}),
		pipeline.WithOnWarning(func(msg string) {
			// Human output lists findings itself.
			if o.machine() {
				fmt.Fprintln(errOut, ui.RenderWarn(msg))
			}
		}),
	)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(stderr, "Warning: telemetry shutdown: %v\n", err)
	}
	cancel()

	code := exitCode(err)
	switch {
	case err == nil:
	case code == exitDeclined:
		fmt.Fprintln(stderr, err.Error())
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
