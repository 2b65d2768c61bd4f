// Package pipeline runs the three import stages: validate the input file,
// enrich it against the remote tracker, and commit one issue per row.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/ghimport/internal/config"
	"github.com/steveyegge/ghimport/internal/mapper"
	"github.com/steveyegge/ghimport/internal/reconcile"
	"github.com/steveyegge/ghimport/internal/tabular"
	"github.com/steveyegge/ghimport/internal/telemetry"
	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/types"
	"github.com/steveyegge/ghimport/internal/validation"
)

const scopeName = "github.com/steveyegge/ghimport/pipeline"

// State is the terminal state of an Import run.
type State string

// Import states. A run only ever moves forward through them.
const (
	StateValidationFailed  State = "validation_failed"
	StateEnrichmentBlocked State = "enrichment_blocked"
	StateDeclined          State = "declined"
	StateCommitted         State = "committed"
)

// ConfirmFunc is asked before commit. Returning false declines the import.
type ConfirmFunc func(ctx context.Context, preview []PreviewItem, enrichment *types.StageResult) (bool, error)

// ImportResult is everything an Import run produced. Later stages are nil
// when the run stopped before reaching them.
type ImportResult struct {
	State      State              `json:"state" yaml:"state"`
	Validation *types.StageResult `json:"validation" yaml:"validation"`
	Enrichment *types.StageResult `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
	Report     *types.Report      `json:"report,omitempty" yaml:"report,omitempty"`
}

// Pipeline owns the remote handle and the stage collaborators built on it.
type Pipeline struct {
	remote     tracker.Remote
	cfg        *config.Config
	mapper     mapper.Mapper
	enricher   *mapper.Enricher
	reconciler *reconcile.Reconciler
	logger     *slog.Logger

	concurrency int

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)

	tracer  trace.Tracer
	created metric.Int64Counter
	failed  metric.Int64Counter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithConcurrency overrides reconcile.concurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithOnMessage sets the progress callback.
func WithOnMessage(fn func(string)) Option {
	return func(p *Pipeline) { p.OnMessage = fn }
}

// WithOnWarning sets the warning callback.
func WithOnWarning(fn func(string)) Option {
	return func(p *Pipeline) { p.OnWarning = fn }
}

// New creates a Pipeline talking to remote. A nil cfg uses config.Default().
func New(remote tracker.Remote, cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		remote:      remote,
		cfg:         cfg,
		logger:      slog.New(slog.DiscardHandler),
		concurrency: cfg.Reconcile.Concurrency,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mapper = mapper.New(cfg.ProjectLabel)
	p.enricher = mapper.NewEnricher(remote, tracker.LabelSpec{
		Color:       cfg.Labels.Color,
		Description: cfg.Labels.Description,
	}, p.logger)
	p.reconciler = reconcile.New(remote, p.concurrency)

	p.tracer = telemetry.Tracer(scopeName)
	m := telemetry.Meter(scopeName)
	p.created, _ = m.Int64Counter("ghimport.items.created",
		metric.WithDescription("Issues created by the commit stage"),
	)
	p.failed, _ = m.Int64Counter("ghimport.items.failed",
		metric.WithDescription("Rows the commit stage could not create"),
	)
	return p
}

// Validate parses source and checks every record locally.
func (p *Pipeline) Validate(ctx context.Context, source string) *types.StageResult {
	_, span := p.tracer.Start(ctx, "pipeline.validate", trace.WithAttributes(attribute.String("ghimport.source", source)))
	defer span.End()

	p.msg("Stage 1: Reading and validating %s", source)

	batch, findings := tabular.ParseFile(source)
	findings = append(findings, validation.ValidateFormat(batch)...)
	result := types.NewStageResult(types.StageValidate, batch, findings...)

	span.SetAttributes(
		attribute.Int("ghimport.rows", result.RowCount),
		attribute.Bool("ghimport.valid", result.Valid),
	)
	p.logger.Info("validation complete", "rows", result.RowCount, "errors", len(result.Errors()))
	return result
}

// Enrich checks assignees and labels against the remote. An invalid input
// is returned unchanged.
func (p *Pipeline) Enrich(ctx context.Context, in *types.StageResult) *types.StageResult {
	if in == nil || !in.Valid || in.Data == nil {
		p.logger.Error("cannot enrich: validation failed")
		return in
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.enrich", trace.WithAttributes(attribute.Int("ghimport.rows", in.RowCount)))
	defer span.End()

	p.msg("Stage 2: Enriching and validating against GitHub")

	batch := in.Data
	out := in.Advance(types.StageEnrich)

	var targetRepos []string
	seen := make(map[string]bool)
	for _, rec := range batch.Records {
		repo := mapper.ResolveRepository(rec, p.cfg.Rules)
		if repo == "" {
			out.AddFindings(types.Errorf(rec.Row, types.FieldRepository,
				"No target repository: set the Repository column or repository_rules.default"))
			continue
		}
		if !seen[repo] {
			seen[repo] = true
			targetRepos = append(targetRepos, repo)
		}
	}

	out.AddFindings(p.reconciler.CheckAssignees(ctx, batch)...)

	repos := p.cfg.Rules.ReconcileRepos()
	if len(repos) == 0 {
		repos = targetRepos
	}
	for _, repo := range repos {
		out.AddFindings(p.reconciler.CheckLabels(ctx, batch, repo)...)
	}

	for _, f := range out.Warnings() {
		p.warn("%s", f.String())
	}

	span.SetAttributes(
		attribute.Bool("ghimport.valid", out.Valid),
		attribute.Int("ghimport.findings", len(out.Findings)),
	)
	p.logger.Info("enrichment complete", "warnings", len(out.Warnings()), "errors", len(out.Errors()))
	return out
}

// Commit creates one issue per record, in input order. A row's failure is
// recorded in the report and never stops the batch.
func (p *Pipeline) Commit(ctx context.Context, in *types.StageResult) *types.Report {
	if in == nil || !in.Valid || in.Data == nil {
		p.logger.Error("cannot import: validation failed")
		report := types.NewReport(0)
		report.Success = false
		return report
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.commit", trace.WithAttributes(attribute.Int("ghimport.rows", in.RowCount)))
	defer span.End()

	p.msg("Stage 3: Importing to GitHub")

	records := in.Data.Records
	report := types.NewReport(len(records))
	for _, rec := range records {
		var outcome types.Outcome
		if err := ctx.Err(); err != nil {
			outcome = types.Failed(rec.Row, rec.Get(types.FieldTitle), err.Error())
		} else {
			outcome = p.commitRow(ctx, rec)
		}
		report.Add(outcome)

		if outcome.OK() {
			p.created.Add(ctx, 1)
			p.msg("Created %s", outcome.Created.ItemID)
		} else {
			p.failed.Add(ctx, 1)
			p.logger.Error("row failed", "row", rec.Row, "title", outcome.Title, "error", outcome.Message)
		}
	}

	span.SetAttributes(
		attribute.Int("ghimport.created", report.Created),
		attribute.Int("ghimport.failed", report.Failed),
	)
	return report
}

// commitRow resolves, maps, enriches and creates one record. It never
// panics: a panic inside a collaborator becomes a failed outcome.
func (p *Pipeline) commitRow(ctx context.Context, rec types.Record) (outcome types.Outcome) {
	title := rec.Get(types.FieldTitle)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("row panicked", "row", rec.Row, "panic", r)
			outcome = types.Failed(rec.Row, title, fmt.Sprintf("internal error: %v", r))
		}
	}()

	repo := mapper.ResolveRepository(rec, p.cfg.Rules)
	if repo == "" {
		return types.Failed(rec.Row, title, "No target repository")
	}

	item, err := p.enricher.Enrich(ctx, p.mapper.Map(rec, repo))
	if err != nil {
		return types.Failed(rec.Row, title, err.Error())
	}

	p.logger.Info("creating issue", "title", item.Title, "repo", repo, "row", rec.Row)
	ref, err := p.remote.CreateIssue(ctx, repo, tracker.IssueRequest{
		Title:     item.Title,
		Body:      item.Body,
		Labels:    item.Labels,
		Assignee:  item.Assignee,
		Milestone: item.Milestone,
	})
	if err != nil {
		return types.Failed(rec.Row, title, err.Error())
	}
	if ref == nil {
		return types.Failed(rec.Row, title, "Failed to create issue")
	}
	return types.Created(rec.Row, title, types.CreatedItem{
		ItemID: ref.ID,
		Number: ref.Number,
		URL:    ref.URL,
	})
}

// Import runs validate, enrich, an optional confirmation and commit. A nil
// confirm skips the confirmation. The error is non-nil only when confirm
// itself fails.
func (p *Pipeline) Import(ctx context.Context, source string, confirm ConfirmFunc) (*ImportResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.import")
	defer span.End()

	result := &ImportResult{}
	result.Validation = p.Validate(ctx, source)
	if !result.Validation.Valid {
		result.State = StateValidationFailed
		return result, nil
	}

	result.Enrichment = p.Enrich(ctx, result.Validation)
	if !result.Enrichment.Valid {
		result.State = StateEnrichmentBlocked
		return result, nil
	}

	if confirm != nil {
		ok, err := confirm(ctx, p.Preview(result.Enrichment), result.Enrichment)
		if err != nil {
			return result, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			p.logger.Info("import cancelled")
			result.State = StateDeclined
			return result, nil
		}
	}

	result.Report = p.Commit(ctx, result.Enrichment)
	result.State = StateCommitted
	span.SetAttributes(attribute.String("ghimport.state", string(result.State)))
	return result, nil
}

func (p *Pipeline) msg(format string, args ...interface{}) {
	if p.OnMessage != nil {
		p.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (p *Pipeline) warn(format string, args ...interface{}) {
	if p.OnWarning != nil {
		p.OnWarning(fmt.Sprintf(format, args...))
	}
}
