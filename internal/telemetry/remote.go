package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/ghimport/internal/tracker"
)

const remoteScopeName = "github.com/steveyegge/ghimport/remote"

// InstrumentedRemote wraps tracker.Remote with OTel tracing and metrics.
// Every call gets a span and is counted in ghimport.remote.* metrics.
// A not-found lookup is a normal result and is not counted as an error.
type InstrumentedRemote struct {
	inner  tracker.Remote
	tracer trace.Tracer
	calls  metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapRemote returns r decorated with OTel instrumentation.
// When telemetry is disabled, r is returned as-is.
func WrapRemote(r tracker.Remote) tracker.Remote {
	if !Enabled() {
		return r
	}
	return newInstrumentedRemote(r, Meter(remoteScopeName), Tracer(remoteScopeName))
}

func newInstrumentedRemote(r tracker.Remote, m metric.Meter, t trace.Tracer) *InstrumentedRemote {
	calls, _ := m.Int64Counter("ghimport.remote.calls",
		metric.WithDescription("Total remote tracker calls"),
	)
	dur, _ := m.Float64Histogram("ghimport.remote.call.duration",
		metric.WithDescription("Remote call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("ghimport.remote.errors",
		metric.WithDescription("Total failed remote calls"),
	)
	return &InstrumentedRemote{inner: r, tracer: t, calls: calls, dur: dur, errs: errs}
}

func (r *InstrumentedRemote) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time, []attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String("ghimport.remote.operation", name)}, attrs...)
	ctx, span := r.tracer.Start(ctx, "remote."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	r.calls.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now(), all
}

func (r *InstrumentedRemote) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	r.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	switch {
	case err == nil:
	case tracker.IsNotFound(err), tracker.IsAlreadyExists(err):
		span.SetAttributes(attribute.String("ghimport.remote.result", resultOf(err)))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func resultOf(err error) string {
	if tracker.IsNotFound(err) {
		return "not_found"
	}
	return "already_exists"
}

// GetUser implements tracker.Remote.
func (r *InstrumentedRemote) GetUser(ctx context.Context, username string) (*tracker.UserRef, error) {
	ctx, span, t, attrs := r.op(ctx, "GetUser")
	v, err := r.inner.GetUser(ctx, username)
	r.done(ctx, span, t, err, attrs)
	return v, err
}

// GetLabel implements tracker.Remote.
func (r *InstrumentedRemote) GetLabel(ctx context.Context, repo, name string) (*tracker.LabelRef, error) {
	ctx, span, t, attrs := r.op(ctx, "GetLabel", attribute.String("ghimport.repo", repo))
	v, err := r.inner.GetLabel(ctx, repo, name)
	r.done(ctx, span, t, err, attrs)
	return v, err
}

// CreateLabel implements tracker.Remote.
func (r *InstrumentedRemote) CreateLabel(ctx context.Context, repo string, label tracker.LabelSpec) (*tracker.LabelRef, error) {
	ctx, span, t, attrs := r.op(ctx, "CreateLabel", attribute.String("ghimport.repo", repo))
	v, err := r.inner.CreateLabel(ctx, repo, label)
	r.done(ctx, span, t, err, attrs)
	return v, err
}

// CreateIssue implements tracker.Remote.
func (r *InstrumentedRemote) CreateIssue(ctx context.Context, repo string, req tracker.IssueRequest) (*tracker.IssueRef, error) {
	ctx, span, t, attrs := r.op(ctx, "CreateIssue",
		attribute.String("ghimport.repo", repo),
		attribute.Int("ghimport.labels", len(req.Labels)),
	)
	v, err := r.inner.CreateIssue(ctx, repo, req)
	r.done(ctx, span, t, err, attrs)
	return v, err
}

var _ tracker.Remote = (*InstrumentedRemote)(nil)
