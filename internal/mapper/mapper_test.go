package mapper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/ghimport/internal/config"
	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/tracker/testutil"
	"github.com/steveyegge/ghimport/internal/types"
)

func rec(fields map[string]string) types.Record {
	return types.Record{Row: 2, Fields: fields}
}

func TestMap(t *testing.T) {
	m := New("ask-myuni")
	got := m.Map(rec(map[string]string{
		"Title":       "  Login form ",
		"Description": "\nBuild it\n",
		"Type":        "Task",
		"Labels":      "ui",
		"Assignee":    " alice ",
		"Milestone":   "  ",
	}), "web")

	want := types.OutboundItem{
		Row:              2,
		Title:            "Login form",
		Body:             "Build it",
		Labels:           []string{"ui", "ask-myuni"},
		Assignee:         "alice",
		Milestone:        "",
		Type:             types.TypeTask,
		TargetRepository: "web",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}

// TestMap_LabelsDeduplicated covers a label cell with repeats and padding.
func TestMap_LabelsDeduplicated(t *testing.T) {
	got := New("ask-myuni").Map(rec(map[string]string{"Labels": "bug;  ui ;bug"}), "web")
	assert.Equal(t, []string{"bug", "ui", "ask-myuni"}, got.Labels)
}

func TestMap_ProjectLabelNotDuplicated(t *testing.T) {
	got := New("ask-myuni").Map(rec(map[string]string{"Labels": "ask-myuni;ui"}), "web")
	assert.Equal(t, []string{"ask-myuni", "ui"}, got.Labels)
}

func TestMap_NoProjectLabel(t *testing.T) {
	got := New("").Map(rec(map[string]string{"Labels": ""}), "web")
	assert.Empty(t, got.Labels)
}

func TestMap_Deterministic(t *testing.T) {
	m := New("ask-myuni")
	r := rec(map[string]string{"Title": "x", "Labels": "c;b;a;b", "Type": "Epic"})
	first := m.Map(r, "web")
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, m.Map(r, "web")); diff != "" {
			t.Fatalf("Map() not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResolveRepository(t *testing.T) {
	rules := config.RepositoryRules{Default: "web"}
	assert.Equal(t, "api", ResolveRepository(rec(map[string]string{"Repository": "api"}), rules))
	assert.Equal(t, "web", ResolveRepository(rec(map[string]string{}), rules))
	assert.Equal(t, "", ResolveRepository(rec(map[string]string{}), config.RepositoryRules{}))
}

func item(labels ...string) types.OutboundItem {
	return types.OutboundItem{Row: 2, Title: "t", Labels: labels, TargetRepository: "web"}
}

func TestEnrich_CreatesMissingLabels(t *testing.T) {
	remote := testutil.NewFakeRemote().AddLabel("web", "bug")
	e := NewEnricher(remote, tracker.LabelSpec{}, nil)

	got, err := e.Enrich(context.Background(), item("bug", "needs-triage"))
	require.NoError(t, err)

	assert.Equal(t, []string{"bug", "needs-triage"}, got.Labels)
	assert.True(t, remote.HasLabel("web", "needs-triage"))
	assert.Equal(t, 1, remote.Calls(testutil.OpCreateLabel))
}

// TestEnrich_SharedNewLabel covers two items that both need the same new
// label when the second lookup races the first creation.
func TestEnrich_SharedNewLabel(t *testing.T) {
	fake := testutil.NewFakeRemote()
	remote := staleLookups{fake}
	e := NewEnricher(remote, tracker.LabelSpec{}, nil)

	first, err := e.Enrich(context.Background(), item("needs-triage"))
	require.NoError(t, err)
	second, err := e.Enrich(context.Background(), types.OutboundItem{Row: 3, Labels: []string{"needs-triage"}, TargetRepository: "web"})
	require.NoError(t, err, "already-exists is success")

	assert.Equal(t, []string{"needs-triage"}, first.Labels)
	assert.Equal(t, []string{"needs-triage"}, second.Labels)
	assert.Equal(t, 2, fake.Calls(testutil.OpCreateLabel), "each item makes its own attempt")
	assert.True(t, fake.HasLabel("web", "needs-triage"))
}

func TestEnrich_RaceReportedByRemote(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.RaceLabels = true

	got, err := NewEnricher(remote, tracker.LabelSpec{}, nil).Enrich(context.Background(), item("fresh"))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got.Labels)
}

func TestEnrich_Idempotent(t *testing.T) {
	remote := testutil.NewFakeRemote()
	e := NewEnricher(remote, tracker.LabelSpec{}, nil)
	in := item("a", "b", "ask-myuni")

	once, err := e.Enrich(context.Background(), in)
	require.NoError(t, err)
	twice, err := e.Enrich(context.Background(), once)
	require.NoError(t, err)

	assert.Equal(t, once.Labels, twice.Labels)
	assert.Equal(t, 3, remote.Calls(testutil.OpCreateLabel), "second pass creates nothing")
}

func TestEnrich_FailuresKeepLabel(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.FailOn(testutil.OpGetLabel, "web/flaky", errors.New("timeout"))
	remote.FailOn(testutil.OpCreateLabel, "web/denied", errors.New("forbidden"))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := NewEnricher(remote, tracker.LabelSpec{}, logger)

	got, err := e.Enrich(context.Background(), item("flaky", "denied"))
	require.NoError(t, err)
	assert.Equal(t, []string{"flaky", "denied"}, got.Labels)
	assert.Contains(t, buf.String(), "label lookup failed")
	assert.Contains(t, buf.String(), "label creation failed")
}

func TestEnrich_DefaultColor(t *testing.T) {
	rs := &recordingRemote{FakeRemote: testutil.NewFakeRemote()}
	e := NewEnricher(rs, tracker.LabelSpec{Description: "Imported"}, nil)

	_, err := e.Enrich(context.Background(), item("new"))
	require.NoError(t, err)
	require.Len(t, rs.specs, 1)
	assert.Equal(t, tracker.LabelSpec{Name: "new", Color: "cccccc", Description: "Imported"}, rs.specs[0])
}

func TestEnrich_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := testutil.NewFakeRemote()
	_, err := NewEnricher(remote, tracker.LabelSpec{}, nil).Enrich(ctx, item("a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, remote.Calls(testutil.OpGetLabel))
}

type recordingRemote struct {
	*testutil.FakeRemote
	specs []tracker.LabelSpec
}

func (r *recordingRemote) CreateLabel(ctx context.Context, repo string, spec tracker.LabelSpec) (*tracker.LabelRef, error) {
	r.specs = append(r.specs, spec)
	return r.FakeRemote.CreateLabel(ctx, repo, spec)
}

// staleLookups reports every label as missing, as a lookup made before a
// concurrent creation would.
type staleLookups struct {
	*testutil.FakeRemote
}

func (staleLookups) GetLabel(context.Context, string, string) (*tracker.LabelRef, error) {
	return nil, tracker.ErrNotFound
}
