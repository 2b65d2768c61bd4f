package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/ghimport/internal/tracker/testutil"
	"github.com/steveyegge/ghimport/internal/types"
)

func record(row int, assignee, labels string) types.Record {
	return types.Record{Row: row, Fields: map[string]string{
		types.FieldTitle:    fmt.Sprintf("Item %d", row),
		types.FieldType:     "Task",
		types.FieldAssignee: assignee,
		types.FieldLabels:   labels,
	}}
}

func batchOf(records ...types.Record) *types.Batch {
	return &types.Batch{Headers: types.RequiredFields, Records: records}
}

func TestCheckAssignees(t *testing.T) {
	remote := testutil.NewFakeRemote().AddUser("alice")
	remote.FailOn(testutil.OpGetUser, "bob", errors.New("boom"))

	batch := batchOf(
		record(2, "alice", ""),
		record(3, " ghost-user ", ""),
		record(4, "", ""),
		record(5, "bob", ""),
	)

	got := New(remote, 2).CheckAssignees(context.Background(), batch)
	want := []types.Finding{
		{Row: 3, Field: "Assignee", Message: "User 'ghost-user' not found in GitHub", Severity: types.SeverityWarn},
		{Row: 5, Field: "Assignee", Message: "Failed to validate user 'bob': boom", Severity: types.SeverityWarn},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckAssignees() mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAssignees_UnknownUserDoesNotBlock(t *testing.T) {
	remote := testutil.NewFakeRemote()
	batch := batchOf(record(2, "ghost-user", ""))

	findings := New(remote, 0).CheckAssignees(context.Background(), batch)
	assert.Len(t, findings, 1)
	assert.False(t, types.HasErrors(findings), "unknown assignees are warnings")
}

func TestCheckAssignees_LooksUpEachUserOnce(t *testing.T) {
	remote := testutil.NewFakeRemote()
	batch := batchOf(record(2, "ghost", ""), record(3, "ghost", ""), record(4, "ghost", ""))

	findings := New(remote, 4).CheckAssignees(context.Background(), batch)
	assert.Len(t, findings, 3, "one finding per row")
	assert.Equal(t, 1, remote.Calls(testutil.OpGetUser))
}

func TestCheckLabels(t *testing.T) {
	remote := testutil.NewFakeRemote().AddLabel("web", "bug")
	remote.FailOn(testutil.OpGetLabel, "web/flaky", errors.New("timeout"))

	batch := batchOf(
		record(2, "", "bug;  needs-triage ;;"),
		record(3, "", "flaky"),
		record(4, "", ""),
	)

	got := New(remote, 4).CheckLabels(context.Background(), batch, "web")
	want := []types.Finding{
		{Row: 2, Field: "Labels", Message: "Label 'needs-triage' not found in web, will create", Severity: types.SeverityInfo},
		{Row: 3, Field: "Labels", Message: "Failed to validate label 'flaky': timeout", Severity: types.SeverityWarn},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckLabels() mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, remote.HasLabel("web", "needs-triage"), "reconciliation never creates labels")
	assert.Zero(t, remote.Calls(testutil.OpCreateLabel))
}

// TestCheckLabels_RowOrder verifies findings come back in row order no matter
// how the parallel lookups complete.
func TestCheckLabels_RowOrder(t *testing.T) {
	var records []types.Record
	var want []types.Finding
	for i := 0; i < 50; i++ {
		row := i + types.FirstDataRow
		name := fmt.Sprintf("label-%02d", i)
		records = append(records, record(row, "", name))
		want = append(want, types.Infof(row, types.FieldLabels, "Label '%s' not found in api, will create", name))
	}

	got := New(testutil.NewFakeRemote(), 8).CheckLabels(context.Background(), batchOf(records...), "api")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckLabels() order mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := testutil.NewFakeRemote().AddUser("alice")
	findings := New(remote, 1).CheckAssignees(ctx, batchOf(record(2, "alice", "")))
	if assert.Len(t, findings, 1) {
		assert.Contains(t, findings[0].Message, context.Canceled.Error())
	}
	assert.Zero(t, remote.Calls(testutil.OpGetUser))
}

func TestCheck_EmptyBatch(t *testing.T) {
	r := New(testutil.NewFakeRemote(), 1)
	assert.Empty(t, r.CheckAssignees(context.Background(), nil))
	assert.Empty(t, r.CheckLabels(context.Background(), &types.Batch{}, "web"))
}
