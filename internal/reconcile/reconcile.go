// Package reconcile checks a batch's assignees and labels against the remote
// tracker without changing remote state.
package reconcile

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/ghimport/internal/tracker"
	"github.com/steveyegge/ghimport/internal/types"
)

// DefaultConcurrency bounds in-flight lookups when none is configured.
const DefaultConcurrency = 4

// Reconciler runs read-only lookups for a batch.
type Reconciler struct {
	remote      tracker.Remote
	concurrency int
}

// New creates a Reconciler. A concurrency below 1 uses DefaultConcurrency.
func New(remote tracker.Remote, concurrency int) *Reconciler {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Reconciler{remote: remote, concurrency: concurrency}
}

// CheckAssignees reports assignees that do not exist on the remote, or whose
// lookup failed. Findings are in row order.
func (r *Reconciler) CheckAssignees(ctx context.Context, batch *types.Batch) []types.Finding {
	if batch.Len() == 0 {
		return nil
	}

	var users []string
	for _, rec := range batch.Records {
		if u := rec.Trimmed(types.FieldAssignee); u != "" {
			users = append(users, u)
		}
	}

	results := r.lookup(ctx, users, func(ctx context.Context, user string) error {
		_, err := r.remote.GetUser(ctx, user)
		return err
	})

	var findings []types.Finding
	for _, rec := range batch.Records {
		user := rec.Trimmed(types.FieldAssignee)
		if user == "" {
			continue
		}
		switch err := results[user]; {
		case err == nil:
		case tracker.IsNotFound(err):
			findings = append(findings, types.Warnf(rec.Row, types.FieldAssignee, "User '%s' not found in GitHub", user))
		default:
			findings = append(findings, types.Warnf(rec.Row, types.FieldAssignee, "Failed to validate user '%s': %s", user, err))
		}
	}
	return findings
}

// CheckLabels reports labels missing from repo (they will be created at
// commit time) and labels whose lookup failed. Findings are in row order,
// then label order within a row.
func (r *Reconciler) CheckLabels(ctx context.Context, batch *types.Batch, repo string) []types.Finding {
	if batch.Len() == 0 {
		return nil
	}

	var names []string
	for _, rec := range batch.Records {
		names = append(names, types.SplitLabels(rec.Get(types.FieldLabels))...)
	}

	results := r.lookup(ctx, names, func(ctx context.Context, name string) error {
		_, err := r.remote.GetLabel(ctx, repo, name)
		return err
	})

	var findings []types.Finding
	for _, rec := range batch.Records {
		for _, name := range types.SplitLabels(rec.Get(types.FieldLabels)) {
			switch err := results[name]; {
			case err == nil:
			case tracker.IsNotFound(err):
				findings = append(findings, types.Infof(rec.Row, types.FieldLabels, "Label '%s' not found in %s, will create", name, repo))
			default:
				findings = append(findings, types.Warnf(rec.Row, types.FieldLabels, "Failed to validate label '%s': %s", name, err))
			}
		}
	}
	return findings
}

// lookup runs fn once per distinct key with bounded parallelism and returns
// each key's error (nil on success).
func (r *Reconciler) lookup(ctx context.Context, keys []string, fn func(context.Context, string) error) map[string]error {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			unique = append(unique, k)
		}
	}

	errs := make([]error, len(unique))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, key := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, key)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]error, len(unique))
	for i, key := range unique {
		results[key] = errs[i]
	}
	return results
}
