// Package tracker defines the remote issue-tracker interface the import
// pipeline consumes. Each external system provides an adapter implementing
// Remote; the pipeline never talks to a transport directly.
package tracker

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that completed successfully but found
// nothing. Any other error is a failure of the call itself.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by CreateLabel when the remote already has a
// label with that name, typically because a concurrent importer won the race.
var ErrAlreadyExists = errors.New("already exists")

// Remote is the set of calls the importer makes against the tracker.
// All calls are synchronous request/response and safe for concurrent use.
type Remote interface {
	// GetUser looks up a user by login. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, username string) (*UserRef, error)

	// GetLabel looks up a label in repo. Returns ErrNotFound if absent.
	GetLabel(ctx context.Context, repo, name string) (*LabelRef, error)

	// CreateLabel creates a label in repo. Returns ErrAlreadyExists on a
	// duplicate-name conflict.
	CreateLabel(ctx context.Context, repo string, label LabelSpec) (*LabelRef, error)

	// CreateIssue creates a new issue in repo.
	CreateIssue(ctx context.Context, repo string, req IssueRequest) (*IssueRef, error)
}

// IsNotFound reports whether err is a successful negative lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is a duplicate-creation conflict.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
