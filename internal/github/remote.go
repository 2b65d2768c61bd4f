package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/steveyegge/ghimport/internal/tracker"
)

// Remote adapts a Client to tracker.Remote.
type Remote struct {
	client *Client

	mu         sync.Mutex
	milestones map[string][]Milestone // repo path -> first page
}

// NewRemote wraps client.
func NewRemote(client *Client) *Remote {
	return &Remote{
		client:     client,
		milestones: make(map[string][]Milestone),
	}
}

// GetUser implements tracker.Remote.
func (r *Remote) GetUser(ctx context.Context, username string) (*tracker.UserRef, error) {
	user, err := r.client.GetUser(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	return &tracker.UserRef{ID: user.ID, Login: user.Login, URL: user.HTMLURL}, nil
}

// GetLabel implements tracker.Remote.
func (r *Remote) GetLabel(ctx context.Context, repo, name string) (*tracker.LabelRef, error) {
	label, err := r.client.GetLabel(ctx, repo, name)
	if err != nil {
		return nil, translate(err)
	}
	return &tracker.LabelRef{ID: label.ID, Name: label.Name, Color: label.Color}, nil
}

// CreateLabel implements tracker.Remote.
func (r *Remote) CreateLabel(ctx context.Context, repo string, spec tracker.LabelSpec) (*tracker.LabelRef, error) {
	label, err := r.client.CreateLabel(ctx, repo, CreateLabelRequest{
		Name:        spec.Name,
		Color:       strings.TrimPrefix(spec.Color, "#"),
		Description: spec.Description,
	})
	if err != nil {
		return nil, translate(err)
	}
	return &tracker.LabelRef{ID: label.ID, Name: label.Name, Color: label.Color}, nil
}

// CreateIssue implements tracker.Remote.
func (r *Remote) CreateIssue(ctx context.Context, repo string, req tracker.IssueRequest) (*tracker.IssueRef, error) {
	body := CreateIssueRequest{
		Title:  req.Title,
		Body:   req.Body,
		Labels: req.Labels,
	}
	if req.Assignee != "" {
		body.Assignees = []string{req.Assignee}
	}
	if req.Milestone != "" {
		number, err := r.resolveMilestone(ctx, repo, req.Milestone)
		if err != nil {
			return nil, err
		}
		body.Milestone = number
	}

	issue, err := r.client.CreateIssue(ctx, repo, body)
	if err != nil {
		return nil, translate(err)
	}
	return &tracker.IssueRef{
		ID:     fmt.Sprintf("%s#%d", r.client.RepoPath(repo), issue.Number),
		Number: issue.Number,
		URL:    issue.HTMLURL,
	}, nil
}

// resolveMilestone maps a milestone number or title to its number.
func (r *Remote) resolveMilestone(ctx context.Context, repo, value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n, nil
	}

	key := r.client.RepoPath(repo)
	r.mu.Lock()
	list, ok := r.milestones[key]
	r.mu.Unlock()

	if !ok {
		fetched, err := r.client.ListMilestones(ctx, repo)
		if err != nil {
			return 0, translate(err)
		}
		r.mu.Lock()
		r.milestones[key] = fetched
		r.mu.Unlock()
		list = fetched
	}

	for _, m := range list {
		if m.Title == value {
			return m.Number, nil
		}
	}
	return 0, fmt.Errorf("milestone %q not found in %s", value, key)
}

// translate maps API status codes onto tracker sentinels. The *APIError
// stays in the chain.
func translate(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", tracker.ErrNotFound, err)
	case apiErr.StatusCode == http.StatusUnprocessableEntity && apiErr.HasCode("already_exists"):
		return fmt.Errorf("%w: %w", tracker.ErrAlreadyExists, err)
	default:
		return err
	}
}

var _ tracker.Remote = (*Remote)(nil)
