package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/steveyegge/ghimport/internal/tracker"
)

// Operation names used as keys for injected errors and call counts.
const (
	OpGetUser     = "GetUser"
	OpGetLabel    = "GetLabel"
	OpCreateLabel = "CreateLabel"
	OpCreateIssue = "CreateIssue"
)

// CreatedIssue records one successful CreateIssue call on a FakeRemote.
type CreatedIssue struct {
	Repo    string
	Request tracker.IssueRequest
	Ref     tracker.IssueRef
}

// FakeRemote is an in-memory tracker.Remote. Users and labels are seeded
// with AddUser/AddLabel; failures are injected per operation and key.
// Safe for concurrent use.
type FakeRemote struct {
	mu sync.Mutex

	users  map[string]bool
	labels map[string]map[string]bool // repo -> name

	// errs maps op -> key -> error. The key is the username for GetUser,
	// "repo/name" for label calls, and the issue title for CreateIssue.
	errs  map[string]map[string]error
	calls map[string]int

	// RaceLabels makes CreateLabel report ErrAlreadyExists, as if another
	// importer created the label between lookup and creation.
	RaceLabels bool

	created    []CreatedIssue
	nextNumber int
}

// NewFakeRemote returns an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		users:  make(map[string]bool),
		labels: make(map[string]map[string]bool),
		errs:   make(map[string]map[string]error),
		calls:  make(map[string]int),
	}
}

// AddUser seeds existing users.
func (f *FakeRemote) AddUser(logins ...string) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range logins {
		f.users[l] = true
	}
	return f
}

// AddLabel seeds existing labels in repo.
func (f *FakeRemote) AddLabel(repo string, names ...string) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLabelLocked(repo, names...)
	return f
}

func (f *FakeRemote) addLabelLocked(repo string, names ...string) {
	if f.labels[repo] == nil {
		f.labels[repo] = make(map[string]bool)
	}
	for _, n := range names {
		f.labels[repo][n] = true
	}
}

// FailOn makes op fail with err for key.
func (f *FakeRemote) FailOn(op, key string, err error) *FakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs[op] == nil {
		f.errs[op] = make(map[string]error)
	}
	f.errs[op][key] = err
	return f
}

// Calls returns how many times op was invoked.
func (f *FakeRemote) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// HasLabel reports whether repo currently has the label.
func (f *FakeRemote) HasLabel(repo, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labels[repo][name]
}

// Created returns the created issues sorted by issue number.
func (f *FakeRemote) Created() []CreatedIssue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CreatedIssue, len(f.created))
	copy(out, f.created)
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.Number < out[j].Ref.Number })
	return out
}

func (f *FakeRemote) begin(op, key string) error {
	f.calls[op]++
	return f.errs[op][key]
}

// GetUser implements tracker.Remote.
func (f *FakeRemote) GetUser(_ context.Context, username string) (*tracker.UserRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpGetUser, username); err != nil {
		return nil, err
	}
	if !f.users[username] {
		return nil, tracker.ErrNotFound
	}
	return &tracker.UserRef{Login: username}, nil
}

// GetLabel implements tracker.Remote.
func (f *FakeRemote) GetLabel(_ context.Context, repo, name string) (*tracker.LabelRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpGetLabel, repo+"/"+name); err != nil {
		return nil, err
	}
	if !f.labels[repo][name] {
		return nil, tracker.ErrNotFound
	}
	return &tracker.LabelRef{Name: name, Color: tracker.DefaultLabelColor}, nil
}

// CreateLabel implements tracker.Remote.
func (f *FakeRemote) CreateLabel(_ context.Context, repo string, label tracker.LabelSpec) (*tracker.LabelRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCreateLabel, repo+"/"+label.Name); err != nil {
		return nil, err
	}
	if f.RaceLabels || f.labels[repo][label.Name] {
		f.addLabelLocked(repo, label.Name)
		return nil, tracker.ErrAlreadyExists
	}
	f.addLabelLocked(repo, label.Name)
	return &tracker.LabelRef{Name: label.Name, Color: label.Color}, nil
}

// CreateIssue implements tracker.Remote.
func (f *FakeRemote) CreateIssue(_ context.Context, repo string, req tracker.IssueRequest) (*tracker.IssueRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCreateIssue, req.Title); err != nil {
		return nil, err
	}
	f.nextNumber++
	ref := tracker.IssueRef{
		ID:     fmt.Sprintf("%s#%d", repo, f.nextNumber),
		Number: f.nextNumber,
		URL:    fmt.Sprintf("https://github.test/%s/issues/%d", repo, f.nextNumber),
	}
	labels := append([]string(nil), req.Labels...)
	req.Labels = labels
	f.created = append(f.created, CreatedIssue{Repo: repo, Request: req, Ref: ref})
	return &ref, nil
}

var _ tracker.Remote = (*FakeRemote)(nil)
