// Package github provides a client for the parts of the GitHub REST API the
// importer uses, and an adapter exposing it as a tracker.Remote.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// NewClient creates a new GitHub client for repositories under owner.
func NewClient(token, owner string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client with a custom base URL (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: c.HTTPClient,
	}
}

// RepoPath returns the "owner/repo" path segment. A repo that already
// contains a slash is taken as a full name.
func (c *Client) RepoPath(repo string) string {
	if strings.Contains(repo, "/") {
		return repo
	}
	return c.Owner + "/" + repo
}

// buildURL constructs a full API URL.
func (c *Client) buildURL(path string, params url.Values) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// doRequest performs one authenticated HTTP request. Non-2xx responses are
// returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}

	return respBody, nil
}

// GetUser fetches a user by login.
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	urlStr := c.buildURL("/users/"+url.PathEscape(login), nil)
	respBody, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %q: %w", login, err)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return &user, nil
}

// GetLabel fetches a label in repo by name.
func (c *Client) GetLabel(ctx context.Context, repo, name string) (*Label, error) {
	urlStr := c.buildURL("/repos/"+c.RepoPath(repo)+"/labels/"+url.PathEscape(name), nil)
	respBody, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label %q: %w", name, err)
	}

	var label Label
	if err := json.Unmarshal(respBody, &label); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}
	return &label, nil
}

// CreateLabel creates a label in repo.
func (c *Client) CreateLabel(ctx context.Context, repo string, req CreateLabelRequest) (*Label, error) {
	urlStr := c.buildURL("/repos/"+c.RepoPath(repo)+"/labels", nil)
	respBody, err := c.doRequest(ctx, http.MethodPost, urlStr, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", req.Name, err)
	}

	var label Label
	if err := json.Unmarshal(respBody, &label); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}
	return &label, nil
}

// CreateIssue creates a new issue in repo.
func (c *Client) CreateIssue(ctx context.Context, repo string, req CreateIssueRequest) (*Issue, error) {
	urlStr := c.buildURL("/repos/"+c.RepoPath(repo)+"/issues", nil)
	respBody, err := c.doRequest(ctx, http.MethodPost, urlStr, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &issue, nil
}

// ListMilestones returns the first page of milestones in repo, open and closed.
func (c *Client) ListMilestones(ctx context.Context, repo string) ([]Milestone, error) {
	params := url.Values{}
	params.Set("state", "all")
	params.Set("per_page", strconv.Itoa(MaxPageSize))

	urlStr := c.buildURL("/repos/"+c.RepoPath(repo)+"/milestones", params)
	respBody, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}

	var milestones []Milestone
	if err := json.Unmarshal(respBody, &milestones); err != nil {
		return nil, fmt.Errorf("failed to parse milestones response: %w", err)
	}
	return milestones, nil
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
