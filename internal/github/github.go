// Package github is a small client for the GitHub REST endpoints the CLI
// needs: tags, releases, forks and repository lookups.
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
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const requestTimeout = 10 * time.Second

// ErrReleaseExists is returned by CreateRelease when the tag already has a
// release.
var ErrReleaseExists = errors.New("release already exists")

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is an unexpected GitHub response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("GitHub API returned %d: %s", e.Status, body)
}

// Client talks to the GitHub REST API.
type Client struct {
	BaseURL   string
	Token     string
	UserAgent string
	HTTP      *http.Client
}

// NewClient returns a client for baseURL ("" means the public API).
func NewClient(baseURL, token, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: requestTimeout},
	}
}

// Tag is one entry of the tags listing.
type Tag struct {
	Name string `json:"name"`
}

// Repo holds the repository fields the CLI reads.
type Repo struct {
	FullName      string `json:"full_name"`
	CloneURL      string `json:"clone_url"`
	SSHURL        string `json:"ssh_url"`
	DefaultBranch string `json:"default_branch"`
	Fork          bool   `json:"fork"`
}

// Release is a created release.
type Release struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// ListTags lists the tags of owner/repo, newest first as GitHub returns them.
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]Tag, error) {
	status, body, err := c.do(ctx, http.MethodGet, repoPath(owner, repo, "tags"), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body)
	}
	var tags []Tag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("parsing tags: %w", err)
	}
	return tags, nil
}

// LatestTag returns the first listed tag, or "" when the repo has none.
func (c *Client) LatestTag(ctx context.Context, owner, repo string) (string, error) {
	tags, err := c.ListTags(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", nil
	}
	return tags[0].Name, nil
}

// TagExists checks git/refs/tags/<tag>, then releases/tags/<tag>.
func (c *Client) TagExists(ctx context.Context, owner, repo, tag string) (bool, error) {
	var lastErr error
	for _, p := range []string{
		repoPath(owner, repo, "git/refs/tags/"+url.PathEscape(tag)),
		repoPath(owner, repo, "releases/tags/"+url.PathEscape(tag)),
	} {
		status, _, err := c.do(ctx, http.MethodGet, p, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusOK {
			return true, nil
		}
	}
	return false, lastErr
}

// CreateRelease publishes a release for tag on slug ("owner/repo").
func (c *Client) CreateRelease(ctx context.Context, slug, tag, name string) (*Release, error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository slug %q", slug)
	}
	payload := map[string]any{
		"tag_name":   tag,
		"name":       name,
		"draft":      false,
		"prerelease": false,
	}
	status, body, err := c.do(ctx, http.MethodPost, repoPath(owner, repo, "releases"), payload)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		var rel Release
		if err := json.Unmarshal(body, &rel); err != nil {
			return nil, fmt.Errorf("parsing release: %w", err)
		}
		return &rel, nil
	case status == http.StatusUnprocessableEntity && bytes.Contains(body, []byte("already_exists")):
		return nil, ErrReleaseExists
	default:
		return nil, &APIError{Status: status, Body: string(body)}
	}
}

// Fork forks owner/repo into the authenticated account. GitHub answers 202
// while the fork is created asynchronously.
func (c *Client) Fork(ctx context.Context, owner, repo string) error {
	status, body, err := c.do(ctx, http.MethodPost, repoPath(owner, repo, "forks"), map[string]any{"default_branch_only": false})
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusAccepted {
		return &APIError{Status: status, Body: string(body)}
	}
	return nil
}

// GetRepo fetches owner/repo. A missing repository yields ErrNotFound.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	status, body, err := c.do(ctx, http.MethodGet, repoPath(owner, repo, ""), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(status, body)
	}
	var r Repo
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("parsing repository: %w", err)
	}
	return &r, nil
}

// WaitForRepo polls GetRepo until it succeeds or attempts run out.
func (c *Client) WaitForRepo(ctx context.Context, owner, repo string, attempts int, interval time.Duration) (*Repo, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		r, err := c.GetRepo(ctx, owner, repo)
		if err == nil {
			return r, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("repository %s/%s not available after %d attempts: %w", owner, repo, attempts, lastErr)
}

func repoPath(owner, repo, rest string) string {
	p := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	if rest != "" {
		p += "/" + rest
	}
	return p
}

func statusError(status int, body []byte) error {
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	return &APIError{Status: status, Body: string(body)}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	ua := c.UserAgent
	if ua == "" {
		ua = "splent-cli"
	}
	req.Header.Set("User-Agent", ua)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("github")
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
