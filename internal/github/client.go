package github

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/nickromney-org/github-release-updater-proxy/pkg/types"
)

// DefaultMaxReleases is the page size used when listing releases
const DefaultMaxReleases = 30

// Client wraps the GitHub API client
type Client struct {
	gh            *gh.Client
	authenticated bool
	maxReleases   int
	timeout       time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithMaxReleases sets how many of the newest releases are fetched
func WithMaxReleases(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxReleases = n
		}
	}
}

// WithTimeout bounds every upstream request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a new GitHub API client
func NewClient(token string, opts ...Option) *Client {
	var client *gh.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		client = gh.NewClient(tc)
	} else {
		client = gh.NewClient(nil)
	}

	c := &Client{
		gh:            client,
		authenticated: token != "",
		maxReleases:   DefaultMaxReleases,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Releases fetches the newest releases of a repository. A missing repository
// yields no releases rather than an error. Private repositories are never
// served, even when the token could read them.
func (c *Client) Releases(ctx context.Context, owner, repo string) ([]types.Release, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.authenticated {
		repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
		if isNotFound(resp) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
		}
		if repository.GetPrivate() {
			return nil, nil
		}
	}

	opts := &gh.ListOptions{PerPage: c.maxReleases}

	ghReleases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
	if isNotFound(resp) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of %s/%s: %w", owner, repo, err)
	}

	var result []types.Release
	for _, ghRelease := range ghReleases {
		// Drafts are not published yet
		if ghRelease.GetDraft() {
			continue
		}

		result = append(result, parseRelease(ghRelease))
	}

	return result, nil
}

func isNotFound(resp *gh.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// parseRelease converts a GitHub release to our Release type
func parseRelease(ghRelease *gh.RepositoryRelease) types.Release {
	release := types.Release{
		TagName:    ghRelease.GetTagName(),
		Name:       ghRelease.GetName(),
		Body:       ghRelease.GetBody(),
		HTMLURL:    ghRelease.GetHTMLURL(),
		Draft:      ghRelease.GetDraft(),
		Prerelease: ghRelease.GetPrerelease(),
		CreatedAt:  ghRelease.GetCreatedAt().Time,
		Assets:     make([]types.Asset, 0, len(ghRelease.Assets)),
	}

	if publishedAt := ghRelease.GetPublishedAt(); !publishedAt.IsZero() {
		t := publishedAt.Time
		release.PublishedAt = &t
	}

	for _, a := range ghRelease.Assets {
		release.Assets = append(release.Assets, types.Asset{
			Name:        a.GetName(),
			Size:        int64(a.GetSize()),
			ContentType: a.GetContentType(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}

	return release
}

// MockClient is a mock implementation for testing
type MockClient struct {
	mu     sync.Mutex
	ByRepo map[string][]types.Release // keyed by "owner/repo"
	Error  error

	calls atomic.Int64
}

// NewMockClient returns a mock serving the given releases
func NewMockClient(releases map[string][]types.Release) *MockClient {
	return &MockClient{ByRepo: releases}
}

// Releases returns the mocked releases
func (m *MockClient) Releases(ctx context.Context, owner, repo string) ([]types.Release, error) {
	m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Error != nil {
		return nil, m.Error
	}

	releases := m.ByRepo[owner+"/"+repo]
	out := make([]types.Release, len(releases))
	copy(out, releases)
	return out, nil
}

// Put replaces the releases of a repository
func (m *MockClient) Put(owner, repo string, releases []types.Release) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ByRepo == nil {
		m.ByRepo = make(map[string][]types.Release)
	}
	m.ByRepo[owner+"/"+repo] = releases
}

// SetError makes every following call fail with err
func (m *MockClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Error = err
}

// Calls returns how many times releases were requested
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}
