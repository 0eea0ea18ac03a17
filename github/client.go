package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"repohealth/logger"
	"repohealth/models"
)

// MaxPerPage is GitHub's maximum page size for list endpoints.
const MaxPerPage = 100

// ErrEmptyRepository is returned for repositories without any commits (HTTP 409).
var ErrEmptyRepository = errors.New("repository has no commits")

// RateLimit represents GitHub's rate limit information
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Client talks to the GitHub REST API on behalf of whichever user token is passed in.
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	log     *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
	}

	log := logger.Named("github")
	log.Info("Initializing GitHub client",
		zap.String("base_url", u.String()),
		zap.Duration("timeout", timeout))
	return &Client{baseURL: u, timeout: timeout, log: log}, nil
}

// api builds a go-github client that sends token as a bearer credential.
func (c *Client) api(ctx context.Context, token string) *gh.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = c.timeout

	client := gh.NewClient(httpClient)
	client.BaseURL = c.baseURL
	return client
}

// ListCommits returns up to MaxPerPage of the newest commits, newest first.
// A zero since fetches without a lower bound.
func (c *Client) ListCommits(ctx context.Context, token, owner, name string, since time.Time) ([]models.Commit, error) {
	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: MaxPerPage},
	}
	if !since.IsZero() {
		opts.Since = since
	}

	c.log.Debug("Fetching commits",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Time("since", since))

	raw, resp, err := c.api(ctx, token).Repositories.ListCommits(ctx, owner, name, opts)
	if resp != nil {
		c.logRateLimit(resp)
	}
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return nil, fmt.Errorf("%s/%s: %w", owner, name, ErrEmptyRepository)
		}
		return nil, fmt.Errorf("failed to fetch commits for %s/%s: %w", owner, name, err)
	}

	commits := make([]models.Commit, 0, len(raw))
	for _, rc := range raw {
		author := rc.GetCommit().GetAuthor()
		commits = append(commits, models.Commit{
			SHA:        rc.GetSHA(),
			Message:    rc.GetCommit().GetMessage(),
			AuthorName: author.GetName(),
			AuthoredAt: author.GetDate().Time,
			URL:        rc.GetHTMLURL(),
		})
	}

	c.log.Info("Fetched commits",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(commits)))
	return commits, nil
}

// ListUserRepos returns the authenticated user's repositories, most recently updated first.
func (c *Client) ListUserRepos(ctx context.Context, token string) ([]models.RemoteRepository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: MaxPerPage},
	}

	raw, resp, err := c.api(ctx, token).Repositories.ListByAuthenticatedUser(ctx, opts)
	if resp != nil {
		c.logRateLimit(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repositories from GitHub: %w", err)
	}

	repos := make([]models.RemoteRepository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, models.RemoteRepository{
			ID:          r.GetID(),
			Name:        r.GetName(),
			Owner:       r.GetOwner().GetLogin(),
			FullName:    r.GetFullName(),
			URL:         r.GetHTMLURL(),
			Description: r.GetDescription(),
			Language:    r.GetLanguage(),
			Private:     r.GetPrivate(),
			UpdatedAt:   r.GetUpdatedAt().Time,
		})
	}
	return repos, nil
}

// rateLimitOf extracts rate limit information from a go-github response
func rateLimitOf(resp *gh.Response) RateLimit {
	return RateLimit{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
}

func (c *Client) logRateLimit(resp *gh.Response) {
	rl := rateLimitOf(resp)
	if rl.Limit > 0 && rl.Remaining < rl.Limit/10 {
		c.log.Warn("GitHub rate limit running low",
			zap.Int("limit", rl.Limit),
			zap.Int("remaining", rl.Remaining),
			zap.Time("reset", rl.Reset))
	}
}

func isStatus(err error, code int) bool {
	var errResp *gh.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == code
}
