package gitlab

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultPageSize is the number of items requested per page (API maximum).
	DefaultPageSize = 100
	// maxRetries bounds the retry attempts for one request on transient faults.
	maxRetries = 3
)

// retryInterval seeds the exponential backoff. Tests shrink it.
var retryInterval = 500 * time.Millisecond

// HTTPClient is the slice of http.Client the GitLab client needs.
// It allows tests to substitute a fake transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds connection settings for one GitLab instance.
type Config struct {
	BaseURL    string
	Token      string
	APIVersion string        // default "v4"
	Timeout    time.Duration // default 15s
	VerifySSL  bool
}

// Client talks to the GitLab REST API. Transient faults (429, 5xx, network
// errors) are retried with bounded exponential backoff before surfacing.
type Client struct {
	apiBase  string
	token    string
	http     HTTPClient
	pageSize int
	log      *slog.Logger
}

// NewClient creates a GitLab API client. If httpClient is nil a client with
// the configured timeout is used.
func NewClient(cfg Config, httpClient HTTPClient, logger *slog.Logger) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = "v4"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if httpClient == nil {
		transport := http.DefaultTransport
		if !cfg.VerifySSL {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			transport = t
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiBase:  strings.TrimRight(cfg.BaseURL, "/") + "/api/" + version,
		token:    cfg.Token,
		http:     httpClient,
		pageSize: DefaultPageSize,
		log:      logger.With(slog.String("component", "gitlab")),
	}
}

// get performs one GET with retries and decodes the JSON body into out.
// The response header is returned for pagination bookkeeping.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) (http.Header, error) {
	reqURL := c.apiBase + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var header http.Header
	var body []byte

	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(&APIError{Message: err.Error()})
		}
		req.Header.Set("PRIVATE-TOKEN", c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.log.Debug("request failed, will retry",
				slog.String("url", reqURL), slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return &APIError{Message: err.Error()}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, endpoint))
		case resp.StatusCode == http.StatusUnauthorized:
			return backoff.Permanent(fmt.Errorf("%w: check the private token", ErrUnauthorized))
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrForbidden, endpoint))
		case retryable(resp.StatusCode):
			c.log.Debug("retryable status",
				slog.String("url", reqURL), slog.Int("status", resp.StatusCode), slog.Int("attempt", attempt))
			return &APIError{Status: resp.StatusCode, Message: apiMessage(resp)}
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(&APIError{Status: resp.StatusCode, Message: apiMessage(resp)})
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{Message: "read body: " + err.Error()}
		}
		header = resp.Header
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &APIError{Message: "decode response: " + err.Error()}
		}
	}
	return header, nil
}

// getAll drains every page of a paginated endpoint into items.
func getAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.pageSize))

	var all []T
	page := 1
	for page > 0 {
		query.Set("page", strconv.Itoa(page))
		var items []T
		header, err := c.get(ctx, endpoint, query, &items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		page = nextPage(header)
	}
	return all, nil
}

// nextPage parses the X-Next-Page header; 0 means no further page.
func nextPage(header http.Header) int {
	v := strings.TrimSpace(header.Get("X-Next-Page"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func apiMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed struct {
		Message any `json:"message"`
		Error   string
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Message != nil {
			return fmt.Sprintf("%v", parsed.Message)
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// GetProject fetches one project by numeric ID.
func (c *Client) GetProject(ctx context.Context, id int) (Project, error) {
	var p Project
	_, err := c.get(ctx, fmt.Sprintf("projects/%d", id), nil, &p)
	return p, err
}

// GetProjectByPath fetches one project by its full path (group/subgroup/name).
func (c *Client) GetProjectByPath(ctx context.Context, path string) (Project, error) {
	var p Project
	_, err := c.get(ctx, "projects/"+url.PathEscape(path), nil, &p)
	return p, err
}

// ListGroupProjects lists every non-archived project in a group, optionally
// descending into subgroups. The group may be a numeric ID or a path.
func (c *Client) ListGroupProjects(ctx context.Context, group string, includeSubgroups bool) ([]Project, error) {
	query := url.Values{}
	query.Set("include_subgroups", strconv.FormatBool(includeSubgroups))
	query.Set("archived", "false")
	return getAll[Project](ctx, c, "groups/"+url.PathEscape(group)+"/projects", query)
}

// GetTag fetches a tag by exact name.
func (c *Client) GetTag(ctx context.Context, projectID int, name string) (Tag, error) {
	var t Tag
	_, err := c.get(ctx, fmt.Sprintf("projects/%d/repository/tags/%s", projectID, url.PathEscape(name)), nil, &t)
	return t, err
}

// GetBranch fetches a branch by exact name.
func (c *Client) GetBranch(ctx context.Context, projectID int, name string) (Branch, error) {
	var b Branch
	_, err := c.get(ctx, fmt.Sprintf("projects/%d/repository/branches/%s", projectID, url.PathEscape(name)), nil, &b)
	return b, err
}

// GetCommit fetches a single commit by SHA.
func (c *Client) GetCommit(ctx context.Context, projectID int, sha string) (Commit, error) {
	var commit Commit
	_, err := c.get(ctx, fmt.Sprintf("projects/%d/repository/commits/%s", projectID, url.PathEscape(sha)), nil, &commit)
	return commit, err
}

// ListCommitsPage returns one page of the commit history reachable from ref,
// plus the number of the next page (0 when the history is exhausted).
func (c *Client) ListCommitsPage(ctx context.Context, projectID int, ref string, page int) ([]Commit, int, error) {
	query := url.Values{}
	query.Set("ref_name", ref)
	query.Set("per_page", strconv.Itoa(c.pageSize))
	query.Set("page", strconv.Itoa(page))

	var commits []Commit
	header, err := c.get(ctx, fmt.Sprintf("projects/%d/repository/commits", projectID), query, &commits)
	if err != nil {
		return nil, 0, err
	}
	return commits, nextPage(header), nil
}

// ListCommitRefs lists the branches and tags that contain a commit.
// refType may be "branch", "tag", or empty for both.
func (c *Client) ListCommitRefs(ctx context.Context, projectID int, sha, refType string) ([]CommitRef, error) {
	query := url.Values{}
	if refType != "" {
		query.Set("type", refType)
	}
	return getAll[CommitRef](ctx, c, fmt.Sprintf("projects/%d/repository/commits/%s/refs", projectID, url.PathEscape(sha)), query)
}

// MergeRequestQuery narrows a merge request listing. Zero-value fields are
// omitted from the request; State "all" lists every state.
type MergeRequestQuery struct {
	State         string
	TargetBranch  string
	SourceBranch  string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ListMergeRequests lists every merge request of a project matching the
// query, draining all pages.
func (c *Client) ListMergeRequests(ctx context.Context, projectID int, q MergeRequestQuery) ([]MergeRequest, error) {
	query := url.Values{}
	if q.State != "" && q.State != "all" {
		query.Set("state", q.State)
	}
	if q.TargetBranch != "" {
		query.Set("target_branch", q.TargetBranch)
	}
	if q.SourceBranch != "" {
		query.Set("source_branch", q.SourceBranch)
	}
	if q.CreatedAfter != nil {
		query.Set("created_after", q.CreatedAfter.Format(time.RFC3339))
	}
	if q.CreatedBefore != nil {
		query.Set("created_before", q.CreatedBefore.Format(time.RFC3339))
	}
	return getAll[MergeRequest](ctx, c, fmt.Sprintf("projects/%d/merge_requests", projectID), query)
}

// Ping verifies connectivity and credentials against the version endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "version", nil, nil)
	return err
}
