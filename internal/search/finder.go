// Package search locates commits by SHA across a set of GitLab projects
// and reports which branches and tags contain them.
package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// Client is the slice of the GitLab API the finder needs.
type Client interface {
	GetCommit(ctx context.Context, projectID int, sha string) (gitlab.Commit, error)
	ListCommitRefs(ctx context.Context, projectID int, sha, refType string) ([]gitlab.CommitRef, error)
}

// Result is one (commit, project) match. A commit absent from every project
// produces no results at all; a transport failure while probing produces a
// result with Err set so the caller can tell "absent" from "unknown".
type Result struct {
	SHA         string         `json:"sha"`
	Project     gitlab.Project `json:"project"`
	Found       bool           `json:"found"`
	Title       string         `json:"title,omitempty"`
	AuthorName  string         `json:"author_name,omitempty"`
	AuthorEmail string         `json:"author_email,omitempty"`
	CommittedAt string         `json:"committed_at,omitempty"`
	WebURL      string         `json:"web_url,omitempty"`
	Branches    []string       `json:"branches,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Err         string         `json:"error,omitempty"`
}

// Finder probes projects for commits.
type Finder struct {
	client   Client
	projects []gitlab.Project
	log      *slog.Logger
}

// NewFinder creates a finder over the given projects.
func NewFinder(client Client, projects []gitlab.Project, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		client:   client,
		projects: projects,
		log:      logger.With(slog.String("component", "search")),
	}
}

// Search probes every project for each SHA, in input order. Blank SHAs are
// skipped. The returned slice holds one entry per project where the commit
// was found or where probing failed.
func (f *Finder) Search(ctx context.Context, shas []string) ([]Result, error) {
	var results []Result
	for _, sha := range shas {
		sha = strings.TrimSpace(sha)
		if sha == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		matches := 0
		for _, project := range f.projects {
			result := f.probe(ctx, sha, project)
			if result.Found || result.Err != "" {
				results = append(results, result)
			}
			if result.Found {
				matches++
			}
		}
		if matches == 0 {
			f.log.Warn("commit not found in any project", slog.String("sha", sha))
		} else {
			f.log.Info("commit located",
				slog.String("sha", sha), slog.Int("projects", matches))
		}
	}
	return results, nil
}

func (f *Finder) probe(ctx context.Context, sha string, project gitlab.Project) Result {
	result := Result{SHA: sha, Project: project}

	commit, err := f.client.GetCommit(ctx, project.ID, sha)
	if err != nil {
		if errors.Is(err, gitlab.ErrNotFound) {
			return result
		}
		result.Err = err.Error()
		f.log.Error("commit probe failed",
			slog.String("sha", sha),
			slog.String("project", project.PathWithNamespace),
			slog.String("error", err.Error()))
		return result
	}

	result.Found = true
	result.Title = commit.Title
	result.AuthorName = commit.AuthorName
	result.AuthorEmail = commit.AuthorEmail
	if !commit.CommittedDate.IsZero() {
		result.CommittedAt = commit.CommittedDate.Format("2006-01-02T15:04:05Z07:00")
	}
	result.WebURL = commitWebURL(commit, project, sha)

	refs, err := f.client.ListCommitRefs(ctx, project.ID, sha, "")
	if err != nil {
		// Refs are supplementary; keep the commit info.
		result.Err = fmt.Sprintf("could not fetch refs: %v", err)
		return result
	}
	for _, ref := range refs {
		switch ref.Type {
		case "branch":
			result.Branches = append(result.Branches, ref.Name)
		case "tag":
			result.Tags = append(result.Tags, ref.Name)
		}
	}
	return result
}

// commitWebURL prefers the API-provided URL, normalizing away the "/-/"
// path segment so links are stable across GitLab versions.
func commitWebURL(commit gitlab.Commit, project gitlab.Project, sha string) string {
	if commit.WebURL != "" {
		return strings.Replace(commit.WebURL, "/-/commit/", "/commit/", 1)
	}
	return strings.TrimRight(project.WebURL, "/") + "/commit/" + sha
}

// LoadSHAs reads commit SHAs from r, one per line. Blank lines and lines
// starting with '#' are skipped.
func LoadSHAs(r io.Reader) ([]string, error) {
	var shas []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		shas = append(shas, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read commit list: %w", err)
	}
	return shas, nil
}
