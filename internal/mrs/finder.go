// Package mrs tracks merge requests across a set of GitLab projects,
// filtered by branch, state, and date windows.
package mrs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// Valid state filters. StateAll disables state filtering.
const (
	StateMerged = "merged"
	StateOpened = "opened"
	StateClosed = "closed"
	StateAll    = "all"
)

// Client is the slice of the GitLab API the finder needs.
type Client interface {
	ListMergeRequests(ctx context.Context, projectID int, q gitlab.MergeRequestQuery) ([]gitlab.MergeRequest, error)
}

// Filter narrows the merge requests reported per project. The created
// window is pushed down to the API; the merged window is applied locally
// because the listing endpoint cannot filter on merge time.
type Filter struct {
	State        string
	TargetBranch string
	SourceBranch string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	MergedAfter   *time.Time
	MergedBefore  *time.Time
}

// Validate rejects unknown state filters. An empty state means merged, the
// common case for release tracking.
func (f Filter) Validate() error {
	switch f.State {
	case "", StateMerged, StateOpened, StateClosed, StateAll:
		return nil
	default:
		return fmt.Errorf("state must be one of merged, opened, closed, all; got %q", f.State)
	}
}

func (f Filter) state() string {
	if f.State == "" {
		return StateMerged
	}
	return f.State
}

// Result holds the merge requests found in one project. A project that
// cannot be listed records Err and the run continues.
type Result struct {
	Project       gitlab.Project        `json:"project"`
	MergeRequests []gitlab.MergeRequest `json:"merge_requests"`
	Err           string                `json:"error,omitempty"`
}

// HasMergeRequests reports whether any merge requests matched.
func (r *Result) HasMergeRequests() bool {
	return len(r.MergeRequests) > 0
}

// Finder lists merge requests across projects.
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
		log:      logger.With(slog.String("component", "mrs")),
	}
}

// Find lists the merge requests of every project matching the filter, in
// project input order. Per-project failures are recorded on the result and
// never abort the run; only cancellation stops the walk early.
func (f *Finder) Find(ctx context.Context, filter Filter) ([]Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(f.projects))
	for _, project := range f.projects {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, f.fetchProject(ctx, project, filter))
	}

	total := 0
	withMRs := 0
	for i := range results {
		total += len(results[i].MergeRequests)
		if results[i].HasMergeRequests() {
			withMRs++
		}
	}
	f.log.Info("merge request fetch complete",
		slog.Int("merge_requests", total), slog.Int("projects_with_mrs", withMRs))
	return results, nil
}

func (f *Finder) fetchProject(ctx context.Context, project gitlab.Project, filter Filter) Result {
	result := Result{Project: project}

	mrs, err := f.client.ListMergeRequests(ctx, project.ID, gitlab.MergeRequestQuery{
		State:         filter.state(),
		TargetBranch:  filter.TargetBranch,
		SourceBranch:  filter.SourceBranch,
		CreatedAfter:  filter.CreatedAfter,
		CreatedBefore: filter.CreatedBefore,
	})
	if err != nil {
		if errors.Is(err, gitlab.ErrNotFound) {
			result.Err = fmt.Sprintf("project not found: %v", err)
		} else {
			result.Err = err.Error()
		}
		f.log.Error("merge request listing failed",
			slog.String("project", project.PathWithNamespace),
			slog.String("error", result.Err))
		return result
	}

	result.MergeRequests = applyMergedWindow(mrs, filter)
	f.log.Debug("merge requests listed",
		slog.String("project", project.PathWithNamespace),
		slog.Int("count", len(result.MergeRequests)))
	return result
}

// applyMergedWindow keeps merge requests whose merge time falls inside the
// bounds. With either bound set, unmerged MRs are dropped: a merge window
// is only meaningful for merged work.
func applyMergedWindow(mrs []gitlab.MergeRequest, filter Filter) []gitlab.MergeRequest {
	if filter.MergedAfter == nil && filter.MergedBefore == nil {
		return mrs
	}
	kept := mrs[:0]
	for _, mr := range mrs {
		if mr.MergedAt == nil {
			continue
		}
		if filter.MergedAfter != nil && mr.MergedAt.Before(*filter.MergedAfter) {
			continue
		}
		if filter.MergedBefore != nil && mr.MergedAt.After(*filter.MergedBefore) {
			continue
		}
		kept = append(kept, mr)
	}
	return kept
}

// ProjectCount is one entry in the per-project merge request ranking.
type ProjectCount struct {
	ProjectPath   string `json:"project_path"`
	MergeRequests int    `json:"merge_requests"`
}

// AuthorCount is one entry in the per-author merge request breakdown.
type AuthorCount struct {
	Author        string `json:"author"`
	MergeRequests int    `json:"merge_requests"`
}

// Summary aggregates a completed merge request run. Built once after all
// results are in; read-only afterwards.
type Summary struct {
	State        string `json:"state"`
	TargetBranch string `json:"target_branch,omitempty"`
	SourceBranch string `json:"source_branch,omitempty"`

	TotalProjects      int `json:"total_projects"`
	ProjectsWithMRs    int `json:"projects_with_mrs"`
	ProjectsWithErrors int `json:"projects_with_errors"`
	TotalMergeRequests int `json:"total_merge_requests"`

	UniqueAuthors []string       `json:"unique_authors"`
	ByAuthor      []AuthorCount  `json:"by_author"`
	Ranking       []ProjectCount `json:"ranking"`
}

// Summarize reduces a completed run to its Summary. Pure: no I/O and no
// mutation of the input.
func Summarize(results []Result, filter Filter) Summary {
	summary := Summary{
		State:         filter.state(),
		TargetBranch:  filter.TargetBranch,
		SourceBranch:  filter.SourceBranch,
		TotalProjects: len(results),
	}

	byAuthor := make(map[string]int)
	for i := range results {
		r := &results[i]
		if r.HasMergeRequests() {
			summary.ProjectsWithMRs++
			summary.Ranking = append(summary.Ranking, ProjectCount{
				ProjectPath:   r.Project.PathWithNamespace,
				MergeRequests: len(r.MergeRequests),
			})
		}
		if r.Err != "" {
			summary.ProjectsWithErrors++
		}
		summary.TotalMergeRequests += len(r.MergeRequests)
		for _, mr := range r.MergeRequests {
			byAuthor[mr.Author.Name]++
		}
	}

	summary.UniqueAuthors = make([]string, 0, len(byAuthor))
	summary.ByAuthor = make([]AuthorCount, 0, len(byAuthor))
	for name, count := range byAuthor {
		summary.UniqueAuthors = append(summary.UniqueAuthors, name)
		summary.ByAuthor = append(summary.ByAuthor, AuthorCount{Author: name, MergeRequests: count})
	}
	sort.Strings(summary.UniqueAuthors)
	sort.Slice(summary.ByAuthor, func(i, j int) bool {
		if summary.ByAuthor[i].MergeRequests != summary.ByAuthor[j].MergeRequests {
			return summary.ByAuthor[i].MergeRequests > summary.ByAuthor[j].MergeRequests
		}
		return summary.ByAuthor[i].Author < summary.ByAuthor[j].Author
	})
	sort.Slice(summary.Ranking, func(i, j int) bool {
		if summary.Ranking[i].MergeRequests != summary.Ranking[j].MergeRequests {
			return summary.Ranking[i].MergeRequests > summary.Ranking[j].MergeRequests
		}
		return summary.Ranking[i].ProjectPath < summary.Ranking[j].ProjectPath
	})
	return summary
}
