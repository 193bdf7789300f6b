package delta

import (
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// CommitRecord carries the metadata of one commit. Records are produced by
// the commit source, keyed by SHA inside a history set, and never mutated.
type CommitRecord struct {
	SHA            string    `json:"sha"`
	ShortSHA       string    `json:"short_sha"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	AuthorName     string    `json:"author_name"`
	AuthorEmail    string    `json:"author_email"`
	AuthoredAt     time.Time `json:"authored_at"`
	CommitterName  string    `json:"committer_name"`
	CommitterEmail string    `json:"committer_email"`
	CommittedAt    time.Time `json:"committed_at"`
	ParentSHAs     []string  `json:"parent_shas"`
	WebURL         string    `json:"web_url"`
}

func recordFromAPI(c gitlab.Commit) CommitRecord {
	return CommitRecord{
		SHA:            c.ID,
		ShortSHA:       c.ShortID,
		Title:          c.Title,
		Message:        c.Message,
		AuthorName:     c.AuthorName,
		AuthorEmail:    c.AuthorEmail,
		AuthoredAt:     c.AuthoredDate,
		CommitterName:  c.CommitterName,
		CommitterEmail: c.CommitterEmail,
		CommittedAt:    c.CommittedDate,
		ParentSHAs:     c.ParentIDs,
		WebURL:         c.WebURL,
	}
}

// RefKind classifies what a reference string resolved to.
type RefKind int

const (
	RefUnresolved RefKind = iota
	RefTag
	RefBranch
	RefCommit
)

// String returns a string representation of the ref kind.
func (k RefKind) String() string {
	switch k {
	case RefTag:
		return "tag"
	case RefBranch:
		return "branch"
	case RefCommit:
		return "commit"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of resolving one reference string: the kind it
// matched and the commit SHA it points at (empty when unresolved).
type Resolution struct {
	Kind RefKind
	SHA  string
}

// Resolved reports whether the reference matched anything.
func (r Resolution) Resolved() bool {
	return r.Kind != RefUnresolved
}

// DeltaResult is the outcome of comparing two references in one project.
type DeltaResult struct {
	Project gitlab.Project `json:"project"`

	BaseRef      string `json:"base_ref"`
	TargetRef    string `json:"target_ref"`
	BaseExists   bool   `json:"base_exists"`
	TargetExists bool   `json:"target_exists"`

	// SameRef is true when both refs resolved to the identical commit SHA;
	// the delta is empty by definition and no history was materialized.
	SameRef bool `json:"same_ref"`

	// Truncated is true when either side's materialization stopped on a
	// budget limit, so the delta may be incomplete.
	Truncated bool `json:"truncated"`

	// Cancelled is true for projects that were never compared because the
	// run was cancelled before they could be dispatched.
	Cancelled bool `json:"cancelled,omitempty"`

	BaseCommitCount   int `json:"base_commit_count"`
	TargetCommitCount int `json:"target_commit_count"`

	// Commits present in the target history but not in the base history,
	// ordered by committed timestamp descending, ties broken by SHA.
	Commits []CommitRecord `json:"commits"`

	Err string `json:"error,omitempty"`
}

// HasChanges reports whether the delta contains any commits.
func (r *DeltaResult) HasChanges() bool {
	return len(r.Commits) > 0
}

// Outcome classifies a DeltaResult for summary counting.
type Outcome int

const (
	OutcomeChanges Outcome = iota
	OutcomeNoChanges
	OutcomeRefMissing
	OutcomeError
	OutcomeCancelled
)

// Outcome returns the outcome class of this result. A missing ref is an
// expected condition, not an error, and a project skipped by run
// cancellation is not a project that failed.
func (r *DeltaResult) Outcome() Outcome {
	switch {
	case r.Cancelled:
		return OutcomeCancelled
	case r.Err != "":
		return OutcomeError
	case !r.BaseExists || !r.TargetExists:
		return OutcomeRefMissing
	case r.HasChanges():
		return OutcomeChanges
	default:
		return OutcomeNoChanges
	}
}

// ProjectRank is one entry in the per-project commit-count ranking.
type ProjectRank struct {
	ProjectPath string `json:"project_path"`
	Commits     int    `json:"commits"`
}

// RunSummary aggregates every DeltaResult of a run. Built once after all
// results are in; read-only afterwards.
type RunSummary struct {
	BaseRef   string `json:"base_ref"`
	TargetRef string `json:"target_ref"`

	TotalProjects          int `json:"total_projects"`
	ProjectsWithChanges    int `json:"projects_with_changes"`
	ProjectsWithoutChanges int `json:"projects_without_changes"`
	ProjectsRefMissing     int `json:"projects_ref_missing"`
	ProjectsWithErrors     int `json:"projects_with_errors"`
	ProjectsCancelled      int `json:"projects_cancelled"`
	ProjectsTruncated      int `json:"projects_truncated"`

	TotalCommits       int `json:"total_commits"`
	TotalBaseCommits   int `json:"total_base_commits"`
	TotalTargetCommits int `json:"total_target_commits"`

	UniqueAuthors []string      `json:"unique_authors"`
	Ranking       []ProjectRank `json:"ranking"`
}
