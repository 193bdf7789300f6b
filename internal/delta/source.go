package delta

import (
	"context"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// Client is the slice of the GitLab API the delta engine consumes.
// *gitlab.Client satisfies it; tests substitute fakes.
type Client interface {
	GetTag(ctx context.Context, projectID int, name string) (gitlab.Tag, error)
	GetBranch(ctx context.Context, projectID int, name string) (gitlab.Branch, error)
	GetCommit(ctx context.Context, projectID int, sha string) (gitlab.Commit, error)
	ListCommitsPage(ctx context.Context, projectID int, ref string, page int) ([]gitlab.Commit, int, error)
}

// CommitSource yields the commit history reachable from one ref as a finite
// sequence of pages. The sequence is not restartable mid-stream; a fresh
// source re-reads from the first page. Transport retries happen below this
// layer, so an error from Next is already past the retry budget.
type CommitSource struct {
	client    Client
	projectID int
	ref       string

	page int
	done bool
}

// NewCommitSource creates a source positioned before the first page.
func NewCommitSource(client Client, projectID int, ref string) *CommitSource {
	return &CommitSource{client: client, projectID: projectID, ref: ref, page: 1}
}

// Next fetches the next page of commits. ok is false once the history is
// exhausted; the returned page is then empty.
func (s *CommitSource) Next(ctx context.Context) (page []CommitRecord, ok bool, err error) {
	if s.done {
		return nil, false, nil
	}

	commits, next, err := s.client.ListCommitsPage(ctx, s.projectID, s.ref, s.page)
	if err != nil {
		return nil, false, err
	}
	if len(commits) == 0 {
		s.done = true
		return nil, false, nil
	}

	records := make([]CommitRecord, len(commits))
	for i, c := range commits {
		records[i] = recordFromAPI(c)
	}

	if next == 0 {
		s.done = true
	} else {
		s.page = next
	}
	return records, true, nil
}
