package delta

import (
	"context"
	"fmt"
	"sync"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// FakeClient is a test double for the GitLab API slice the engine consumes.
// It serves synthetic histories without a network and can inject faults.
type FakeClient struct {
	// Tags and Branches map projectID -> name -> pointed-at commit SHA.
	Tags     map[int]map[string]string
	Branches map[int]map[string]string
	// Commits maps projectID -> SHA -> commit, for raw-identifier probes.
	Commits map[int]map[string]gitlab.Commit
	// Histories maps projectID -> ref -> full reachable history.
	Histories map[int]map[string][]gitlab.Commit

	// PageSize is the number of commits per page (default 2 keeps tests
	// exercising pagination).
	PageSize int

	// ResolveErr, when set, fails every tag/branch/commit probe.
	ResolveErr error
	// ListErrAfterPages fails ListCommitsPage once that many pages have been
	// served for the project in ListErrProject. Negative means never.
	ListErrAfterPages int
	ListErrProject    int
	ListErr           error

	mu        sync.Mutex
	listPages map[int]int
}

// NewFakeClient returns an empty fake with pagination enabled.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Tags:              map[int]map[string]string{},
		Branches:          map[int]map[string]string{},
		Commits:           map[int]map[string]gitlab.Commit{},
		Histories:         map[int]map[string][]gitlab.Commit{},
		PageSize:          2,
		ListErrAfterPages: -1,
		listPages:         map[int]int{},
	}
}

// AddHistory registers ref in project as a branch whose reachable history is
// the given commits (newest first, as the API returns them).
func (f *FakeClient) AddHistory(projectID int, ref string, commits []gitlab.Commit) {
	if f.Branches[projectID] == nil {
		f.Branches[projectID] = map[string]string{}
	}
	head := ""
	if len(commits) > 0 {
		head = commits[0].ID
	}
	f.Branches[projectID][ref] = head
	if f.Histories[projectID] == nil {
		f.Histories[projectID] = map[string][]gitlab.Commit{}
	}
	f.Histories[projectID][ref] = commits
}

// ListCalls reports how many commit pages were served across all projects.
func (f *FakeClient) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.listPages {
		total += n
	}
	return total
}

func (f *FakeClient) GetTag(_ context.Context, projectID int, name string) (gitlab.Tag, error) {
	if f.ResolveErr != nil {
		return gitlab.Tag{}, f.ResolveErr
	}
	if sha, ok := f.Tags[projectID][name]; ok {
		return gitlab.Tag{Name: name, Commit: gitlab.CommitStub{ID: sha}}, nil
	}
	return gitlab.Tag{}, fmt.Errorf("%w: tag %s", gitlab.ErrNotFound, name)
}

func (f *FakeClient) GetBranch(_ context.Context, projectID int, name string) (gitlab.Branch, error) {
	if f.ResolveErr != nil {
		return gitlab.Branch{}, f.ResolveErr
	}
	if sha, ok := f.Branches[projectID][name]; ok {
		return gitlab.Branch{Name: name, Commit: gitlab.CommitStub{ID: sha}}, nil
	}
	return gitlab.Branch{}, fmt.Errorf("%w: branch %s", gitlab.ErrNotFound, name)
}

func (f *FakeClient) GetCommit(_ context.Context, projectID int, sha string) (gitlab.Commit, error) {
	if f.ResolveErr != nil {
		return gitlab.Commit{}, f.ResolveErr
	}
	if c, ok := f.Commits[projectID][sha]; ok {
		return c, nil
	}
	return gitlab.Commit{}, fmt.Errorf("%w: commit %s", gitlab.ErrNotFound, sha)
}

func (f *FakeClient) ListCommitsPage(ctx context.Context, projectID int, ref string, page int) ([]gitlab.Commit, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f.mu.Lock()
	f.listPages[projectID]++
	served := f.listPages[projectID]
	f.mu.Unlock()
	if f.ListErrAfterPages >= 0 && projectID == f.ListErrProject && served > f.ListErrAfterPages {
		return nil, 0, f.ListErr
	}

	history, ok := f.Histories[projectID][ref]
	if !ok {
		return nil, 0, fmt.Errorf("%w: ref %s", gitlab.ErrNotFound, ref)
	}

	size := f.PageSize
	if size <= 0 {
		size = len(history)
	}
	start := (page - 1) * size
	if start >= len(history) {
		return nil, 0, nil
	}
	end := start + size
	next := page + 1
	if end >= len(history) {
		end = len(history)
		next = 0
	}
	return history[start:end], next, nil
}

// Compile-time interface conformance check.
var _ Client = (*FakeClient)(nil)
