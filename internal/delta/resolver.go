package delta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// Resolver classifies a reference string per project. Probe order is tag,
// then branch, then raw commit SHA: release processes name tags, so tags are
// the common case, and raw SHAs are the fallback for scripted callers.
type Resolver struct {
	client Client
	log    *slog.Logger
}

// NewResolver creates a resolver over the given client.
func NewResolver(client Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, log: logger.With(slog.String("component", "resolver"))}
}

// Resolve determines whether ref names a tag, a branch, or a commit in the
// project. A missing ref yields Resolution{Kind: RefUnresolved} with a nil
// error; a transport fault while probing is returned as an error and must not
// be read as "not found".
func (r *Resolver) Resolve(ctx context.Context, projectID int, ref string) (Resolution, error) {
	tag, err := r.client.GetTag(ctx, projectID, ref)
	if err == nil {
		r.log.Debug("ref resolved as tag", slog.Int("project", projectID), slog.String("ref", ref))
		return Resolution{Kind: RefTag, SHA: tag.Commit.ID}, nil
	}
	if !errors.Is(err, gitlab.ErrNotFound) {
		return Resolution{}, fmt.Errorf("probe tag %q: %w", ref, err)
	}

	branch, err := r.client.GetBranch(ctx, projectID, ref)
	if err == nil {
		r.log.Debug("ref resolved as branch", slog.Int("project", projectID), slog.String("ref", ref))
		return Resolution{Kind: RefBranch, SHA: branch.Commit.ID}, nil
	}
	if !errors.Is(err, gitlab.ErrNotFound) {
		return Resolution{}, fmt.Errorf("probe branch %q: %w", ref, err)
	}

	if !looksLikeSHA(ref) {
		return Resolution{}, nil
	}
	commit, err := r.client.GetCommit(ctx, projectID, ref)
	if err == nil {
		r.log.Debug("ref resolved as commit", slog.Int("project", projectID), slog.String("ref", ref))
		return Resolution{Kind: RefCommit, SHA: commit.ID}, nil
	}
	if !errors.Is(err, gitlab.ErrNotFound) {
		return Resolution{}, fmt.Errorf("probe commit %q: %w", ref, err)
	}
	return Resolution{}, nil
}

// looksLikeSHA reports whether ref could syntactically be a commit
// identifier, so the commit probe is skipped for ordinary ref names.
// Existence is still decided by the API, never by format alone.
func looksLikeSHA(ref string) bool {
	if plumbing.IsHash(ref) {
		return true
	}
	// Abbreviated SHAs: at least 7 hex digits.
	if len(ref) < 7 || len(ref) > 64 {
		return false
	}
	for _, c := range ref {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
