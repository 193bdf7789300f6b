package delta

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// DefaultWorkers is the default size of the project worker pool. Small
// enough to stay inside typical API rate limits.
const DefaultWorkers = 4

// Runner fans the per-project compare pipeline out over a bounded worker
// pool. Each project's pipeline is fully isolated: it writes exactly one
// pre-allocated result slot, and neither an error nor a panic in one project
// stops the others.
type Runner struct {
	client  Client
	workers int
	budget  Budget
	log     *slog.Logger
}

// NewRunner creates a runner. workers <= 0 selects DefaultWorkers; a zero
// budget axis is unbounded.
func NewRunner(client Client, workers int, budget Budget, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		client:  client,
		workers: workers,
		budget:  budget,
		log:     logger.With(slog.String("component", "runner")),
	}
}

// Run compares baseRef to targetRef in every project and returns one
// DeltaResult per project, in input order. The returned error is non-nil only
// when ctx was cancelled; results completed before cancellation are still
// returned so summary statistics stay consistent with the detail rows.
func (r *Runner) Run(ctx context.Context, projects []gitlab.Project, baseRef, targetRef string, window DateWindow) ([]DeltaResult, error) {
	results := make([]DeltaResult, len(projects))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, project := range projects {
		select {
		case <-ctx.Done():
			// Stop dispatching; unstarted projects report the cancellation,
			// kept distinct from per-project failures.
			for j := i; j < len(projects); j++ {
				results[j] = DeltaResult{
					Project:   projects[j],
					BaseRef:   baseRef,
					TargetRef: targetRef,
					Cancelled: true,
				}
			}
			wg.Wait()
			return results, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(slot int, project gitlab.Project) {
			defer wg.Done()
			defer func() { <-sem }()
			results[slot] = r.compareProject(ctx, project, baseRef, targetRef, window)
		}(i, project)
	}

	wg.Wait()
	return results, ctx.Err()
}

// compareProject runs the full pipeline for one project:
// resolve both refs, materialize both histories, diff, filter.
func (r *Runner) compareProject(ctx context.Context, project gitlab.Project, baseRef, targetRef string, window DateWindow) (result DeltaResult) {
	result = DeltaResult{
		Project:   project,
		BaseRef:   baseRef,
		TargetRef: targetRef,
	}

	defer func() {
		if p := recover(); p != nil {
			result.Err = fmt.Sprintf("panic: %v", p)
			r.log.Error("pipeline panic",
				slog.String("project", project.PathWithNamespace),
				slog.Any("panic", p))
		}
	}()

	resolver := NewResolver(r.client, r.log)

	base, err := resolver.Resolve(ctx, project.ID, baseRef)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.BaseExists = base.Resolved()

	target, err := resolver.Resolve(ctx, project.ID, targetRef)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.TargetExists = target.Resolved()

	if !result.BaseExists || !result.TargetExists {
		r.log.Debug("ref missing, skipping compare",
			slog.String("project", project.PathWithNamespace),
			slog.Bool("base_exists", result.BaseExists),
			slog.Bool("target_exists", result.TargetExists))
		return result
	}

	// Identical refs have an empty delta by definition; skip both drains.
	if base.SHA != "" && base.SHA == target.SHA {
		result.SameRef = true
		return result
	}

	// The two drains are independent; run the base side concurrently.
	type sideResult struct {
		set *HistorySet
		err error
	}
	baseCh := make(chan sideResult, 1)
	go func() {
		set, err := Materialize(ctx, r.client, project.ID, baseRef, r.budget, r.log)
		baseCh <- sideResult{set: set, err: err}
	}()

	targetSet, targetErr := Materialize(ctx, r.client, project.ID, targetRef, r.budget, r.log)
	baseSide := <-baseCh

	if targetErr != nil {
		result.Err = fmt.Sprintf("materialize target %q: %v", targetRef, targetErr)
		return result
	}
	if baseSide.err != nil {
		result.Err = fmt.Sprintf("materialize base %q: %v", baseRef, baseSide.err)
		return result
	}
	baseSet := baseSide.set

	result.BaseCommitCount = baseSet.Len()
	result.TargetCommitCount = targetSet.Len()
	result.Truncated = baseSet.Truncated || targetSet.Truncated

	result.Commits = window.Apply(Diff(baseSet, targetSet))
	return result
}
