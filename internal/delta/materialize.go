package delta

import (
	"context"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Budget bounds one history materialization. Zero values mean unbounded on
// that axis. The budget is the escape valve against repositories with very
// deep histories: a truncated set is still usable, and the Truncated flag
// travels all the way into the DeltaResult.
type Budget struct {
	MaxPages   int
	MaxElapsed time.Duration
}

// DefaultBudget caps one materialization at 200 pages (20k commits at the
// API page size) and five minutes.
func DefaultBudget() Budget {
	return Budget{MaxPages: 200, MaxElapsed: 5 * time.Minute}
}

// HistorySet is the materialized commit history of one (project, ref) pair:
// an identity set plus a SHA-to-record map. It is owned by a single pipeline
// and discarded once the delta has been computed.
type HistorySet struct {
	SHAs      mapset.Set[string]
	Records   map[string]CommitRecord
	Truncated bool
}

// Len returns the number of distinct commits in the set.
func (h *HistorySet) Len() int {
	return h.SHAs.Cardinality()
}

// Materialize drains the paged history of (projectID, ref) into a HistorySet.
// Duplicate SHAs across pages overwrite idempotently. The drain stops early
// with Truncated=true when the page or time budget runs out while history
// remains unread, or when ctx is cancelled mid-stream; everything collected
// so far is returned. A history that fits the budget exactly is complete,
// not truncated.
func Materialize(ctx context.Context, client Client, projectID int, ref string, budget Budget, logger *slog.Logger) (*HistorySet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set := &HistorySet{
		SHAs:    mapset.NewThreadUnsafeSet[string](),
		Records: make(map[string]CommitRecord),
	}

	source := NewCommitSource(client, projectID, ref)
	start := time.Now()
	pages := 0

	for {
		// A budget that is merely met is not exceeded: once the source is
		// exhausted the set is complete and must not be flagged.
		if source.done {
			break
		}
		if budget.MaxPages > 0 && pages >= budget.MaxPages {
			set.Truncated = true
			break
		}
		if budget.MaxElapsed > 0 && time.Since(start) >= budget.MaxElapsed {
			set.Truncated = true
			break
		}

		page, ok, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation mid-drain degrades to truncation; the partial
				// set still produces a result row.
				set.Truncated = true
				break
			}
			return nil, err
		}
		if !ok {
			break
		}

		pages++
		for _, record := range page {
			set.SHAs.Add(record.SHA)
			set.Records[record.SHA] = record
		}
	}

	logger.Debug("history materialized",
		slog.Int("project", projectID),
		slog.String("ref", ref),
		slog.Int("commits", set.Len()),
		slog.Int("pages", pages),
		slog.Bool("truncated", set.Truncated))
	return set, nil
}
