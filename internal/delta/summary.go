package delta

import "sort"

// Summarize reduces a completed run to its RunSummary. Pure: no I/O and no
// mutation of the input.
func Summarize(results []DeltaResult) RunSummary {
	summary := RunSummary{TotalProjects: len(results)}
	if len(results) > 0 {
		summary.BaseRef = results[0].BaseRef
		summary.TargetRef = results[0].TargetRef
	}

	authors := make(map[string]struct{})
	for i := range results {
		r := &results[i]

		switch r.Outcome() {
		case OutcomeChanges:
			summary.ProjectsWithChanges++
		case OutcomeNoChanges:
			summary.ProjectsWithoutChanges++
		case OutcomeRefMissing:
			summary.ProjectsRefMissing++
		case OutcomeError:
			summary.ProjectsWithErrors++
		case OutcomeCancelled:
			summary.ProjectsCancelled++
		}
		if r.Truncated {
			summary.ProjectsTruncated++
		}

		summary.TotalCommits += len(r.Commits)
		summary.TotalBaseCommits += r.BaseCommitCount
		summary.TotalTargetCommits += r.TargetCommitCount

		for _, c := range r.Commits {
			authors[c.AuthorName] = struct{}{}
		}

		if r.HasChanges() {
			summary.Ranking = append(summary.Ranking, ProjectRank{
				ProjectPath: r.Project.PathWithNamespace,
				Commits:     len(r.Commits),
			})
		}
	}

	summary.UniqueAuthors = make([]string, 0, len(authors))
	for name := range authors {
		summary.UniqueAuthors = append(summary.UniqueAuthors, name)
	}
	sort.Strings(summary.UniqueAuthors)

	sort.Slice(summary.Ranking, func(i, j int) bool {
		if summary.Ranking[i].Commits != summary.Ranking[j].Commits {
			return summary.Ranking[i].Commits > summary.Ranking[j].Commits
		}
		return summary.Ranking[i].ProjectPath < summary.Ranking[j].ProjectPath
	})

	return summary
}
