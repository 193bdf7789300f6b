package delta

import "sort"

// Diff computes the commits present in target but absent from base, by
// commit identity only. The result is ordered by committed timestamp
// descending, ties broken by SHA ascending, so two runs over the same remote
// state produce identical output regardless of page arrival order.
func Diff(base, target *HistorySet) []CommitRecord {
	shas := target.SHAs.Difference(base.SHAs)

	commits := make([]CommitRecord, 0, shas.Cardinality())
	for sha := range shas.Iter() {
		if record, ok := target.Records[sha]; ok {
			commits = append(commits, record)
		}
	}

	sort.Slice(commits, func(i, j int) bool {
		if !commits[i].CommittedAt.Equal(commits[j].CommittedAt) {
			return commits[i].CommittedAt.After(commits[j].CommittedAt)
		}
		return commits[i].SHA < commits[j].SHA
	})
	return commits
}
