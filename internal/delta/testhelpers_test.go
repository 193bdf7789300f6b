package delta

import (
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// testCommit builds a synthetic commit whose committed timestamp is
// hourOffset hours after the test epoch.
func testCommit(sha, author string, hourOffset int) gitlab.Commit {
	when := testEpoch.Add(time.Duration(hourOffset) * time.Hour)
	short := sha
	if len(short) > 8 {
		short = short[:8]
	}
	return gitlab.Commit{
		ID:            sha,
		ShortID:       short,
		Title:         "commit " + sha,
		Message:       "commit " + sha + "\n",
		AuthorName:    author,
		AuthorEmail:   author + "@example.com",
		AuthoredDate:  when.Add(-30 * time.Minute),
		CommitterName: author,
		CommittedDate: when,
	}
}

func shas(commits []CommitRecord) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.SHA
	}
	return out
}

func equalSHAs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
