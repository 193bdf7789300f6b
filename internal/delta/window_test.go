package delta

import (
	"testing"
	"time"
)

func windowCommits() []CommitRecord {
	return []CommitRecord{
		recordFromAPI(testCommit("c3", "alice", 48)),
		recordFromAPI(testCommit("c2", "bob", 24)),
		recordFromAPI(testCommit("c1", "alice", 0)),
	}
}

func TestDateWindow_UnboundedIsIdentity(t *testing.T) {
	commits := windowCommits()
	filtered := DateWindow{}.Apply(commits)
	if !equalSHAs(shas(filtered), shas(commits)) {
		t.Errorf("unbounded window changed the delta: %v", shas(filtered))
	}
}

func TestDateWindow_Bounds(t *testing.T) {
	after := testEpoch.Add(12 * time.Hour)
	before := testEpoch.Add(36 * time.Hour)
	onC2 := testEpoch.Add(24 * time.Hour)

	tests := []struct {
		name     string
		window   DateWindow
		expected []string
	}{
		{name: "After only", window: DateWindow{After: &after}, expected: []string{"c3", "c2"}},
		{name: "Before only", window: DateWindow{Before: &before}, expected: []string{"c2", "c1"}},
		{name: "Both bounds", window: DateWindow{After: &after, Before: &before}, expected: []string{"c2"}},
		{name: "Bounds inclusive", window: DateWindow{After: &onC2, Before: &onC2}, expected: []string{"c2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := tt.window.Apply(windowCommits())
			if !equalSHAs(shas(filtered), tt.expected) {
				t.Errorf("Apply() = %v, expected %v", shas(filtered), tt.expected)
			}
		})
	}
}

func TestDateWindow_AuthoredField(t *testing.T) {
	// Authored timestamps sit 30 minutes before committed ones; a bound
	// between the two timestamps of c2 selects differently per field.
	bound := testEpoch.Add(24*time.Hour - 15*time.Minute)

	committed := DateWindow{After: &bound, Field: DateFieldCommitted}.Apply(windowCommits())
	if !equalSHAs(shas(committed), []string{"c3", "c2"}) {
		t.Errorf("committed field: got %v, expected [c3 c2]", shas(committed))
	}

	authored := DateWindow{After: &bound, Field: DateFieldAuthored}.Apply(windowCommits())
	if !equalSHAs(shas(authored), []string{"c3"}) {
		t.Errorf("authored field: got %v, expected [c3]", shas(authored))
	}
}

func TestDateWindow_PreservesOrder(t *testing.T) {
	before := testEpoch.Add(100 * time.Hour)
	filtered := DateWindow{Before: &before}.Apply(windowCommits())
	if !equalSHAs(shas(filtered), []string{"c3", "c2", "c1"}) {
		t.Errorf("Apply() reordered commits: %v", shas(filtered))
	}
}
