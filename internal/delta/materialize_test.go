package delta

import (
	"context"
	"testing"
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

func TestMaterialize_DrainsAllPages(t *testing.T) {
	fake := NewFakeClient()
	fake.PageSize = 2
	fake.AddHistory(1, "main", []gitlab.Commit{
		testCommit("c5", "alice", 5),
		testCommit("c4", "bob", 4),
		testCommit("c3", "alice", 3),
		testCommit("c2", "carol", 2),
		testCommit("c1", "alice", 1),
	})

	set, err := Materialize(context.Background(), fake, 1, "main", Budget{}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if set.Len() != 5 {
		t.Errorf("Len() = %d, expected 5", set.Len())
	}
	if set.Truncated {
		t.Error("Truncated = true, expected false for full drain")
	}
	if _, ok := set.Records["c3"]; !ok {
		t.Error("record c3 missing from history set")
	}
}

func TestMaterialize_DuplicatesAcrossPagesIdempotent(t *testing.T) {
	fake := NewFakeClient()
	fake.PageSize = 2
	fake.AddHistory(1, "main", []gitlab.Commit{
		testCommit("c2", "alice", 2),
		testCommit("c1", "bob", 1),
		testCommit("c1", "bob", 1), // the transport may repeat a commit at a page boundary
	})

	set, err := Materialize(context.Background(), fake, 1, "main", Budget{}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, expected 2 after dedup", set.Len())
	}
}

func TestMaterialize_PageBudgetTruncates(t *testing.T) {
	fake := NewFakeClient()
	fake.PageSize = 1
	fake.AddHistory(1, "main", []gitlab.Commit{
		testCommit("c4", "alice", 4),
		testCommit("c3", "alice", 3),
		testCommit("c2", "alice", 2),
		testCommit("c1", "alice", 1),
	})

	set, err := Materialize(context.Background(), fake, 1, "main", Budget{MaxPages: 2}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if !set.Truncated {
		t.Error("Truncated = false, expected true when page budget exhausted")
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, expected 2 (one commit per page, two pages)", set.Len())
	}
	// Budget stops looking; it must never fabricate entries.
	for sha := range set.Records {
		if sha != "c4" && sha != "c3" {
			t.Errorf("unexpected commit %s in truncated set", sha)
		}
	}
}

func TestMaterialize_ExactPageBudgetFitIsNotTruncated(t *testing.T) {
	fake := NewFakeClient()
	fake.PageSize = 1
	fake.AddHistory(1, "main", []gitlab.Commit{
		testCommit("c2", "alice", 2),
		testCommit("c1", "alice", 1),
	})

	set, err := Materialize(context.Background(), fake, 1, "main", Budget{MaxPages: 2}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, expected the full 2-commit history", set.Len())
	}
	if set.Truncated {
		t.Error("Truncated = true for a history that fits the page budget exactly")
	}
}

func TestMaterialize_ElapsedBudgetTruncates(t *testing.T) {
	fake := NewFakeClient()
	fake.AddHistory(1, "main", []gitlab.Commit{testCommit("c1", "alice", 1)})

	set, err := Materialize(context.Background(), fake, 1, "main", Budget{MaxElapsed: -time.Nanosecond}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if !set.Truncated {
		t.Error("Truncated = false, expected true for an already-expired time budget")
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, expected 0", set.Len())
	}
}

func TestMaterialize_CancelDegradesToTruncation(t *testing.T) {
	fake := NewFakeClient()
	fake.AddHistory(1, "main", []gitlab.Commit{testCommit("c1", "alice", 1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := Materialize(ctx, fake, 1, "main", Budget{}, nil)
	if err != nil {
		t.Fatalf("Materialize() error = %v, expected cancellation to truncate", err)
	}
	if !set.Truncated {
		t.Error("Truncated = false, expected true after cancellation")
	}
}

func TestMaterialize_TransportErrorSurfaces(t *testing.T) {
	fake := NewFakeClient()
	fake.PageSize = 1
	fake.AddHistory(1, "main", []gitlab.Commit{
		testCommit("c2", "alice", 2),
		testCommit("c1", "alice", 1),
	})
	fake.ListErrAfterPages = 1
	fake.ListErrProject = 1
	fake.ListErr = &gitlab.APIError{Status: 503, Message: "unavailable"}

	_, err := Materialize(context.Background(), fake, 1, "main", Budget{}, nil)
	if err == nil {
		t.Fatal("Materialize() expected error after transport fault, got nil")
	}
}
