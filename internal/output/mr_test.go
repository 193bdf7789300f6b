package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
	"github.com/refdelta/refdelta-go/internal/mrs"
	"github.com/refdelta/refdelta-go/internal/tickets"
)

func mrReportFixture() *MRReport {
	mergedAt := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	filter := mrs.Filter{State: mrs.StateMerged, TargetBranch: "main"}
	results := []mrs.Result{
		{
			Project: gitlab.Project{ID: 1, Name: "api", PathWithNamespace: "platform/api", WebURL: "https://git.example.com/platform/api"},
			MergeRequests: []gitlab.MergeRequest{
				{
					ID: 1001, IID: 41,
					Title:        "MON-9: tighten pipeline timeouts",
					Description:  "Also touches MON-12.",
					State:        "merged",
					SourceBranch: "feature/timeouts",
					TargetBranch: "main",
					Author:       gitlab.User{Name: "alice", Username: "alice"},
					MergedBy:     &gitlab.User{Name: "bob", Username: "bob"},
					MergedAt:     &mergedAt,
					CreatedAt:    time.Date(2025, 2, 8, 14, 0, 0, 0, time.UTC),
					WebURL:       "https://git.example.com/platform/api/-/merge_requests/41",
					Labels:       []string{"backend", "urgent"},
				},
			},
		},
		{
			Project: gitlab.Project{ID: 2, Name: "web", PathWithNamespace: "platform/web", WebURL: "https://git.example.com/platform/web"},
			Err:     "status 503",
		},
	}

	return &MRReport{
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Filter:      filter,
		Results:     results,
		Summary:     mrs.Summarize(results, filter),
		Linker:      tickets.NewLinker("https://jira.example.com", "MON"),
	}
}

func TestCSVMRWriter_Write(t *testing.T) {
	report := mrReportFixture()

	tmpFile := t.TempDir() + "/mrs.csv"
	writer := &CSVMRWriter{}
	if err := writer.Write(report, Options{Format: FormatCSV, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := os.Open(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	// Header + 1 MR row for platform/api + 1 empty row for platform/web.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, expected 3", len(rows))
	}
	if len(rows[0]) != len(mrCSVHeaders) {
		t.Fatalf("header has %d columns, expected %d", len(rows[0]), len(mrCSVHeaders))
	}

	col := func(row []string, name string) string {
		for i, header := range mrCSVHeaders {
			if header == name {
				return row[i]
			}
		}
		t.Fatalf("unknown column %q", name)
		return ""
	}

	first := rows[1]
	if col(first, "project_path") != "platform/api" || col(first, "mr_iid") != "41" {
		t.Errorf("first row = %v", first)
	}
	if col(first, "author") != "alice" || col(first, "merged_by") != "bob" {
		t.Errorf("people = (%q, %q)", col(first, "author"), col(first, "merged_by"))
	}
	if col(first, "labels") != "backend|urgent" {
		t.Errorf("labels = %q", col(first, "labels"))
	}
	if col(first, "tickets") != "MON-12|MON-9" {
		t.Errorf("tickets = %q, expected keys from title and description", col(first, "tickets"))
	}

	empty := rows[2]
	if col(empty, "project_path") != "platform/web" || col(empty, "mr_iid") != "" {
		t.Errorf("empty row = %v, expected project row without MR", empty)
	}
	if col(empty, "error") != "status 503" {
		t.Errorf("error = %q", col(empty, "error"))
	}
}

func TestJSONMRWriter_Write(t *testing.T) {
	report := mrReportFixture()

	tmpFile := t.TempDir() + "/mrs.json"
	writer := &JSONMRWriter{}
	if err := writer.Write(report, Options{Format: FormatJSON, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var decoded JSONMRReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if decoded.Summary.TotalMergeRequests != 1 || decoded.Summary.ProjectsWithErrors != 1 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
	if len(decoded.Projects) != 2 {
		t.Fatalf("got %d projects, expected 2", len(decoded.Projects))
	}

	mr := decoded.Projects[0].MergeRequests[0]
	if mr.IID != 41 || mr.Author != "alice" || mr.MergedBy != "bob" {
		t.Errorf("mr = %+v", mr)
	}
	if mr.MergedAt == "" {
		t.Error("MergedAt empty, expected merge time for a merged MR")
	}
	if len(mr.Tickets) != 2 {
		t.Errorf("Tickets = %v, expected keys from title and description", mr.Tickets)
	}
	if decoded.Projects[1].Error != "status 503" {
		t.Errorf("Error = %q", decoded.Projects[1].Error)
	}
}
