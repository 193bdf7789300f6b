package output

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/refdelta/refdelta-go/internal/gitlab"
	"github.com/refdelta/refdelta-go/internal/search"
)

func TestCSVDeltaWriter_Write(t *testing.T) {
	report := deltaReportFixture()

	tmpFile := t.TempDir() + "/delta.csv"
	writer := &CSVDeltaWriter{}
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

	// Header + 2 commit rows for platform/api + 1 empty row for platform/web.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, expected 4", len(rows))
	}
	if len(rows[0]) != len(deltaCSVHeaders) {
		t.Fatalf("header has %d columns, expected %d", len(rows[0]), len(deltaCSVHeaders))
	}

	col := func(row []string, name string) string {
		for i, header := range deltaCSVHeaders {
			if header == name {
				return row[i]
			}
		}
		t.Fatalf("unknown column %q", name)
		return ""
	}

	first := rows[1]
	if col(first, "project_path") != "platform/api" || col(first, "commit_sha") != "abc123def456" {
		t.Errorf("first row = %v", first)
	}
	if col(first, "tickets") != "MON-7" {
		t.Errorf("tickets = %q, expected extracted key", col(first, "tickets"))
	}
	if col(first, "ticket_urls") != "https://jira.example.com/browse/MON-7" {
		t.Errorf("ticket_urls = %q", col(first, "ticket_urls"))
	}
	if col(first, "parent_shas") != "p1|p2" {
		t.Errorf("parent_shas = %q", col(first, "parent_shas"))
	}

	empty := rows[3]
	if col(empty, "project_path") != "platform/web" || col(empty, "commit_sha") != "" {
		t.Errorf("empty row = %v, expected project row without commit", empty)
	}
	if col(empty, "base_exists") != "false" || col(empty, "target_exists") != "true" {
		t.Errorf("exists flags = (%q, %q)", col(empty, "base_exists"), col(empty, "target_exists"))
	}
}

func TestCSVSearchWriter_Write(t *testing.T) {
	report := &SearchReport{
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SHAs:        []string{"abc123"},
		Results: []search.Result{
			{
				SHA:     "abc123",
				Project: gitlab.Project{ID: 1, PathWithNamespace: "platform/api"},
				Found:   true, Title: "Fix retry loop",
				AuthorName: "alice",
				Branches:   []string{"main", "release/1.2"},
				Tags:       []string{"v1.2.0"},
			},
		},
	}

	tmpFile := t.TempDir() + "/search.csv"
	writer := &CSVSearchWriter{}
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
	if len(rows) != 2 {
		t.Fatalf("got %d rows, expected header plus one result", len(rows))
	}
	if rows[1][0] != "abc123" || rows[1][9] != "main|release/1.2" || rows[1][10] != "v1.2.0" {
		t.Errorf("row = %v", rows[1])
	}
}
