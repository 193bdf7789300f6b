package output

import (
	"encoding/json"
	"os"
	"testing"
)

func TestJSONDeltaWriter_Write(t *testing.T) {
	report := deltaReportFixture()

	tmpFile := t.TempDir() + "/delta.json"
	writer := &JSONDeltaWriter{}
	if err := writer.Write(report, Options{Format: FormatJSON, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var decoded JSONDeltaReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if decoded.BaseRef != "v1.0.0" || decoded.TargetRef != "v1.1.0" {
		t.Errorf("refs = (%q, %q)", decoded.BaseRef, decoded.TargetRef)
	}
	if len(decoded.Projects) != 2 {
		t.Fatalf("got %d projects, expected 2", len(decoded.Projects))
	}

	api := decoded.Projects[0]
	if api.Project.Path != "platform/api" || len(api.Commits) != 2 {
		t.Errorf("projects[0] = %+v", api)
	}
	if api.BaseCommits != 10 || api.TargetCommits != 12 {
		t.Errorf("ref counts = (%d, %d)", api.BaseCommits, api.TargetCommits)
	}

	web := decoded.Projects[1]
	if web.BaseExists || !web.TargetExists {
		t.Errorf("projects[1] exists flags = (%v, %v)", web.BaseExists, web.TargetExists)
	}

	if decoded.Summary.TotalCommits != 2 || decoded.Summary.ProjectsWithChanges != 1 {
		t.Errorf("summary = %+v", decoded.Summary)
	}

	if len(decoded.Tickets) != 1 || decoded.Tickets[0].Key != "MON-7" {
		t.Errorf("tickets = %+v, expected MON-7 rollup", decoded.Tickets)
	}
}

func TestJSONDeltaWriter_TopLimitsCommits(t *testing.T) {
	report := deltaReportFixture()

	tmpFile := t.TempDir() + "/delta_top.json"
	writer := &JSONDeltaWriter{}
	if err := writer.Write(report, Options{Format: FormatJSON, Top: 1, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var decoded JSONDeltaReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(decoded.Projects[0].Commits) != 1 {
		t.Errorf("got %d commits with Top=1, expected 1", len(decoded.Projects[0].Commits))
	}
}
