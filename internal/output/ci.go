package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// CIDeltaWriter writes delta reports as NDJSON (one JSON object per line)
// for CI pipelines that post-process results line by line.
type CIDeltaWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type                string `json:"type"`
	BaseRef             string `json:"baseRef"`
	TargetRef           string `json:"targetRef"`
	TotalProjects       int    `json:"totalProjects"`
	ProjectsWithChanges int    `json:"projectsWithChanges"`
	ProjectsWithErrors  int    `json:"projectsWithErrors"`
	ProjectsCancelled   int    `json:"projectsCancelled,omitempty"`
	TotalCommits        int    `json:"totalCommits"`
}

// CIProjectEntry represents a single project entry in CI output.
type CIProjectEntry struct {
	Type      string `json:"type"`
	Project   string `json:"project"`
	Outcome   string `json:"outcome"`
	Commits   int    `json:"commits"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Write outputs the delta report as NDJSON.
func (w *CIDeltaWriter) Write(report *DeltaReport, options Options) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CISummary{
		Type:                "summary",
		BaseRef:             report.BaseRef,
		TargetRef:           report.TargetRef,
		TotalProjects:       report.Summary.TotalProjects,
		ProjectsWithChanges: report.Summary.ProjectsWithChanges,
		ProjectsWithErrors:  report.Summary.ProjectsWithErrors,
		ProjectsCancelled:   report.Summary.ProjectsCancelled,
		TotalCommits:        report.Summary.TotalCommits,
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, result := range report.Results {
		entry := CIProjectEntry{
			Type:      "project",
			Project:   result.Project.PathWithNamespace,
			Outcome:   ciOutcome(result),
			Commits:   len(result.Commits),
			Truncated: result.Truncated,
			Error:     result.Err,
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func ciOutcome(result delta.DeltaResult) string {
	switch result.Outcome() {
	case delta.OutcomeChanges:
		return "changes"
	case delta.OutcomeNoChanges:
		return "no_changes"
	case delta.OutcomeRefMissing:
		return "ref_missing"
	case delta.OutcomeCancelled:
		return "cancelled"
	default:
		return "error"
	}
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
