package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/refdelta/refdelta-go/internal/delta"
	"github.com/refdelta/refdelta-go/internal/search"
	"github.com/refdelta/refdelta-go/internal/tickets"
)

// JSONDeltaWriter writes delta reports as JSON.
type JSONDeltaWriter struct{}

// JSONDeltaReport is the JSON output structure for a delta run.
type JSONDeltaReport struct {
	BaseRef     string                 `json:"baseRef"`
	TargetRef   string                 `json:"targetRef"`
	GeneratedAt string                 `json:"generatedAt"`
	Summary     delta.RunSummary       `json:"summary"`
	Projects    []JSONDeltaProject     `json:"projects"`
	Tickets     []tickets.TicketRollup `json:"tickets,omitempty"`
}

// JSONDeltaProject is the JSON output structure for one project comparison.
type JSONDeltaProject struct {
	Project       JSONProject          `json:"project"`
	BaseExists    bool                 `json:"baseExists"`
	TargetExists  bool                 `json:"targetExists"`
	SameRef       bool                 `json:"sameRef"`
	Truncated     bool                 `json:"truncated"`
	Cancelled     bool                 `json:"cancelled,omitempty"`
	BaseCommits   int                  `json:"baseCommits"`
	TargetCommits int                  `json:"targetCommits"`
	Commits       []delta.CommitRecord `json:"commits"`
	Error         string               `json:"error,omitempty"`
}

// JSONProject identifies a project in JSON output.
type JSONProject struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	WebURL string `json:"webUrl"`
}

// Write outputs the delta report as JSON.
func (w *JSONDeltaWriter) Write(report *DeltaReport, options Options) error {
	projects := make([]JSONDeltaProject, len(report.Results))
	for i, result := range report.Results {
		commits := limitTop(result.Commits, options.Top)
		projects[i] = JSONDeltaProject{
			Project: JSONProject{
				ID:     result.Project.ID,
				Name:   result.Project.Name,
				Path:   result.Project.PathWithNamespace,
				WebURL: result.Project.WebURL,
			},
			BaseExists:    result.BaseExists,
			TargetExists:  result.TargetExists,
			SameRef:       result.SameRef,
			Truncated:     result.Truncated,
			Cancelled:     result.Cancelled,
			BaseCommits:   result.BaseCommitCount,
			TargetCommits: result.TargetCommitCount,
			Commits:       commits,
			Error:         result.Err,
		}
	}

	jsonReport := JSONDeltaReport{
		BaseRef:     report.BaseRef,
		TargetRef:   report.TargetRef,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Summary:     report.Summary,
		Projects:    projects,
	}
	if report.Linker != nil {
		jsonReport.Tickets = report.Linker.Rollup(report.Results)
	}

	return writeJSON(jsonReport, options.OutputPath)
}

// JSONSearchWriter writes search reports as JSON.
type JSONSearchWriter struct{}

// JSONSearchReport is the JSON output structure for a commit search run.
type JSONSearchReport struct {
	GeneratedAt string          `json:"generatedAt"`
	SHAs        []string        `json:"shas"`
	Results     []search.Result `json:"results"`
}

// Write outputs the search report as JSON.
func (w *JSONSearchWriter) Write(report *SearchReport, options Options) error {
	jsonReport := JSONSearchReport{
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		SHAs:        report.SHAs,
		Results:     limitTop(report.Results, options.Top),
	}
	return writeJSON(jsonReport, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	encoder := json.NewEncoder(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		encoder = json.NewEncoder(file)
	}

	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
