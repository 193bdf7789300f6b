package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/refdelta/refdelta-go/internal/gitlab"
	"github.com/refdelta/refdelta-go/internal/mrs"
)

// ConsoleMRWriter writes merge request reports to the console.
type ConsoleMRWriter struct{}

// Write outputs the merge request report to the console.
func (w *ConsoleMRWriter) Write(report *MRReport, options Options) error {
	summary := report.Summary

	color.Green("Merge Request Tracking Results")
	fmt.Printf("State filter: %s\n", summary.State)
	if summary.TargetBranch != "" {
		fmt.Printf("Target branch: %s\n", summary.TargetBranch)
	}
	if summary.SourceBranch != "" {
		fmt.Printf("Source branch: %s\n", summary.SourceBranch)
	}
	fmt.Printf("Projects scanned: %d\n", summary.TotalProjects)
	fmt.Printf("Projects with merge requests: %d\n", summary.ProjectsWithMRs)
	if summary.ProjectsWithErrors > 0 {
		color.Red("Projects with errors: %d", summary.ProjectsWithErrors)
	}
	fmt.Printf("Total merge requests: %d\n", summary.TotalMergeRequests)
	fmt.Printf("Unique authors: %d\n\n", len(summary.UniqueAuthors))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tProject\tMRs\tNotes")
	for i, result := range report.Results {
		notes := ""
		if result.Err != "" {
			notes = color.RedString(result.Err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n",
			i+1, result.Project.PathWithNamespace, len(result.MergeRequests), notes)
	}
	tw.Flush()

	if len(summary.ByAuthor) > 0 {
		fmt.Println()
		color.Green("Most active authors")
		for i, entry := range limitTop(summary.ByAuthor, rankingTop(options)) {
			fmt.Printf("  %d. %s (%d merge requests)\n", i+1, entry.Author, entry.MergeRequests)
		}
	}

	w.printMergeRequests(report, options)
	return nil
}

// printMergeRequests lists the merge requests of each project that has any.
func (w *ConsoleMRWriter) printMergeRequests(report *MRReport, options Options) {
	for _, result := range report.Results {
		if !result.HasMergeRequests() {
			continue
		}
		fmt.Println()
		color.Cyan("%s (%d merge requests)", result.Project.PathWithNamespace, len(result.MergeRequests))

		mergeRequests := limitTop(result.MergeRequests, options.Top)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, mr := range mergeRequests {
			line := fmt.Sprintf("  !%d\t%s\t%s\t%s",
				mr.IID,
				mrDate(mr),
				mr.Author.Name,
				truncateTitle(mr.Title, 60))
			if report.Linker != nil {
				if keys := report.Linker.Extract(mr.Title + " " + mr.Description); len(keys) > 0 {
					line += "\t" + strings.Join(keys, " ")
				}
			}
			fmt.Fprintln(tw, line)
		}
		tw.Flush()
		if len(result.MergeRequests) > len(mergeRequests) {
			fmt.Printf("  ... and %d more merge requests\n", len(result.MergeRequests)-len(mergeRequests))
		}
	}
}

// mrDate prefers the merge time and falls back to creation time for
// unmerged merge requests.
func mrDate(mr gitlab.MergeRequest) string {
	if mr.MergedAt != nil {
		return formatDate(*mr.MergedAt)
	}
	return formatDate(mr.CreatedAt)
}

// JSONMRWriter writes merge request reports as JSON.
type JSONMRWriter struct{}

// JSONMRReport is the JSON output structure for a merge request run.
type JSONMRReport struct {
	GeneratedAt string          `json:"generatedAt"`
	Summary     mrs.Summary     `json:"summary"`
	Projects    []JSONMRProject `json:"projects"`
}

// JSONMRProject is the JSON output structure for one project's merge requests.
type JSONMRProject struct {
	Project       JSONProject        `json:"project"`
	MergeRequests []JSONMergeRequest `json:"mergeRequests"`
	Error         string             `json:"error,omitempty"`
}

// JSONMergeRequest is one merge request in JSON output.
type JSONMergeRequest struct {
	IID          int      `json:"iid"`
	Title        string   `json:"title"`
	State        string   `json:"state"`
	SourceBranch string   `json:"sourceBranch"`
	TargetBranch string   `json:"targetBranch"`
	Author       string   `json:"author"`
	MergedBy     string   `json:"mergedBy,omitempty"`
	MergedAt     string   `json:"mergedAt,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	WebURL       string   `json:"webUrl"`
	Labels       []string `json:"labels,omitempty"`
	Tickets      []string `json:"tickets,omitempty"`
}

// Write outputs the merge request report as JSON.
func (w *JSONMRWriter) Write(report *MRReport, options Options) error {
	projects := make([]JSONMRProject, len(report.Results))
	for i, result := range report.Results {
		mergeRequests := limitTop(result.MergeRequests, options.Top)
		entries := make([]JSONMergeRequest, len(mergeRequests))
		for j, mr := range mergeRequests {
			entry := JSONMergeRequest{
				IID:          mr.IID,
				Title:        mr.Title,
				State:        mr.State,
				SourceBranch: mr.SourceBranch,
				TargetBranch: mr.TargetBranch,
				Author:       mr.Author.Name,
				CreatedAt:    mr.CreatedAt.Format(time.RFC3339),
				WebURL:       mr.WebURL,
				Labels:       mr.Labels,
			}
			if mr.MergedBy != nil {
				entry.MergedBy = mr.MergedBy.Name
			}
			if mr.MergedAt != nil {
				entry.MergedAt = mr.MergedAt.Format(time.RFC3339)
			}
			if report.Linker != nil {
				entry.Tickets = report.Linker.Extract(mr.Title + " " + mr.Description)
			}
			entries[j] = entry
		}
		projects[i] = JSONMRProject{
			Project: JSONProject{
				ID:     result.Project.ID,
				Name:   result.Project.Name,
				Path:   result.Project.PathWithNamespace,
				WebURL: result.Project.WebURL,
			},
			MergeRequests: entries,
			Error:         result.Err,
		}
	}

	jsonReport := JSONMRReport{
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Summary:     report.Summary,
		Projects:    projects,
	}
	return writeJSON(jsonReport, options.OutputPath)
}

// CSVMRWriter writes merge request reports as CSV, one row per merge
// request. Projects without merge requests still get a row so failures stay
// visible in the export.
type CSVMRWriter struct{}

var mrCSVHeaders = []string{
	"project_path", "project_name", "project_id", "project_web_url",
	"mr_iid", "title", "state", "source_branch", "target_branch",
	"author", "merged_by", "created_at", "merged_at",
	"mr_web_url", "labels", "tickets", "ticket_urls", "error",
}

// Write outputs the merge request report as CSV.
func (w *CSVMRWriter) Write(report *MRReport, options Options) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write(mrCSVHeaders); err != nil {
		return err
	}

	for _, result := range report.Results {
		if len(result.MergeRequests) == 0 {
			if err := writer.Write(mrCSVRow(report, result, nil)); err != nil {
				return err
			}
			continue
		}
		for i := range result.MergeRequests {
			if err := writer.Write(mrCSVRow(report, result, &result.MergeRequests[i])); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func mrCSVRow(report *MRReport, result mrs.Result, mr *gitlab.MergeRequest) []string {
	row := []string{
		result.Project.PathWithNamespace,
		result.Project.Name,
		strconv.Itoa(result.Project.ID),
		result.Project.WebURL,
	}
	if mr != nil {
		mergedBy := ""
		if mr.MergedBy != nil {
			mergedBy = mr.MergedBy.Name
		}
		mergedAt := ""
		if mr.MergedAt != nil {
			mergedAt = formatDate(*mr.MergedAt)
		}
		var keys, urls []string
		if report.Linker != nil {
			keys = report.Linker.Extract(mr.Title + " " + mr.Description)
			for _, key := range keys {
				urls = append(urls, report.Linker.BrowseURL(key))
			}
		}
		row = append(row,
			strconv.Itoa(mr.IID),
			mr.Title,
			mr.State,
			mr.SourceBranch,
			mr.TargetBranch,
			mr.Author.Name,
			mergedBy,
			formatDate(mr.CreatedAt),
			mergedAt,
			mr.WebURL,
			strings.Join(mr.Labels, "|"),
			strings.Join(keys, "|"),
			strings.Join(urls, "|"),
		)
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "", "", "", "", "")
	}
	row = append(row, result.Err)
	return row
}
