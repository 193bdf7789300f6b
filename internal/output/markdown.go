package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// MarkdownDeltaWriter writes delta reports as Markdown, suitable for pasting
// into merge requests or release notes.
type MarkdownDeltaWriter struct{}

// Write outputs the delta report as Markdown.
func (w *MarkdownDeltaWriter) Write(report *DeltaReport, options Options) error {
	out, file, err := createWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := report.Summary

	fmt.Fprintf(out, "# Delta Report: %s -> %s\n\n", report.BaseRef, report.TargetRef)
	fmt.Fprintf(out, "**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "**Projects:** %d scanned, %d with changes, %d with errors\n\n",
		summary.TotalProjects, summary.ProjectsWithChanges, summary.ProjectsWithErrors)
	fmt.Fprintf(out, "**Delta commits:** %d by %d authors\n\n",
		summary.TotalCommits, len(summary.UniqueAuthors))

	fmt.Fprintln(out, "## Projects")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Project | Commits | Base | Target | Notes |")
	fmt.Fprintln(out, "|---------|---------|------|--------|-------|")
	for _, result := range report.Results {
		fmt.Fprintf(out, "| `%s` | %d | %d | %d | %s |\n",
			result.Project.PathWithNamespace,
			len(result.Commits),
			result.BaseCommitCount,
			result.TargetCommitCount,
			resultNotes(result),
		)
	}

	for _, result := range report.Results {
		if !result.HasChanges() {
			continue
		}
		fmt.Fprintf(out, "\n## %s\n\n", result.Project.PathWithNamespace)
		fmt.Fprintln(out, "| SHA | Date | Author | Title | Tickets |")
		fmt.Fprintln(out, "|-----|------|--------|-------|---------|")
		for _, commit := range limitTop(result.Commits, options.Top) {
			tickets := ""
			if report.Linker != nil {
				var links []string
				for _, key := range report.Linker.ExtractFromCommit(commit) {
					links = append(links, fmt.Sprintf("[%s](%s)", key, report.Linker.BrowseURL(key)))
				}
				tickets = strings.Join(links, " ")
			}
			sha := commit.ShortSHA
			if commit.WebURL != "" {
				sha = fmt.Sprintf("[%s](%s)", commit.ShortSHA, commit.WebURL)
			}
			fmt.Fprintf(out, "| %s | %s | %s | %s | %s |\n",
				sha,
				formatDate(commit.CommittedAt),
				commit.AuthorName,
				escapePipes(commit.Title),
				tickets,
			)
		}
	}

	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func createWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return file, file, nil
	}
	return os.Stdout, nil, nil
}
