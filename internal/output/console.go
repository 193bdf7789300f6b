package output

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// ConsoleDeltaWriter writes delta reports to the console.
type ConsoleDeltaWriter struct{}

// Write outputs the delta report to the console.
func (w *ConsoleDeltaWriter) Write(report *DeltaReport, options Options) error {
	summary := report.Summary

	color.Green("Delta Discovery Results")
	fmt.Printf("Comparing: %s -> %s\n", report.BaseRef, report.TargetRef)
	fmt.Printf("Projects scanned: %d\n", summary.TotalProjects)
	fmt.Printf("Projects with changes: %d\n", summary.ProjectsWithChanges)
	fmt.Printf("Projects without changes: %d\n", summary.ProjectsWithoutChanges)
	if summary.ProjectsRefMissing > 0 {
		fmt.Printf("Projects missing a ref: %d\n", summary.ProjectsRefMissing)
	}
	if summary.ProjectsWithErrors > 0 {
		color.Red("Projects with errors: %d", summary.ProjectsWithErrors)
	}
	if summary.ProjectsCancelled > 0 {
		color.Yellow("Projects skipped by cancellation: %d", summary.ProjectsCancelled)
	}
	if summary.ProjectsTruncated > 0 {
		color.Yellow("Projects with truncated history: %d", summary.ProjectsTruncated)
	}
	fmt.Printf("Total delta commits: %d\n", summary.TotalCommits)
	fmt.Printf("Unique authors: %d\n\n", len(summary.UniqueAuthors))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tProject\tOutcome\tCommits\tBase\tTarget\tNotes")
	for i, result := range report.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			i+1,
			result.Project.PathWithNamespace,
			outcomeLabel(result),
			len(result.Commits),
			result.BaseCommitCount,
			result.TargetCommitCount,
			resultNotes(result),
		)
	}
	tw.Flush()

	if len(summary.Ranking) > 0 {
		fmt.Println()
		color.Green("Most changed projects")
		ranking := limitTop(summary.Ranking, rankingTop(options))
		for i, rank := range ranking {
			fmt.Printf("  %d. %s (%d commits)\n", i+1, rank.ProjectPath, rank.Commits)
		}
	}

	w.printCommits(report, options)
	return nil
}

// printCommits lists the delta commits of each changed project.
func (w *ConsoleDeltaWriter) printCommits(report *DeltaReport, options Options) {
	for _, result := range report.Results {
		if !result.HasChanges() {
			continue
		}
		fmt.Println()
		color.Cyan("%s (%d commits)", result.Project.PathWithNamespace, len(result.Commits))

		commits := limitTop(result.Commits, options.Top)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, commit := range commits {
			line := fmt.Sprintf("  %s\t%s\t%s\t%s",
				commit.ShortSHA,
				formatDate(commit.CommittedAt),
				commit.AuthorName,
				truncateTitle(commit.Title, 60))
			if report.Linker != nil {
				if keys := report.Linker.ExtractFromCommit(commit); len(keys) > 0 {
					line += "\t" + strings.Join(keys, " ")
				}
			}
			fmt.Fprintln(tw, line)
		}
		tw.Flush()
		if len(result.Commits) > len(commits) {
			fmt.Printf("  ... and %d more commits\n", len(result.Commits)-len(commits))
		}
	}
}

// ConsoleSearchWriter writes search reports to the console.
type ConsoleSearchWriter struct{}

// Write outputs the search report to the console.
func (w *ConsoleSearchWriter) Write(report *SearchReport, options Options) error {
	color.Green("Commit Search Results")
	fmt.Printf("SHAs searched: %d, matches: %d\n\n", len(report.SHAs), len(report.Results))

	if len(report.Results) == 0 {
		fmt.Println("No commits found in any project.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SHA\tProject\tAuthor\tTitle\tBranches\tTags")
	for _, result := range limitTop(report.Results, options.Top) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortSHA(result.SHA),
			result.Project.PathWithNamespace,
			result.AuthorName,
			truncateTitle(result.Title, 50),
			strings.Join(result.Branches, "|"),
			strings.Join(result.Tags, "|"),
		)
	}
	tw.Flush()
	return nil
}

// Helper functions

func outcomeLabel(result delta.DeltaResult) string {
	switch result.Outcome() {
	case delta.OutcomeChanges:
		return "changes"
	case delta.OutcomeNoChanges:
		return "no changes"
	case delta.OutcomeRefMissing:
		return color.YellowString("ref missing")
	case delta.OutcomeCancelled:
		return color.YellowString("cancelled")
	default:
		return color.RedString("error")
	}
}

func resultNotes(result delta.DeltaResult) string {
	var notes []string
	if result.SameRef {
		notes = append(notes, "same ref")
	}
	if result.Truncated {
		notes = append(notes, "truncated")
	}
	if result.Cancelled {
		notes = append(notes, "run cancelled")
	}
	if !result.BaseExists && result.TargetExists {
		notes = append(notes, "base missing")
	}
	if result.BaseExists && !result.TargetExists {
		notes = append(notes, "target missing")
	}
	if result.Err != "" {
		notes = append(notes, result.Err)
	}
	return strings.Join(notes, ", ")
}

func rankingTop(options Options) int {
	if options.Top > 0 {
		return options.Top
	}
	return 5
}

func truncateTitle(title string, maxLen int) string {
	if len(title) <= maxLen {
		return title
	}
	return title[:maxLen-3] + "..."
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
