package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// CSVDeltaWriter writes delta reports as CSV, one row per delta commit.
// Projects without commits still get a row so missing refs and failures
// stay visible in the export.
type CSVDeltaWriter struct{}

var deltaCSVHeaders = []string{
	"project_path", "project_name", "project_id", "project_web_url",
	"base_ref", "target_ref", "base_exists", "target_exists",
	"commit_sha", "short_sha", "title", "message",
	"author_name", "author_email", "authored_date",
	"committer_name", "committer_email", "committed_date",
	"commit_web_url", "parent_shas", "tickets", "ticket_urls",
	"truncated", "same_ref", "cancelled", "error",
}

// Write outputs the delta report as CSV.
func (w *CSVDeltaWriter) Write(report *DeltaReport, options Options) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write(deltaCSVHeaders); err != nil {
		return err
	}

	for _, result := range report.Results {
		if len(result.Commits) == 0 {
			if err := writer.Write(deltaCSVRow(report, result, nil)); err != nil {
				return err
			}
			continue
		}
		for i := range result.Commits {
			if err := writer.Write(deltaCSVRow(report, result, &result.Commits[i])); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func deltaCSVRow(report *DeltaReport, result delta.DeltaResult, commit *delta.CommitRecord) []string {
	row := []string{
		result.Project.PathWithNamespace,
		result.Project.Name,
		strconv.Itoa(result.Project.ID),
		result.Project.WebURL,
		result.BaseRef,
		result.TargetRef,
		strconv.FormatBool(result.BaseExists),
		strconv.FormatBool(result.TargetExists),
	}
	if commit != nil {
		var keys, urls []string
		if report.Linker != nil {
			keys = report.Linker.ExtractFromCommit(*commit)
			for _, key := range keys {
				urls = append(urls, report.Linker.BrowseURL(key))
			}
		}
		row = append(row,
			commit.SHA,
			commit.ShortSHA,
			commit.Title,
			commit.Message,
			commit.AuthorName,
			commit.AuthorEmail,
			formatDate(commit.AuthoredAt),
			commit.CommitterName,
			commit.CommitterEmail,
			formatDate(commit.CommittedAt),
			commit.WebURL,
			strings.Join(commit.ParentSHAs, "|"),
			strings.Join(keys, "|"),
			strings.Join(urls, "|"),
		)
	} else {
		row = append(row, "", "", "", "", "", "", "", "", "", "", "", "", "", "")
	}
	row = append(row,
		strconv.FormatBool(result.Truncated),
		strconv.FormatBool(result.SameRef),
		strconv.FormatBool(result.Cancelled),
		result.Err,
	)
	return row
}

// CSVSearchWriter writes search reports as CSV.
type CSVSearchWriter struct{}

var searchCSVHeaders = []string{
	"commit_sha", "project_path", "project_id", "found",
	"title", "author_name", "author_email", "committed_date",
	"commit_web_url", "branches", "tags", "error",
}

// Write outputs the search report as CSV.
func (w *CSVSearchWriter) Write(report *SearchReport, options Options) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write(searchCSVHeaders); err != nil {
		return err
	}

	for _, result := range report.Results {
		row := []string{
			result.SHA,
			result.Project.PathWithNamespace,
			strconv.Itoa(result.Project.ID),
			strconv.FormatBool(result.Found),
			result.Title,
			result.AuthorName,
			result.AuthorEmail,
			result.CommittedAt,
			result.WebURL,
			strings.Join(result.Branches, "|"),
			strings.Join(result.Tags, "|"),
			result.Err,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
