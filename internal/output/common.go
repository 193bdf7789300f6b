package output

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/refdelta/refdelta-go/internal/delta"
	"github.com/refdelta/refdelta-go/internal/mrs"
	"github.com/refdelta/refdelta-go/internal/search"
	"github.com/refdelta/refdelta-go/internal/tickets"
)

const reportDateTimeLayout = "2006-01-02T15:04:05"

// Format represents the output format type.
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatCI       Format = "ci"
)

// ParseFormat validates a format name, defaulting to console when empty.
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(name)) {
	case "":
		return FormatConsole, true
	case FormatConsole, FormatJSON, FormatCSV, FormatMarkdown, FormatCI:
		return Format(strings.ToLower(name)), true
	default:
		return "", false
	}
}

// Options controls output behavior.
type Options struct {
	Format     Format
	Top        int
	OutputPath string
}

// DeltaReport holds the results of one ref comparison run.
type DeltaReport struct {
	BaseRef     string
	TargetRef   string
	GeneratedAt time.Time
	Results     []delta.DeltaResult
	Summary     delta.RunSummary
	// Linker, when set, annotates commits with ticket references.
	Linker *tickets.Linker
}

// SearchReport holds the results of a commit search run.
type SearchReport struct {
	GeneratedAt time.Time
	SHAs        []string
	Results     []search.Result
}

// MRReport holds the results of one merge request tracking run.
type MRReport struct {
	GeneratedAt time.Time
	Filter      mrs.Filter
	Results     []mrs.Result
	Summary     mrs.Summary
	// Linker, when set, annotates merge requests with ticket references.
	Linker *tickets.Linker
}

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(reportDateTimeLayout)
}
