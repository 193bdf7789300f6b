package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/refdelta/refdelta-go/internal/mrs"
	"github.com/refdelta/refdelta-go/internal/output"
)

// MRsCmd returns the mrs command.
func MRsCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:  "target-branch",
			Usage: "Only merge requests into this branch",
		},
		&cli.StringFlag{
			Name:  "source-branch",
			Usage: "Only merge requests from this branch",
		},
		&cli.StringFlag{
			Name:  "state",
			Usage: "Merge request state (merged, opened, closed, all)",
			Value: mrs.StateMerged,
		},
		&cli.StringFlag{
			Name:  "merged-after",
			Usage: "Only merge requests merged on or after this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "merged-before",
			Usage: "Only merge requests merged on or before this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "created-after",
			Usage: "Only merge requests created on or after this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "created-before",
			Usage: "Only merge requests created on or before this date (YYYY-MM-DD)",
		},
	)

	return &cli.Command{
		Name:   "mrs",
		Usage:  "Track merge requests across all configured projects",
		Flags:  flags,
		Action: mrsAction,
	}
}

func mrsAction(c *cli.Context) error {
	options, err := outputOptions(c)
	if err != nil {
		return err
	}
	filter, err := buildMRFilter(c)
	if err != nil {
		return err
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	finder := mrs.NewFinder(ctx.Client, ctx.Projects, ctx.Logger)
	results, err := finder.Find(c.Context, filter)
	if err != nil {
		return fmt.Errorf("merge request fetch aborted: %w", err)
	}

	report := &output.MRReport{
		GeneratedAt: time.Now(),
		Filter:      filter,
		Results:     results,
		Summary:     mrs.Summarize(results, filter),
		Linker:      ctx.TicketLinker(),
	}
	writer := output.NewMRReportWriter(options.Format)
	if err := writer.Write(report, options); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// buildMRFilter assembles the merge request filter from CLI flags.
func buildMRFilter(c *cli.Context) (mrs.Filter, error) {
	filter := mrs.Filter{
		State:        c.String("state"),
		TargetBranch: c.String("target-branch"),
		SourceBranch: c.String("source-branch"),
	}

	var err error
	if filter.MergedAfter, err = parseDateFlag(c.String("merged-after")); err != nil {
		return mrs.Filter{}, err
	}
	if filter.MergedBefore, err = parseDateFlag(c.String("merged-before")); err != nil {
		return mrs.Filter{}, err
	}
	if filter.CreatedAfter, err = parseDateFlag(c.String("created-after")); err != nil {
		return mrs.Filter{}, err
	}
	if filter.CreatedBefore, err = parseDateFlag(c.String("created-before")); err != nil {
		return mrs.Filter{}, err
	}

	// Make the upper bounds inclusive of the whole named day.
	if filter.MergedBefore != nil {
		end := filter.MergedBefore.Add(24*time.Hour - time.Nanosecond)
		filter.MergedBefore = &end
	}
	if filter.CreatedBefore != nil {
		end := filter.CreatedBefore.Add(24*time.Hour - time.Nanosecond)
		filter.CreatedBefore = &end
	}

	if err := filter.Validate(); err != nil {
		return mrs.Filter{}, err
	}
	return filter, nil
}
