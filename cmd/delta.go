package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/refdelta/refdelta-go/internal/delta"
	"github.com/refdelta/refdelta-go/internal/notify"
	"github.com/refdelta/refdelta-go/internal/output"
)

// DeltaCmd returns the delta command.
func DeltaCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:     "base",
			Aliases:  []string{"b"},
			Usage:    "Base ref (tag, branch, or commit SHA)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "target",
			Aliases:  []string{"t"},
			Usage:    "Target ref (tag, branch, or commit SHA)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "after",
			Usage: "Keep only commits on or after this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "before",
			Usage: "Keep only commits on or before this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "date-field",
			Usage: "Date used for filtering (committed or authored)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of projects compared concurrently",
		},
		&cli.IntFlag{
			Name:  "max-pages",
			Usage: "History page budget per ref",
		},
		&cli.IntFlag{
			Name:  "max-elapsed",
			Usage: "History time budget per ref, in minutes",
		},
		&cli.BoolFlag{
			Name:  "notify",
			Usage: "Send the summary to configured webhooks",
		},
	)

	return &cli.Command{
		Name:    "delta",
		Aliases: []string{"d"},
		Usage:   "Compare two refs across all configured projects",
		Flags:   flags,
		Action:  deltaAction,
	}
}

func deltaAction(c *cli.Context) error {
	options, err := outputOptions(c)
	if err != nil {
		return err
	}
	window, err := buildWindow(c)
	if err != nil {
		return err
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	if window.Field == delta.DateFieldCommitted && ctx.Config.Delta.DateField == "authored" && c.String("date-field") == "" {
		window.Field = delta.DateFieldAuthored
	}

	workers := ctx.Config.Delta.Workers
	if c.Int("workers") > 0 {
		workers = c.Int("workers")
	}
	budget := delta.Budget{
		MaxPages:   ctx.Config.Delta.MaxHistoryPages,
		MaxElapsed: ctx.Config.Delta.MaxElapsed(),
	}
	if c.Int("max-pages") > 0 {
		budget.MaxPages = c.Int("max-pages")
	}
	if c.Int("max-elapsed") > 0 {
		budget.MaxElapsed = time.Duration(c.Int("max-elapsed")) * time.Minute
	}

	baseRef := c.String("base")
	targetRef := c.String("target")

	runner := delta.NewRunner(ctx.Client, workers, budget, ctx.Logger)
	results, err := runner.Run(c.Context, ctx.Projects, baseRef, targetRef, window)
	if err != nil {
		return fmt.Errorf("delta run aborted: %w", err)
	}

	report := &output.DeltaReport{
		BaseRef:     baseRef,
		TargetRef:   targetRef,
		GeneratedAt: time.Now(),
		Results:     results,
		Summary:     delta.Summarize(results),
		Linker:      ctx.TicketLinker(),
	}

	writer := output.NewDeltaReportWriter(options.Format)
	if err := writer.Write(report, options); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if c.Bool("notify") {
		notifiers := configuredNotifiers(ctx)
		if len(notifiers) == 0 {
			ctx.Logger.Warn("--notify set but no webhooks configured")
		} else {
			notify.Broadcast(c.Context, notifiers, report.Summary, options.OutputPath, ctx.Logger)
		}
	}
	return nil
}

// buildWindow assembles the date filter from CLI flags.
func buildWindow(c *cli.Context) (delta.DateWindow, error) {
	after, err := parseDateFlag(c.String("after"))
	if err != nil {
		return delta.DateWindow{}, err
	}
	before, err := parseDateFlag(c.String("before"))
	if err != nil {
		return delta.DateWindow{}, err
	}
	if before != nil {
		// Make the bound inclusive of the whole day.
		end := before.Add(24*time.Hour - time.Nanosecond)
		before = &end
	}

	field := delta.DateFieldCommitted
	switch c.String("date-field") {
	case "", "committed":
	case "authored":
		field = delta.DateFieldAuthored
	default:
		return delta.DateWindow{}, fmt.Errorf("date-field must be \"committed\" or \"authored\", got %q", c.String("date-field"))
	}

	return delta.DateWindow{After: after, Before: before, Field: field}, nil
}

func configuredNotifiers(ctx *CommandContext) []notify.Notifier {
	var notifiers []notify.Notifier
	if url := ctx.Config.Notifications.SlackWebhook; url != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(url, nil))
	}
	if url := ctx.Config.Notifications.TeamsWebhook; url != "" {
		notifiers = append(notifiers, notify.NewTeamsNotifier(url, nil))
	}
	return notifiers
}
