package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/refdelta/refdelta-go/internal/output"
	"github.com/refdelta/refdelta-go/internal/search"
)

// FindCmd returns the find command.
func FindCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "File with commit SHAs, one per line ('#' starts a comment)",
		},
	)

	return &cli.Command{
		Name:      "find",
		Usage:     "Locate commits by SHA across all configured projects",
		ArgsUsage: "[SHA...]",
		Flags:     flags,
		Action:    findAction,
	}
}

func findAction(c *cli.Context) error {
	options, err := outputOptions(c)
	if err != nil {
		return err
	}

	shas := c.Args().Slice()
	if inputPath := c.String("input"); inputPath != "" {
		file, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open commit list: %w", err)
		}
		fromFile, err := search.LoadSHAs(file)
		file.Close()
		if err != nil {
			return err
		}
		shas = append(shas, fromFile...)
	}
	if len(shas) == 0 {
		return fmt.Errorf("no commit SHAs given: pass them as arguments or via --input")
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	finder := search.NewFinder(ctx.Client, ctx.Projects, ctx.Logger)
	results, err := finder.Search(c.Context, shas)
	if err != nil {
		return fmt.Errorf("search aborted: %w", err)
	}

	report := &output.SearchReport{
		GeneratedAt: time.Now(),
		SHAs:        shas,
		Results:     results,
	}
	writer := output.NewSearchReportWriter(options.Format)
	if err := writer.Write(report, options); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
