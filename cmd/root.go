// Package cmd wires the CLI commands together.
package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/refdelta/refdelta-go/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "refdelta",
		Usage:   "Discover the exact commit delta between two refs across GitLab projects",
		Version: "1.0.0",
		Commands: []*cli.Command{
			DeltaCmd(),
			FindCmd(),
			MRsCmd(),
			ProjectsCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
	}
}

// Common flags shared across reporting commands.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Project path glob patterns to include (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Project path glob patterns to exclude (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of commits to show per project (0 = all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) (output.Format, error) {
	switch s {
	case "md":
		s = "markdown"
	case "ndjson":
		s = "ci"
	}
	format, ok := output.ParseFormat(s)
	if !ok {
		return "", fmt.Errorf("unsupported format: %s", s)
	}
	return format, nil
}

// outputOptions creates output options from CLI flags.
func outputOptions(c *cli.Context) (output.Options, error) {
	format, err := getOutputFormat(c.String("format"))
	if err != nil {
		return output.Options{}, err
	}
	return output.Options{
		Format:     format,
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}, nil
}
