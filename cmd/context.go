package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/refdelta/refdelta-go/config"
	"github.com/refdelta/refdelta-go/internal/gitlab"
	"github.com/refdelta/refdelta-go/internal/projects"
	"github.com/refdelta/refdelta-go/internal/tickets"
)

// CommandContext holds common state for command execution: configuration,
// logger, the GitLab client, and the resolved project list.
type CommandContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Client   *gitlab.Client
	Projects []gitlab.Project
}

// NewCommandContext creates a context from CLI flags. It loads the
// configuration, sets up logging, connects to GitLab, and resolves the
// project set.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(c.Bool("verbose"))

	client := gitlab.NewClient(gitlab.Config{
		BaseURL:    cfg.GitLab.BaseURL,
		Token:      cfg.GitLab.PrivateToken,
		APIVersion: cfg.GitLab.APIVersion,
		Timeout:    cfg.GitLab.Timeout(),
		VerifySSL:  cfg.GitLab.VerifySSL,
	}, nil, logger)

	opts := projects.Options{
		Mode:             cfg.Scan.Mode,
		ProjectIDs:       cfg.Projects.ByID,
		ProjectPaths:     cfg.Projects.ByPath,
		GroupIDs:         cfg.Groups.ByID,
		GroupPaths:       cfg.Groups.ByPath,
		IncludeSubgroups: cfg.Groups.IncludeSubgroups,
		Include:          cfg.Filters.IncludeProjectPaths,
		Exclude:          cfg.Filters.ExcludeProjectPaths,
	}
	// CLI filter flags override the config file.
	if includes := c.StringSlice("include"); len(includes) > 0 {
		opts.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		opts.Exclude = excludes
	}

	resolved, err := projects.Resolve(c.Context, client, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve projects: %w", err)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("no projects matched the configuration")
	}

	return &CommandContext{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Projects: resolved,
	}, nil
}

// TicketLinker returns a linker when ticket integration is configured.
func (ctx *CommandContext) TicketLinker() *tickets.Linker {
	if ctx.Config.Tickets.BaseURL == "" {
		return nil
	}
	return tickets.NewLinker(ctx.Config.Tickets.BaseURL, ctx.Config.Tickets.ProjectKey)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
