// Package projects resolves the ordered list of GitLab projects a run
// operates on, either from an explicit list or by discovering group trees.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/refdelta/refdelta-go/internal/gitlab"
)

// Scan modes.
const (
	ModeAutoDiscover = "auto_discover"
	ModeExplicit     = "explicit"
)

// Client is the slice of the GitLab API the resolver needs.
type Client interface {
	GetProject(ctx context.Context, id int) (gitlab.Project, error)
	GetProjectByPath(ctx context.Context, path string) (gitlab.Project, error)
	ListGroupProjects(ctx context.Context, group string, includeSubgroups bool) ([]gitlab.Project, error)
}

// Options selects which projects a run covers. Include and Exclude are
// doublestar glob patterns matched against the full project path, so
// "platform/**" covers a whole group subtree.
type Options struct {
	Mode             string
	ProjectIDs       []int
	ProjectPaths     []string
	GroupIDs         []int
	GroupPaths       []string
	IncludeSubgroups bool
	Include          []string
	Exclude          []string
}

// Resolve returns the deduplicated, path-ordered project list for the given
// options. Individual projects or groups that do not exist are logged and
// skipped; transport errors abort resolution.
func Resolve(ctx context.Context, client Client, opts Options, logger *slog.Logger) ([]gitlab.Project, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "projects"))

	byID := map[int]gitlab.Project{}

	switch opts.Mode {
	case ModeAutoDiscover:
		if err := discoverGroups(ctx, client, opts, byID, log); err != nil {
			return nil, err
		}
		// Explicitly listed projects join the discovered set.
		if err := fetchExplicit(ctx, client, opts, byID, log); err != nil {
			return nil, err
		}
	case ModeExplicit, "":
		if err := fetchExplicit(ctx, client, opts, byID, log); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown scan mode %q", opts.Mode)
	}

	all := make([]gitlab.Project, 0, len(byID))
	for _, p := range byID {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].PathWithNamespace < all[j].PathWithNamespace
	})

	filtered, err := applyFilters(all, opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	log.Info("resolved projects",
		slog.Int("discovered", len(all)),
		slog.Int("after_filters", len(filtered)))
	return filtered, nil
}

func discoverGroups(ctx context.Context, client Client, opts Options, byID map[int]gitlab.Project, log *slog.Logger) error {
	groups := make([]string, 0, len(opts.GroupIDs)+len(opts.GroupPaths))
	for _, id := range opts.GroupIDs {
		groups = append(groups, strconv.Itoa(id))
	}
	groups = append(groups, opts.GroupPaths...)

	for _, group := range groups {
		projects, err := client.ListGroupProjects(ctx, group, opts.IncludeSubgroups)
		if err != nil {
			if errors.Is(err, gitlab.ErrNotFound) {
				log.Warn("group not found or not accessible", slog.String("group", group))
				continue
			}
			return fmt.Errorf("list projects of group %q: %w", group, err)
		}
		log.Debug("discovered group projects", slog.String("group", group), slog.Int("count", len(projects)))
		for _, p := range projects {
			byID[p.ID] = p
		}
	}
	return nil
}

func fetchExplicit(ctx context.Context, client Client, opts Options, byID map[int]gitlab.Project, log *slog.Logger) error {
	for _, id := range opts.ProjectIDs {
		p, err := client.GetProject(ctx, id)
		if err != nil {
			if errors.Is(err, gitlab.ErrNotFound) {
				log.Warn("project not found or not accessible", slog.Int("id", id))
				continue
			}
			return fmt.Errorf("fetch project %d: %w", id, err)
		}
		byID[p.ID] = p
	}
	for _, path := range opts.ProjectPaths {
		p, err := client.GetProjectByPath(ctx, path)
		if err != nil {
			if errors.Is(err, gitlab.ErrNotFound) {
				log.Warn("project not found or not accessible", slog.String("path", path))
				continue
			}
			return fmt.Errorf("fetch project %q: %w", path, err)
		}
		byID[p.ID] = p
	}
	return nil
}

// applyFilters keeps projects matching any include pattern (all, when no
// include patterns are given) and drops projects matching any exclude
// pattern. Exact paths work as patterns too.
func applyFilters(projects []gitlab.Project, include, exclude []string) ([]gitlab.Project, error) {
	filtered := make([]gitlab.Project, 0, len(projects))
	for _, p := range projects {
		keep := len(include) == 0
		for _, pattern := range include {
			match, err := doublestar.Match(pattern, p.PathWithNamespace)
			if err != nil {
				return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
			}
			if match {
				keep = true
				break
			}
		}
		if !keep {
			continue
		}
		for _, pattern := range exclude {
			match, err := doublestar.Match(pattern, p.PathWithNamespace)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
			}
			if match {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
