// Package config loads and validates the YAML configuration file that
// describes the GitLab instance, the projects to scan, and run defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scan modes.
const (
	ScanAutoDiscover = "auto_discover"
	ScanExplicit     = "explicit"
)

// TokenEnvVar overrides gitlab.private_token when set, so tokens can stay
// out of config files.
const TokenEnvVar = "REFDELTA_GITLAB_TOKEN"

// Config is the root configuration structure.
type Config struct {
	GitLab        GitLabConfig        `yaml:"gitlab"`
	Scan          ScanConfig          `yaml:"scan"`
	Projects      ProjectsConfig      `yaml:"projects"`
	Groups        GroupsConfig        `yaml:"groups"`
	Filters       FiltersConfig       `yaml:"filters"`
	Delta         DeltaConfig         `yaml:"delta"`
	Tickets       TicketsConfig       `yaml:"tickets"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// GitLabConfig holds connection settings for the GitLab instance.
type GitLabConfig struct {
	BaseURL        string `yaml:"base_url"`
	PrivateToken   string `yaml:"private_token"`
	APIVersion     string `yaml:"api_version"`
	VerifySSL      bool   `yaml:"verify_ssl"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (c GitLabConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScanConfig selects how projects are collected.
type ScanConfig struct {
	Mode string `yaml:"mode"` // auto_discover or explicit
}

// ProjectsConfig lists explicitly configured projects.
type ProjectsConfig struct {
	ByID   []int    `yaml:"by_id"`
	ByPath []string `yaml:"by_path"`
}

// GroupsConfig lists groups whose projects are discovered.
type GroupsConfig struct {
	IncludeSubgroups bool     `yaml:"include_subgroups"`
	ByID             []int    `yaml:"by_id"`
	ByPath           []string `yaml:"by_path"`
}

// FiltersConfig narrows the discovered project set with glob patterns
// matched against full project paths.
type FiltersConfig struct {
	IncludeProjectPaths []string `yaml:"include_project_paths"`
	ExcludeProjectPaths []string `yaml:"exclude_project_paths"`
}

// DeltaConfig holds defaults for comparison runs.
type DeltaConfig struct {
	Workers           int    `yaml:"workers"`
	MaxHistoryPages   int    `yaml:"max_history_pages"`
	MaxElapsedMinutes int    `yaml:"max_elapsed_minutes"`
	DateField         string `yaml:"date_field"` // committed or authored
}

// MaxElapsed returns the per-ref materialization deadline.
func (c DeltaConfig) MaxElapsed() time.Duration {
	return time.Duration(c.MaxElapsedMinutes) * time.Minute
}

// TicketsConfig enables issue tracker linking when a base URL is set.
type TicketsConfig struct {
	BaseURL    string `yaml:"base_url"`
	ProjectKey string `yaml:"project_key"`
}

// NotificationsConfig holds optional webhook destinations.
type NotificationsConfig struct {
	SlackWebhook string `yaml:"slack_webhook"`
	TeamsWebhook string `yaml:"teams_webhook"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		GitLab: GitLabConfig{
			APIVersion:     "v4",
			VerifySSL:      true,
			TimeoutSeconds: 15,
		},
		Scan: ScanConfig{Mode: ScanAutoDiscover},
		Groups: GroupsConfig{
			IncludeSubgroups: true,
		},
		Delta: DeltaConfig{
			Workers:           4,
			MaxHistoryPages:   200,
			MaxElapsedMinutes: 5,
			DateField:         "committed",
		},
	}
}

// LoadConfig loads the configuration from path, merging with defaults. An
// empty path tries .refdelta.yaml in the working directory, then the home
// directory. The token env var, when set, overrides the file's token.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		candidates := []string{".refdelta.yaml"}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, ".refdelta.yaml"))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if token := os.Getenv(TokenEnvVar); token != "" {
		cfg.GitLab.PrivateToken = token
	}
	cfg.GitLab.BaseURL = strings.TrimRight(cfg.GitLab.BaseURL, "/")
	cfg.Tickets.BaseURL = strings.TrimRight(cfg.Tickets.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.GitLab.BaseURL == "" {
		return fmt.Errorf("gitlab.base_url is required")
	}
	if c.GitLab.PrivateToken == "" {
		return fmt.Errorf("gitlab.private_token is required (or set %s)", TokenEnvVar)
	}
	if c.GitLab.TimeoutSeconds <= 0 {
		return fmt.Errorf("gitlab.timeout_seconds must be positive")
	}

	switch c.Scan.Mode {
	case ScanAutoDiscover:
		if len(c.Groups.ByID) == 0 && len(c.Groups.ByPath) == 0 {
			return fmt.Errorf("in auto_discover mode, at least one group must be configured in groups.by_id or groups.by_path")
		}
	case ScanExplicit:
		if len(c.Projects.ByID) == 0 && len(c.Projects.ByPath) == 0 {
			return fmt.Errorf("in explicit mode, at least one project must be configured in projects.by_id or projects.by_path")
		}
	default:
		return fmt.Errorf("scan.mode must be %q or %q, got %q", ScanAutoDiscover, ScanExplicit, c.Scan.Mode)
	}

	if c.Delta.Workers <= 0 {
		return fmt.Errorf("delta.workers must be positive")
	}
	switch c.Delta.DateField {
	case "committed", "authored":
	default:
		return fmt.Errorf("delta.date_field must be \"committed\" or \"authored\", got %q", c.Delta.DateField)
	}
	return nil
}
