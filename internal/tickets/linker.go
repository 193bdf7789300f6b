// Package tickets extracts issue tracker references from commit messages
// and builds browse links for them.
package tickets

import (
	"regexp"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// ticketPattern matches tracker keys of the form PROJECT-123.
var ticketPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// Linker extracts ticket keys and resolves their browse URLs. An optional
// project key restricts extraction to one tracker project.
type Linker struct {
	baseURL    string
	projectKey string
}

// NewLinker creates a linker for the tracker at baseURL. projectKey may be
// empty to accept every key pattern.
func NewLinker(baseURL, projectKey string) *Linker {
	return &Linker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectKey: strings.ToUpper(projectKey),
	}
}

// Extract returns the unique ticket keys found in text, sorted. Matching is
// case-insensitive; keys are reported uppercase.
func (l *Linker) Extract(text string) []string {
	if text == "" {
		return nil
	}
	found := mapset.NewThreadUnsafeSet[string]()
	for _, match := range ticketPattern.FindAllString(strings.ToUpper(text), -1) {
		if l.projectKey != "" && !strings.HasPrefix(match, l.projectKey+"-") {
			continue
		}
		found.Add(match)
	}
	if found.Cardinality() == 0 {
		return nil
	}
	keys := found.ToSlice()
	sort.Strings(keys)
	return keys
}

// ExtractFromCommit pulls keys from a commit's title and message.
func (l *Linker) ExtractFromCommit(commit delta.CommitRecord) []string {
	return l.Extract(commit.Title + " " + commit.Message)
}

// BrowseURL returns the tracker page for one ticket key.
func (l *Linker) BrowseURL(key string) string {
	return l.baseURL + "/browse/" + key
}

// TicketRollup aggregates one ticket's appearances across a run.
type TicketRollup struct {
	Key      string   `json:"key"`
	URL      string   `json:"url"`
	Commits  []string `json:"commits"`
	Projects []string `json:"projects"`
}

// Rollup walks every delta commit and groups them by ticket key. Keys come
// back sorted; each rollup's project list is sorted and deduplicated while
// its commit list keeps encounter order.
func (l *Linker) Rollup(results []delta.DeltaResult) []TicketRollup {
	byKey := map[string]*TicketRollup{}
	projectsByKey := map[string]mapset.Set[string]{}

	for _, result := range results {
		for _, commit := range result.Commits {
			for _, key := range l.ExtractFromCommit(commit) {
				rollup, ok := byKey[key]
				if !ok {
					rollup = &TicketRollup{Key: key, URL: l.BrowseURL(key)}
					byKey[key] = rollup
					projectsByKey[key] = mapset.NewThreadUnsafeSet[string]()
				}
				rollup.Commits = append(rollup.Commits, commit.SHA)
				projectsByKey[key].Add(result.Project.PathWithNamespace)
			}
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rollups := make([]TicketRollup, 0, len(keys))
	for _, key := range keys {
		rollup := byKey[key]
		rollup.Projects = projectsByKey[key].ToSlice()
		sort.Strings(rollup.Projects)
		rollups = append(rollups, *rollup)
	}
	return rollups
}
