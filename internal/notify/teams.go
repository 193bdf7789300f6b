package notify

import (
	"context"
	"fmt"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// TeamsNotifier posts run summaries to a Microsoft Teams channel webhook.
type TeamsNotifier struct {
	webhookURL string
	client     HTTPClient
}

var _ Notifier = (*TeamsNotifier)(nil)

// NewTeamsNotifier creates a Teams notifier. A nil client gets a default
// with a 10s timeout.
func NewTeamsNotifier(webhookURL string, client HTTPClient) *TeamsNotifier {
	return &TeamsNotifier{webhookURL: webhookURL, client: defaultHTTPClient(client)}
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle string      `json:"activityTitle"`
	Text          string      `json:"text,omitempty"`
	Facts         []teamsFact `json:"facts"`
}

type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Title      string         `json:"title"`
	Sections   []teamsSection `json:"sections"`
}

// Notify posts the summary as a Teams MessageCard.
func (n *TeamsNotifier) Notify(ctx context.Context, summary delta.RunSummary, reportPath string) error {
	facts := make([]teamsFact, 0, 8)
	for _, f := range summaryFields(summary) {
		facts = append(facts, teamsFact{Name: f.Title, Value: f.Value})
	}

	card := teamsCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    fmt.Sprintf("Delta Discovery: %s -> %s", summary.BaseRef, summary.TargetRef),
		ThemeColor: summaryColor(summary, "FF0000", "00FF00", "FFA500"),
		Title:      "Delta Discovery Complete",
		Sections: []teamsSection{{
			ActivityTitle: fmt.Sprintf("Delta discovery completed: %s -> %s", summary.BaseRef, summary.TargetRef),
			Text:          reportLine(reportPath),
			Facts:         facts,
		}},
	}
	return post(ctx, n.client, n.webhookURL, card)
}
