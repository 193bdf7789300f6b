package notify

import (
	"context"
	"fmt"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// SlackNotifier posts run summaries to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     HTTPClient
}

var _ Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier creates a Slack notifier. A nil client gets a default
// with a 10s timeout.
func NewSlackNotifier(webhookURL string, client HTTPClient) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, client: defaultHTTPClient(client)}
}

type slackAttachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title"`
	Text   string  `json:"text,omitempty"`
	Fields []field `json:"fields"`
	Footer string  `json:"footer"`
}

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// Notify posts the summary as a Slack attachment message.
func (n *SlackNotifier) Notify(ctx context.Context, summary delta.RunSummary, reportPath string) error {
	message := slackMessage{
		Text: fmt.Sprintf("Delta discovery completed: %s -> %s", summary.BaseRef, summary.TargetRef),
		Attachments: []slackAttachment{{
			Color:  summaryColor(summary, "#ff0000", "#36a64f", "#ffa500"),
			Title:  "Delta Discovery Complete",
			Text:   reportLine(reportPath),
			Fields: summaryFields(summary),
			Footer: "refdelta",
		}},
	}
	return post(ctx, n.client, n.webhookURL, message)
}
