// Package notify posts run summaries to chat webhooks. Delivery failures
// are reported to the caller but are never fatal to a run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/refdelta/refdelta-go/internal/delta"
)

// HTTPClient is the slice of http.Client notifiers need.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier delivers one run summary to a destination.
type Notifier interface {
	Notify(ctx context.Context, summary delta.RunSummary, reportPath string) error
}

// Broadcast sends the summary through every notifier, logging failures
// instead of aborting. It returns the number of successful deliveries.
func Broadcast(ctx context.Context, notifiers []Notifier, summary delta.RunSummary, reportPath string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "notify"))

	sent := 0
	for _, notifier := range notifiers {
		if err := notifier.Notify(ctx, summary, reportPath); err != nil {
			log.Error("notification failed", slog.String("error", err.Error()))
			continue
		}
		sent++
	}
	return sent
}

func post(ctx context.Context, client HTTPClient, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func defaultHTTPClient(client HTTPClient) HTTPClient {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// summaryColor picks the status color: red on errors, green on changes,
// orange for a run that found nothing.
func summaryColor(summary delta.RunSummary, errColor, okColor, idleColor string) string {
	switch {
	case summary.ProjectsWithErrors > 0:
		return errColor
	case summary.TotalCommits > 0:
		return okColor
	default:
		return idleColor
	}
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func summaryFields(summary delta.RunSummary) []field {
	fields := []field{
		{Title: "Base Reference", Value: summary.BaseRef, Short: true},
		{Title: "Target Reference", Value: summary.TargetRef, Short: true},
		{Title: "Projects Searched", Value: strconv.Itoa(summary.TotalProjects), Short: true},
		{Title: "Projects with Changes", Value: strconv.Itoa(summary.ProjectsWithChanges), Short: true},
		{Title: "Total Commits", Value: strconv.Itoa(summary.TotalCommits), Short: true},
		{Title: "Unique Authors", Value: strconv.Itoa(len(summary.UniqueAuthors)), Short: true},
	}
	if summary.ProjectsWithErrors > 0 {
		fields = append(fields, field{
			Title: "Projects with Errors",
			Value: strconv.Itoa(summary.ProjectsWithErrors),
			Short: true,
		})
	}
	return fields
}

func reportLine(reportPath string) string {
	if reportPath == "" {
		return ""
	}
	return "Report generated: " + filepath.Base(reportPath)
}
