package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// SlackNotifier posts alerts to a Slack incoming webhook as an attachment.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	client     *http.Client
}

func (s *SlackNotifier) Type() string { return "slack" }

func (s *SlackNotifier) Validate() error {
	if s.WebhookURL == "" {
		return errors.New("slack: webhook_url is required")
	}
	return nil
}

func (s *SlackNotifier) Send(ctx context.Context, alert models.Alert) error {
	payload := map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color":     slackColor(alert.Severity),
				"title":     alert.Title,
				"text":      alert.Message,
				"timestamp": alert.Timestamp.Unix(),
				"fields": []map[string]interface{}{
					{"title": "Severity", "value": string(alert.Severity), "short": true},
					{"title": "Source", "value": alert.Source, "short": true},
				},
			},
		},
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func slackColor(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "danger"
	case models.SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}
