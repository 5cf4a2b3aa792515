package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// DiscordNotifier posts alerts to a Discord webhook as a single embed.
type DiscordNotifier struct {
	WebhookURL string
	client     *http.Client
}

func (d *DiscordNotifier) Type() string { return "discord" }

func (d *DiscordNotifier) Validate() error {
	if d.WebhookURL == "" {
		return errors.New("discord: webhook_url is required")
	}
	return nil
}

func (d *DiscordNotifier) Send(ctx context.Context, alert models.Alert) error {
	fields := make([]map[string]interface{}, 0, len(alert.Labels)+1)
	fields = append(fields, map[string]interface{}{
		"name":   "Severity",
		"value":  string(alert.Severity),
		"inline": true,
	})
	if alert.Source != "" {
		fields = append(fields, map[string]interface{}{
			"name":   "Source",
			"value":  alert.Source,
			"inline": true,
		})
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       alert.Title,
				"description": alert.Message,
				"color":       discordColor(alert.Severity),
				"fields":      fields,
				"timestamp":   alert.Timestamp.UTC().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func discordColor(severity models.Severity) int {
	switch severity {
	case models.SeverityCritical:
		return 0xE74C3C
	case models.SeverityWarning:
		return 0xE67E22
	default:
		return 0x2ECC71
	}
}
