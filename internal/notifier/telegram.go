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

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string

	// endpoint overrides the Bot API base URL in tests.
	endpoint string
	client   *http.Client
}

func (t *TelegramNotifier) Type() string { return "telegram" }

func (t *TelegramNotifier) Validate() error {
	if t.BotToken == "" {
		return errors.New("telegram: bot_token is required")
	}
	if t.ChatID == "" {
		return errors.New("telegram: chat_id is required")
	}
	return nil
}

func (t *TelegramNotifier) Send(ctx context.Context, alert models.Alert) error {
	payload := map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       formatTelegramMessage(alert),
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	base := t.endpoint
	if base == "" {
		base = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func formatTelegramMessage(alert models.Alert) string {
	var icon string
	switch alert.Severity {
	case models.SeverityCritical:
		icon = "🔴"
	case models.SeverityWarning:
		icon = "🟡"
	default:
		icon = "🟢"
	}

	msg := fmt.Sprintf("%s <b>%s</b>\n%s", icon, alert.Title, alert.Message)
	if alert.Source != "" {
		msg += fmt.Sprintf("\nSource: <code>%s</code>", alert.Source)
	}
	msg += fmt.Sprintf("\nTime: %s UTC", alert.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	return msg
}
