package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// PushoverNotifier sends alerts through the Pushover message API.
type PushoverNotifier struct {
	Token   string
	UserKey string

	endpoint string
	client   *http.Client
}

func (p *PushoverNotifier) Type() string { return "pushover" }

func (p *PushoverNotifier) Validate() error {
	if p.Token == "" || p.UserKey == "" {
		return errors.New("pushover: token and user_key are required")
	}
	return nil
}

func (p *PushoverNotifier) Send(ctx context.Context, alert models.Alert) error {
	endpoint := p.endpoint
	if endpoint == "" {
		endpoint = "https://api.pushover.net/1/messages.json"
	}

	data := url.Values{}
	data.Set("token", p.Token)
	data.Set("user", p.UserKey)
	data.Set("title", alert.Title)
	data.Set("message", alert.Message)
	data.Set("priority", pushoverPriority(alert.Severity))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("pushover: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pushover: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func pushoverPriority(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "1"
	case models.SeverityWarning:
		return "0"
	default:
		return "-1"
	}
}
