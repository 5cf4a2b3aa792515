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

// WebhookNotifier posts the canonical alert as JSON to an arbitrary
// endpoint, with optional static headers (auth tokens and the like).
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	client  *http.Client
}

func (w *WebhookNotifier) Type() string { return "webhook" }

func (w *WebhookNotifier) Validate() error {
	if w.URL == "" {
		return errors.New("webhook: url is required")
	}
	return nil
}

func (w *WebhookNotifier) Send(ctx context.Context, alert models.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("webhook: marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
