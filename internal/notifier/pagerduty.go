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

// PagerDutyNotifier enqueues alerts through the PagerDuty Events API v2.
type PagerDutyNotifier struct {
	RoutingKey string

	endpoint string
	client   *http.Client
}

func (p *PagerDutyNotifier) Type() string { return "pagerduty" }

func (p *PagerDutyNotifier) Validate() error {
	if p.RoutingKey == "" {
		return errors.New("pagerduty: routing_key is required")
	}
	return nil
}

func (p *PagerDutyNotifier) Send(ctx context.Context, alert models.Alert) error {
	endpoint := p.endpoint
	if endpoint == "" {
		endpoint = "https://events.pagerduty.com/v2/enqueue"
	}

	// A resolved upstream alert resolves the matching PagerDuty incident
	// instead of opening a new one.
	action := "trigger"
	if alert.Label("status") == "resolved" {
		action = "resolve"
	}

	source := alert.Source
	if source == "" {
		source = "beacon-core"
	}

	payload := map[string]interface{}{
		"routing_key":  p.RoutingKey,
		"event_action": action,
		"dedup_key":    dedupKey(alert),
		"payload": map[string]interface{}{
			"summary":        alert.Title,
			"source":         source,
			"severity":       string(alert.Severity),
			"timestamp":      alert.Timestamp.UTC(),
			"custom_details": pagerDutyDetails(alert),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pagerduty: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pagerduty: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pagerduty: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pagerduty: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// dedupKey ties trigger and resolve events of the same logical alert
// together.
func dedupKey(alert models.Alert) string {
	if svc := alert.Label("serviceId"); svc != "" {
		return fmt.Sprintf("%s/%s", alert.Source, svc)
	}
	return fmt.Sprintf("%s/%s", alert.Source, alert.Title)
}

func pagerDutyDetails(alert models.Alert) map[string]string {
	details := map[string]string{"message": alert.Message}
	for k, v := range alert.Labels {
		details[k] = v
	}
	return details
}
