package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// SourceAlertmanager tags alerts decoded from Prometheus Alertmanager
// webhook payloads.
const SourceAlertmanager = "alertmanager"

// alertmanagerPayload is the Alertmanager webhook message shape.
type alertmanagerPayload struct {
	Version     string              `json:"version"`
	GroupKey    string              `json:"groupKey"`
	Status      string              `json:"status"` // firing or resolved
	Receiver    string              `json:"receiver"`
	GroupLabels map[string]string   `json:"groupLabels"`
	Alerts      []alertmanagerAlert `json:"alerts"`
}

type alertmanagerAlert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     *time.Time        `json:"startsAt"`
	EndsAt       *time.Time        `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
}

// isAlertmanagerShape detects an Alertmanager webhook structurally: an
// alerts array together with a top-level status or receiver field.
func isAlertmanagerShape(probe map[string]json.RawMessage) bool {
	if _, ok := probe["alerts"]; !ok {
		return false
	}
	_, hasStatus := probe["status"]
	_, hasReceiver := probe["receiver"]
	return hasStatus || hasReceiver
}

// decodeAlertmanager converts each element of the alerts array into one
// independent canonical Alert; partial failure of one downstream dispatch
// never blocks the siblings because they stay separate records.
func (n *Normalizer) decodeAlertmanager(body []byte) ([]models.Alert, error) {
	var payload alertmanagerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: alertmanager: %v", ErrValidation, err)
	}
	if len(payload.Alerts) == 0 {
		return nil, fmt.Errorf("%w: alertmanager: alerts array is empty", ErrValidation)
	}

	out := make([]models.Alert, 0, len(payload.Alerts))
	for i, el := range payload.Alerts {
		title := el.Labels["alertname"]
		if title == "" {
			return nil, fmt.Errorf("%w: alertmanager: alerts[%d] has no labels.alertname", ErrValidation, i)
		}

		message := el.Annotations["summary"]
		if desc := el.Annotations["description"]; desc != "" {
			if message != "" {
				message = message + "\n" + desc
			} else {
				message = desc
			}
		}
		if message == "" {
			message = title
		}

		labels := make(map[string]string, len(el.Labels)+1)
		for k, v := range el.Labels {
			labels[k] = v
		}
		// The element's own firing/resolved state rides along as a label so
		// routing and formatting can distinguish the two.
		if el.Status != "" {
			labels["status"] = el.Status
		} else if payload.Status != "" {
			labels["status"] = payload.Status
		}

		alert := models.Alert{
			ID:       uuid.NewString(),
			Title:    title,
			Message:  message,
			Severity: alertmanagerSeverity(el.Labels["severity"]),
			Source:   SourceAlertmanager,
			Labels:   labels,
		}
		if el.StartsAt != nil && !el.StartsAt.IsZero() {
			alert.Timestamp = *el.StartsAt
		}
		out = append(out, alert)
	}
	return out, nil
}

// alertmanagerSeverity maps the labels.severity value: critical and warning
// pass through, anything else (or absence) is info.
func alertmanagerSeverity(raw string) models.Severity {
	switch raw {
	case "critical":
		return models.SeverityCritical
	case "warning":
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}
