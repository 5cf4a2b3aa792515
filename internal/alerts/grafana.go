package alerts

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// SourceGrafana tags alerts decoded from legacy Grafana alerting webhooks.
const SourceGrafana = "grafana"

type grafanaPayload struct {
	DashboardID *int64             `json:"dashboardId"`
	PanelID     *int64             `json:"panelId"`
	OrgID       *int64             `json:"orgId"`
	RuleID      *int64             `json:"ruleId"`
	RuleName    string             `json:"ruleName"`
	RuleURL     string             `json:"ruleUrl"`
	State       string             `json:"state"` // alerting, ok, no_data, paused
	Title       string             `json:"title"`
	Message     string             `json:"message"`
	Tags        map[string]string  `json:"tags"`
	EvalMatches []grafanaEvalMatch `json:"evalMatches"`
}

type grafanaEvalMatch struct {
	Value  float64           `json:"value"`
	Metric string            `json:"metric"`
	Tags   map[string]string `json:"tags"`
}

// isGrafanaShape detects a Grafana alerting webhook structurally by the
// presence of dashboardId, ruleId, or evalMatches.
func isGrafanaShape(probe map[string]json.RawMessage) bool {
	for _, key := range []string{"dashboardId", "ruleId", "evalMatches"} {
		if _, ok := probe[key]; ok {
			return true
		}
	}
	return false
}

func (n *Normalizer) decodeGrafana(body []byte) ([]models.Alert, error) {
	var payload grafanaPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: grafana: %v", ErrValidation, err)
	}

	title := payload.Title
	if title == "" {
		title = payload.RuleName
	}
	if title == "" {
		return nil, fmt.Errorf("%w: grafana: title and ruleName are both missing", ErrValidation)
	}

	message := payload.Message
	if message == "" {
		message = title
	}

	labels := make(map[string]string, len(payload.Tags)+1)
	for k, v := range payload.Tags {
		labels[k] = v
	}
	if payload.State != "" {
		labels["state"] = payload.State
	}

	return []models.Alert{{
		ID:       uuid.NewString(),
		Title:    title,
		Message:  message,
		Severity: grafanaSeverity(payload.State, payload.Tags),
		Source:   SourceGrafana,
		Labels:   labels,
	}}, nil
}

// grafanaSeverity derives severity from the alert state, with an explicit
// tags.severity override when it names a recognized level.
func grafanaSeverity(state string, tags map[string]string) models.Severity {
	if tagged, ok := models.ParseSeverity(tags["severity"]); ok {
		return tagged
	}
	switch state {
	case "alerting":
		return models.SeverityWarning
	case "ok":
		return models.SeverityInfo
	default:
		return models.SeverityInfo
	}
}
