package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// SourceGeneric tags alerts submitted in the native schema when the caller
// does not name a source of their own.
const SourceGeneric = "generic"

type genericPayload struct {
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Severity  string            `json:"severity"`
	Source    string            `json:"source"`
	Labels    map[string]string `json:"labels"`
	Channels  []string          `json:"channels"`
	Timestamp *time.Time        `json:"timestamp"`
}

func (n *Normalizer) decodeGeneric(body []byte) ([]models.Alert, error) {
	var payload genericPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if payload.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if payload.Message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	// Absent severity defaults to info; an unrecognized value is rejected,
	// never coerced.
	severity := models.SeverityInfo
	if payload.Severity != "" {
		parsed, ok := models.ParseSeverity(payload.Severity)
		if !ok {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, payload.Severity)
		}
		severity = parsed
	}

	source := payload.Source
	if source == "" {
		source = SourceGeneric
	}

	alert := models.Alert{
		ID:       uuid.NewString(),
		Title:    payload.Title,
		Message:  payload.Message,
		Severity: severity,
		Source:   source,
		Labels:   payload.Labels,
		Channels: payload.Channels,
	}
	if payload.Timestamp != nil && !payload.Timestamp.IsZero() {
		alert.Timestamp = *payload.Timestamp
	}
	return []models.Alert{alert}, nil
}
