package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
)

// ErrValidation marks an inbound alert payload that matches no supported
// schema or is missing required fields for the schema it does match.
var ErrValidation = errors.New("invalid alert payload")

// Normalizer converts inbound alert bodies into canonical Alerts. Schema
// detection is structural: each schema's decoder is attempted in fixed
// priority order (Alertmanager, then Grafana, then generic) and the first
// structural match wins. No explicit schema-version field is assumed.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize produces one or more canonical Alerts from a raw JSON body.
// An Alertmanager payload with N entries yields N independent alerts.
func (n *Normalizer) Normalize(body []byte) ([]models.Alert, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		metrics.AlertsRejectedTotal.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrValidation)
	}

	var (
		out    []models.Alert
		schema string
		err    error
	)
	switch {
	case isAlertmanagerShape(probe):
		schema = SourceAlertmanager
		out, err = n.decodeAlertmanager(body)
	case isGrafanaShape(probe):
		schema = SourceGrafana
		out, err = n.decodeGrafana(body)
	default:
		schema = SourceGeneric
		out, err = n.decodeGeneric(body)
	}
	if err != nil {
		metrics.AlertsRejectedTotal.WithLabelValues(schema).Inc()
		return nil, err
	}

	for i := range out {
		if out[i].Timestamp.IsZero() {
			out[i].Timestamp = n.now()
		}
		metrics.AlertsReceivedTotal.WithLabelValues(schema, string(out[i].Severity)).Inc()
	}
	return out, nil
}
