package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ServiceStatus is the liveness state of a monitored service.
type ServiceStatus string

const (
	StatusUnknown  ServiceStatus = "unknown"
	StatusUp       ServiceStatus = "up"
	StatusDegraded ServiceStatus = "degraded"
	StatusDown     ServiceStatus = "down"
)

// GaugeValue maps a status onto the beacon_core_service_status gauge.
func (s ServiceStatus) GaugeValue() float64 {
	switch s {
	case StatusUp:
		return 1
	case StatusDegraded:
		return 2
	case StatusDown:
		return 3
	default:
		return 0
	}
}

// BatchItem is one service entry of a batch heartbeat. In shared-key mode
// the token is empty and the request-level bearer token applies.
type BatchItem struct {
	ServiceID string `json:"serviceId"`
	Token     string `json:"token,omitempty"`
}

// BatchItems accepts both batch wire shapes: a plain array of service IDs
// ("shared key" mode) and an array of {serviceId, token} objects
// ("per-service key" mode).
type BatchItems []BatchItem

func (b *BatchItems) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	items := make([]BatchItem, 0, len(raw))
	for i, el := range raw {
		var id string
		if err := json.Unmarshal(el, &id); err == nil {
			items = append(items, BatchItem{ServiceID: id})
			continue
		}
		var item BatchItem
		if err := json.Unmarshal(el, &item); err != nil {
			return fmt.Errorf("services[%d]: expected string or {serviceId, token} object", i)
		}
		items = append(items, item)
	}
	*b = items
	return nil
}

// HeartbeatRequest is the body of POST /api/heartbeat. Exactly one of
// ServiceID (single mode) or Services (batch mode) is expected.
type HeartbeatRequest struct {
	ServiceID string            `json:"serviceId,omitempty"`
	Services  BatchItems        `json:"services,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// Items flattens the request into a uniform batch so single and batch
// requests share one ingestion path.
func (r *HeartbeatRequest) Items() []BatchItem {
	if len(r.Services) > 0 {
		return r.Services
	}
	if r.ServiceID != "" {
		return []BatchItem{{ServiceID: r.ServiceID}}
	}
	return nil
}

// BatchResult is the per-service outcome of one heartbeat batch item.
type BatchResult struct {
	ServiceID string `json:"serviceId"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// HeartbeatRecord is the audit-log entry kept (bounded, most recent N) per
// service. It is not part of the liveness state itself.
type HeartbeatRecord struct {
	ServiceID  string            `json:"serviceId"`
	ReceivedAt time.Time         `json:"receivedAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// ServiceSnapshot is a read-only view of a service's liveness state.
type ServiceSnapshot struct {
	ID                string            `json:"id"`
	Status            ServiceStatus     `json:"status"`
	LastHeartbeatAt   *time.Time        `json:"lastHeartbeatAt,omitempty"`
	ConsecutiveMisses int               `json:"consecutiveMisses"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}
