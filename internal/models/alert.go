package models

import "time"

// Severity levels accepted on the canonical alert. Anything else is a
// validation error at the normalizer boundary, never coerced.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity validates a raw severity string.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return Severity(s), true
	}
	return "", false
}

// Alert is the canonical internal representation every inbound alert schema
// is converted to before routing and dispatch.
type Alert struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Severity  Severity          `json:"severity"`
	Source    string            `json:"source"`
	Labels    map[string]string `json:"labels,omitempty"`
	Channels  []string          `json:"channels,omitempty"` // explicit routing override; empty = default routing
	Timestamp time.Time         `json:"timestamp"`
}

// Label returns a label value or "".
func (a *Alert) Label(key string) string {
	if a.Labels == nil {
		return ""
	}
	return a.Labels[key]
}

// DispatchResult is the per-channel outcome of one alert fan-out.
type DispatchResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TestNotificationRequest triggers a synthetic alert against one channel.
type TestNotificationRequest struct {
	ChannelType string `json:"channelType"`
	EventType   string `json:"eventType"` // down, up, degraded
}
