package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beaconlabs/beacon-core/internal/alerts"
	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/internal/notifier"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// AlertService runs the alert pipeline: normalize, route, dispatch. It is
// the sink for liveness alerts from the evaluator and for inbound webhook
// payloads, and it serves synthetic test notifications.
type AlertService struct {
	normalizer *alerts.Normalizer
	router     *notifier.Router
	dispatcher *notifier.Dispatcher
	cfg        *config.Store
	log        logger.Logger

	inflight sync.WaitGroup
}

func NewAlertService(cfg *config.Store, log logger.Logger) *AlertService {
	return &AlertService{
		normalizer: alerts.NewNormalizer(),
		router:     notifier.NewRouter(cfg),
		dispatcher: notifier.NewDispatcher(cfg, log),
		cfg:        cfg,
		log:        log,
	}
}

// HandleInbound normalizes a raw webhook body and dispatches every alert it
// yields. Dispatch runs in the background: the caller acknowledges receipt,
// delivery failures are logged and counted, never surfaced to the sender.
func (s *AlertService) HandleInbound(ctx context.Context, body []byte) (int, error) {
	normalized, err := s.normalizer.Normalize(body)
	if err != nil {
		return 0, err
	}
	for _, alert := range normalized {
		s.Accept(alert)
	}
	return len(normalized), nil
}

// Accept queues one canonical alert for delivery. It never blocks the
// caller on channel I/O.
func (s *AlertService) Accept(alert models.Alert) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.deliver(context.Background(), alert)
	}()
}

func (s *AlertService) deliver(ctx context.Context, alert models.Alert) {
	channels := s.router.Route(alert)
	if len(channels) == 0 {
		s.log.Warn("alert has no deliverable channels, dropping",
			"alert_id", alert.ID, "severity", alert.Severity, "source", alert.Source)
		return
	}
	results := s.dispatcher.Dispatch(ctx, alert, channels)
	for _, r := range results {
		if !r.Success {
			s.log.Error("alert delivery failed",
				"alert_id", alert.ID, "channel", r.Channel, "error", r.Error)
		}
	}
}

// SendTest delivers a synthetic alert to exactly one channel and reports
// the outcome synchronously.
func (s *AlertService) SendTest(ctx context.Context, req models.TestNotificationRequest) (models.DispatchResult, error) {
	cfg := s.cfg.Get()
	if !knownChannelType(req.ChannelType) {
		return models.DispatchResult{}, fmt.Errorf("unknown channel type %q", req.ChannelType)
	}
	if !cfg.Channels.Enabled(req.ChannelType) {
		return models.DispatchResult{}, fmt.Errorf("channel %q is not configured", req.ChannelType)
	}

	alert := testAlert(req.EventType)
	results := s.dispatcher.Dispatch(ctx, alert, []string{req.ChannelType})
	return results[0], nil
}

// Drain waits for in-flight deliveries to finish, up to the timeout. Used
// during shutdown so accepted alerts are not silently dropped.
func (s *AlertService) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func knownChannelType(t string) bool {
	for _, ct := range config.ChannelTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// testAlert builds the synthetic alert for test notifications. Event type
// selects a severity so the channel renders it the way a real outage would.
func testAlert(eventType string) models.Alert {
	var severity models.Severity
	var title, message string
	switch eventType {
	case "down":
		severity = models.SeverityCritical
		title = "Test: service down"
		message = "This is a test notification simulating a service outage."
	case "degraded":
		severity = models.SeverityWarning
		title = "Test: service degraded"
		message = "This is a test notification simulating a degraded service."
	default:
		severity = models.SeverityInfo
		title = "Test: service up"
		message = "This is a test notification simulating a service recovery."
	}
	return models.Alert{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Severity:  severity,
		Source:    "test",
		Labels:    map[string]string{"eventType": eventType},
		Timestamp: time.Now().UTC(),
	}
}
