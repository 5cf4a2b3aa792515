package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// LivenessSource tags alerts emitted by the evaluator and by heartbeat
// recovery detection.
const LivenessSource = "liveness"

// AlertSink receives state-change alerts from the evaluator. Implementations
// must not block the sweep.
type AlertSink interface {
	Accept(alert models.Alert)
}

// Evaluator periodically sweeps the registry, comparing each service's
// last-seen time against the configured timeout and driving
// up → degraded → down transitions. Heartbeats race the sweep on the same
// per-entry lock; a heartbeat that lands first makes the entry fresh again
// and the sweep skips it for this cycle.
type Evaluator struct {
	registry *Registry
	cfg      *config.Store
	sink     AlertSink
	log      logger.Logger

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

func NewEvaluator(reg *Registry, cfg *config.Store, sink AlertSink, log logger.Logger) *Evaluator {
	return &Evaluator{
		registry: reg,
		cfg:      cfg,
		sink:     sink,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Stop terminates it and waits for the
// in-flight sweep to finish.
func (e *Evaluator) Start() {
	interval := e.cfg.Get().Heartbeat.CheckIntervalDuration()
	e.log.Info("liveness evaluator started", "interval", interval)

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-ticker.C:
				e.Sweep()
			}
		}
	}()
}

func (e *Evaluator) Stop() {
	close(e.stop)
	<-e.done
	e.log.Info("liveness evaluator stopped")
}

// Sweep runs one evaluation pass over every known service.
func (e *Evaluator) Sweep() {
	metrics.EvaluatorSweepsTotal.Inc()

	hb := e.cfg.Get().Heartbeat
	timeout := hb.TimeoutDuration()
	now := e.now()

	e.registry.mu.RLock()
	entries := make([]*entry, 0, len(e.registry.services))
	for _, ent := range e.registry.services {
		entries = append(entries, ent)
	}
	e.registry.mu.RUnlock()

	for _, ent := range entries {
		e.evaluate(ent, now, timeout, hb)
	}
}

func (e *Evaluator) evaluate(ent *entry, now time.Time, timeout time.Duration, hb config.HeartbeatConfig) {
	ent.mu.Lock()

	// Unknown services have never reported; there is nothing to miss yet.
	if ent.lastHeartbeat.IsZero() {
		ent.mu.Unlock()
		return
	}
	// Fresh entries are skipped, including ones a concurrent heartbeat
	// refreshed after this sweep started.
	elapsed := now.Sub(ent.lastHeartbeat)
	if elapsed <= timeout {
		ent.mu.Unlock()
		return
	}

	prev := ent.status
	var alert *models.Alert

	switch prev {
	case models.StatusUp:
		ent.misses = 1
		if hb.MissThreshold <= 1 {
			ent.status = models.StatusDown
			alert = e.livenessAlert(ent, models.SeverityCritical, elapsed)
		} else {
			ent.status = models.StatusDegraded
			if hb.AlertOnDegraded {
				alert = e.livenessAlert(ent, models.SeverityWarning, elapsed)
			}
		}
	case models.StatusDegraded:
		ent.misses++
		if ent.misses >= hb.MissThreshold {
			ent.status = models.StatusDown
			alert = e.livenessAlert(ent, models.SeverityCritical, elapsed)
		}
	case models.StatusDown:
		// Already alerted; keep counting for observability.
		ent.misses++
	}

	next := ent.status
	id := ent.id
	misses := ent.misses
	ent.mu.Unlock()

	if next != prev {
		metrics.StatusTransitionsTotal.WithLabelValues(string(prev), string(next)).Inc()
		metrics.ServiceStatus.WithLabelValues(id).Set(next.GaugeValue())
		e.log.Warn("service status changed",
			"service_id", id,
			"from", prev,
			"to", next,
			"consecutive_misses", misses,
			"silent_for", elapsed,
		)
	}
	if alert != nil {
		e.sink.Accept(*alert)
	}
}

func (e *Evaluator) livenessAlert(ent *entry, severity models.Severity, elapsed time.Duration) *models.Alert {
	var title string
	switch ent.status {
	case models.StatusDown:
		title = fmt.Sprintf("Service Down: %s", ent.id)
	case models.StatusDegraded:
		title = fmt.Sprintf("Service Degraded: %s", ent.id)
	default:
		title = fmt.Sprintf("Service %s: %s", ent.status, ent.id)
	}

	return &models.Alert{
		ID:       uuid.NewString(),
		Title:    title,
		Message: fmt.Sprintf("No heartbeat from %s for %s (last seen %s, %d consecutive misses)",
			ent.id,
			elapsed.Round(time.Second),
			ent.lastHeartbeat.UTC().Format(time.RFC3339),
			ent.misses,
		),
		Severity: severity,
		Source:   LivenessSource,
		Labels: map[string]string{
			"serviceId": ent.id,
			"status":    string(ent.status),
		},
		Timestamp: e.now(),
	}
}

// RecoveryAlert builds the info alert for a degraded/down service that just
// reported again. Called from the ingestion path, which owns the transition.
func RecoveryAlert(serviceID string, previous models.ServiceStatus, at time.Time) models.Alert {
	return models.Alert{
		ID:       uuid.NewString(),
		Title:    fmt.Sprintf("Service Recovered: %s", serviceID),
		Message:  fmt.Sprintf("%s is sending heartbeats again (was %s)", serviceID, previous),
		Severity: models.SeverityInfo,
		Source:   LivenessSource,
		Labels: map[string]string{
			"serviceId":      serviceID,
			"previousStatus": string(previous),
		},
		Timestamp: at,
	}
}
