package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/beaconlabs/beacon-core/internal/auth"
	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/internal/registry"
	"github.com/beaconlabs/beacon-core/pkg/cache"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// ErrEmptyBatch is returned when a heartbeat request names no services.
var ErrEmptyBatch = errors.New("heartbeat request names no services")

// BatchOutcome classifies a processed heartbeat batch. Partial success is a
// distinct state: callers must be able to tell "some services did not get
// credit" apart from full success.
type BatchOutcome int

const (
	BatchAllSucceeded BatchOutcome = iota
	BatchPartialSuccess
	BatchAllFailed
)

// HeartbeatService is the single ingestion path for heartbeats. Single and
// batch requests both flow through Ingest as a one-or-more element batch,
// so there is exactly one algorithm.
type HeartbeatService struct {
	guard    *auth.Guard
	registry *registry.Registry
	alerts   registry.AlertSink
	store    cache.Store
	cfg      *config.Store
	log      logger.Logger

	now func() time.Time
}

func NewHeartbeatService(
	guard *auth.Guard,
	reg *registry.Registry,
	alerts registry.AlertSink,
	store cache.Store,
	cfg *config.Store,
	log logger.Logger,
) *HeartbeatService {
	return &HeartbeatService{
		guard:    guard,
		registry: reg,
		alerts:   alerts,
		store:    store,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Ingest authorizes and records every item of the request independently:
// one item's auth failure or registry error never aborts the rest. Items
// touch disjoint registry keys, so they are processed concurrently.
func (s *HeartbeatService) Ingest(ctx context.Context, req *models.HeartbeatRequest, bearerToken string) ([]models.BatchResult, BatchOutcome, error) {
	items := req.Items()
	if len(items) == 0 {
		return nil, BatchAllFailed, ErrEmptyBatch
	}

	results := make([]models.BatchResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.BatchItem) {
			defer wg.Done()
			results[i] = s.ingestOne(ctx, item, req, bearerToken)
		}(i, item)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	switch {
	case succeeded == len(results):
		return results, BatchAllSucceeded, nil
	case succeeded == 0:
		return results, BatchAllFailed, nil
	default:
		return results, BatchPartialSuccess, nil
	}
}

func (s *HeartbeatService) ingestOne(ctx context.Context, item models.BatchItem, req *models.HeartbeatRequest, bearerToken string) models.BatchResult {
	result := models.BatchResult{ServiceID: item.ServiceID}

	if item.ServiceID == "" {
		result.Error = "serviceId is required"
		metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
		return result
	}

	// Per-service-key mode carries the token on the item; shared-key mode
	// uses the request-level bearer token for every item.
	token := item.Token
	if token == "" {
		token = bearerToken
	}
	if err := s.guard.AuthorizeHeartbeat(item.ServiceID, token); err != nil {
		result.Error = err.Error()
		metrics.HeartbeatsTotal.WithLabelValues("auth_failed").Inc()
		s.log.Warn("heartbeat rejected", "service_id", item.ServiceID, "error", err)
		return result
	}

	previous := s.registry.RecordHeartbeat(item.ServiceID, req.Metadata)
	result.Success = true
	metrics.HeartbeatsTotal.WithLabelValues("ok").Inc()

	s.appendAudit(ctx, item.ServiceID, req)

	if previous == models.StatusDown || previous == models.StatusDegraded {
		s.alerts.Accept(registry.RecoveryAlert(item.ServiceID, previous, s.now()))
	}
	return result
}

// appendAudit records the heartbeat in the bounded audit log. Best effort:
// audit failures never fail the heartbeat.
func (s *HeartbeatService) appendAudit(ctx context.Context, serviceID string, req *models.HeartbeatRequest) {
	limit := s.cfg.Get().Cache.AuditLogSize
	if limit <= 0 {
		return
	}
	rec := models.HeartbeatRecord{
		ServiceID:  serviceID,
		ReceivedAt: s.now(),
		Metadata:   req.Metadata,
		Message:    req.Message,
	}
	if err := s.store.AppendHeartbeat(ctx, serviceID, rec, limit); err != nil {
		s.log.Warn("failed to append heartbeat audit record", "service_id", serviceID, "error", err)
	}
}

// RecentHeartbeats reads the audit log for one service, newest first.
func (s *HeartbeatService) RecentHeartbeats(ctx context.Context, serviceID string) ([]models.HeartbeatRecord, error) {
	limit := s.cfg.Get().Cache.AuditLogSize
	if limit <= 0 {
		return nil, nil
	}
	return s.store.RecentHeartbeats(ctx, serviceID, limit)
}
