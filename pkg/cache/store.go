package cache

import (
	"context"
	"errors"
	"time"

	"github.com/beaconlabs/beacon-core/internal/models"
)

// ErrNotFound is returned when a key has no value (or it expired).
var ErrNotFound = errors.New("cache: key not found")

// Store is the shared ephemeral state backend: fixed-window rate-limit
// counters and the bounded per-service heartbeat audit log. The registry's
// liveness state does NOT live here; the store is best-effort and losing it
// only loses rate-limit history and the audit trail.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Increment atomically bumps a counter, applying ttl when the counter
	// is created, and returns the new value.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// AppendHeartbeat pushes an audit record for a service, trimming the
	// log to the most recent limit entries.
	AppendHeartbeat(ctx context.Context, serviceID string, rec models.HeartbeatRecord, limit int) error

	// RecentHeartbeats returns up to limit audit records, newest first.
	RecentHeartbeats(ctx context.Context, serviceID string, limit int) ([]models.HeartbeatRecord, error)
}

func auditKey(serviceID string) string {
	return "heartbeat_log:" + serviceID
}
