package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// entry is the authoritative liveness record for one service. Every field
// mutation happens under the entry's own mutex; no operation ever holds more
// than one entry lock, so unrelated services never serialize on each other.
type entry struct {
	mu sync.Mutex

	id            string
	status        models.ServiceStatus
	lastHeartbeat time.Time // zero until first contact
	misses        int
	metadata      map[string]string
}

// Registry is the per-service liveness state shared by the request path and
// the evaluator sweep. Services are created implicitly on first heartbeat
// and never auto-deleted.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*entry

	log logger.Logger
	now func() time.Time
}

func New(log logger.Logger) *Registry {
	return &Registry{
		services: make(map[string]*entry),
		log:      log,
		now:      time.Now,
	}
}

// Seed pre-registers a service with status unknown. Existing entries are
// left untouched.
func (r *Registry) Seed(id string, metadata map[string]string) {
	e := r.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastHeartbeat.IsZero() && len(e.metadata) == 0 {
		e.metadata = cloneMeta(metadata)
	}
	metrics.ServiceStatus.WithLabelValues(id).Set(e.status.GaugeValue())
}

func (r *Registry) getOrCreate(id string) *entry {
	r.mu.RLock()
	e, ok := r.services[id]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.services[id]; ok {
		return e
	}
	e = &entry{id: id, status: models.StatusUnknown}
	r.services[id] = e
	return e
}

// RecordHeartbeat atomically marks the service up as of arrival time,
// resets its miss counter, and merges metadata (last writer wins). Callers
// never supply the timestamp: arrival order resolves out-of-order and
// clock-skewed clients. Returns the status the service held before this
// heartbeat so the caller can emit a recovery alert on a degraded/down→up
// transition.
func (r *Registry) RecordHeartbeat(id string, metadata map[string]string) models.ServiceStatus {
	e := r.getOrCreate(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.status
	e.lastHeartbeat = r.now()
	e.status = models.StatusUp
	e.misses = 0
	if len(metadata) > 0 {
		if e.metadata == nil {
			e.metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			e.metadata[k] = v
		}
	}

	if prev != models.StatusUp {
		metrics.StatusTransitionsTotal.WithLabelValues(string(prev), string(models.StatusUp)).Inc()
	}
	metrics.ServiceStatus.WithLabelValues(id).Set(models.StatusUp.GaugeValue())
	return prev
}

// Snapshot returns a read-only copy of one service's state.
func (r *Registry) Snapshot(id string) (models.ServiceSnapshot, bool) {
	r.mu.RLock()
	e, ok := r.services[id]
	r.mu.RUnlock()
	if !ok {
		return models.ServiceSnapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), true
}

// List returns snapshots of every known service ordered by ID.
func (r *Registry) List() []models.ServiceSnapshot {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.services))
	for _, e := range r.services {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]models.ServiceSnapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.snapshotLocked())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e *entry) snapshotLocked() models.ServiceSnapshot {
	snap := models.ServiceSnapshot{
		ID:                e.id,
		Status:            e.status,
		ConsecutiveMisses: e.misses,
		Metadata:          cloneMeta(e.metadata),
	}
	if !e.lastHeartbeat.IsZero() {
		t := e.lastHeartbeat
		snap.LastHeartbeatAt = &t
	}
	return snap
}

func cloneMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
