package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// memoryStore is a process-local Store used when no Valkey instance is
// configured. Best-effort: data is not shared across replicas and is lost
// on restart, which is acceptable for rate-limit windows and audit history.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]memoryValue
	lists  map[string][][]byte

	// writes counts mutations since the last expiry sweep. Rate-limit
	// window keys are unique per client per minute and are never read
	// again after their window, so expiry cannot rely on lazy deletes.
	writes int
}

// sweepEvery bounds how many mutations may pass between expiry sweeps.
const sweepEvery = 128

type memoryValue struct {
	data      []byte
	counter   int64
	expiresAt time.Time
}

func NewMemory(log logger.Logger) Store {
	if log != nil {
		log.Warn("no cache configured; using in-process store (audit log and rate limits are per-replica)")
	}
	return &memoryStore{
		values: make(map[string]memoryValue),
		lists:  make(map[string][][]byte),
	}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok || m.expired(v) {
		delete(m.values, key)
		return nil, ErrNotFound
	}
	return v.data, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = memoryValue{data: b, expiresAt: expiry(ttl)}
	m.sweepLocked()
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok || m.expired(v) {
		v = memoryValue{expiresAt: expiry(ttl)}
	}
	v.counter++
	m.values[key] = v
	m.sweepLocked()
	return v.counter, nil
}

// sweepLocked drops expired entries every sweepEvery mutations.
func (m *memoryStore) sweepLocked() {
	m.writes++
	if m.writes < sweepEvery {
		return
	}
	m.writes = 0
	for key, v := range m.values {
		if m.expired(v) {
			delete(m.values, key)
		}
	}
}

func (m *memoryStore) AppendHeartbeat(ctx context.Context, serviceID string, rec models.HeartbeatRecord, limit int) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := auditKey(serviceID)

	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([][]byte{b}, m.lists[key]...)
	if len(list) > limit {
		list = list[:limit]
	}
	m.lists[key] = list
	return nil
}

func (m *memoryStore) RecentHeartbeats(ctx context.Context, serviceID string, limit int) ([]models.HeartbeatRecord, error) {
	m.mu.Lock()
	list := m.lists[auditKey(serviceID)]
	if len(list) > limit {
		list = list[:limit]
	}
	copied := make([][]byte, len(list))
	copy(copied, list)
	m.mu.Unlock()

	out := make([]models.HeartbeatRecord, 0, len(copied))
	for _, b := range copied {
		var rec models.HeartbeatRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memoryStore) expired(v memoryValue) bool {
	return !v.expiresAt.IsZero() && time.Now().After(v.expiresAt)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}
