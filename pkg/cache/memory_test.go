package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconlabs/beacon-core/internal/models"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	b, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetMarshalsStructs(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", map[string]int{"n": 1}, 0))
	b, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Increment(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMemoryStore_ExpiredKeysSweptWithoutRereads(t *testing.T) {
	s := NewMemory(nil).(*memoryStore)
	ctx := context.Background()

	// Unique per-window keys, written once and never read again, like the
	// rate limiter produces.
	for i := 0; i < sweepEvery; i++ {
		_, err := s.Increment(ctx, fmt.Sprintf("rate_limit:client-%d", i), time.Millisecond)
		require.NoError(t, err)
	}
	time.Sleep(10 * time.Millisecond)

	// The next sweep-triggering run of writes must reclaim all of them.
	for i := 0; i < sweepEvery; i++ {
		_, err := s.Increment(ctx, "rate_limit:active", time.Minute)
		require.NoError(t, err)
	}

	s.mu.Lock()
	size := len(s.values)
	s.mu.Unlock()
	assert.LessOrEqual(t, size, 1+sweepEvery/2, "expired window keys were never reclaimed")
}

func TestMemoryStore_HeartbeatAuditLogBounded(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		rec := models.HeartbeatRecord{
			ServiceID:  "service-1",
			ReceivedAt: time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
			Message:    fmt.Sprintf("beat-%d", i),
		}
		require.NoError(t, s.AppendHeartbeat(ctx, "service-1", rec, 5))
	}

	recs, err := s.RecentHeartbeats(ctx, "service-1", 5)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	// Newest first.
	assert.Equal(t, "beat-9", recs[0].Message)
	assert.Equal(t, "beat-5", recs[4].Message)
}

func TestMemoryStore_RecentHeartbeatsPerService(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.AppendHeartbeat(ctx, "a", models.HeartbeatRecord{ServiceID: "a"}, 5))
	recs, err := s.RecentHeartbeats(ctx, "b", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
