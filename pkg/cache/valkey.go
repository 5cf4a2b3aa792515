package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// valkeyStore implements Store against a single Valkey/Redis instance.
type valkeyStore struct {
	client *redis.Client
	log    logger.Logger
}

func NewValkey(addr string, db int, password string, log logger.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey at %s: %w", addr, err)
	}

	return &valkeyStore{client: client, log: log}, nil
}

func (v *valkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheOperation("get", "miss")
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordCacheOperation("get", "error")
		return nil, err
	}
	metrics.RecordCacheOperation("get", "hit")
	return b, nil
}

func (v *valkeyStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := encode(value)
	if err != nil {
		return err
	}
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		metrics.RecordCacheOperation("set", "error")
		return err
	}
	metrics.RecordCacheOperation("set", "ok")
	return nil
}

func (v *valkeyStore) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, key).Err(); err != nil {
		metrics.RecordCacheOperation("delete", "error")
		return err
	}
	metrics.RecordCacheOperation("delete", "ok")
	return nil
}

func (v *valkeyStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := v.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordCacheOperation("incr", "error")
		return 0, err
	}
	metrics.RecordCacheOperation("incr", "ok")
	return incr.Val(), nil
}

func (v *valkeyStore) AppendHeartbeat(ctx context.Context, serviceID string, rec models.HeartbeatRecord, limit int) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := auditKey(serviceID)
	pipe := v.client.TxPipeline()
	pipe.LPush(ctx, key, b)
	pipe.LTrim(ctx, key, 0, int64(limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordCacheOperation("append", "error")
		return err
	}
	metrics.RecordCacheOperation("append", "ok")
	return nil
}

func (v *valkeyStore) RecentHeartbeats(ctx context.Context, serviceID string, limit int) ([]models.HeartbeatRecord, error) {
	raw, err := v.client.LRange(ctx, auditKey(serviceID), 0, int64(limit-1)).Result()
	if err != nil {
		metrics.RecordCacheOperation("range", "error")
		return nil, err
	}
	metrics.RecordCacheOperation("range", "ok")

	out := make([]models.HeartbeatRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.HeartbeatRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			v.log.Warn("skipping unreadable heartbeat audit record", "service_id", serviceID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
