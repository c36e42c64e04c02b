package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/model"
)

// SnapshotQueueItem is what the Redis persistence queue carries to the
// snapshot worker. Deleted marks a tombstone (attempt submitted or
// snapshot invalidated).
type SnapshotQueueItem struct {
	OwnerID  string          `json:"owner_id"`
	Deleted  bool            `json:"deleted,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// RedisProgressStore keeps one progress snapshot per owner in Redis and
// queues every write for asynchronous mirroring to PostgreSQL. Redis is
// the fast path the session engine reads and writes; the worker-fed
// Postgres copy survives cache eviction.
type RedisProgressStore struct {
	rdb     *redis.Client
	ownerID string
	ttl     time.Duration
}

// NewRedisProgressStore scopes a store to a single owner.
func NewRedisProgressStore(rdb *redis.Client, ownerID string, ttl time.Duration) *RedisProgressStore {
	return &RedisProgressStore{rdb: rdb, ownerID: ownerID, ttl: ttl}
}

// Load fetches the owner's snapshot. Returns (nil, nil) when none exists.
func (s *RedisProgressStore) Load(ctx context.Context) (*model.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.OwnerProgressKey(s.ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save overwrites the owner's snapshot wholesale and queues it for the
// Postgres mirror.
func (s *RedisProgressStore) Save(ctx context.Context, snap *model.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.OwnerProgressKey(s.ownerID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}

	item, _ := json.Marshal(SnapshotQueueItem{OwnerID: s.ownerID, Snapshot: snap})
	// Queue push is best-effort: the Redis copy is already authoritative.
	s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, item)
	return nil
}

// Clear removes the snapshot and queues a tombstone for the mirror.
func (s *RedisProgressStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, config.CacheKey.OwnerProgressKey(s.ownerID)).Err(); err != nil {
		return fmt.Errorf("del snapshot: %w", err)
	}

	item, _ := json.Marshal(SnapshotQueueItem{OwnerID: s.ownerID, Deleted: true})
	s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, item)
	return nil
}
