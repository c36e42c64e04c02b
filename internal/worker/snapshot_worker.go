package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/repository"
	"github.com/prepdesk/session-backend/internal/store"
)

// SnapshotWorker consumes persist_snapshots_queue and mirrors progress
// snapshots into PostgreSQL. Redis already holds the authoritative hot
// copy; this mirror is what resume falls back to after cache eviction.
type SnapshotWorker struct {
	snapshots *repository.SnapshotRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(snapshots *repository.SnapshotRepository, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		snapshots: snapshots,
		rdb:       rdb,
		log:       log.With().Str("component", "snapshot_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSnapshotsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var item store.SnapshotQueueItem
	if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.apply(ctx, &item); err != nil {
		w.log.Error().Err(err).
			Str("owner_id", item.OwnerID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, result[1])
		waitRetry(ctx, 5*time.Second)
	}
}

func (w *SnapshotWorker) apply(ctx context.Context, item *store.SnapshotQueueItem) error {
	if item.Deleted || item.Snapshot == nil {
		return w.snapshots.Delete(ctx, item.OwnerID)
	}
	return w.snapshots.Upsert(ctx, item.OwnerID, item.Snapshot)
}

// drain processes all remaining items in the queue before shutdown.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSnapshotsQueue).Result()
		if err != nil {
			break
		}

		var item store.SnapshotQueueItem
		if err := json.Unmarshal([]byte(result), &item); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.apply(ctx, &item); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
