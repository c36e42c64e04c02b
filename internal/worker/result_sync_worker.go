package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/client"
	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/repository"
)

const (
	SyncPollTimeout = 1 * time.Second
	SyncRetryDelay  = 5 * time.Second
)

// ResultSyncWorker pushes locally computed results to the upstream
// content API. The sync is best-effort: the review screen already works
// off the local copy, so failed pushes are simply requeued and retried.
type ResultSyncWorker struct {
	results *repository.ResultRepository
	api     *client.ContentAPI
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewResultSyncWorker creates a new ResultSyncWorker.
func NewResultSyncWorker(results *repository.ResultRepository, api *client.ContentAPI, rdb *redis.Client, log zerolog.Logger) *ResultSyncWorker {
	return &ResultSyncWorker{
		results: results,
		api:     api,
		rdb:     rdb,
		log:     log.With().Str("component", "result_sync_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled.
func (w *ResultSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultSyncWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining queue...")
			w.drain(context.Background())
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ResultSyncWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, SyncPollTimeout, config.WorkerKey.SyncResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(item) < 2 {
		return
	}

	var res model.Result
	if err := json.Unmarshal([]byte(item[1]), &res); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if err := w.sync(ctx, &res); err != nil {
		w.log.Warn().Err(err).
			Str("result_id", res.ID.String()).
			Msg("Upstream sync failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.SyncResultsQueue, item[1])
		waitRetry(ctx, SyncRetryDelay)
	}
}

func (w *ResultSyncWorker) sync(ctx context.Context, res *model.Result) error {
	if err := w.api.PostResult(ctx, res); err != nil {
		return err
	}

	now := time.Now()
	if err := w.results.MarkSynced(ctx, res.ID, now); err != nil {
		// The upstream already has the result; losing the synced_at
		// stamp only means one redundant push later.
		w.log.Warn().Err(err).Str("result_id", res.ID.String()).Msg("MarkSynced failed")
	}
	return nil
}

// drain makes one pass over the remaining queue on shutdown. Items that
// still fail go back for the next process start.
func (w *ResultSyncWorker) drain(ctx context.Context) {
	drained := 0
	for {
		item, err := w.rdb.LPop(ctx, config.WorkerKey.SyncResultsQueue).Result()
		if err != nil {
			break
		}

		var res model.Result
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.sync(ctx, &res); err != nil {
			w.log.Warn().Err(err).Msg("Drain sync error")
			w.rdb.RPush(ctx, config.WorkerKey.SyncResultsQueue, item)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining results")
	}
}
