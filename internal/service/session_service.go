package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/engine"
	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/repository"
)

// Domain errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSubmitted    = errors.New("session not submitted yet")
)

// completedRetention is how long a submitted session stays addressable
// before the janitor evicts it from the registry.
const completedRetention = time.Hour

// TestProvider fetches immutable test definitions.
type TestProvider interface {
	FetchTest(ctx context.Context, testID string) (*model.Test, error)
}

// ProgressStoreFactory builds a per-owner ProgressStore.
type ProgressStoreFactory func(ownerID string) engine.ProgressStore

// SessionService owns the registry of live exam sessions: one engine
// instance per active attempt, each with its own timer goroutine.
type SessionService struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession

	tests    TestProvider
	storeFor ProgressStoreFactory
	results  *repository.ResultRepository
	rdb      *redis.Client
	cfg      *config.Config
	log      zerolog.Logger
}

type liveSession struct {
	id          uuid.UUID
	ownerID     string
	sess        *engine.Session
	cancel      context.CancelFunc
	finalize    sync.Once
	completedAt time.Time
}

// NewSessionService creates a new SessionService. The Redis client and
// result repository may be nil in redis-less development runs; the
// submit path then skips persistence and only serves the local result.
func NewSessionService(
	tests TestProvider,
	storeFor ProgressStoreFactory,
	results *repository.ResultRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions: make(map[uuid.UUID]*liveSession),
		tests:    tests,
		storeFor: storeFor,
		results:  results,
		rdb:      rdb,
		cfg:      cfg,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Start fetches the test, builds the engine and launches its timer.
// A load failure is terminal for the attempt; no retry here.
func (s *SessionService) Start(ctx context.Context, req *model.StartSessionRequest) (uuid.UUID, *engine.Session, error) {
	test, err := s.tests.FetchTest(ctx, req.TestID)
	if err != nil {
		return uuid.Nil, nil, err
	}

	var store engine.ProgressStore
	if s.storeFor != nil {
		store = s.storeFor(req.OwnerID)
	}

	sess, err := engine.NewSession(ctx, req.OwnerID, test, store, s.log, req.Resume)
	if err != nil {
		return uuid.Nil, nil, err
	}

	id := uuid.New()
	runCtx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{id: id, ownerID: req.OwnerID, sess: sess, cancel: cancel}

	s.mu.Lock()
	s.sessions[id] = ls
	s.mu.Unlock()

	// Subscribe before the timer starts so no submission event can slip
	// past the watcher.
	events, cancelSub := sess.Subscribe()

	go sess.Run(runCtx)
	go s.watchSubmission(ls, events, cancelSub)

	s.log.Info().
		Str("session_id", id.String()).
		Str("test_id", test.ID).
		Str("owner_id", req.OwnerID).
		Str("mode", sess.Mode().String()).
		Msg("Session started")

	return id, sess, nil
}

// Get resolves a live session by id.
func (s *SessionService) Get(id uuid.UUID) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls.sess, nil
}

// Submit finishes a session. A second submit, manual or racing with a
// timer expiry, is absorbed by returning the already computed result.
func (s *SessionService) Submit(id uuid.UUID) (*model.Result, error) {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	res, err := ls.sess.Submit()
	if errors.Is(err, engine.ErrAlreadySubmitted) {
		if prior, done := ls.sess.Result(); done {
			return prior, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Result returns the computed result of a submitted session.
func (s *SessionService) Result(id uuid.UUID) (*model.Result, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	res, done := sess.Result()
	if !done {
		return nil, ErrNotSubmitted
	}
	return res, nil
}

// Run evicts submitted sessions after their retention window. Call in a
// goroutine; returns when ctx is cancelled.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			s.evictCompleted()
		}
	}
}

// watchSubmission waits for the session to reach Done (manual submit,
// last-section expiry or whole-test timeout) and then runs result
// persistence exactly once. The subscription is established by Start
// before the timer goroutine runs.
func (s *SessionService) watchSubmission(ls *liveSession, ch <-chan engine.Event, cancelSub func()) {
	defer cancelSub()

	for ev := range ch {
		if ev.Type != engine.EventSubmitted {
			continue
		}
		ls.finalize.Do(func() {
			// completedAt is read under s.mu by the janitor.
			s.mu.Lock()
			ls.completedAt = time.Now()
			s.mu.Unlock()

			ls.cancel() // stop the timer goroutine if still running
			if res, done := ls.sess.Result(); done {
				s.persistResult(res, ls.sess.Test())
			}
		})
		return
	}
}

// persistResult stores the result locally, queues the upstream sync and
// caches the media-stripped test copy for the review screen. Every step
// is best-effort: the in-memory result keeps serving the review screen
// even if all of them fail.
func (s *SessionService) persistResult(res *model.Result, test *model.Test) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.results != nil {
		if err := s.results.Create(ctx, res); err != nil {
			s.log.Error().Err(err).Str("result_id", res.ID.String()).Msg("Result insert failed")
		}
	}

	if s.rdb != nil {
		payload, _ := json.Marshal(res)
		if err := s.rdb.RPush(ctx, config.WorkerKey.SyncResultsQueue, payload).Err(); err != nil {
			s.log.Warn().Err(err).Str("result_id", res.ID.String()).Msg("Sync enqueue failed")
		}

		review, _ := json.Marshal(test.StripMedia())
		key := config.CacheKey.ReviewTestKey(res.ID.String())
		if err := s.rdb.Set(ctx, key, review, s.cfg.ReviewCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("result_id", res.ID.String()).Msg("Review cache write failed")
		}
	}

	s.log.Info().
		Str("result_id", res.ID.String()).
		Str("test_id", res.TestID).
		Float64("score", res.Score).
		Int("correct", res.Correct).
		Int("incorrect", res.Incorrect).
		Int("unattempted", res.Unattempted).
		Msg("Session submitted")
}

func (s *SessionService) evictCompleted() {
	cutoff := time.Now().Add(-completedRetention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ls := range s.sessions {
		if !ls.completedAt.IsZero() && ls.completedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// shutdown stops every live timer goroutine.
func (s *SessionService) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.sessions {
		ls.cancel()
	}
}
