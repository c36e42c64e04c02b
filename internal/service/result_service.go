package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/config"
	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/repository"
)

// ResultService serves the post-submission review flow.
type ResultService struct {
	results *repository.ResultRepository
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(results *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultService {
	return &ResultService{
		results: results,
		rdb:     rdb,
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// Review is what the review screen renders: the persisted result plus
// the media-stripped test copy captured at submission time. ReviewTest
// may be nil when its cache entry has expired; the screen then falls
// back to summary-only display.
type Review struct {
	Result     *model.Result `json:"result"`
	ReviewTest *model.Test   `json:"review_test,omitempty"`
}

// GetReview loads a result and its cached review test.
func (s *ResultService) GetReview(ctx context.Context, resultID uuid.UUID) (*Review, error) {
	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}

	review := &Review{Result: res}

	raw, err := s.rdb.Get(ctx, config.CacheKey.ReviewTestKey(resultID.String())).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired review copy. Summary still renders.
	case err != nil:
		s.log.Warn().Err(err).Str("result_id", resultID.String()).Msg("Review cache read failed")
	default:
		var test model.Test
		if err := json.Unmarshal([]byte(raw), &test); err != nil {
			s.log.Warn().Err(err).Str("result_id", resultID.String()).Msg("Review cache decode failed")
		} else {
			review.ReviewTest = &test
		}
	}

	return review, nil
}

// ListByOwner returns an owner's past results, newest first.
func (s *ResultService) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Result, error) {
	return s.results.ListByOwner(ctx, ownerID, limit)
}
