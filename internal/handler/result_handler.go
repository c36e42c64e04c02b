package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/response"
	"github.com/prepdesk/session-backend/internal/service"
)

// ResultHandler serves the post-submission review flow from the
// persisted copy, independent of any live session.
type ResultHandler struct {
	results *service.ResultService
	log     zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(results *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		log:     log.With().Str("component", "result_handler").Logger(),
	}
}

// GetReview godoc
// GET /api/v1/results/:result_id
// Returns the result plus the media-stripped test copy for review.
func (h *ResultHandler) GetReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.results.GetReview(c.Request.Context(), id)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		h.log.Error().Err(err).Str("result_id", id.String()).Msg("Review load failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// ListByOwner godoc
// GET /api/v1/owners/:owner_id/results?limit=N
// An owner's past attempts, newest first.
func (h *ResultHandler) ListByOwner(c *gin.Context) {
	ownerID := c.Param("owner_id")
	if ownerID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.results.ListByOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("owner_id", ownerID).Msg("Result list failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.Result{}
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}
