package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepdesk/session-backend/internal/client"
	"github.com/prepdesk/session-backend/internal/engine"
	"github.com/prepdesk/session-backend/internal/model"
	"github.com/prepdesk/session-backend/internal/response"
	"github.com/prepdesk/session-backend/internal/service"
	"github.com/prepdesk/session-backend/internal/validator"
)

// SessionHandler exposes the exam session engine's operations over HTTP.
// Each endpoint is one state-machine action; the handler layer only
// parses, delegates and translates errors. No exam logic lives here.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start godoc
// POST /api/v1/sessions
// Fetches the test and opens a new attempt. Load failures are terminal.
func (h *SessionHandler) Start(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id, sess, err := h.sessions.Start(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrTestUnavailable):
			response.Fail(c, http.StatusBadGateway, response.ErrTestUnavailable)
		case errors.Is(err, engine.ErrInvalidTest):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrTestHasNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session_id": id,
		"state":      sess.View(),
	})
}

// GetState godoc
// GET /api/v1/sessions/:session_id
// Returns the full render state (correct answers stripped).
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sess.View())
}

// Select godoc
// POST /api/v1/sessions/:session_id/select
// Picks an option. Picking alone never counts toward scoring.
func (h *SessionHandler) Select(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.apply(c, sess, sess.SelectOption(req.QuestionIndex, req.OptionIndex))
}

// Save godoc
// POST /api/v1/sessions/:session_id/save
// Commits the current selection and advances one question.
func (h *SessionHandler) Save(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.SaveAndAdvance(c.Request.Context()))
}

// Clear godoc
// POST /api/v1/sessions/:session_id/clear
// Resets selection and committed flag of the current question.
func (h *SessionHandler) Clear(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.ClearAnswer(c.Request.Context()))
}

// Mark godoc
// POST /api/v1/sessions/:session_id/mark
// Flips the review flag on the current question.
func (h *SessionHandler) Mark(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.ToggleMark(c.Request.Context()))
}

// GoTo godoc
// POST /api/v1/sessions/:session_id/goto
// Palette jump by local position. Out-of-range requests are ignored.
func (h *SessionHandler) GoTo(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.apply(c, sess, sess.GoTo(req.QuestionIndex))
}

// Next godoc
// POST /api/v1/sessions/:session_id/next
func (h *SessionHandler) Next(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.NavigateNext())
}

// Prev godoc
// POST /api/v1/sessions/:session_id/prev
func (h *SessionHandler) Prev(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.NavigatePrev())
}

// SelectSection godoc
// POST /api/v1/sessions/:session_id/section
// Free section switching; rejected under sectional timing.
func (h *SessionHandler) SelectSection(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.SelectSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.apply(c, sess, sess.SelectSection(req.SectionIndex))
}

// SubmitSection godoc
// POST /api/v1/sessions/:session_id/section/submit
// Completes the current section; the confirmation dialog is the
// client's job, the transition here is unconditional.
func (h *SessionHandler) SubmitSection(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	h.apply(c, sess, sess.SubmitSection())
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Finishes the attempt. Re-submits are absorbed, not errors.
func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	res, err := h.sessions.Submit(id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// GetResult godoc
// GET /api/v1/sessions/:session_id/result
// The locally computed result, available even when backend sync failed.
func (h *SessionHandler) GetResult(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	res, err := h.sessions.Result(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrNotSubmitted):
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) resolve(c *gin.Context) (*engine.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}

	sess, err := h.sessions.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}

// apply translates an engine action result into the response envelope,
// returning the fresh render state on success.
func (h *SessionHandler) apply(c *gin.Context, sess *engine.Session, err error) {
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoSelection):
			response.Fail(c, http.StatusBadRequest, response.ErrNoOptionSelected)
		case errors.Is(err, engine.ErrInvalidOption):
			response.Fail(c, http.StatusBadRequest, response.ErrOptionOutOfRange)
		case errors.Is(err, engine.ErrInvalidQuestion):
			response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
		case errors.Is(err, engine.ErrSectionLocked):
			response.Fail(c, http.StatusForbidden, response.ErrSectionLocked)
		case errors.Is(err, engine.ErrNotSectional):
			response.Fail(c, http.StatusBadRequest, response.ErrNotSectional)
		case errors.Is(err, engine.ErrNoSections):
			response.Fail(c, http.StatusBadRequest, response.ErrNoSections)
		case errors.Is(err, engine.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}
