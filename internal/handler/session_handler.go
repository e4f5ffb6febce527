package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yakhtimoon-console/internal/dto"
	appErrors "github.com/noah-isme/yakhtimoon-console/pkg/errors"
	"github.com/noah-isme/yakhtimoon-console/pkg/response"
	"github.com/noah-isme/yakhtimoon-console/pkg/session"
)

type sessionManager interface {
	Info(ctx context.Context) (session.Info, error)
	SetToken(ctx context.Context, token string) (session.Info, error)
	Clear(ctx context.Context) error
}

// SessionHandler manages the bearer token used against the course API.
type SessionHandler struct {
	session sessionManager
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(s sessionManager) *SessionHandler {
	return &SessionHandler{session: s}
}

// Get godoc
// @Summary Session status
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	info, err := h.session.Info(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session"))
		return
	}
	response.JSON(c, http.StatusOK, info)
}

// Put godoc
// @Summary Store the session token
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.SessionRequest true "Bearer token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session [put]
func (h *SessionHandler) Put(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "token is required"))
		return
	}
	info, err := h.session.SetToken(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, session.ErrEmptyToken) || errors.Is(err, session.ErrExpiredToken) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session"))
		return
	}
	response.JSON(c, http.StatusOK, info)
}

// Delete godoc
// @Summary Clear the session token
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.session.Clear(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session"))
		return
	}
	response.NoContent(c)
}
