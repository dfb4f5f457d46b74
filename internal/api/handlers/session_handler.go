package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sprachpartner/internal/services"
	"github.com/yoockh/sprachpartner/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Level     string `json:"level"`
	Model     string `json:"model"`
	Verbose   bool   `json:"verbose"`
	CreatedAt string `json:"created_at"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req services.StartInput
	// an empty body starts a session with the defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
		return
	}

	sess, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		SessionID: sess.SessionID,
		Status:    string(sess.Status),
		Level:     sess.Level,
		Model:     sess.Model,
		Verbose:   sess.Verbose,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) End(c *gin.Context) {
	ended, err := h.svc.End(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ended)
}
