package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/sprachpartner/internal/events"
	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/services"
	"github.com/yoockh/sprachpartner/internal/utils"
)

type ChatHandler struct {
	tutor services.TutorService
	log   *logrus.Logger
}

func NewChatHandler(tutor services.TutorService, log *logrus.Logger) *ChatHandler {
	if log == nil {
		log = logrus.New()
	}
	return &ChatHandler{tutor: tutor, log: log}
}

// ChatRequest is one turn from the widget. History entries with an unknown
// role or no text are dropped.
type ChatRequest struct {
	SessionID string           `json:"session_id"`
	Message   string           `json:"message" binding:"required"`
	History   []map[string]any `json:"history"`
	Verbose   *bool            `json:"verbose"`
	Level     string           `json:"level"`
	Model     string           `json:"model"`
	Topic     string           `json:"topic"`
}

func (r ChatRequest) turn() services.TurnInput {
	return services.TurnInput{
		SessionID: r.SessionID,
		Utterance: r.Message,
		History:   models.HistoryFromRaw(r.History),
		Verbose:   r.Verbose,
		Level:     r.Level,
		Model:     r.Model,
		Topic:     r.Topic,
	}
}

// SSE event names per turn event.
var sseNames = map[string]string{
	events.TypeChunk:    "partial",
	events.TypeComplete: "complete",
	events.TypeEnded:    "ended",
	events.TypeError:    "error",
}

// Chat answers with Server-Sent Events. Errors found before the reply starts
// are plain JSON with an HTTP status; later ones arrive as an "error" event.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "message is required", err))
		return
	}

	ctx := c.Request.Context()
	reply, err := h.tutor.Submit(ctx, req.turn())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	turnID := uuid.NewString()
	err = services.Relay(reply, turnID, func(e events.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.SSEvent(sseNames[e.Type], e)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"session_id": req.SessionID,
			"turn_id":    turnID,
			"request_id": c.GetString("request_id"),
		}).WithError(err).Warn("chat turn failed")
	}
}
