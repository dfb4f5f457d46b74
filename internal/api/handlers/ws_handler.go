package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/sprachpartner/internal/events"
	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/prompt"
	"github.com/yoockh/sprachpartner/internal/services"
	"github.com/yoockh/sprachpartner/internal/utils"
	"github.com/yoockh/sprachpartner/internal/workers"
)

type WSHandler struct {
	sessions    services.SessionService
	tutor       services.TutorService
	redis       *redis.Client
	voiceStream string
	log         *logrus.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler serves the live chat socket. rdb may be nil; spoken turns are
// then refused.
func NewWSHandler(sessions services.SessionService, tutor services.TutorService, rdb *redis.Client, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		sessions:    sessions,
		tutor:       tutor,
		redis:       rdb,
		voiceStream: workers.DefaultStream,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type   string `json:"type"` // turn|audio_turn|end_session
	TurnID string `json:"turn_id"`

	Message     string           `json:"message"`
	AudioBase64 string           `json:"audio_base64"`
	Language    string           `json:"language"`
	History     []map[string]any `json:"history"`
	Verbose     *bool            `json:"verbose"`
	Level       string           `json:"level"`
	Model       string           `json:"model"`
	Topic       string           `json:"topic"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) send(e events.Event) error { return w.writeText(e.JSON()) }

func (h *WSHandler) SessionWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.Ended() {
		writeError(c, utils.E(utils.CodeConflict, "WSHandler.SessionWS", "this conversation has ended, start a new one", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.log.WithField("session_id", sessionID)

	// Redis pub/sub -> WS, for spoken turns handled by the voice workers
	if h.redis != nil {
		pubsub := h.redis.Subscribe(ctx, events.ResponseChannel(sessionID), events.StatusChannel(sessionID))
		defer pubsub.Close()
		go func() {
			defer cancel()
			ch := pubsub.Channel()
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-ch:
					if !ok {
						return
					}
					if err := wc.writeText([]byte(m.Payload)); err != nil {
						return
					}
				}
			}
		}()
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		_, data, err := conn.ReadMessage()
		if err != nil || ctx.Err() != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.send(events.Failure("", utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "invalid json", err)))
			continue
		}
		if msg.TurnID == "" {
			msg.TurnID = uuid.NewString()
		}

		switch msg.Type {
		case "turn":
			if done := h.textTurn(ctx, wc, sessionID, msg, log); done {
				return
			}

		case "audio_turn":
			h.queueAudio(ctx, wc, sessionID, msg, log)

		case "end_session":
			ended, err := h.sessions.End(ctx, sessionID)
			if err != nil {
				_ = wc.send(events.Failure(msg.TurnID, err))
				continue
			}
			_ = wc.send(events.Event{Type: events.TypeEnded, TurnID: msg.TurnID, Text: prompt.Closing(ended.Verbose)})
			return

		default:
			_ = wc.send(events.Failure(msg.TurnID, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "unknown message type", nil)))
		}
	}
}

// textTurn runs one typed turn inline. It reports whether the conversation
// is over.
func (h *WSHandler) textTurn(ctx context.Context, wc *wsConn, sessionID string, msg wsClientMsg, log *logrus.Entry) bool {
	reply, err := h.tutor.Submit(ctx, services.TurnInput{
		SessionID: sessionID,
		Utterance: msg.Message,
		History:   models.HistoryFromRaw(msg.History),
		Verbose:   msg.Verbose,
		Level:     msg.Level,
		Model:     msg.Model,
		Topic:     msg.Topic,
	})
	if err != nil {
		_ = wc.send(events.Failure(msg.TurnID, err))
		return false
	}

	if err := services.Relay(reply, msg.TurnID, wc.send); err != nil {
		log.WithError(err).WithField("turn_id", msg.TurnID).Warn("ws turn failed")
	}
	return reply.Ended
}

func (h *WSHandler) queueAudio(ctx context.Context, wc *wsConn, sessionID string, msg wsClientMsg, log *logrus.Entry) {
	const op = "WSHandler.AudioTurn"

	if h.redis == nil {
		_ = wc.send(events.Failure(msg.TurnID, utils.E(utils.CodeUnavailable, op, "voice input is not enabled", nil)))
		return
	}
	if msg.AudioBase64 == "" {
		_ = wc.send(events.Failure(msg.TurnID, utils.E(utils.CodeInvalidArgument, op, "audio_base64 required", nil)))
		return
	}

	turn := workers.VoiceTurn{
		SessionID:   sessionID,
		TurnID:      msg.TurnID,
		AudioBase64: msg.AudioBase64,
		Language:    msg.Language,
		History:     models.HistoryFromRaw(msg.History),
		Verbose:     msg.Verbose,
		Level:       msg.Level,
		Model:       msg.Model,
		Topic:       msg.Topic,
	}
	if err := h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: h.voiceStream,
		Values: turn.Values(),
	}).Err(); err != nil {
		log.WithError(err).Warn("enqueue audio failed")
		_ = wc.send(events.Failure(msg.TurnID, utils.E(utils.CodeUnavailable, op, "failed to enqueue audio", err)))
		return
	}

	_ = wc.send(events.Status(msg.TurnID, "queued", "audio turn queued"))
}
