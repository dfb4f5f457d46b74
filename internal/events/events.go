// Package events defines the messages pushed to a chat client, over a
// WebSocket or relayed through Redis pub/sub by the voice workers.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/yoockh/sprachpartner/internal/utils"
)

const (
	TypeSTTResult = "stt_result"
	TypeChunk     = "llm_chunk"
	TypeComplete  = "llm_complete"
	TypeEnded     = "session_ended"
	TypeError     = "error"
	TypeStatus    = "status"
)

func ResponseChannel(sessionID string) string { return "session:" + sessionID + ":response" }
func StatusChannel(sessionID string) string   { return "session:" + sessionID + ":status" }

// Event is one server message. Text is always the whole reply so far for
// llm_chunk, the final reply for llm_complete, the transcript for stt_result
// and the closing message for session_ended.
type Event struct {
	Type         string     `json:"type"`
	TurnID       string     `json:"turn_id,omitempty"`
	Seq          int64      `json:"seq,omitempty"`
	Text         string     `json:"text"`
	Confidence   float64    `json:"confidence,omitempty"`
	Status       string     `json:"status,omitempty"`
	Code         utils.Code `json:"code,omitempty"`
	Message      string     `json:"message,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model,omitempty"`
	ProcessingMS int64      `json:"processing_time_ms,omitempty"`
}

func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Channel is the pub/sub channel e belongs on.
func (e Event) Channel(sessionID string) string {
	if e.Type == TypeStatus {
		return StatusChannel(sessionID)
	}
	return ResponseChannel(sessionID)
}

func Status(turnID, status, message string) Event {
	return Event{Type: TypeStatus, TurnID: turnID, Status: status, Message: message}
}

// Failure reports err with its public message only.
func Failure(turnID string, err error) Event {
	return Event{
		Type:    TypeError,
		TurnID:  turnID,
		Code:    utils.CodeOf(err),
		Message: utils.PublicMessage(err),
	}
}

type Publisher interface {
	Publish(ctx context.Context, sessionID string, e Event) error
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, e Event) error {
	return p.rdb.Publish(ctx, e.Channel(sessionID), e.JSON()).Err()
}
