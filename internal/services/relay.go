package services

import (
	"time"

	"github.com/yoockh/sprachpartner/internal/events"
)

// Relay drains reply into emit: one llm_chunk per growth of the reply, then
// llm_complete or error, or a single session_ended for a farewell. If emit
// fails the stream is closed and that error is returned; otherwise the
// returned error is the turn's failure, already sent to the client.
func Relay(reply *TurnReply, turnID string, emit func(events.Event) error) error {
	if reply.Ended {
		return emit(events.Event{Type: events.TypeEnded, TurnID: turnID, Text: reply.Closing})
	}

	stream := reply.Stream
	defer stream.Close()

	start := time.Now()
	var seq int64
	for stream.Next() {
		seq++
		if err := emit(events.Event{Type: events.TypeChunk, TurnID: turnID, Seq: seq, Text: stream.Current()}); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		serr := StreamError(err)
		_ = emit(events.Failure(turnID, serr))
		return serr
	}

	return emit(events.Event{
		Type:         events.TypeComplete,
		TurnID:       turnID,
		Text:         stream.Current(),
		Provider:     string(reply.Selector.Family),
		Model:        reply.Selector.Model,
		ProcessingMS: time.Since(start).Milliseconds(),
	})
}
