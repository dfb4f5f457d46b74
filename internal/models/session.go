package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// Session is the registry record of one practice conversation. It never
// carries utterances or replies.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	Status  SessionStatus `bson:"status" json:"status"` // active|ended
	Level   string        `bson:"level" json:"level"`   // A1..C2
	Model   string        `bson:"model" json:"model"`
	Verbose bool          `bson:"verbose" json:"verbose"`
	Topic   string        `bson:"topic,omitempty" json:"topic,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}

func (s *Session) Ended() bool { return s != nil && s.Status == SessionEnded }

// End moves the session to its terminal state. Ending twice keeps the first
// end time.
func (s *Session) End(now time.Time) {
	if s.Ended() {
		return
	}
	s.Status = SessionEnded
	s.EndedAt = &now
	dur := int64(now.Sub(s.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	s.DurationSeconds = dur
}
