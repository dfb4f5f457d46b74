package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/prompt"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
	"github.com/yoockh/sprachpartner/internal/utils"
)

const retryMessage = "Something went wrong, please retry."

// TurnInput is one learner utterance plus the widget settings for the turn.
// Settings left empty fall back to the session's, then to the defaults.
type TurnInput struct {
	SessionID string                `json:"session_id"`
	Utterance string                `json:"message"`
	History   []models.HistoryEntry `json:"history"`
	Verbose   *bool                 `json:"verbose"`
	Level     string                `json:"level"`
	Model     string                `json:"model"`
	Topic     string                `json:"topic"`
}

// TurnReply is either a farewell (Ended with a Closing message) or a live
// Stream that the caller must drain or Close.
type TurnReply struct {
	Ended    bool
	Closing  string
	Selector llm.Selector
	Stream   *llm.Stream
}

type TutorService interface {
	Submit(ctx context.Context, in TurnInput) (*TurnReply, error)
}

type tutorService struct {
	sessions SessionService
	streamer *llm.Streamer
	stats    TurnStatService
	log      *logrus.Logger
}

// NewTutorService wires one conversation turn. sessions and stats may be nil
// for stateless use.
func NewTutorService(sessions SessionService, streamer *llm.Streamer, stats TurnStatService, log *logrus.Logger) TutorService {
	if log == nil {
		log = logrus.New()
	}
	return &tutorService{sessions: sessions, streamer: streamer, stats: stats, log: log}
}

func (s *tutorService) Submit(ctx context.Context, in TurnInput) (*TurnReply, error) {
	const op = "TutorService.Submit"

	if strings.TrimSpace(in.Utterance) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}

	var session *models.Session
	if in.SessionID != "" && s.sessions != nil {
		ss, err := s.sessions.Get(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		if ss.Ended() {
			return nil, utils.E(utils.CodeConflict, op, "this conversation has ended, start a new one", nil)
		}
		session = ss
	}
	settings := mergeSettings(in, session)

	if prompt.IsFarewell(in.Utterance) {
		if session != nil {
			if _, err := s.sessions.End(ctx, session.SessionID); err != nil {
				return nil, err
			}
		}
		s.record(ctx, &models.TurnStat{SessionID: in.SessionID, Status: models.TurnEnded})
		return &TurnReply{Ended: true, Closing: prompt.Closing(settings.Verbose)}, nil
	}

	sel, err := s.streamer.Resolve(settings.Model)
	if err != nil {
		s.record(ctx, &models.TurnStat{SessionID: in.SessionID, Model: settings.Model, Status: models.TurnRejected})
		return nil, utils.E(utils.CodeUnsupported, op, err.Error(), err)
	}

	level, err := prompt.ParseLevel(settings.Level)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "level must be one of A1, A2, B1, B2, C1, C2", err)
	}

	req := llm.Request{
		System: prompt.Build(prompt.Options{
			Verbose: settings.Verbose,
			Level:   level,
			Topic:   settings.Topic,
		}),
		History:   models.CloneHistory(in.History),
		Utterance: in.Utterance,
	}

	stream, err := s.streamer.Stream(ctx, sel, req)
	if err != nil {
		var unsupported *llm.UnsupportedProviderError
		if errors.As(err, &unsupported) {
			return nil, utils.E(utils.CodeUnsupported, op, err.Error(), err)
		}
		return nil, utils.E(utils.CodeUnavailable, op, "the selected model is not available right now", err)
	}

	start := time.Now()
	stream.OnFinish(func(text string, err error) {
		status := models.TurnDone
		if err != nil {
			status = models.TurnFailed
			s.log.WithFields(logrus.Fields{
				"session_id": in.SessionID,
				"provider":   sel.Family,
				"model":      sel.Model,
				"partial":    len(text),
			}).WithError(err).Warn("turn generation failed")
		}
		s.record(ctx, &models.TurnStat{
			SessionID:     in.SessionID,
			Provider:      string(sel.Family),
			Model:         sel.Model,
			Status:        status,
			ResponseChars: len([]rune(text)),
			ProcessingMS:  time.Since(start).Milliseconds(),
		})
	})

	return &TurnReply{Selector: sel, Stream: stream}, nil
}

// record is fire-and-forget; the turn never waits on or fails because of stats.
func (s *tutorService) record(ctx context.Context, stat *models.TurnStat) {
	if s.stats == nil {
		return
	}
	if stat.Timestamp.IsZero() {
		stat.Timestamp = time.Now().UTC()
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.stats.Record(ctx, stat); err != nil {
			s.log.WithError(err).WithField("session_id", stat.SessionID).Warn("turn stat not recorded")
		}
	}()
}

type turnSettings struct {
	Level   string
	Model   string
	Topic   string
	Verbose bool
}

func mergeSettings(in TurnInput, session *models.Session) turnSettings {
	out := turnSettings{
		Level:   in.Level,
		Model:   in.Model,
		Topic:   in.Topic,
		Verbose: prompt.DefaultVerbose,
	}
	if session != nil {
		if out.Level == "" {
			out.Level = session.Level
		}
		if out.Model == "" {
			out.Model = session.Model
		}
		if out.Topic == "" {
			out.Topic = session.Topic
		}
		out.Verbose = session.Verbose
	}
	if in.Verbose != nil {
		out.Verbose = *in.Verbose
	}
	return out
}

// StreamError turns a failed reply stream into the error shown to the learner.
func StreamError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return utils.E(utils.CodeTimeout, "TutorService.Stream", "the reply was cancelled", err)
	}
	return utils.E(utils.CodeGeneration, "TutorService.Stream", retryMessage, err)
}
