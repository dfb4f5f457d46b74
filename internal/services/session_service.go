package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yoockh/sprachpartner/internal/cache"
	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/prompt"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
	mongorepo "github.com/yoockh/sprachpartner/internal/repositories/mongo"
	"github.com/yoockh/sprachpartner/internal/utils"

	"github.com/google/uuid"
)

// StartInput carries the widget settings a session starts with. Empty fields
// take the defaults (A1, the default model, bilingual replies).
type StartInput struct {
	Level   string `json:"level"`
	Model   string `json:"model"`
	Verbose *bool  `json:"verbose"`
	Topic   string `json:"topic"`
}

type SessionService interface {
	Start(ctx context.Context, in StartInput) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	End(ctx context.Context, sessionID string) (*models.Session, error)
}

// ModelResolver turns a widget model choice into a selector; *llm.Streamer
// implements it with the configured default model.
type ModelResolver interface {
	Resolve(id string) (llm.Selector, error)
}

type catalogResolver struct{}

func (catalogResolver) Resolve(id string) (llm.Selector, error) { return llm.ParseSelector(id) }

type sessionService struct {
	sessions mongorepo.SessionRepository
	cache    cache.Cache
	ttl      time.Duration
	models   ModelResolver
	now      func() time.Time
}

// NewSessionService builds the session registry. c may be nil, in which case
// every read goes to the repository. A nil resolver uses the built-in catalog.
func NewSessionService(sessions mongorepo.SessionRepository, c cache.Cache, ttl time.Duration, models ModelResolver) SessionService {
	if models == nil {
		models = catalogResolver{}
	}
	return &sessionService{
		sessions: sessions,
		cache:    c,
		ttl:      ttl,
		models:   models,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func sessionCacheKey(sessionID string) string { return "session:" + sessionID + ":meta" }

func (s *sessionService) Start(ctx context.Context, in StartInput) (*models.Session, error) {
	const op = "SessionService.Start"

	level, err := prompt.ParseLevel(in.Level)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "level must be one of A1, A2, B1, B2, C1, C2", err)
	}
	sel, err := s.models.Resolve(in.Model)
	if err != nil {
		return nil, utils.E(utils.CodeUnsupported, op, err.Error(), err)
	}
	verbose := prompt.DefaultVerbose
	if in.Verbose != nil {
		verbose = *in.Verbose
	}

	session := &models.Session{
		SessionID: uuid.NewString(),
		Status:    models.SessionActive,
		Level:     string(level),
		Model:     sel.Model,
		Verbose:   verbose,
		Topic:     strings.TrimSpace(in.Topic),
		CreatedAt: s.now(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	s.remember(ctx, session)
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if s.cache != nil {
		var cached models.Session
		if hit, err := s.cache.GetJSON(ctx, sessionCacheKey(sessionID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	s.remember(ctx, out)
	return out, nil
}

// End is idempotent: ending an ended session returns it unchanged.
func (s *sessionService) End(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ss.Ended() {
		return ss, nil
	}

	ss.End(s.now())
	if err := s.sessions.End(ctx, sessionID, *ss.EndedAt, ss.DurationSeconds); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, sessionCacheKey(sessionID))
	}
	return ss, nil
}

// remember is best effort; a cache failure never fails the request.
func (s *sessionService) remember(ctx context.Context, ss *models.Session) {
	if s.cache == nil || ss == nil {
		return
	}
	_ = s.cache.SetJSON(ctx, sessionCacheKey(ss.SessionID), ss, s.ttl)
}
