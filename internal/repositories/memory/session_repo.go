// Package memory holds process-local repositories used when no database is
// configured, and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/sprachpartner/internal/models"
	mongorepo "github.com/yoockh/sprachpartner/internal/repositories/mongo"
	"github.com/yoockh/sprachpartner/internal/utils"
)

type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewSessionRepo() mongorepo.SessionRepository {
	return &sessionRepo{sessions: make(map[string]models.Session)}
}

func (r *sessionRepo) Create(_ context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.SessionID]; ok {
		return utils.ErrConflict
	}
	r.sessions[s.SessionID] = *s
	return nil
}

func (r *sessionRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &s, nil
}

func (r *sessionRepo) End(_ context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	if s.Ended() {
		return nil
	}
	endedAt = endedAt.UTC()
	s.Status = models.SessionEnded
	s.EndedAt = &endedAt
	s.DurationSeconds = durationSeconds
	r.sessions[sessionID] = s
	return nil
}
