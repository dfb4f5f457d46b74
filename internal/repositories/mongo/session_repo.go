package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrConflict
	}
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// End only touches active sessions so the first end time wins.
func (r *sessionRepo) End(ctx context.Context, sessionID string, endedAt time.Time, durationSeconds int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": models.SessionActive},
		bson.M{"$set": bson.M{
			"status":           models.SessionEnded,
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"session_id": sessionID})
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.ErrNotFound
		}
	}
	return nil
}
