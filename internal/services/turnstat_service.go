package services

import (
	"context"
	"time"

	"github.com/yoockh/sprachpartner/internal/models"
	pgrepo "github.com/yoockh/sprachpartner/internal/repositories/postgres"
	"github.com/yoockh/sprachpartner/internal/utils"

	"github.com/google/uuid"
)

type TurnStatService interface {
	Record(ctx context.Context, stat *models.TurnStat) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TurnStat, error)
}

type turnStatService struct {
	stats pgrepo.TurnStatRepo
}

func NewTurnStatService(stats pgrepo.TurnStatRepo) TurnStatService {
	return &turnStatService{stats: stats}
}

func (s *turnStatService) Record(ctx context.Context, stat *models.TurnStat) error {
	const op = "TurnStatService.Record"

	if stat == nil || stat.Status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "status is required", nil)
	}
	if stat.ID == "" {
		stat.ID = uuid.NewString()
	}
	if stat.Timestamp.IsZero() {
		stat.Timestamp = time.Now().UTC()
	}

	if err := s.stats.Insert(ctx, stat); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert turn stat", err)
	}
	return nil
}

func (s *turnStatService) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TurnStat, error) {
	const op = "TurnStatService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	rows, err := s.stats.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turn stats", err)
	}
	return rows, nil
}
