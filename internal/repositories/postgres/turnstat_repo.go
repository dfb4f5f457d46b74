package postgres

import (
	"context"

	"github.com/yoockh/sprachpartner/internal/models"
	"gorm.io/gorm"
)

type TurnStatRepo interface {
	Insert(ctx context.Context, stat *models.TurnStat) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TurnStat, error)
}

type turnStatRepo struct {
	db *gorm.DB
}

func NewTurnStatRepo(db *gorm.DB) TurnStatRepo {
	return &turnStatRepo{db: db}
}

func (r *turnStatRepo) Insert(ctx context.Context, stat *models.TurnStat) error {
	return r.db.WithContext(ctx).Create(stat).Error
}

func (r *turnStatRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TurnStat, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.TurnStat
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
