package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/utils"
)

func TestSessionRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	s := &models.Session{SessionID: "s1", Status: models.SessionActive, Level: "A1"}
	require.NoError(t, repo.Create(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())
	assert.ErrorIs(t, repo.Create(ctx, s), utils.ErrConflict)

	got, err := repo.GetBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, got.Status)

	// returned copies do not alias stored state
	got.Status = models.SessionEnded
	again, err := repo.GetBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, again.Status)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.End(ctx, "s1", first, 12))
	require.NoError(t, repo.End(ctx, "s1", first.Add(time.Hour), 99))

	ended, err := repo.GetBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ended.Ended())
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, first, *ended.EndedAt)
	assert.Equal(t, int64(12), ended.DurationSeconds)
}

func TestSessionRepoNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	_, err := repo.GetBySessionID(ctx, "missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, repo.End(ctx, "missing", time.Now(), 0), utils.ErrNotFound)
}
