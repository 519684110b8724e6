package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

func TestOneSessionPerUser(t *testing.T) {
	r := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.OnlineSession{UserID: 1, Token: "a"}))
	err := r.Create(ctx, &models.OnlineSession{UserID: 1, Token: "b"})
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, r.Create(ctx, &models.OnlineSession{UserID: 2, Token: "c"}))
}

func TestDeleteOlderThanSkipsTimingSessions(t *testing.T) {
	r := NewMemorySessionRepository()
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	stale := &models.OnlineSession{UserID: 1, Token: "stale", CreateTime: old}
	require.NoError(t, r.Create(ctx, stale))

	recID := int64(99)
	timing := &models.OnlineSession{UserID: 2, Token: "timing", CreateTime: old, TimeRecordID: &recID}
	require.NoError(t, r.Create(ctx, timing))

	fresh := &models.OnlineSession{UserID: 3, Token: "fresh", CreateTime: time.Now().UTC()}
	require.NoError(t, r.Create(ctx, fresh))

	n, err := r.DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.GetByToken(ctx, "stale")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	_, err = r.GetByToken(ctx, "timing")
	assert.NoError(t, err)
	_, err = r.GetByToken(ctx, "fresh")
	assert.NoError(t, err)
}
