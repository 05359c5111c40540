package snapshotRepo

import (
	"context"
	"testing"

	"loadly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySnapshotRepo()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Save(ctx, models.DashboardStats{TotalUsers: i}))
	}
	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latest.TotalUsers)

	removed, err := repo.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	removed, err = repo.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, removed)

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latest.TotalUsers)
}
