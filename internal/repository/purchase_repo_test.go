package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseListByCardNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Log(ctx, 5, "ABC123", 1, true))
	require.NoError(t, repo.Log(ctx, 7, "ABC123", 2, false))
	require.NoError(t, repo.Log(ctx, 9, "OTHER", 1, true))

	rows, err := repo.ListByCard(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first, other cards excluded.
	assert.Equal(t, int64(7), rows[0].ArticleID)
	assert.False(t, rows[0].Success)
	assert.Equal(t, int64(5), rows[1].ArticleID)
	assert.True(t, rows[1].Success)
}
