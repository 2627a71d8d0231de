package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlazev/OCUgRPC/internal/model"
)

func TestFirstByCardReturnsFirstMatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCouponRepo(db)
	ctx := context.Background()

	first := model.Coupon{
		CouponID:   42,
		CustomerID: 7,
		CardNumber: "ABC123",
		ValidFrom:  "2024-01-01T00:00:00",
		ValidTo:    "2024-12-31T23:59:59",
	}
	second := model.Coupon{
		CouponID:   43,
		CustomerID: 7,
		CardNumber: "ABC123",
		ValidFrom:  "2025-01-01T00:00:00",
		ValidTo:    "2025-12-31T23:59:59",
	}
	require.NoError(t, repo.Insert(ctx, &first))
	require.NoError(t, repo.Insert(ctx, &second))

	got, err := repo.FirstByCard(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CouponID, "lookups use the first stored match")
	assert.Nil(t, got.CardID)
}

func TestFirstByCardUnknownCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCouponRepo(db)

	_, err := repo.FirstByCard(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAccumulatesAcrossFetches(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCouponRepo(db)
	ctx := context.Background()

	// Re-fetching reference data appends new rows; there is no upsert
	// by coupon_id.
	c := model.Coupon{CouponID: 42, CardNumber: "ABC123"}
	require.NoError(t, repo.Insert(ctx, &c))
	c2 := model.Coupon{CouponID: 42, CardNumber: "ABC123"}
	require.NoError(t, repo.Insert(ctx, &c2))

	all, err := repo.ListByCard(ctx, "ABC123")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
