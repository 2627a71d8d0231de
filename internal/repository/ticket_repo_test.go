package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlazev/OCUgRPC/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestUpsertRoundTripsAbsentOptionalFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)
	ctx := context.Background()

	token := uuid.NewString()
	require.NoError(t, repo.Upsert(ctx, &model.Ticket{
		TicketID:    101,
		Active:      true,
		DateCreated: "2024-06-01T08:00:00",
		Caption:     "Pojedinačna karta 30 minuta",
		Token:       strPtr(token),
	}))

	got, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.TicketID)
	assert.True(t, got.Active)

	// Absent optional fields must read back as nil, not zero values.
	assert.Nil(t, got.AccountID)
	assert.Nil(t, got.TrafficZone)
	assert.Nil(t, got.ArticleID)
	assert.Nil(t, got.InvoiceItemID)
	assert.Nil(t, got.ValidFrom)
	assert.Nil(t, got.ValidTo)
}

func TestUpsertReplacesByTicketID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)
	ctx := context.Background()

	token := uuid.NewString()
	require.NoError(t, repo.Upsert(ctx, &model.Ticket{
		TicketID:  202,
		Active:    true,
		Caption:   "original",
		AccountID: intPtr(7),
		Token:     strPtr(token),
	}))

	// Resync of the same ticket_id replaces every column, including
	// clearing fields that are now absent.
	require.NoError(t, repo.Upsert(ctx, &model.Ticket{
		TicketID: 202,
		Active:   false,
		Caption:  "resynced",
		Token:    strPtr(token),
	}))

	got, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "resynced", got.Caption)
	assert.False(t, got.Active)
	assert.Nil(t, got.AccountID)

	var n int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tickets WHERE ticket_id = 202`).Scan(&n))
	assert.Equal(t, int64(1), n, "resync must replace, not duplicate")
}

func TestGetByTokenNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)

	_, err := repo.GetByToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivateStampsWindowOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)
	ctx := context.Background()

	token := uuid.NewString()
	require.NoError(t, repo.Upsert(ctx, &model.Ticket{TicketID: 303, Token: strPtr(token)}))

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	act, err := repo.Activate(ctx, token, now)
	require.NoError(t, err)
	assert.True(t, act.Activated)
	assert.Equal(t, "2024-06-15T12:00:00", act.ValidFrom)
	assert.Equal(t, "2024-06-15T12:30:00", act.ValidTo)

	// A second scan does not move the window, even much later.
	again, err := repo.Activate(ctx, token, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again.Activated)
	assert.Equal(t, act.ValidFrom, again.ValidFrom)
	assert.Equal(t, act.ValidTo, again.ValidTo)
}

func TestActivateUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)

	_, err := repo.Activate(context.Background(), "missing", time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentActivationsConverge(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepo(db)
	ctx := context.Background()

	token := uuid.NewString()
	require.NoError(t, repo.Upsert(ctx, &model.Ticket{TicketID: 404, Token: strPtr(token)}))

	const n = 8
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]*Activation, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.Activate(ctx, token, now)
		}(i)
	}
	wg.Wait()

	activated := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if results[i].Activated {
			activated++
		}
		// Every caller observes the same window, whoever stamped it.
		assert.Equal(t, results[0].ValidFrom, results[i].ValidFrom)
		assert.Equal(t, results[0].ValidTo, results[i].ValidTo)
	}
	assert.Equal(t, 1, activated, "exactly one caller may perform the transition")
}
