package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlazev/OCUgRPC/internal/database"
	"github.com/BBlazev/OCUgRPC/internal/repository"
)

func newTestFetcher(t *testing.T) (*Fetcher, *repository.CouponRepo, *repository.ArticleRepo) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	coupons := repository.NewCouponRepo(db)
	articles := repository.NewArticleRepo(db)
	return &Fetcher{Coupons: coupons, Articles: articles}, coupons, articles
}

func TestFetchCoupons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 42, "customerId": 7, "cardId": 3, "cardNumber": "ABC123",
			 "validFrom": "2024-01-01T00:00:00", "validTo": "2024-12-31T23:59:59",
			 "trafficAreaGroup": "ZG"},
			{"id": 43, "customerId": 8, "cardNumber": "DEF456",
			 "validFrom": "2024-01-01T00:00:00", "validTo": "2024-06-30T23:59:59"}
		]`))
	}))
	defer srv.Close()

	f, coupons, _ := newTestFetcher(t)
	ctx := context.Background()

	n, err := f.FetchCoupons(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := coupons.FirstByCard(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.CouponID)
	assert.Equal(t, "ZG", got.TrafficAreaGroup)
	require.NotNil(t, got.CardID)
	assert.Equal(t, int64(3), *got.CardID)

	// Absent cardId stays null.
	other, err := coupons.FirstByCard(ctx, "DEF456")
	require.NoError(t, err)
	assert.Nil(t, other.CardID)
}

func TestFetchArticlesAccumulates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 5, "name": "Dnevna karta", "price": 3.5}]`))
	}))
	defer srv.Close()

	f, _, articles := newTestFetcher(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n, err := f.FetchArticles(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	// Re-fetching inserts again; reference data accumulates.
	n, err := articles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t)
	_, err := f.FetchCoupons(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	f, _, _ := newTestFetcher(t)
	_, err := f.FetchArticles(context.Background(), srv.URL)
	assert.Error(t, err)
}
