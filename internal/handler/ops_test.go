package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlazev/OCUgRPC/internal/database"
	"github.com/BBlazev/OCUgRPC/internal/repository"
)

func TestPurchasesByCard(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	purchases := repository.NewPurchaseRepo(db)
	require.NoError(t, purchases.Log(context.Background(), 5, "ABC123", 2, true))

	h := &OpsHandler{Purchases: purchases}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("card")
	c.SetParamValues("ABC123")

	require.NoError(t, h.PurchasesByCard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CardNumber":"ABC123"`)
	assert.Contains(t, rec.Body.String(), `"Quantity":2`)
}

func TestPurchasesByCardUnknownCardIsEmpty(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &OpsHandler{Purchases: repository.NewPurchaseRepo(db)}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("card")
	c.SetParamValues("NOBODY")

	require.NoError(t, h.PurchasesByCard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
