// Package handler exposes the localhost ops API: table statistics and
// manual reference-data fetch triggers.  The validator protocol itself
// is TCP and lives in internal/server; nothing here is reachable from
// the vehicle network.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/BBlazev/OCUgRPC/internal/cache"
	"github.com/BBlazev/OCUgRPC/internal/fetcher"
	"github.com/BBlazev/OCUgRPC/internal/ingest"
	"github.com/BBlazev/OCUgRPC/internal/repository"
)

// OpsHandler aggregates the repositories and collaborators the ops
// endpoints read from.
type OpsHandler struct {
	Coupons     *repository.CouponRepo
	Articles    *repository.ArticleRepo
	Tickets     *repository.TicketRepo
	Purchases   *repository.PurchaseRepo
	Validations *repository.ValidationRepo

	Fetcher          *fetcher.Fetcher
	Cache            *cache.ArticleCache
	Ingest           *ingest.Consumer
	CouponEndpoint   string
	ArticlesEndpoint string
}

// Stats reports row counts per table and whether the ingestion worker
// is running.
func (h *OpsHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts := map[string]int64{}
	for name, count := range map[string]func() (int64, error){
		"coupons":      func() (int64, error) { return h.Coupons.Count(ctx) },
		"articles":     func() (int64, error) { return h.Articles.Count(ctx) },
		"tickets":      func() (int64, error) { return h.Tickets.Count(ctx) },
		"purchases":    func() (int64, error) { return h.Purchases.Count(ctx) },
		"qr_validated": func() (int64, error) { return h.Validations.CountQR(ctx) },
	} {
		n, err := count()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		counts[name] = n
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tables":         counts,
		"ingest_running": h.Ingest != nil && h.Ingest.Running(),
	})
}

// PurchasesByCard returns the purchase history logged for one card,
// newest first.
func (h *OpsHandler) PurchasesByCard(c echo.Context) error {
	rows, err := h.Purchases.ListByCard(c.Request().Context(), c.Param("card"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": rows})
}

// FetchCoupons pulls the coupon reference data from the central API.
func (h *OpsHandler) FetchCoupons(c echo.Context) error {
	n, err := h.Fetcher.FetchCoupons(c.Request().Context(), h.CouponEndpoint)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"inserted": n})
}

// FetchArticles pulls the article reference data from the central API
// and invalidates the cached validator article list.
func (h *OpsHandler) FetchArticles(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.Fetcher.FetchArticles(ctx, h.ArticlesEndpoint)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, echo.Map{"inserted": n})
}
