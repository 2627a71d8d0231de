package router // package router defines how HTTP routes are registered for the ops API

import (
	"github.com/labstack/echo/v4"

	"github.com/BBlazev/OCUgRPC/internal/handler"
)

// RegisterRoutes registers the ops API on the provided Echo instance.
// The health check lives at the root; operational endpoints live under
// /v1.
func RegisterRoutes(e *echo.Echo, ops *handler.OpsHandler) {
	// Fleet monitoring polls this to verify the service is up.
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1")
	g.GET("/stats", ops.Stats)
	g.GET("/purchases/:card", ops.PurchasesByCard)
	g.POST("/fetch/coupons", ops.FetchCoupons)
	g.POST("/fetch/articles", ops.FetchArticles)
}
