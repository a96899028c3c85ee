package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	defaultQuoteRate  = 10
	defaultQuoteBurst = 20
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	// Prometheus scrape endpoint, outside the authenticated API
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		v1.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1.GET("/health", h.Health)
	v1.GET("/pools", h.PoolsList)
	v1.GET("/pools/:asset", h.PoolGet)
	v1.GET("/network", h.Network)
	v1.GET("/memo/parse", h.MemoParse)
	v1.GET("/quotes/recent", h.RecentQuotes)

	quoteRate, quoteBurst := cfg.QuoteRateLimit, cfg.QuoteRateBurst
	if quoteRate <= 0 {
		quoteRate = defaultQuoteRate
	}
	if quoteBurst <= 0 {
		quoteBurst = defaultQuoteBurst
	}
	quoteGroup := v1.Group("/quote")
	quoteGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(quoteRate),
		Burst:     quoteBurst,
		ExpiresIn: 3 * time.Minute,
	})))
	quoteGroup.GET("/swap", h.QuoteSwap)

	// Operator halt overrides CRUD
	haltGroup := v1.Group("/halts")
	haltGroup.GET("", h.HaltsList)
	haltGroup.POST("", h.HaltsUpsert)
	haltGroup.GET("/:key", h.HaltsGet)
	haltGroup.PUT("/:key", h.HaltsUpdate)
	haltGroup.DELETE("/:key", h.HaltsDelete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
