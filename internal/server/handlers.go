package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/constants"
	"github.com/aman-zulfiqar/thorchain-quote/internal/halts"
	"github.com/aman-zulfiqar/thorchain-quote/internal/metrics"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine  *quote.Engine
	Pools   *pools.Repository
	Params  *network.Repository
	Cache   storage.QuoteCache // optional: recent quotes and live feed
	History storage.QuoteStore // optional: ClickHouse quote history
	Halts   *halts.Store       // optional: operator halt overrides

	// HaltsChanged is called after an override is written so it can be
	// applied without waiting for the next refresh
	HaltsChanged func()

	Metrics *metrics.Metrics
	DevMode bool
	Logger  *logrus.Logger
	Now     func() time.Time
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Health reports whether a snapshot has been loaded and which generation
// is being served. Returns 503 before the first snapshot.
func (h *Handlers) Health(c echo.Context) error {
	snap := h.Pools.Snapshot()
	params := h.Params.Parameters()
	resp := HealthResponse{
		OK:               snap.Generation > 0,
		PoolGeneration:   snap.Generation,
		ParamsGeneration: params.Generation,
		Pools:            snap.Len(),
		FetchedAt:        snap.FetchedAt,
	}
	if !resp.OK {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// RecentQuotes returns the most recently served quotes
// Accepts limit query parameter (default: 50, range: 1-200)
func (h *Handlers) RecentQuotes(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "quote cache is not configured", nil)
	}

	limit := constants.DefaultRecentLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentLimit {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentQuotes(ctx, int64(limit))
	if err != nil {
		h.logger().WithError(err).Error("failed to get recent quotes")
		return h.err(c, http.StatusInternalServerError, "failed to get quotes", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handlers) haltsChanged() {
	if h.HaltsChanged != nil {
		h.HaltsChanged()
	}
}

// HaltsUpsert creates or updates a halt override
func (h *Handlers) HaltsUpsert(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}
	var req HaltUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if _, err := halts.ParseKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Upsert(ctx, req.Key, req.Halted, req.Reason)
	if err != nil {
		if errors.Is(err, halts.ErrInvalidReason) {
			return h.err(c, http.StatusBadRequest, "invalid reason", map[string]any{"reason": err.Error()})
		}
		return h.err(c, http.StatusInternalServerError, "failed to upsert halt", nil)
	}
	h.logger().WithFields(logrus.Fields{"key": out.Key, "halted": out.Halted}).Info("halt override written")
	h.haltsChanged()
	return c.JSON(http.StatusOK, out)
}

// HaltsUpdate updates the override stored under :key
func (h *Handlers) HaltsUpdate(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}
	key := c.Param("key")
	if _, err := halts.ParseKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": err.Error()})
	}
	var req HaltUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Upsert(ctx, key, req.Halted, req.Reason)
	if err != nil {
		if errors.Is(err, halts.ErrInvalidReason) {
			return h.err(c, http.StatusBadRequest, "invalid reason", map[string]any{"reason": err.Error()})
		}
		return h.err(c, http.StatusInternalServerError, "failed to update halt", nil)
	}
	h.haltsChanged()
	return c.JSON(http.StatusOK, out)
}

// HaltsGet retrieves an override by key
// Returns 404 if it doesn't exist
func (h *Handlers) HaltsGet(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}
	key := c.Param("key")
	if _, err := halts.ParseKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Halts.Get(ctx, key)
	if err != nil {
		if errors.Is(err, halts.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "halt not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get halt", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// HaltsList returns every override, or those of ?scope= only
func (h *Handlers) HaltsList(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		items []*halts.Halt
		err   error
	)
	if raw := c.QueryParam("scope"); raw != "" {
		scope, perr := halts.ParseScope(raw)
		if perr != nil {
			return h.err(c, http.StatusBadRequest, "invalid scope", map[string]any{"scope": perr.Error()})
		}
		items, err = h.Halts.ListScope(ctx, scope)
	} else {
		items, err = h.Halts.List(ctx)
	}
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list halts", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// HaltsDelete removes an override
// Returns 204 No Content on successful deletion
func (h *Handlers) HaltsDelete(c echo.Context) error {
	if h.Halts == nil {
		return h.err(c, http.StatusServiceUnavailable, "halt store is not configured", nil)
	}
	key := c.Param("key")
	if _, err := halts.ParseKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Halts.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete halt", nil)
	}
	h.haltsChanged()
	return c.NoContent(http.StatusNoContent)
}
