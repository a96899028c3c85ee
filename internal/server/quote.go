package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/memo"
	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
)

// QuoteSwap prices a swap
// Query: from_asset, to_asset, amount (whole units), destination,
// optional tolerance_bps, affiliate, affiliate_bps
func (h *Handlers) QuoteSwap(c echo.Context) error {
	req, details := h.parseQuoteRequest(c)
	if details != nil {
		return h.err(c, http.StatusBadRequest, "invalid quote request", details)
	}

	q, err := h.Engine.EstimateSwap(req)
	if err != nil {
		if rej, ok := quote.AsRejection(err); ok {
			return rejection(c, rej)
		}
		if errors.Is(err, quote.ErrSnapshotMismatch) {
			return h.err(c, http.StatusServiceUnavailable, "snapshot refresh in progress", nil)
		}
		h.logger().WithError(err).Error("quote failed")
		return h.err(c, http.StatusInternalServerError, "quote failed", map[string]any{"err": err.Error()})
	}

	resp := QuoteResponse{Quote: q}
	if rec := h.recordQuote(c.Request().Context(), q); rec != nil {
		resp.ID = rec.ID
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handlers) parseQuoteRequest(c echo.Context) (quote.Request, map[string]any) {
	details := map[string]any{}

	from, err := asset.Parse(c.QueryParam("from_asset"))
	if err != nil {
		details["from_asset"] = err.Error()
	}
	to, err := asset.Parse(c.QueryParam("to_asset"))
	if err != nil {
		details["to_asset"] = err.Error()
	}

	var amount asset.Amount
	amountStr := strings.TrimSpace(c.QueryParam("amount"))
	if amountStr == "" {
		details["amount"] = "required"
	} else if len(details) == 0 {
		amount, err = asset.ParseHuman(amountStr, h.Pools.Snapshot().Decimals(from))
		if err != nil {
			details["amount"] = "must be a decimal number"
		}
	}

	req := quote.Request{
		DestinationAsset:   to,
		DestinationAddress: strings.TrimSpace(c.QueryParam("destination")),
		AffiliateAddress:   strings.TrimSpace(c.QueryParam("affiliate")),
	}

	if v := strings.TrimSpace(c.QueryParam("tolerance_bps")); v != "" {
		bps, err := strconv.ParseInt(v, 10, 64)
		if err != nil || bps < 0 || bps > 10_000 {
			details["tolerance_bps"] = "must be an integer in [0, 10000]"
		} else {
			limit := decimal.New(bps, -4)
			req.SlipLimit = &limit
		}
	}
	if v := strings.TrimSpace(c.QueryParam("affiliate_bps")); v != "" {
		bps, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			details["affiliate_bps"] = "must be an integer"
		} else {
			req.AffiliateFeeBps = bps
		}
	}

	if len(details) > 0 {
		return quote.Request{}, details
	}
	req.Input = asset.NewCryptoAmount(from, amount)
	return req, nil
}

// recordQuote caches, publishes and stores q. Failures are logged and
// counted; they never fail the request.
func (h *Handlers) recordQuote(ctx context.Context, q *quote.Quote) *models.QuoteRecord {
	if h.Cache == nil && h.History == nil {
		return nil
	}
	rec, err := models.NewQuoteRecord(q, h.now())
	if err != nil {
		h.logger().WithError(err).Warn("failed to build quote record")
		return nil
	}

	ctx, cancel := h.withTimeout(ctx, 2*time.Second)
	defer cancel()

	fail := func(op string, err error) {
		h.Metrics.PublishFailed()
		h.logger().WithError(err).WithFields(logrus.Fields{"op": op, "id": rec.ID}).Warn("failed to record quote")
	}
	if h.Cache != nil {
		if err := h.Cache.AddRecentQuote(ctx, rec); err != nil {
			fail("recent", err)
		}
		if err := h.Cache.PublishQuote(ctx, rec); err != nil {
			fail("publish", err)
		}
	}
	if h.History != nil {
		if err := h.History.InsertQuote(ctx, rec); err != nil {
			fail("history", err)
		}
	}
	return rec
}

// PoolsList returns every pool of the current snapshot
func (h *Handlers) PoolsList(c echo.Context) error {
	snap := h.Pools.Snapshot()
	list := snap.Pools()
	items := make([]PoolResponse, 0, len(list))
	for _, p := range list {
		items = append(items, newPoolResponse(p))
	}
	return c.JSON(http.StatusOK, PoolsResponse{Generation: snap.Generation, Items: items})
}

// PoolGet returns the pool backing :asset (URL-escaped, synths accepted)
func (h *Handlers) PoolGet(c echo.Context) error {
	raw, err := url.PathUnescape(c.Param("asset"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid asset", nil)
	}
	a, err := asset.Parse(raw)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid asset", map[string]any{"asset": err.Error()})
	}

	p, err := h.Pools.GetPool(a)
	if err != nil {
		if errors.Is(err, pools.ErrPoolNotFound) {
			return h.err(c, http.StatusNotFound, "pool not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get pool", nil)
	}
	return c.JSON(http.StatusOK, newPoolResponse(p))
}

// Network returns the parameters quotes are currently priced with
func (h *Handlers) Network(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Params.Parameters())
}

// MemoParse decodes a swap memo passed as ?memo=
func (h *Handlers) MemoParse(c echo.Context) error {
	m := strings.TrimSpace(c.QueryParam("memo"))
	if m == "" {
		return h.err(c, http.StatusBadRequest, "memo is required", nil)
	}
	s, err := memo.Parse(m)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid memo",
			Code:  http.StatusBadRequest,
			Details: map[string]any{
				"memo": err.Error(),
			},
		})
	}
	return c.JSON(http.StatusOK, s)
}
