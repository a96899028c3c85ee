package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only, except rejections)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK               bool      `json:"ok"`
	PoolGeneration   uint64    `json:"pool_generation"`
	ParamsGeneration uint64    `json:"params_generation"`
	Pools            int       `json:"pools"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// QuoteResponse wraps a quote with the id it was recorded under
type QuoteResponse struct {
	ID string `json:"id,omitempty"`
	*quote.Quote
}

// PoolResponse is a pool with its spot price for display
type PoolResponse struct {
	Asset        asset.Asset     `json:"asset"`
	Status       pools.Status    `json:"status"`
	AssetBalance asset.Amount    `json:"asset_balance"`
	RuneBalance  asset.Amount    `json:"rune_balance"`
	Decimals     uint8           `json:"decimals"`
	PriceInRune  decimal.Decimal `json:"price_in_rune"`
}

func newPoolResponse(p pools.Pool) PoolResponse {
	return PoolResponse{
		Asset:        p.Asset,
		Status:       p.Status,
		AssetBalance: p.AssetBalance,
		RuneBalance:  p.RuneBalance,
		Decimals:     p.NativeDecimals(),
		PriceInRune:  p.PriceInRune(),
	}
}

// PoolsResponse lists the pools of one snapshot
type PoolsResponse struct {
	Generation uint64         `json:"generation"`
	Items      []PoolResponse `json:"items"`
}

// HaltUpsertRequest represents a request to create or update a halt override
type HaltUpsertRequest struct {
	Key    string `json:"key"`
	Halted bool   `json:"halted"`
	Reason string `json:"reason"`
}

// HaltUpdateRequest represents a request to update an existing halt override
type HaltUpdateRequest struct {
	Halted bool   `json:"halted"`
	Reason string `json:"reason"`
}
