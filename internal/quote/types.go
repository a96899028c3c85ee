package quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

// Request is a caller's swap intent
type Request struct {
	Input              asset.CryptoAmount `json:"input"`
	DestinationAsset   asset.Asset        `json:"destination_asset"`
	DestinationAddress string             `json:"destination_address"`

	// Optional: maximum acceptable slip as a fraction (0.03 = 3%)
	SlipLimit *decimal.Decimal `json:"slip_limit,omitempty"`

	// Optional affiliate; the fee is ignored without an address
	AffiliateAddress string `json:"affiliate_address,omitempty"`
	AffiliateFeeBps  int64  `json:"affiliate_fee_bps,omitempty"`
}

// FeeBreakdown is denominated in the output asset
type FeeBreakdown struct {
	InboundFee   asset.CryptoAmount `json:"inbound_fee"`
	SwapFee      asset.CryptoAmount `json:"swap_fee"`
	OutboundFee  asset.CryptoAmount `json:"outbound_fee"`
	AffiliateFee asset.CryptoAmount `json:"affiliate_fee"`
}

// RouteKind says how many pools a swap crosses
type RouteKind string

const (
	RouteSingle RouteKind = "single"
	RouteDouble RouteKind = "double"
)

// Route lists the pools traded against, in order
type Route struct {
	Kind  RouteKind     `json:"kind"`
	Pools []asset.Asset `json:"pools"`
}

func (r Route) String() string {
	if r.Kind == RouteDouble && len(r.Pools) == 2 {
		return fmt.Sprintf("%s -> %s -> %s", r.Pools[0], asset.RUNE, r.Pools[1])
	}
	if len(r.Pools) == 1 {
		return fmt.Sprintf("%s pool", r.Pools[0])
	}
	return string(r.Kind)
}

// Reason explains why a fully priced quote cannot be executed
type Reason string

const (
	ReasonSlipToleranceExceeded   Reason = "SlipToleranceExceeded"
	ReasonInboundFeeExceedsInput  Reason = "InboundFeeExceedsInput"
	ReasonOutputBelowFees         Reason = "OutputBelowFees"
	ReasonLiquidityFeeCapExceeded Reason = "LiquidityFeeCapExceeded"
)

// Quote is a fully priced swap. Every amount except Input is in the
// destination asset's native decimals.
type Quote struct {
	CanSwap bool  `json:"can_swap"`
	Route   Route `json:"route"`

	Input       asset.CryptoAmount `json:"input"`
	GrossOutput asset.CryptoAmount `json:"gross_output"`
	NetOutput   asset.CryptoAmount `json:"net_output"`
	MinOutput   asset.CryptoAmount `json:"min_output"`
	Fees        FeeBreakdown       `json:"fees"`

	// Slip is a fraction in [0, 1)
	Slip decimal.Decimal `json:"slip"`

	InboundDelaySeconds  int64 `json:"inbound_delay_seconds"`
	OutboundDelaySeconds int64 `json:"outbound_delay_seconds"`
	WaitTimeSeconds      int64 `json:"wait_time_seconds"`

	Memo    string   `json:"memo"`
	Reasons []Reason `json:"reasons"`

	PoolGeneration   uint64    `json:"pool_generation"`
	ParamsGeneration uint64    `json:"params_generation"`
	Expiry           time.Time `json:"expiry"`
}

// Outcome is a short label for metrics and logs
func (q *Quote) Outcome() string {
	if q == nil {
		return ""
	}
	if len(q.Reasons) > 0 {
		return string(q.Reasons[0])
	}
	return "ok"
}
