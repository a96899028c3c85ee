package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
)

// QuoteRecord is the flattened form of a served quote used by the recent
// list, the live feed and the history table. Amounts are in whole units.
type QuoteRecord struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Pair             string    `json:"pair"` // e.g. "BTC.BTC>THOR.RUNE"
	SourceAsset      string    `json:"source_asset"`
	DestinationAsset string    `json:"destination_asset"`
	InputAmount      string    `json:"input_amount"`
	GrossOutput      string    `json:"gross_output"`
	NetOutput        string    `json:"net_output"`
	MinOutput        string    `json:"min_output"`
	SwapFee          string    `json:"swap_fee"`
	OutboundFee      string    `json:"outbound_fee"`
	AffiliateFee     string    `json:"affiliate_fee"`
	SlipBps          int64     `json:"slip_bps"`
	Route            string    `json:"route"`
	CanSwap          bool      `json:"can_swap"`
	Reasons          []string  `json:"reasons"`
	Memo             string    `json:"memo"`
	WaitTimeSeconds  int64     `json:"wait_time_seconds"`
	PoolGeneration   uint64    `json:"pool_generation"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// NewID returns a random base58 identifier
func NewID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return base58.Encode(b[:]), nil
}

// NewQuoteRecord flattens q
func NewQuoteRecord(q *quote.Quote, createdAt time.Time) (*QuoteRecord, error) {
	if q == nil {
		return nil, fmt.Errorf("quote is nil")
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}

	reasons := make([]string, 0, len(q.Reasons))
	for _, r := range q.Reasons {
		reasons = append(reasons, string(r))
	}

	src := q.Input.Asset.String()
	dst := q.NetOutput.Asset.String()
	return &QuoteRecord{
		ID:               id,
		CreatedAt:        createdAt.UTC(),
		Pair:             src + ">" + dst,
		SourceAsset:      src,
		DestinationAsset: dst,
		InputAmount:      q.Input.Amount.Decimal().String(),
		GrossOutput:      q.GrossOutput.Amount.Decimal().String(),
		NetOutput:        q.NetOutput.Amount.Decimal().String(),
		MinOutput:        q.MinOutput.Amount.Decimal().String(),
		SwapFee:          q.Fees.SwapFee.Amount.Decimal().String(),
		OutboundFee:      q.Fees.OutboundFee.Amount.Decimal().String(),
		AffiliateFee:     q.Fees.AffiliateFee.Amount.Decimal().String(),
		SlipBps:          q.Slip.Shift(4).IntPart(),
		Route:            string(q.Route.Kind),
		CanSwap:          q.CanSwap,
		Reasons:          reasons,
		Memo:             q.Memo,
		WaitTimeSeconds:  q.WaitTimeSeconds,
		PoolGeneration:   q.PoolGeneration,
		ExpiresAt:        q.Expiry.UTC(),
	}, nil
}
