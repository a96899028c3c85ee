package pools

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

// Status is the lifecycle state of a pool
type Status string

const (
	StatusAvailable Status = "Available"
	StatusStaged    Status = "Staged"
	StatusSuspended Status = "Suspended"
)

// ParseStatus accepts the node's status strings case-insensitively
func ParseStatus(s string) (Status, error) {
	switch s {
	case "Available", "available":
		return StatusAvailable, nil
	case "Staged", "staged":
		return StatusStaged, nil
	case "Suspended", "suspended":
		return StatusSuspended, nil
	}
	return "", fmt.Errorf("unknown pool status %q", s)
}

// Pool is a liquidity pool keyed by its non-base asset. Balances are in
// pool base units (asset.PoolDecimals).
type Pool struct {
	Asset        asset.Asset  `json:"asset"`
	AssetBalance asset.Amount `json:"asset_balance"`
	RuneBalance  asset.Amount `json:"rune_balance"`
	Status       Status       `json:"status"`
	Decimals     uint8        `json:"decimals"` // native decimals of Asset, 0 = pool decimals
}

// IsAvailable reports whether the pool can be quoted against
func (p Pool) IsAvailable() bool {
	return p.Status == StatusAvailable && p.AssetBalance.Sign() > 0 && p.RuneBalance.Sign() > 0
}

// NativeDecimals is the base-unit scale of the pool's asset on its chain
func (p Pool) NativeDecimals() uint8 {
	if p.Decimals == 0 {
		return asset.PoolDecimals
	}
	return p.Decimals
}

// Reserves returns (in, out) for a swap direction; toRune means asset -> RUNE
func (p Pool) Reserves(toRune bool) (reserveIn, reserveOut *big.Int) {
	if toRune {
		return p.AssetBalance.Int(), p.RuneBalance.Int()
	}
	return p.RuneBalance.Int(), p.AssetBalance.Int()
}

// PriceInRune is the spot price of one asset unit in RUNE, for display
func (p Pool) PriceInRune() decimal.Decimal {
	if p.AssetBalance.Sign() <= 0 {
		return decimal.Zero
	}
	return p.RuneBalance.Decimal().Div(p.AssetBalance.Decimal())
}
