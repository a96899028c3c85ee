package asset

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrAssetMismatch is returned when arithmetic mixes two different assets.
var ErrAssetMismatch = errors.New("asset mismatch")

// CryptoAmount is an Amount tagged with the Asset it counts.
type CryptoAmount struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
}

func NewCryptoAmount(a Asset, amt Amount) CryptoAmount {
	return CryptoAmount{Asset: a, Amount: amt}
}

// Zero returns 0 of the given asset at the given scale.
func Zero(a Asset, decimals uint8) CryptoAmount {
	return CryptoAmount{Asset: a, Amount: ZeroAmount(decimals)}
}

func (c CryptoAmount) check(o CryptoAmount) error {
	if c.Asset != o.Asset {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, c.Asset, o.Asset)
	}
	return nil
}

func (c CryptoAmount) Add(o CryptoAmount) (CryptoAmount, error) {
	if err := c.check(o); err != nil {
		return CryptoAmount{}, err
	}
	a, b := normalize(c.Amount, o.Amount)
	v := new(big.Int).Add(a.Int(), b.Int())
	return CryptoAmount{Asset: c.Asset, Amount: Amount{value: v, decimals: a.decimals}}, nil
}

func (c CryptoAmount) Sub(o CryptoAmount) (CryptoAmount, error) {
	if err := c.check(o); err != nil {
		return CryptoAmount{}, err
	}
	a, b := normalize(c.Amount, o.Amount)
	v := new(big.Int).Sub(a.Int(), b.Int())
	return CryptoAmount{Asset: c.Asset, Amount: Amount{value: v, decimals: a.decimals}}, nil
}

// Cmp compares two amounts of the same asset.
func (c CryptoAmount) Cmp(o CryptoAmount) (int, error) {
	if err := c.check(o); err != nil {
		return 0, err
	}
	a, b := normalize(c.Amount, o.Amount)
	return a.Int().Cmp(b.Int()), nil
}

// MulFrac multiplies by num/den, flooring.
func (c CryptoAmount) MulFrac(num, den *big.Int) (CryptoAmount, error) {
	if den == nil || den.Sign() == 0 {
		return CryptoAmount{}, fmt.Errorf("zero denominator")
	}
	v := new(big.Int).Mul(c.Amount.Int(), num)
	v.Quo(v, den)
	return CryptoAmount{Asset: c.Asset, Amount: Amount{value: v, decimals: c.Amount.decimals}}, nil
}

// Rescale keeps the asset and changes the base-unit scale.
func (c CryptoAmount) Rescale(decimals uint8) CryptoAmount {
	return CryptoAmount{Asset: c.Asset, Amount: c.Amount.Rescale(decimals)}
}

func (c CryptoAmount) String() string {
	return c.Amount.Decimal().String() + " " + c.Asset.String()
}
