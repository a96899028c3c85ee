package asset

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// PoolDecimals is the fixed base-unit scale of every pool balance.
const PoolDecimals uint8 = 8

// Amount is an integer number of base units together with the decimal
// exponent of the unit. Amounts are immutable: every method returns a new
// value and never touches the receiver's big.Int.
type Amount struct {
	value    *big.Int
	decimals uint8
}

// NewAmount copies v; a nil v is zero.
func NewAmount(v *big.Int, decimals uint8) Amount {
	out := new(big.Int)
	if v != nil {
		out.Set(v)
	}
	return Amount{value: out, decimals: decimals}
}

// NewAmountFromInt64 is a convenience for fixtures and constants.
func NewAmountFromInt64(v int64, decimals uint8) Amount {
	return Amount{value: big.NewInt(v), decimals: decimals}
}

// ZeroAmount returns 0 at the given scale.
func ZeroAmount(decimals uint8) Amount {
	return Amount{value: new(big.Int), decimals: decimals}
}

// ParseBaseUnits parses an integer string of base units.
func ParseBaseUnits(s string, decimals uint8) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid base-unit amount %q", s)
	}
	return Amount{value: v, decimals: decimals}, nil
}

// ParseHuman parses a human-readable amount ("1.5") into base units,
// truncating digits beyond the scale.
func ParseHuman(s string, decimals uint8) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	v := d.Shift(int32(decimals)).Truncate(0).BigInt()
	return Amount{value: v, decimals: decimals}, nil
}

// Int returns a copy of the base-unit value.
func (a Amount) Int() *big.Int {
	if a.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.value)
}

func (a Amount) Decimals() uint8 { return a.decimals }

func (a Amount) Sign() int {
	if a.value == nil {
		return 0
	}
	return a.value.Sign()
}

func (a Amount) IsZero() bool { return a.Sign() == 0 }

// Rescale converts to another decimal scale. Reducing the scale floors.
func (a Amount) Rescale(decimals uint8) Amount {
	v := a.Int()
	switch {
	case decimals > a.decimals:
		v.Mul(v, pow10(decimals-a.decimals))
	case decimals < a.decimals:
		v.Quo(v, pow10(a.decimals-decimals))
	}
	return Amount{value: v, decimals: decimals}
}

// Decimal returns the amount in whole units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.Int(), -int32(a.decimals))
}

func (a Amount) String() string {
	return a.Int().String()
}

// normalize brings two amounts to the larger of their scales.
func normalize(a, b Amount) (Amount, Amount) {
	if a.decimals == b.decimals {
		return a, b
	}
	if a.decimals > b.decimals {
		return a, b.Rescale(a.decimals)
	}
	return a.Rescale(b.decimals), b
}

type amountJSON struct {
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{Amount: a.String(), Decimals: a.decimals})
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseBaseUnits(raw.Amount, raw.Decimals)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
