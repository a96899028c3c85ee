package amm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FractionPrecision is the number of decimal places kept for slip fractions.
const FractionPrecision = 18

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10000

var (
	bigOne    = big.NewInt(1)
	bigBpsDen = big.NewInt(BpsDenominator)
	fracScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(FractionPrecision), nil)
)

// Leg is one constant-product conversion against a pool.
// Input, ReserveIn and ReserveOut are pre-trade values; Output is what leaves
// the pool after the slip-based liquidity fee, and Fee is that fee.
type Leg struct {
	Input      *big.Int
	ReserveIn  *big.Int
	ReserveOut *big.Int
	Output     *big.Int
	Fee        *big.Int
	Slip       decimal.Decimal
}

// Gross is the fee-free constant-product output (Output + Fee).
func (l Leg) Gross() *big.Int {
	return new(big.Int).Add(l.Output, l.Fee)
}

// Remaining is the output-side reserve left in the pool after the leg.
func (l Leg) Remaining() *big.Int {
	return new(big.Int).Sub(l.ReserveOut, l.Output)
}

func validate(x, X, Y *big.Int) error {
	if x == nil || X == nil || Y == nil {
		return fmt.Errorf("invalid inputs: nil amount")
	}
	if x.Sign() <= 0 {
		return fmt.Errorf("invalid inputs: amount must be > 0")
	}
	if X.Sign() <= 0 || Y.Sign() <= 0 {
		return fmt.Errorf("invalid inputs: reserves must be > 0")
	}
	return nil
}

// SwapOutput computes (x * X * Y) / (x + X)^2, flooring.
func SwapOutput(x, X, Y *big.Int) *big.Int {
	num := new(big.Int).Mul(x, X)
	num.Mul(num, Y)
	return num.Quo(num, denominator(x, X))
}

// SwapFee computes the liquidity fee (x^2 * Y) / (x + X)^2, flooring.
func SwapFee(x, X, Y *big.Int) *big.Int {
	num := new(big.Int).Mul(x, x)
	num.Mul(num, Y)
	return num.Quo(num, denominator(x, X))
}

// SwapSlip computes x / (x + X) floored to FractionPrecision places, so the
// result always lies in [0, 1).
func SwapSlip(x, X *big.Int) decimal.Decimal {
	return Fraction(x, new(big.Int).Add(x, X))
}

// SingleSwap converts x against reserves (X in, Y out).
func SingleSwap(x, X, Y *big.Int) (Leg, error) {
	if err := validate(x, X, Y); err != nil {
		return Leg{}, err
	}
	return Leg{
		Input:      new(big.Int).Set(x),
		ReserveIn:  new(big.Int).Set(X),
		ReserveOut: new(big.Int).Set(Y),
		Output:     SwapOutput(x, X, Y),
		Fee:        SwapFee(x, X, Y),
		Slip:       SwapSlip(x, X),
	}, nil
}

// DoubleSwap chains two legs through the base currency: x is converted
// against (X1, Y1) and the literal first-leg output is the input of the
// second leg against (X2, Y2).
func DoubleSwap(x, X1, Y1, X2, Y2 *big.Int) (first, second Leg, slip decimal.Decimal, err error) {
	first, err = SingleSwap(x, X1, Y1)
	if err != nil {
		return Leg{}, Leg{}, decimal.Zero, fmt.Errorf("first leg: %w", err)
	}
	second, err = SingleSwap(first.Output, X2, Y2)
	if err != nil {
		return Leg{}, Leg{}, decimal.Zero, fmt.Errorf("second leg: %w", err)
	}
	return first, second, DoubleSwapSlip(x, first.Output, X1, X2), nil
}

// DoubleSwapSlip measures the final output against the no-slip output at
// pre-trade reserves, x * (Y1/X1) * (Y2/X2). For the slip-fee curve that
// ratio is (X1*X2)^2 / ((x+X1)*(mid+X2))^2, so
// slip = 1 - (X1*X2)^2 / ((x+X1)*(mid+X2))^2.
func DoubleSwapSlip(x, mid, X1, X2 *big.Int) decimal.Decimal {
	d := new(big.Int).Add(x, X1)
	d.Mul(d, new(big.Int).Add(mid, X2))
	d.Mul(d, d)

	n := new(big.Int).Mul(X1, X2)
	n.Mul(n, n)

	return Fraction(new(big.Int).Sub(d, n), d)
}

// ConvertAtSpot values amount of the "from" side in "to" units at the
// marginal pool price: amount * to / from, flooring.
func ConvertAtSpot(amount, from, to *big.Int) (*big.Int, error) {
	if from == nil || from.Sign() <= 0 {
		return nil, fmt.Errorf("cannot convert against empty reserve")
	}
	out := new(big.Int).Mul(amount, to)
	return out.Quo(out, from), nil
}

// ApplyBps returns amount * bps / 10000, flooring.
func ApplyBps(amount *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(bps))
	return out.Quo(out, bigBpsDen)
}

// ApplySlippage calculates the minimum output for a slip tolerance given as
// a fraction (0.03 = 3%). Tolerances at or above 1 give zero.
func ApplySlippage(amount *big.Int, tolerance decimal.Decimal) *big.Int {
	if tolerance.Sign() <= 0 {
		return new(big.Int).Set(amount)
	}
	if tolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return new(big.Int)
	}

	// minOut = amount * (1 - tolerance), tolerance scaled to FractionPrecision
	keep := decimal.NewFromInt(1).Sub(tolerance).Shift(FractionPrecision).Truncate(0).BigInt()
	out := new(big.Int).Mul(amount, keep)
	return out.Quo(out, fracScale)
}

// Fraction returns num/den floored to FractionPrecision places.
func Fraction(num, den *big.Int) decimal.Decimal {
	if den.Sign() == 0 || num.Sign() <= 0 {
		return decimal.Zero
	}
	scaled := new(big.Int).Mul(num, fracScale)
	scaled.Quo(scaled, den)
	return decimal.NewFromBigInt(scaled, -FractionPrecision)
}

// FeeBps expresses part as basis points of whole, flooring.
func FeeBps(part, whole *big.Int) int64 {
	if whole.Sign() <= 0 {
		return 0
	}
	out := new(big.Int).Mul(part, bigBpsDen)
	out.Quo(out, whole)
	if !out.IsInt64() {
		return BpsDenominator
	}
	return out.Int64()
}

func denominator(x, X *big.Int) *big.Int {
	d := new(big.Int).Add(x, X)
	return d.Mul(d, d)
}

// CeilDiv divides rounding up; b must be positive.
func CeilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, bigOne)
	}
	return q
}
