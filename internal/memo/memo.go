package memo

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

const (
	separator        = ":"
	swapAction       = "="
	maxFeeBps        = 10000
	interfaceIDSpace = 1000 // interface IDs occupy the last three digits of the limit
)

var ErrInvalidMemo = errors.New("invalid memo")

// actions accepted by Parse; Build always writes "="
var swapActions = map[string]struct{}{
	"=":    {},
	"s":    {},
	"SWAP": {},
	"swap": {},
}

// Swap is the routing instruction carried by a swap memo.
// Limit is the minimum output in destination base units.
type Swap struct {
	Asset              asset.Asset `json:"asset"`
	DestinationAddress string      `json:"destination_address"`
	Limit              *big.Int    `json:"limit"`
	AffiliateAddress   string      `json:"affiliate_address,omitempty"`
	AffiliateFeeBps    int64       `json:"affiliate_fee_bps,omitempty"`
}

// Build serializes a swap as =:ASSET:ADDR:LIMIT[:AFFILIATE:BPS]. The
// output is byte-for-byte stable for equal input.
func Build(s Swap) (string, error) {
	if err := s.validate(); err != nil {
		return "", err
	}

	limit := "0"
	if s.Limit != nil {
		limit = s.Limit.String()
	}

	parts := []string{swapAction, s.Asset.String(), s.DestinationAddress, limit}
	if s.AffiliateAddress != "" {
		parts = append(parts, s.AffiliateAddress, strconv.FormatInt(s.AffiliateFeeBps, 10))
	}
	return strings.Join(parts, separator), nil
}

func (s Swap) validate() error {
	if s.Asset.String() == "" {
		return fmt.Errorf("%w: destination asset required", ErrInvalidMemo)
	}
	if err := checkField("destination address", s.DestinationAddress); err != nil {
		return err
	}
	if s.Limit != nil && s.Limit.Sign() < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidMemo)
	}
	if s.AffiliateAddress == "" {
		if s.AffiliateFeeBps != 0 {
			return fmt.Errorf("%w: affiliate fee without affiliate address", ErrInvalidMemo)
		}
		return nil
	}
	if err := checkField("affiliate address", s.AffiliateAddress); err != nil {
		return err
	}
	if s.AffiliateFeeBps < 0 || s.AffiliateFeeBps > maxFeeBps {
		return fmt.Errorf("%w: affiliate fee %d bps out of range", ErrInvalidMemo, s.AffiliateFeeBps)
	}
	return nil
}

func checkField(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s required", ErrInvalidMemo, name)
	}
	if strings.Contains(v, separator) {
		return fmt.Errorf("%w: %s must not contain %q", ErrInvalidMemo, name, separator)
	}
	return nil
}

// Parse reads a swap memo back into its fields
func Parse(memo string) (Swap, error) {
	parts := strings.Split(memo, separator)
	if len(parts) < 3 {
		return Swap{}, fmt.Errorf("%w: expected at least action, asset and address", ErrInvalidMemo)
	}
	if _, ok := swapActions[parts[0]]; !ok {
		return Swap{}, fmt.Errorf("%w: unsupported action %q", ErrInvalidMemo, parts[0])
	}

	a, err := asset.Parse(parts[1])
	if err != nil {
		return Swap{}, fmt.Errorf("%w: %v", ErrInvalidMemo, err)
	}
	s := Swap{Asset: a, DestinationAddress: parts[2], Limit: new(big.Int)}
	if s.DestinationAddress == "" {
		return Swap{}, fmt.Errorf("%w: destination address required", ErrInvalidMemo)
	}

	if len(parts) > 3 && parts[3] != "" {
		limit, ok := new(big.Int).SetString(parts[3], 10)
		if !ok || limit.Sign() < 0 {
			return Swap{}, fmt.Errorf("%w: bad limit %q", ErrInvalidMemo, parts[3])
		}
		s.Limit = limit
	}

	if len(parts) > 4 {
		s.AffiliateAddress = parts[4]
		if len(parts) > 5 && parts[5] != "" {
			bps, err := strconv.ParseInt(parts[5], 10, 64)
			if err != nil || bps < 0 || bps > maxFeeBps {
				return Swap{}, fmt.Errorf("%w: bad affiliate fee %q", ErrInvalidMemo, parts[5])
			}
			s.AffiliateFeeBps = bps
		}
	}
	if len(parts) > 6 {
		return Swap{}, fmt.Errorf("%w: too many fields", ErrInvalidMemo)
	}
	return s, nil
}

// StampInterfaceID overwrites the last three digits of limit with id so the
// originating interface can be identified on chain. The result never
// exceeds limit; limits below 1000 and id 0 are returned unchanged.
func StampInterfaceID(limit *big.Int, id int) (*big.Int, error) {
	if id < 0 || id >= interfaceIDSpace {
		return nil, fmt.Errorf("interface id %d out of range [1, %d]", id, interfaceIDSpace-1)
	}
	out := new(big.Int).Set(limit)
	thousand := big.NewInt(interfaceIDSpace)
	if id == 0 || limit.Cmp(thousand) < 0 {
		return out, nil
	}

	out.Quo(out, thousand)
	out.Mul(out, thousand)
	out.Add(out, big.NewInt(int64(id)))
	if out.Cmp(limit) > 0 {
		out.Sub(out, thousand)
	}
	return out, nil
}
