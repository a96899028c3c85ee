package pools

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/aman-zulfiqar/thorchain-quote/internal/amm"
	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

var ErrPoolNotFound = errors.New("pool not found")

// Snapshot is an immutable set of pools read at one refresh generation.
type Snapshot struct {
	Generation uint64
	FetchedAt  time.Time
	pools      map[asset.Asset]Pool
}

// NewSnapshot indexes pools by their layer-1 asset. Later duplicates win.
func NewSnapshot(generation uint64, fetchedAt time.Time, list []Pool) *Snapshot {
	m := make(map[asset.Asset]Pool, len(list))
	for _, p := range list {
		m[p.Asset.L1()] = p
	}
	return &Snapshot{Generation: generation, FetchedAt: fetchedAt, pools: m}
}

// Pool looks up the pool backing a (possibly synth) asset
func (s *Snapshot) Pool(a asset.Asset) (Pool, error) {
	if s == nil {
		return Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, a)
	}
	p, ok := s.pools[a.L1()]
	if !ok {
		return Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, a)
	}
	return p, nil
}

// Pools returns every pool ordered by asset string
func (s *Snapshot) Pools() []Pool {
	if s == nil {
		return nil
	}
	out := make([]Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Asset.String() < out[j].Asset.String()
	})
	return out
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pools)
}

// Decimals returns the native base-unit scale of an asset: pool decimals
// for RUNE and synths, the pool's recorded decimals otherwise.
func (s *Snapshot) Decimals(a asset.Asset) uint8 {
	if a.IsBase() || a.Synth {
		return asset.PoolDecimals
	}
	p, err := s.Pool(a)
	if err != nil {
		return asset.PoolDecimals
	}
	return p.NativeDecimals()
}

// ToRune values an amount of a in RUNE at spot price, pool base units in
// and out.
func (s *Snapshot) ToRune(a asset.Asset, amount *big.Int) (*big.Int, error) {
	if a.IsBase() {
		return new(big.Int).Set(amount), nil
	}
	p, err := s.Pool(a)
	if err != nil {
		return nil, err
	}
	return amm.ConvertAtSpot(amount, p.AssetBalance.Int(), p.RuneBalance.Int())
}

// FromRune values a RUNE amount in units of a at spot price.
func (s *Snapshot) FromRune(a asset.Asset, amount *big.Int) (*big.Int, error) {
	if a.IsBase() {
		return new(big.Int).Set(amount), nil
	}
	p, err := s.Pool(a)
	if err != nil {
		return nil, err
	}
	return amm.ConvertAtSpot(amount, p.RuneBalance.Int(), p.AssetBalance.Int())
}

// ConvertUnits values amount (pool base units) of from in units of to,
// routing through RUNE at spot prices.
func (s *Snapshot) ConvertUnits(from, to asset.Asset, amount *big.Int) (*big.Int, error) {
	if from.L1() == to.L1() {
		return new(big.Int).Set(amount), nil
	}
	inRune, err := s.ToRune(from, amount)
	if err != nil {
		return nil, err
	}
	return s.FromRune(to, inRune)
}

// Convert values a CryptoAmount in another asset at spot price. The result
// uses the target asset's native decimals.
func (s *Snapshot) Convert(in asset.CryptoAmount, to asset.Asset) (asset.CryptoAmount, error) {
	units := in.Amount.Rescale(asset.PoolDecimals).Int()
	out, err := s.ConvertUnits(in.Asset, to, units)
	if err != nil {
		return asset.CryptoAmount{}, err
	}
	amt := asset.NewAmount(out, asset.PoolDecimals).Rescale(s.Decimals(to))
	return asset.NewCryptoAmount(to, amt), nil
}

// DeepestPool returns the available pool with the most RUNE among candidates
func (s *Snapshot) DeepestPool(candidates []asset.Asset) (Pool, bool) {
	var best Pool
	found := false
	for _, a := range candidates {
		p, err := s.Pool(a)
		if err != nil || !p.IsAvailable() {
			continue
		}
		if !found || p.RuneBalance.Int().Cmp(best.RuneBalance.Int()) > 0 {
			best = p
			found = true
		}
	}
	return best, found
}
