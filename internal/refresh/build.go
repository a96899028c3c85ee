package refresh

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

// Native decimals of gas assets the node reports without a decimals field
var nativeDecimals = map[asset.Asset]uint8{
	asset.MustParse("ETH.ETH"):   18,
	asset.MustParse("AVAX.AVAX"): 18,
	asset.MustParse("BSC.BNB"):   18,
	asset.MustParse("GAIA.ATOM"): 6,
}

// Mimir keys read during a refresh
const (
	mimirHaltChainGlobal    = "HALTCHAINGLOBAL"
	mimirHaltTrading        = "HALTTRADING"
	mimirMaxAffiliateFeeBps = "MAXAFFILIATEFEEBASISPOINTS"
	mimirTxOutDelayRate     = "TXOUTDELAYRATE"
	mimirMaxTxOutOffset     = "MAXTXOUTOFFSET"
	mimirMinL1OutboundUSD   = "MINIMUML1OUTBOUNDFEEUSD"
	mimirNativeTxFee        = "NATIVETRANSACTIONFEE"
	mimirOutboundTxFee      = "OUTBOUNDTRANSACTIONFEE"
)

// BuildPools converts node pools into domain pools. Entries that don't
// parse are skipped and reported.
func BuildPools(raw []thornode.Pool) ([]pools.Pool, []error) {
	out := make([]pools.Pool, 0, len(raw))
	var skipped []error

	for _, rp := range raw {
		p, err := buildPool(rp)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

func buildPool(rp thornode.Pool) (pools.Pool, error) {
	a, err := asset.Parse(rp.Asset)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("pool %q: %w", rp.Asset, err)
	}
	if a.Synth || a.IsBase() {
		return pools.Pool{}, fmt.Errorf("pool %q: not a layer-1 pool asset", rp.Asset)
	}
	status, err := pools.ParseStatus(rp.Status)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("pool %q: %w", rp.Asset, err)
	}
	assetBal, err := parseBalance(rp.BalanceAsset)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("pool %q balance_asset: %w", rp.Asset, err)
	}
	runeBal, err := parseBalance(rp.BalanceRune)
	if err != nil {
		return pools.Pool{}, fmt.Errorf("pool %q balance_rune: %w", rp.Asset, err)
	}
	if rp.Decimals < 0 || rp.Decimals > 30 {
		return pools.Pool{}, fmt.Errorf("pool %q: decimals %d out of range", rp.Asset, rp.Decimals)
	}

	decimals := uint8(rp.Decimals)
	if decimals == 0 {
		decimals = nativeDecimals[a]
	}

	return pools.Pool{
		Asset:        a,
		AssetBalance: assetBal,
		RuneBalance:  runeBal,
		Status:       status,
		Decimals:     decimals,
	}, nil
}

// BuildParameters layers live node state over the static defaults: inbound
// address fees and halts, mimir overrides, pool-level trading halts, and
// the RUNE value of each chain's outbound queue priced against snap.
func BuildParameters(
	defaults *network.Parameters,
	inbound []thornode.InboundAddress,
	mimir thornode.Mimir,
	queue []thornode.OutboundItem,
	rawPools []thornode.Pool,
	snap *pools.Snapshot,
) (*network.Parameters, error) {
	if defaults == nil {
		return nil, fmt.Errorf("network defaults are nil")
	}
	out := defaults.Clone()

	if err := applyInbound(out, inbound); err != nil {
		return nil, err
	}
	applyMimir(out, mimir)

	for _, rp := range rawPools {
		if !rp.TradingHalted {
			continue
		}
		if a, err := asset.Parse(rp.Asset); err == nil {
			out.PausedPools[a.L1()] = true
		}
	}

	out.OutboundQueue = queueValue(queue, snap)
	return out, nil
}

func applyInbound(out *network.Parameters, inbound []thornode.InboundAddress) error {
	for _, in := range inbound {
		chain := asset.Chain(strings.ToUpper(strings.TrimSpace(in.Chain)))
		attrs, ok := out.Chains[chain]
		if !ok {
			continue
		}

		attrs.Halted = attrs.Halted || in.Halted
		attrs.TradingPaused = attrs.TradingPaused || in.ChainTradingPaused
		if in.GlobalTradingPaused {
			out.GlobalHalt = true
		}

		if in.OutboundFee != "" {
			fee, err := parseBalance(in.OutboundFee)
			if err != nil {
				return fmt.Errorf("inbound %s outbound_fee: %w", chain, err)
			}
			if fee.Sign() > 0 {
				attrs.OutboundFee = fee
			}
		}

		if in.GasRate != "" && attrs.InboundTxSize > 0 && attrs.GasRateDivisor > 0 {
			rate, ok := new(big.Int).SetString(in.GasRate, 10)
			if !ok || rate.Sign() < 0 {
				return fmt.Errorf("inbound %s: invalid gas_rate %q", chain, in.GasRate)
			}
			// gas_rate x tx size is in the chain's gas units; rescale to pool decimals
			fee := new(big.Int).Mul(rate, big.NewInt(attrs.InboundTxSize))
			fee.Mul(fee, big.NewInt(1e8))
			fee.Quo(fee, big.NewInt(attrs.GasRateDivisor))
			attrs.InboundFee = asset.NewAmount(fee, asset.PoolDecimals)
		}

		out.Chains[chain] = attrs
	}
	return nil
}

func applyMimir(out *network.Parameters, mimir thornode.Mimir) {
	if v, ok := mimir.Get(mimirHaltChainGlobal); ok && v > 0 {
		out.GlobalHalt = true
	}
	if v, ok := mimir.Get(mimirHaltTrading); ok && v > 0 {
		out.GlobalHalt = true
	}

	for chain, attrs := range out.Chains {
		if chain == asset.THORChain {
			continue
		}
		if v, ok := mimir.Get("HALT" + string(chain) + "CHAIN"); ok && v > 0 {
			attrs.Halted = true
		}
		if v, ok := mimir.Get("HALT" + string(chain) + "TRADING"); ok && v > 0 {
			attrs.TradingPaused = true
		}
		out.Chains[chain] = attrs
	}

	if v, ok := mimir.Get(mimirMaxAffiliateFeeBps); ok && v <= 10_000 {
		out.MaxAffiliateFeeBps = v
	}
	if v, ok := mimir.Get(mimirTxOutDelayRate); ok {
		out.OutboundThroughputPerBlock = asset.NewAmountFromInt64(v, asset.PoolDecimals)
	}
	if v, ok := mimir.Get(mimirMaxTxOutOffset); ok {
		out.MaxOutboundDelayBlocks = v
	}
	if v, ok := mimir.Get(mimirMinL1OutboundUSD); ok {
		out.MinOutboundFeeUSD = asset.NewAmountFromInt64(v, asset.PoolDecimals)
	}

	if thor, ok := out.Chains[asset.THORChain]; ok {
		if v, ok := mimir.Get(mimirNativeTxFee); ok {
			thor.InboundFee = asset.NewAmountFromInt64(v, asset.PoolDecimals)
		}
		if v, ok := mimir.Get(mimirOutboundTxFee); ok {
			thor.OutboundFee = asset.NewAmountFromInt64(v, asset.PoolDecimals)
		}
		out.Chains[asset.THORChain] = thor
	}
}

// queueValue sums scheduled outbounds per chain in RUNE. Coins whose pool
// is missing from snap can't be priced and are left out.
func queueValue(queue []thornode.OutboundItem, snap *pools.Snapshot) map[asset.Chain]asset.Amount {
	sums := make(map[asset.Chain]asset.CryptoAmount)
	for _, item := range queue {
		a, err := asset.Parse(item.Coin.Asset)
		if err != nil {
			continue
		}
		amt, ok := new(big.Int).SetString(item.Coin.Amount, 10)
		if !ok || amt.Sign() <= 0 {
			continue
		}
		inRune, err := snap.ToRune(a, amt)
		if err != nil {
			continue
		}

		chain := asset.Chain(strings.ToUpper(item.Chain))
		if chain == "" {
			chain = a.SettlementChain()
		}
		v := asset.NewCryptoAmount(asset.RUNE, asset.NewAmount(inRune, asset.PoolDecimals))
		if prev, ok := sums[chain]; ok {
			if v, err = prev.Add(v); err != nil {
				continue
			}
		}
		sums[chain] = v
	}

	out := make(map[asset.Chain]asset.Amount, len(sums))
	for chain, v := range sums {
		out[chain] = v.Amount
	}
	return out
}

func parseBalance(s string) (asset.Amount, error) {
	if s == "" {
		return asset.ZeroAmount(asset.PoolDecimals), nil
	}
	a, err := asset.ParseBaseUnits(s, asset.PoolDecimals)
	if err != nil {
		return asset.Amount{}, err
	}
	if a.Sign() < 0 {
		return asset.Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}
