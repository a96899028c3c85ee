package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

var (
	btc  = asset.MustParse("BTC.BTC")
	eth  = asset.MustParse("ETH.ETH")
	ltc  = asset.MustParse("LTC.LTC")
	usdc = asset.MustParse("ETH.USDC-0XA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48")
)

func nodePools() []thornode.Pool {
	return []thornode.Pool{
		{Asset: "BTC.BTC", Status: "Available", BalanceAsset: "100000000", BalanceRune: "2000000000000"},
		{Asset: "ETH.ETH", Status: "Available", BalanceAsset: "1000000000", BalanceRune: "1000000000000"},
		{Asset: usdc.String(), Status: "Staged", Decimals: 6, BalanceAsset: "5000000000000", BalanceRune: "1000000000000"},
		{Asset: "LTC.LTC", Status: "Available", BalanceAsset: "100000000000", BalanceRune: "200000000000", TradingHalted: true},
	}
}

func nodeInbound() []thornode.InboundAddress {
	return []thornode.InboundAddress{
		{Chain: "BTC", GasRate: "12", OutboundFee: "30000"},
		{Chain: "ETH", GasRate: "30", OutboundFee: "0"},
		{Chain: "DOGE", Halted: true, GasRate: "500000"},
		{Chain: "XRP", Halted: true},
	}
}

func nodeMimir() thornode.Mimir {
	return thornode.Mimir{
		"TXOUTDELAYRATE":             2_500_000_000,
		"MAXTXOUTOFFSET":             720,
		"HALTETHCHAIN":               1,
		"HALTLTCTRADING":             5,
		"HALTBTCCHAIN":               0,
		"MAXAFFILIATEFEEBASISPOINTS": 500,
		"MINIMUML1OUTBOUNDFEEUSD":    2_000_000,
		"OUTBOUNDTRANSACTIONFEE":     3_000_000,
		"NATIVETRANSACTIONFEE":       -1,
	}
}

func nodeQueue() []thornode.OutboundItem {
	return []thornode.OutboundItem{
		{Chain: "BTC", Coin: thornode.Coin{Asset: "BTC.BTC", Amount: "5000"}},
		{Chain: "BTC", Coin: thornode.Coin{Asset: "BTC.BTC", Amount: "2500"}},
		{Chain: "THOR", Coin: thornode.Coin{Asset: "THOR.RUNE", Amount: "300000000"}},
		{Chain: "DOGE", Coin: thornode.Coin{Asset: "DOGE.DOGE", Amount: "100000000"}},
		{Chain: "BTC", Coin: thornode.Coin{Asset: "BTC.BTC", Amount: "garbage"}},
	}
}

func defaults(t *testing.T) *network.Parameters {
	t.Helper()
	p, err := network.LoadDefaults("")
	require.NoError(t, err)
	return p
}

func TestBuildPools(t *testing.T) {
	raw := append(nodePools(),
		thornode.Pool{Asset: "THOR.RUNE", Status: "Available", BalanceAsset: "1", BalanceRune: "1"},
		thornode.Pool{Asset: "BTC/BTC", Status: "Available", BalanceAsset: "1", BalanceRune: "1"},
		thornode.Pool{Asset: "BCH.BCH", Status: "Dead", BalanceAsset: "1", BalanceRune: "1"},
		thornode.Pool{Asset: "not an asset", Status: "Available"},
		thornode.Pool{Asset: "DOGE.DOGE", Status: "Available", BalanceAsset: "-5", BalanceRune: "1"},
		thornode.Pool{Asset: "GAIA.ATOM", Status: "Suspended"},
	)

	list, skipped := BuildPools(raw)
	assert.Len(t, skipped, 5)
	require.Len(t, list, 5)

	snap := pools.NewSnapshot(1, time.Now(), list)

	p, err := snap.Pool(btc)
	require.NoError(t, err)
	assert.True(t, p.IsAvailable())
	assert.Equal(t, "2000000000000", p.RuneBalance.String())
	assert.Equal(t, uint8(8), snap.Decimals(btc))

	assert.Equal(t, uint8(18), snap.Decimals(eth), "gas asset without reported decimals")
	assert.Equal(t, uint8(6), snap.Decimals(usdc))

	p, err = snap.Pool(usdc)
	require.NoError(t, err)
	assert.Equal(t, pools.StatusStaged, p.Status)
	assert.False(t, p.IsAvailable())

	atom, err := snap.Pool(asset.MustParse("GAIA.ATOM"))
	require.NoError(t, err)
	assert.True(t, atom.AssetBalance.IsZero())
	assert.Equal(t, uint8(6), atom.NativeDecimals())
}

func TestBuildParameters(t *testing.T) {
	base := defaults(t)
	list, _ := BuildPools(nodePools())
	snap := pools.NewSnapshot(1, time.Now(), list)

	params, err := BuildParameters(base, nodeInbound(), nodeMimir(), nodeQueue(), nodePools(), snap)
	require.NoError(t, err)

	btcAttrs, _ := params.Chain(asset.BTCChain)
	assert.Equal(t, "3000", btcAttrs.InboundFee.String(), "12 sat/byte x 250 bytes")
	assert.Equal(t, "30000", btcAttrs.OutboundFee.String())
	assert.False(t, params.IsChainHalted(asset.BTCChain))

	ethAttrs, _ := params.Chain(asset.ETHChain)
	assert.Equal(t, "240000", ethAttrs.InboundFee.String(), "30 gwei x 80000 gas")
	assert.Equal(t, "240000", ethAttrs.OutboundFee.String(), "zero fee from node keeps default")
	assert.True(t, params.IsChainHalted(asset.ETHChain), "mimir chain halt")

	assert.True(t, params.IsChainHalted(asset.LTCChain), "mimir trading halt")
	assert.True(t, params.IsChainHalted(asset.DOGEChain), "inbound halted flag")
	assert.True(t, params.IsChainHaltedForAsset(ltc), "pool trading halt")
	assert.False(t, params.IsChainHaltedForAsset(btc))
	assert.False(t, params.GlobalHalt)

	assert.Equal(t, int64(500), params.MaxAffiliateFeeBps)
	assert.Equal(t, "2500000000", params.OutboundThroughputPerBlock.String())
	assert.Equal(t, int64(720), params.MaxOutboundDelayBlocks)
	assert.Equal(t, "2000000", params.MinOutboundFeeUSD.String())

	thor, _ := params.Chain(asset.THORChain)
	assert.Equal(t, "3000000", thor.OutboundFee.String())
	assert.Equal(t, "2000000", thor.InboundFee.String(), "unset mimir keeps default")

	// 7500 sats at 20000 RUNE/BTC
	assert.Equal(t, "150000000", params.QueuedOutbound(asset.BTCChain).String())
	assert.Equal(t, "300000000", params.QueuedOutbound(asset.THORChain).String())
	assert.Equal(t, "0", params.QueuedOutbound(asset.DOGEChain).String(), "no DOGE pool to price against")

	// defaults untouched
	defBTC, _ := base.Chain(asset.BTCChain)
	assert.Equal(t, "3000", defBTC.InboundFee.String())
	assert.False(t, base.IsChainHalted(asset.ETHChain))
	assert.Empty(t, base.PausedPools)
}

func TestBuildParameters_GlobalHalts(t *testing.T) {
	snap := pools.NewSnapshot(1, time.Now(), nil)

	params, err := BuildParameters(defaults(t), nil, thornode.Mimir{"HALTCHAINGLOBAL": 100}, nil, nil, snap)
	require.NoError(t, err)
	assert.True(t, params.GlobalHalt)

	params, err = BuildParameters(defaults(t), []thornode.InboundAddress{{Chain: "BTC", GlobalTradingPaused: true}}, nil, nil, nil, snap)
	require.NoError(t, err)
	assert.True(t, params.IsChainHalted(asset.THORChain))
}

func TestBuildParameters_Errors(t *testing.T) {
	snap := pools.NewSnapshot(1, time.Now(), nil)

	_, err := BuildParameters(nil, nil, nil, nil, nil, snap)
	assert.Error(t, err)

	_, err = BuildParameters(defaults(t), []thornode.InboundAddress{{Chain: "BTC", GasRate: "abc"}}, nil, nil, nil, snap)
	assert.Error(t, err)

	_, err = BuildParameters(defaults(t), []thornode.InboundAddress{{Chain: "BTC", OutboundFee: "-1"}}, nil, nil, nil, snap)
	assert.Error(t, err)
}
