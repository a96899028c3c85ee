package waittime

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
)

var (
	btc   = asset.MustParse("BTC.BTC")
	bnb   = asset.MustParse("BNB.BNB")
	eth   = asset.MustParse("ETH.ETH")
	sbtc  = asset.MustParse("BTC/BTC")
	units = asset.PoolDecimals
)

func amt(v int64) asset.Amount { return asset.NewAmountFromInt64(v, units) }

func testParams() *network.Parameters {
	return &network.Parameters{
		Chains: map[asset.Chain]network.ChainAttributes{
			asset.THORChain: {Chain: asset.THORChain, BlockTime: 6 * time.Second, InstantFinality: true},
			asset.BTCChain: {
				Chain:            asset.BTCChain,
				BlockTime:        600 * time.Second,
				Confirmations:    1,
				BlockReward:      amt(312500000),
				HasOutboundQueue: true,
			},
			asset.BNBChain: {Chain: asset.BNBChain, BlockTime: time.Second, InstantFinality: true, HasOutboundQueue: true},
			asset.ETHChain: {Chain: asset.ETHChain, BlockTime: 12 * time.Second, Confirmations: 2},
		},
		OutboundThroughputPerBlock: amt(2500000000), // 25 RUNE
		MaxOutboundDelayBlocks:     720,
		OutboundQueue:              map[asset.Chain]asset.Amount{},
	}
}

func testSnapshot() *pools.Snapshot {
	// 1 BTC = 20,000 RUNE
	return pools.NewSnapshot(1, time.Now(), []pools.Pool{{
		Asset:        btc,
		AssetBalance: amt(100_00000000),
		RuneBalance:  amt(2_000_000_00000000),
		Status:       pools.StatusAvailable,
	}})
}

func TestInboundDelay(t *testing.T) {
	est := NewEstimator(testParams(), testSnapshot())

	tests := []struct {
		name string
		in   asset.CryptoAmount
		want int64
	}{
		{"rune settles in one thor block", asset.NewCryptoAmount(asset.RUNE, amt(100000000)), 6},
		{"synth settles on thor", asset.NewCryptoAmount(sbtc, amt(100000000)), 6},
		{"instant finality chain", asset.NewCryptoAmount(bnb, amt(100000000)), 6},
		{"small btc deposit", asset.NewCryptoAmount(btc, amt(100000000)), 600},
		{"large btc deposit scales with block reward", asset.NewCryptoAmount(btc, amt(10_00000000)), 4 * 600},
		{"no block reward uses configured confirmations", asset.NewCryptoAmount(eth, asset.NewAmountFromInt64(1, 18)), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := est.InboundDelay(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := est.InboundDelay(asset.NewCryptoAmount(asset.MustParse("DOGE.DOGE"), amt(1)))
	assert.Error(t, err)
}

func TestOutboundDelay(t *testing.T) {
	params := testParams()
	est := NewEstimator(params, testSnapshot())

	got, err := est.OutboundDelay(asset.NewCryptoAmount(btc, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "empty queue")

	got, err = est.OutboundDelay(asset.NewCryptoAmount(eth, asset.NewAmountFromInt64(1, 18)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "chain without queue")

	got, err = est.OutboundDelay(asset.NewCryptoAmount(asset.RUNE, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "thor has no queue")

	params.OutboundQueue[asset.BTCChain] = amt(100_00000000) // 100 RUNE queued

	// 100 RUNE + 0.001 BTC (20 RUNE) = 120 RUNE / 25 per block = 4 blocks
	got, err = est.OutboundDelay(asset.NewCryptoAmount(btc, amt(100000)))
	require.NoError(t, err)
	assert.Equal(t, int64(4*600), got)

	// 1 BTC pushes well past the cap
	got, err = est.OutboundDelay(asset.NewCryptoAmount(btc, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(720*600), got)
}

func TestOutboundDelay_CapInThorBlocks(t *testing.T) {
	params := testParams()
	attrs := params.Chains[asset.BTCChain]
	attrs.BlockTime = 6 * time.Second
	params.Chains[asset.BTCChain] = attrs
	params.OutboundQueue[asset.BTCChain] = amt(1)

	got, err := NewEstimator(params, testSnapshot()).OutboundDelay(asset.NewCryptoAmount(btc, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(4320), got)
}

func TestTotal(t *testing.T) {
	params := testParams()
	params.OutboundQueue[asset.BTCChain] = amt(100_00000000)
	est := NewEstimator(params, testSnapshot())

	got, err := est.Total(asset.NewCryptoAmount(asset.RUNE, amt(2_000_00000000)), asset.NewCryptoAmount(btc, amt(100000)))
	require.NoError(t, err)
	assert.Equal(t, Estimate{InboundSeconds: 6, OutboundSeconds: 2400, TotalSeconds: 2406}, got)

	_, err = NewEstimator(&network.Parameters{}, nil).Total(
		asset.NewCryptoAmount(asset.RUNE, amt(1)), asset.NewCryptoAmount(btc, amt(1)))
	assert.Error(t, err)
}

func TestDelays_ExtremeInputsNeverNegative(t *testing.T) {
	est := NewEstimator(testParams(), testSnapshot())

	// 2.88e10 confirmations: seconds fit in int64, nanoseconds don't
	got, err := est.InboundDelay(asset.NewCryptoAmount(btc, asset.NewAmountFromInt64(9_000_000_000_000_000_000, units)))
	require.NoError(t, err)
	assert.Equal(t, int64(17_280_000_000_000), got)

	huge := asset.NewAmount(new(big.Int).Lsh(big.NewInt(1), 200), units)
	got, err = est.InboundDelay(asset.NewCryptoAmount(btc, huge))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	params := testParams()
	params.MaxOutboundDelayBlocks = 0
	params.OutboundQueue[asset.BTCChain] = huge
	est = NewEstimator(params, testSnapshot())

	got, err = est.OutboundDelay(asset.NewCryptoAmount(btc, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	total, err := est.Total(asset.NewCryptoAmount(btc, huge), asset.NewCryptoAmount(btc, amt(100000000)))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total.TotalSeconds)
	assert.GreaterOrEqual(t, total.InboundSeconds, int64(0))
}
