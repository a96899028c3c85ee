package network

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

func TestLoadDefaults_Embedded(t *testing.T) {
	p, err := LoadDefaults("")
	require.NoError(t, err)

	thor, ok := p.Chain(asset.THORChain)
	require.True(t, ok)
	assert.Equal(t, 6*time.Second, thor.BlockTime)
	assert.True(t, thor.InstantFinality)

	btc, ok := p.Chain(asset.BTCChain)
	require.True(t, ok)
	assert.Equal(t, 600*time.Second, btc.BlockTime)
	assert.Equal(t, "312500000", btc.BlockReward.String())
	assert.True(t, btc.HasOutboundQueue)

	assert.Equal(t, int64(8000), p.PoolHeadroomBps)
	assert.Equal(t, int64(720), p.MaxOutboundDelayBlocks)
	assert.Equal(t, "2500000000", p.OutboundThroughputPerBlock.String())
	assert.NotEmpty(t, p.USDAssets)
	assert.False(t, p.IsChainHalted(asset.BTCChain))
}

func TestLoadDefaults_File(t *testing.T) {
	doc := `
global_halt: false
pool_headroom_bps: 0
paused_pools: [ETH.ETH]
chains:
  THOR:
    block_time: 6s
    instant_finality: true
  ETH:
    block_time: 12s
    trading_paused: false
`
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := LoadDefaults(path)
	require.NoError(t, err)
	assert.False(t, p.IsChainHalted(asset.ETHChain))
	assert.True(t, p.IsChainHaltedForAsset(asset.MustParse("ETH.ETH")))
	assert.True(t, p.IsChainHaltedForAsset(asset.MustParse("ETH/ETH")), "synth shares its pool's pause")
	assert.False(t, p.IsChainHaltedForAsset(asset.RUNE))

	_, err = LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDefaults_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "chains: [",
		"no thor":        "chains:\n  BTC:\n    block_time: 600s\n",
		"bad duration":   "chains:\n  THOR:\n    block_time: soon\n",
		"unknown chain":  "chains:\n  THOR:\n    block_time: 6s\n  XYZ:\n    block_time: 1s\n",
		"bad headroom":   "pool_headroom_bps: 10000\nchains:\n  THOR:\n    block_time: 6s\n",
		"negative fee":   "chains:\n  THOR:\n    block_time: 6s\n    outbound_fee: \"-1\"\n",
		"bad usd asset":  "usd_assets: [\"nope\"]\nchains:\n  THOR:\n    block_time: 6s\n",
		"bad throughput": "outbound_throughput_per_block: abc\nchains:\n  THOR:\n    block_time: 6s\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefaults([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParameters_IsChainHalted(t *testing.T) {
	p := &Parameters{
		Chains: map[asset.Chain]ChainAttributes{
			asset.THORChain: {Chain: asset.THORChain},
			asset.BTCChain:  {Chain: asset.BTCChain, Halted: true},
			asset.ETHChain:  {Chain: asset.ETHChain, TradingPaused: true},
			asset.LTCChain:  {Chain: asset.LTCChain},
		},
	}
	assert.False(t, p.IsChainHalted(asset.THORChain))
	assert.True(t, p.IsChainHalted(asset.BTCChain))
	assert.True(t, p.IsChainHalted(asset.ETHChain))
	assert.False(t, p.IsChainHalted(asset.LTCChain))
	assert.True(t, p.IsChainHalted(asset.DOGEChain), "unknown chains are halted")

	p.GlobalHalt = true
	assert.True(t, p.IsChainHalted(asset.LTCChain))

	var nilParams *Parameters
	assert.True(t, nilParams.IsChainHalted(asset.THORChain))
}

func TestParameters_CloneIsDeep(t *testing.T) {
	p, err := LoadDefaults("")
	require.NoError(t, err)
	p.OutboundQueue[asset.BTCChain] = asset.NewAmountFromInt64(5, asset.PoolDecimals)

	c := p.Clone()
	attrs := c.Chains[asset.BTCChain]
	attrs.Halted = true
	c.Chains[asset.BTCChain] = attrs
	c.PausedPools[asset.MustParse("BTC.BTC")] = true
	c.OutboundQueue[asset.BTCChain] = asset.NewAmountFromInt64(9, asset.PoolDecimals)

	assert.False(t, p.IsChainHalted(asset.BTCChain))
	assert.False(t, p.IsChainHaltedForAsset(asset.MustParse("BTC.BTC")))
	assert.Equal(t, "5", p.QueuedOutbound(asset.BTCChain).String())
	assert.Equal(t, "9", c.QueuedOutbound(asset.BTCChain).String())
	assert.Equal(t, "0", c.QueuedOutbound(asset.ETHChain).String())
}

func TestRepository_StoreAndRead(t *testing.T) {
	repo := NewRepository(nil)
	require.NotNil(t, repo.Parameters())
	assert.True(t, repo.Parameters().IsChainHalted(asset.THORChain), "empty parameters know no chain")

	p, err := LoadDefaults("")
	require.NoError(t, err)
	p.Generation = 4
	repo.Store(p)
	repo.Store(nil)
	assert.Equal(t, uint64(4), repo.Parameters().Generation)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(gen uint64) {
			defer wg.Done()
			next := p.Clone()
			next.Generation = gen
			repo.Store(next)
			_ = repo.Parameters().IsChainHalted(asset.BTCChain)
		}(uint64(10 + i))
	}
	wg.Wait()
	assert.GreaterOrEqual(t, repo.Parameters().Generation, uint64(10))
}
