package network

import (
	"math/big"
	"time"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

// ChainAttributes are the per-chain tunables the engine and wait-time
// estimator read. Fee amounts are in the chain's gas asset, pool decimals.
type ChainAttributes struct {
	Chain            asset.Chain   `json:"chain"`
	BlockTime        time.Duration `json:"block_time"`
	Confirmations    int64         `json:"confirmations"`
	InstantFinality  bool          `json:"instant_finality"`
	BlockReward      asset.Amount  `json:"block_reward"`
	InboundFee       asset.Amount  `json:"inbound_fee"`
	OutboundFee      asset.Amount  `json:"outbound_fee"`
	HasOutboundQueue bool          `json:"has_outbound_queue"`
	InboundTxSize    int64         `json:"inbound_tx_size"`
	GasRateDivisor   int64         `json:"gas_rate_divisor"`
	Halted           bool          `json:"halted"`
	TradingPaused    bool          `json:"trading_paused"`
}

// Parameters is an immutable view of protocol-wide tunables for one
// refresh generation. Callers that need a modified copy use Clone.
type Parameters struct {
	Generation uint64    `json:"generation"`
	FetchedAt  time.Time `json:"fetched_at"`

	Chains      map[asset.Chain]ChainAttributes `json:"chains"`
	GlobalHalt  bool                            `json:"global_halt"`
	PausedPools map[asset.Asset]bool            `json:"paused_pools"`

	MaxAffiliateFeeBps int64 `json:"max_affiliate_fee_bps"`
	LiquidityFeeCapBps int64 `json:"liquidity_fee_cap_bps"` // 0 disables the cap
	PoolHeadroomBps    int64 `json:"pool_headroom_bps"`

	// Outbound queue, all RUNE-denominated in pool decimals
	OutboundThroughputPerBlock asset.Amount                 `json:"outbound_throughput_per_block"`
	MaxOutboundDelayBlocks     int64                        `json:"max_outbound_delay_blocks"`
	OutboundQueue              map[asset.Chain]asset.Amount `json:"outbound_queue"`

	// Floor for layer-1 outbound fees, USD in pool decimals; zero disables
	MinOutboundFeeUSD asset.Amount  `json:"min_outbound_fee_usd"`
	USDAssets         []asset.Asset `json:"usd_assets"`
}

// Chain returns the attributes of a chain, if known
func (p *Parameters) Chain(c asset.Chain) (ChainAttributes, bool) {
	if p == nil {
		return ChainAttributes{}, false
	}
	attrs, ok := p.Chains[c]
	return attrs, ok
}

// IsChainHalted reports whether nothing may be traded on c: global halt,
// chain halt, chain trading pause, or a chain the parameters don't know.
func (p *Parameters) IsChainHalted(c asset.Chain) bool {
	if p == nil || p.GlobalHalt {
		return true
	}
	attrs, ok := p.Chains[c]
	if !ok {
		return true
	}
	return attrs.Halted || attrs.TradingPaused
}

// IsChainHaltedForAsset reports a pool-level trading pause for a
// non-base asset. Synths share their layer-1 pool's pause.
func (p *Parameters) IsChainHaltedForAsset(a asset.Asset) bool {
	if p == nil {
		return true
	}
	if a.IsBase() {
		return false
	}
	return p.PausedPools[a.L1()]
}

// QueuedOutbound returns the RUNE value waiting in a chain's outbound queue
func (p *Parameters) QueuedOutbound(c asset.Chain) *big.Int {
	if p == nil {
		return new(big.Int)
	}
	q, ok := p.OutboundQueue[c]
	if !ok {
		return new(big.Int)
	}
	return q.Int()
}

// Clone returns a deep copy whose maps may be modified freely
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	out := *p
	out.Chains = make(map[asset.Chain]ChainAttributes, len(p.Chains))
	for k, v := range p.Chains {
		out.Chains[k] = v
	}
	out.PausedPools = make(map[asset.Asset]bool, len(p.PausedPools))
	for k, v := range p.PausedPools {
		out.PausedPools[k] = v
	}
	out.OutboundQueue = make(map[asset.Chain]asset.Amount, len(p.OutboundQueue))
	for k, v := range p.OutboundQueue {
		out.OutboundQueue[k] = v
	}
	out.USDAssets = append([]asset.Asset(nil), p.USDAssets...)
	return &out
}
