package network

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

//go:embed defaults.yaml
var embeddedDefaults []byte

// chainFile mirrors one chain entry of the defaults file.
type chainFile struct {
	BlockTime        string `yaml:"block_time"`
	Confirmations    int64  `yaml:"confirmations"`
	InstantFinality  bool   `yaml:"instant_finality"`
	BlockReward      string `yaml:"block_reward"`
	InboundFee       string `yaml:"inbound_fee"`
	OutboundFee      string `yaml:"outbound_fee"`
	HasOutboundQueue bool   `yaml:"has_outbound_queue"`
	InboundTxSize    int64  `yaml:"inbound_tx_size"`
	GasRateDivisor   int64  `yaml:"gas_rate_divisor"`
	Halted           bool   `yaml:"halted"`
	TradingPaused    bool   `yaml:"trading_paused"`
}

// parametersFile mirrors the YAML representation of Parameters.
type parametersFile struct {
	GlobalHalt                 bool                 `yaml:"global_halt"`
	PausedPools                []string             `yaml:"paused_pools"`
	MaxAffiliateFeeBps         int64                `yaml:"max_affiliate_fee_bps"`
	LiquidityFeeCapBps         int64                `yaml:"liquidity_fee_cap_bps"`
	PoolHeadroomBps            int64                `yaml:"pool_headroom_bps"`
	OutboundThroughputPerBlock string               `yaml:"outbound_throughput_per_block"`
	MaxOutboundDelayBlocks     int64                `yaml:"max_outbound_delay_blocks"`
	MinOutboundFeeUSD          string               `yaml:"min_outbound_fee_usd"`
	USDAssets                  []string             `yaml:"usd_assets"`
	Chains                     map[string]chainFile `yaml:"chains"`
}

// LoadDefaults reads parameters from a YAML file, or from the built-in
// defaults when path is empty.
func LoadDefaults(path string) (*Parameters, error) {
	data := embeddedDefaults
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read network defaults: %w", err)
		}
		data = b
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes and validates a defaults document.
func ParseDefaults(data []byte) (*Parameters, error) {
	var raw parametersFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode network defaults: %w", err)
	}

	if raw.PoolHeadroomBps < 0 || raw.PoolHeadroomBps >= 10000 {
		return nil, fmt.Errorf("pool_headroom_bps must be in [0, 10000)")
	}
	if raw.MaxAffiliateFeeBps < 0 || raw.MaxAffiliateFeeBps > 10000 {
		return nil, fmt.Errorf("max_affiliate_fee_bps must be in [0, 10000]")
	}
	if raw.MaxOutboundDelayBlocks < 0 {
		return nil, fmt.Errorf("max_outbound_delay_blocks must be >= 0")
	}

	throughput, err := parseUnits(raw.OutboundThroughputPerBlock)
	if err != nil {
		return nil, fmt.Errorf("outbound_throughput_per_block: %w", err)
	}
	minUSD, err := parseUnits(raw.MinOutboundFeeUSD)
	if err != nil {
		return nil, fmt.Errorf("min_outbound_fee_usd: %w", err)
	}

	p := &Parameters{
		Chains:                     make(map[asset.Chain]ChainAttributes, len(raw.Chains)),
		GlobalHalt:                 raw.GlobalHalt,
		PausedPools:                make(map[asset.Asset]bool, len(raw.PausedPools)),
		MaxAffiliateFeeBps:         raw.MaxAffiliateFeeBps,
		LiquidityFeeCapBps:         raw.LiquidityFeeCapBps,
		PoolHeadroomBps:            raw.PoolHeadroomBps,
		OutboundThroughputPerBlock: throughput,
		MaxOutboundDelayBlocks:     raw.MaxOutboundDelayBlocks,
		OutboundQueue:              map[asset.Chain]asset.Amount{},
		MinOutboundFeeUSD:          minUSD,
	}

	for _, s := range raw.PausedPools {
		a, err := asset.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("paused_pools: %w", err)
		}
		p.PausedPools[a.L1()] = true
	}
	for _, s := range raw.USDAssets {
		a, err := asset.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("usd_assets: %w", err)
		}
		p.USDAssets = append(p.USDAssets, a)
	}

	for name, entry := range raw.Chains {
		chain := asset.Chain(strings.ToUpper(strings.TrimSpace(name)))
		attrs, err := entry.toAttributes(chain)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", chain, err)
		}
		p.Chains[chain] = attrs
	}
	if _, ok := p.Chains[asset.THORChain]; !ok {
		return nil, fmt.Errorf("chains: %s entry required", asset.THORChain)
	}
	return p, nil
}

func (c chainFile) toAttributes(chain asset.Chain) (ChainAttributes, error) {
	if _, ok := asset.GasAsset(chain); !ok {
		return ChainAttributes{}, fmt.Errorf("unknown chain")
	}
	blockTime, err := time.ParseDuration(c.BlockTime)
	if err != nil {
		return ChainAttributes{}, fmt.Errorf("block_time: %w", err)
	}
	if blockTime <= 0 {
		return ChainAttributes{}, fmt.Errorf("block_time must be > 0")
	}
	if c.Confirmations < 0 || c.InboundTxSize < 0 || c.GasRateDivisor < 0 {
		return ChainAttributes{}, fmt.Errorf("negative count")
	}
	reward, err := parseUnits(c.BlockReward)
	if err != nil {
		return ChainAttributes{}, fmt.Errorf("block_reward: %w", err)
	}
	inbound, err := parseUnits(c.InboundFee)
	if err != nil {
		return ChainAttributes{}, fmt.Errorf("inbound_fee: %w", err)
	}
	outbound, err := parseUnits(c.OutboundFee)
	if err != nil {
		return ChainAttributes{}, fmt.Errorf("outbound_fee: %w", err)
	}
	return ChainAttributes{
		Chain:            chain,
		BlockTime:        blockTime,
		Confirmations:    c.Confirmations,
		InstantFinality:  c.InstantFinality,
		BlockReward:      reward,
		InboundFee:       inbound,
		OutboundFee:      outbound,
		HasOutboundQueue: c.HasOutboundQueue,
		InboundTxSize:    c.InboundTxSize,
		GasRateDivisor:   c.GasRateDivisor,
		Halted:           c.Halted,
		TradingPaused:    c.TradingPaused,
	}, nil
}

// parseUnits reads a whole-unit decimal string into pool base units.
// Empty means zero.
func parseUnits(s string) (asset.Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return asset.ZeroAmount(asset.PoolDecimals), nil
	}
	a, err := asset.ParseHuman(s, asset.PoolDecimals)
	if err != nil {
		return asset.Amount{}, err
	}
	if a.Sign() < 0 {
		return asset.Amount{}, fmt.Errorf("must be >= 0")
	}
	return a, nil
}
