package waittime

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/aman-zulfiqar/thorchain-quote/internal/amm"
	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
)

// Valuer prices an amount in another asset; *pools.Snapshot implements it.
type Valuer interface {
	Convert(in asset.CryptoAmount, to asset.Asset) (asset.CryptoAmount, error)
}

// Estimate is a wait-time breakdown in whole seconds
type Estimate struct {
	InboundSeconds  int64 `json:"inbound_seconds"`
	OutboundSeconds int64 `json:"outbound_seconds"`
	TotalSeconds    int64 `json:"total_seconds"`
}

// Estimator derives confirmation and outbound-queue delays from one
// parameters snapshot, pricing amounts with one pool snapshot.
type Estimator struct {
	params *network.Parameters
	valuer Valuer
}

func NewEstimator(params *network.Parameters, valuer Valuer) *Estimator {
	return &Estimator{params: params, valuer: valuer}
}

// InboundDelay is the time until the inbound transaction is final on its
// source chain.
func (e *Estimator) InboundDelay(in asset.CryptoAmount) (int64, error) {
	chain := in.Asset.SettlementChain()
	attrs, err := e.chain(chain)
	if err != nil {
		return 0, err
	}
	if chain == asset.THORChain || attrs.InstantFinality {
		thor, err := e.chain(asset.THORChain)
		if err != nil {
			return 0, err
		}
		return seconds(thor.BlockTime, big.NewInt(1)), nil
	}

	confs := big.NewInt(attrs.Confirmations)
	if confs.Sign() < 1 {
		confs.SetInt64(1)
	}

	// Large deposits wait for enough blocks that reorging them costs more
	// block rewards than the deposit is worth.
	if attrs.BlockReward.Sign() > 0 && e.valuer != nil {
		gas, ok := asset.GasAsset(chain)
		if !ok {
			return 0, fmt.Errorf("no gas asset for chain %s", chain)
		}
		value, err := e.valuer.Convert(in, gas)
		if err != nil {
			return 0, fmt.Errorf("value inbound in %s: %w", gas, err)
		}
		units := value.Amount.Rescale(asset.PoolDecimals).Int()
		if needed := amm.CeilDiv(units, attrs.BlockReward.Int()); needed.Cmp(confs) > 0 {
			confs = needed
		}
	}
	return seconds(attrs.BlockTime, confs), nil
}

// OutboundDelay is the time the outbound payment spends in the destination
// chain's queue. It is zero for chains without a queue and when the queue
// is empty.
func (e *Estimator) OutboundDelay(out asset.CryptoAmount) (int64, error) {
	chain := out.Asset.SettlementChain()
	attrs, err := e.chain(chain)
	if err != nil {
		return 0, err
	}
	if !attrs.HasOutboundQueue {
		return 0, nil
	}
	queued := e.params.QueuedOutbound(chain)
	if queued.Sign() <= 0 {
		return 0, nil
	}
	throughput := e.params.OutboundThroughputPerBlock.Int()
	if throughput.Sign() <= 0 {
		return 0, nil
	}

	total := new(big.Int).Set(queued)
	if e.valuer != nil {
		value, err := e.valuer.Convert(out, asset.RUNE)
		if err != nil {
			return 0, fmt.Errorf("value outbound in RUNE: %w", err)
		}
		total.Add(total, value.Amount.Rescale(asset.PoolDecimals).Int())
	}

	blocks := new(big.Int).Quo(total, throughput)
	if limit := e.params.MaxOutboundDelayBlocks; limit > 0 && blocks.Cmp(big.NewInt(limit)) > 0 {
		blocks.SetInt64(limit)
	}
	return seconds(attrs.BlockTime, blocks), nil
}

// Total adds both components
func (e *Estimator) Total(in, out asset.CryptoAmount) (Estimate, error) {
	inbound, err := e.InboundDelay(in)
	if err != nil {
		return Estimate{}, fmt.Errorf("inbound delay: %w", err)
	}
	outbound, err := e.OutboundDelay(out)
	if err != nil {
		return Estimate{}, fmt.Errorf("outbound delay: %w", err)
	}
	return Estimate{
		InboundSeconds:  inbound,
		OutboundSeconds: outbound,
		TotalSeconds:    addSeconds(inbound, outbound),
	}, nil
}

func (e *Estimator) chain(c asset.Chain) (network.ChainAttributes, error) {
	attrs, ok := e.params.Chain(c)
	if !ok {
		return network.ChainAttributes{}, fmt.Errorf("unknown chain %s", c)
	}
	return attrs, nil
}

// seconds is blocks × blockTime in whole seconds, saturating at
// math.MaxInt64 and never negative.
func seconds(blockTime time.Duration, blocks *big.Int) int64 {
	if blockTime <= 0 || blocks == nil || blocks.Sign() <= 0 {
		return 0
	}
	ns := new(big.Int).Mul(big.NewInt(int64(blockTime)), blocks)
	ns.Quo(ns, big.NewInt(int64(time.Second)))
	if !ns.IsInt64() {
		return math.MaxInt64
	}
	return ns.Int64()
}

func addSeconds(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
