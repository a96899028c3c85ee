package quote

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/thorchain-quote/internal/amm"
	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/memo"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/waittime"
)

var one = decimal.NewFromInt(1)

// Estimate prices req against one pool snapshot and one parameters
// snapshot. It performs no I/O and never mutates its inputs, so it is safe
// to call concurrently with shared snapshots.
//
// Hard failures return a *RejectionError and no quote. Soft failures return
// a fully populated quote with CanSwap false and the reasons listed.
func Estimate(snap *pools.Snapshot, params *network.Parameters, cfg Config, req Request) (*Quote, error) {
	src := req.Input.Asset
	dst := req.DestinationAsset

	// 1. Both ends must be tradable, source first
	if err := checkTradable(params, SideSource, src); err != nil {
		return nil, err
	}
	if err := checkTradable(params, SideDestination, dst); err != nil {
		return nil, err
	}

	// 2. Route pools, then the gas pools fees are priced through
	srcPool, err := requirePool(snap, SideSource, src)
	if err != nil {
		return nil, err
	}
	dstPool, err := requirePool(snap, SideDestination, dst)
	if err != nil {
		return nil, err
	}
	if err := requireGasPool(snap, SideSource, src.SettlementChain()); err != nil {
		return nil, err
	}
	if cfg.conversion() == FeeGasAsset {
		if err := requireGasPool(snap, SideDestination, dst.SettlementChain()); err != nil {
			return nil, err
		}
	}

	// 3. Input must survive normalization to pool units
	if req.Input.Amount.Sign() <= 0 {
		return nil, reject(KindInvalidAmount, SideSource, src, "input must be > 0")
	}
	x := req.Input.Amount.Rescale(asset.PoolDecimals).Int()
	if x.Sign() <= 0 {
		return nil, reject(KindInvalidAmount, SideSource, src, "input %s is below one pool base unit", req.Input.Amount)
	}

	// 4. Request shape
	if err := checkRequest(params, req); err != nil {
		return nil, err
	}

	// 5. Price the route
	var (
		route   Route
		output  *big.Int
		swapFee *big.Int
		slip    decimal.Decimal
	)
	switch {
	case src.IsBase():
		in, out := dstPool.Reserves(false)
		leg, err := amm.SingleSwap(x, in, out)
		if err != nil {
			return nil, reject(KindInvalidAmount, SideSource, src, "%v", err)
		}
		if err := checkDepth(leg, params.PoolHeadroomBps, SideDestination, dstPool.Asset); err != nil {
			return nil, err
		}
		route = Route{Kind: RouteSingle, Pools: []asset.Asset{dstPool.Asset}}
		output, swapFee, slip = leg.Output, leg.Fee, leg.Slip

	case dst.IsBase():
		in, out := srcPool.Reserves(true)
		leg, err := amm.SingleSwap(x, in, out)
		if err != nil {
			return nil, reject(KindInvalidAmount, SideSource, src, "%v", err)
		}
		if err := checkDepth(leg, params.PoolHeadroomBps, SideSource, srcPool.Asset); err != nil {
			return nil, err
		}
		route = Route{Kind: RouteSingle, Pools: []asset.Asset{srcPool.Asset}}
		output, swapFee, slip = leg.Output, leg.Fee, leg.Slip

	default:
		in1, out1 := srcPool.Reserves(true)
		in2, out2 := dstPool.Reserves(false)
		first, second, s, err := amm.DoubleSwap(x, in1, out1, in2, out2)
		if err != nil {
			return nil, reject(KindInvalidAmount, SideSource, src, "input too small to route through %s: %v", asset.RUNE, err)
		}
		if err := checkDepth(first, params.PoolHeadroomBps, SideSource, srcPool.Asset); err != nil {
			return nil, err
		}
		if err := checkDepth(second, params.PoolHeadroomBps, SideDestination, dstPool.Asset); err != nil {
			return nil, err
		}
		route = Route{Kind: RouteDouble, Pools: []asset.Asset{srcPool.Asset, dstPool.Asset}}
		output, slip = second.Output, s

		// first-leg fee is RUNE; value it at the second pool's pre-trade price
		swapFee, err = amm.ConvertAtSpot(first.Fee, second.ReserveIn, second.ReserveOut)
		if err != nil {
			return nil, fmt.Errorf("convert first leg fee: %w", err)
		}
		swapFee.Add(swapFee, second.Fee)
	}

	// 6. Fees, in destination pool units
	outboundFee, err := outboundFee(snap, params, cfg, dst)
	if err != nil {
		return nil, fmt.Errorf("price outbound fee: %w", err)
	}
	inboundInDst, inboundInSrc, err := inboundFee(snap, params, src, dst)
	if err != nil {
		return nil, fmt.Errorf("price inbound fee: %w", err)
	}

	gross := new(big.Int).Add(output, swapFee)
	remaining := asset.NewCryptoAmount(dst, asset.NewAmount(new(big.Int).Sub(output, outboundFee), asset.PoolDecimals))
	affiliateFee := asset.Zero(dst, asset.PoolDecimals)
	if req.AffiliateAddress != "" && req.AffiliateFeeBps > 0 && remaining.Amount.Sign() > 0 {
		if affiliateFee, err = remaining.MulFrac(big.NewInt(req.AffiliateFeeBps), big.NewInt(amm.BpsDenominator)); err != nil {
			return nil, fmt.Errorf("affiliate fee: %w", err)
		}
	}
	net, err := remaining.Sub(affiliateFee)
	if err != nil {
		return nil, fmt.Errorf("net output: %w", err)
	}

	// 7. Express everything in destination native units. Net is derived from
	// the rescaled parts so the fee identity holds exactly.
	decimals := snap.Decimals(dst)
	native := func(v *big.Int) asset.CryptoAmount {
		return asset.NewCryptoAmount(dst, asset.NewAmount(v, asset.PoolDecimals).Rescale(decimals))
	}
	fees := FeeBreakdown{
		InboundFee:   native(inboundInDst),
		SwapFee:      native(swapFee),
		OutboundFee:  native(outboundFee),
		AffiliateFee: affiliateFee.Rescale(decimals),
	}
	grossOut := native(gross)

	netOut := grossOut
	for _, fee := range []asset.CryptoAmount{fees.SwapFee, fees.OutboundFee, fees.AffiliateFee} {
		if netOut, err = netOut.Sub(fee); err != nil {
			return nil, fmt.Errorf("net output: %w", err)
		}
	}

	// 8. Soft checks
	var reasons []Reason
	if req.SlipLimit != nil && slip.GreaterThan(*req.SlipLimit) {
		reasons = append(reasons, ReasonSlipToleranceExceeded)
	}
	inboundSrc := asset.NewCryptoAmount(src, asset.NewAmount(inboundInSrc, asset.PoolDecimals))
	if c, err := asset.NewCryptoAmount(src, asset.NewAmount(x, asset.PoolDecimals)).Cmp(inboundSrc); err != nil {
		return nil, fmt.Errorf("compare inbound fee: %w", err)
	} else if c <= 0 {
		reasons = append(reasons, ReasonInboundFeeExceedsInput)
	}
	if net.Amount.Sign() <= 0 || netOut.Amount.Sign() <= 0 {
		reasons = append(reasons, ReasonOutputBelowFees)
		netOut = asset.Zero(dst, decimals)
	}
	if limit := params.LiquidityFeeCapBps; limit > 0 && amm.FeeBps(swapFee, gross) > limit {
		reasons = append(reasons, ReasonLiquidityFeeCapExceeded)
	}

	// 9. Slippage floor and memo
	minUnits := netOut.Amount.Int()
	if req.SlipLimit != nil {
		minUnits = amm.ApplySlippage(minUnits, *req.SlipLimit)
	}
	minOut := asset.NewCryptoAmount(dst, asset.NewAmount(minUnits, decimals))

	limit := minOut.Amount.Int()
	if cfg.InterfaceID > 0 {
		limit, err = memo.StampInterfaceID(limit, cfg.InterfaceID)
		if err != nil {
			return nil, fmt.Errorf("stamp interface id: %w", err)
		}
	}
	swapMemo := memo.Swap{
		Asset:              dst,
		DestinationAddress: req.DestinationAddress,
		Limit:              limit,
	}
	if req.AffiliateAddress != "" {
		swapMemo.AffiliateAddress = req.AffiliateAddress
		swapMemo.AffiliateFeeBps = req.AffiliateFeeBps
	}
	memoStr, err := memo.Build(swapMemo)
	if err != nil {
		return nil, reject(KindInvalidRequest, "", dst, "%v", err)
	}

	// 10. Wait time
	wait, err := waittime.NewEstimator(params, snap).Total(req.Input, minOut)
	if err != nil {
		return nil, fmt.Errorf("estimate wait time: %w", err)
	}

	return &Quote{
		CanSwap:              len(reasons) == 0,
		Route:                route,
		Input:                req.Input,
		GrossOutput:          grossOut,
		NetOutput:            netOut,
		MinOutput:            minOut,
		Fees:                 fees,
		Slip:                 slip,
		InboundDelaySeconds:  wait.InboundSeconds,
		OutboundDelaySeconds: wait.OutboundSeconds,
		WaitTimeSeconds:      wait.TotalSeconds,
		Memo:                 memoStr,
		Reasons:              reasons,
		PoolGeneration:       snap.Generation,
		ParamsGeneration:     params.Generation,
		Expiry:               cfg.now().Add(cfg.ttl()),
	}, nil
}

// checkTradable rejects an asset whose chain, settlement chain or pool is
// halted.
func checkTradable(params *network.Parameters, side Side, a asset.Asset) error {
	if params.IsChainHalted(a.Chain) {
		return reject(KindChainHalted, side, a, "%s chain is halted", side)
	}
	if settle := a.SettlementChain(); settle != a.Chain && params.IsChainHalted(settle) {
		return reject(KindChainHalted, side, a, "%s settlement chain %s is halted", side, settle)
	}
	if params.IsChainHaltedForAsset(a) {
		return reject(KindChainHalted, side, a, "%s pool trading is paused", side)
	}
	return nil
}

func requirePool(snap *pools.Snapshot, side Side, a asset.Asset) (pools.Pool, error) {
	if a.IsBase() {
		return pools.Pool{}, nil
	}
	p, err := snap.Pool(a)
	if err != nil {
		return pools.Pool{}, reject(KindPoolUnavailable, side, a, "%v", err)
	}
	if !p.IsAvailable() {
		return pools.Pool{}, reject(KindPoolUnavailable, side, a, "pool is %s with reserves %s/%s",
			p.Status, p.AssetBalance, p.RuneBalance)
	}
	return p, nil
}

func requireGasPool(snap *pools.Snapshot, side Side, chain asset.Chain) error {
	gas, ok := asset.GasAsset(chain)
	if !ok {
		return reject(KindPoolUnavailable, side, asset.Asset{Chain: chain}, "no gas asset for chain %s", chain)
	}
	_, err := requirePool(snap, side, gas)
	return err
}

func checkRequest(params *network.Parameters, req Request) error {
	if req.Input.Asset == req.DestinationAsset {
		return reject(KindInvalidRequest, "", req.DestinationAsset, "source and destination asset are the same")
	}
	if strings.TrimSpace(req.DestinationAddress) == "" {
		return reject(KindInvalidRequest, SideDestination, req.DestinationAsset, "destination address required")
	}
	if strings.Contains(req.DestinationAddress, ":") || strings.Contains(req.AffiliateAddress, ":") {
		return reject(KindInvalidRequest, "", asset.Asset{}, "addresses must not contain ':'")
	}
	if req.SlipLimit != nil && (req.SlipLimit.IsNegative() || req.SlipLimit.GreaterThan(one)) {
		return reject(KindInvalidRequest, "", asset.Asset{}, "slip limit %s outside [0, 1]", req.SlipLimit)
	}
	if req.AffiliateFeeBps < 0 || req.AffiliateFeeBps > params.MaxAffiliateFeeBps {
		return reject(KindInvalidAffiliateFee, "", asset.Asset{}, "affiliate fee %d bps outside [0, %d]",
			req.AffiliateFeeBps, params.MaxAffiliateFeeBps)
	}
	return nil
}

// checkDepth rejects a leg whose input exceeds the input reserve, or that
// drains the output reserve. With headroomBps set, it also rejects a leg
// whose slip exceeds 1 - headroomBps/10000 or that leaves less than
// headroomBps of the output reserve. Output falls again once the input
// passes the reserve, so the input side is checked as well as the output.
func checkDepth(leg amm.Leg, headroomBps int64, side Side, pool asset.Asset) error {
	if leg.Input.Cmp(leg.ReserveIn) > 0 {
		return reject(KindPoolDepthExceeded, side, pool, "input %s exceeds pool depth %s", leg.Input, leg.ReserveIn)
	}
	remaining := leg.Remaining()
	if remaining.Sign() <= 0 {
		return reject(KindPoolDepthExceeded, side, pool, "trade drains the pool")
	}
	if headroomBps <= 0 {
		return nil
	}
	maxSlip := decimal.New(amm.BpsDenominator-headroomBps, -4)
	if leg.Slip.GreaterThan(maxSlip) {
		return reject(KindPoolDepthExceeded, side, pool, "slip %s above %s", leg.Slip, maxSlip)
	}
	floor := amm.ApplyBps(leg.ReserveOut, headroomBps)
	if remaining.Cmp(floor) < 0 {
		return reject(KindPoolDepthExceeded, side, pool, "trade leaves %s of %s, below %d bps",
			remaining, leg.ReserveOut, headroomBps)
	}
	return nil
}

// outboundFee prices the destination chain's outbound fee in destination
// pool units, raised to the USD floor for layer-1 destinations.
func outboundFee(snap *pools.Snapshot, params *network.Parameters, cfg Config, dst asset.Asset) (*big.Int, error) {
	chain := dst.SettlementChain()

	var fee *big.Int
	switch cfg.conversion() {
	case FeeBase:
		thor, _ := params.Chain(asset.THORChain)
		v, err := snap.FromRune(dst, thor.OutboundFee.Int())
		if err != nil {
			return nil, err
		}
		fee = v
	default:
		attrs, _ := params.Chain(chain)
		gas, ok := asset.GasAsset(chain)
		if !ok {
			return nil, fmt.Errorf("no gas asset for chain %s", chain)
		}
		v, err := snap.ConvertUnits(gas, dst, attrs.OutboundFee.Int())
		if err != nil {
			return nil, err
		}
		fee = v
	}

	if chain == asset.THORChain || params.MinOutboundFeeUSD.Sign() <= 0 {
		return fee, nil
	}
	usd, ok := snap.DeepestPool(params.USDAssets)
	if !ok {
		return fee, nil
	}
	minRune, err := amm.ConvertAtSpot(params.MinOutboundFeeUSD.Int(), usd.AssetBalance.Int(), usd.RuneBalance.Int())
	if err != nil {
		return nil, err
	}
	minFee, err := snap.FromRune(dst, minRune)
	if err != nil {
		return nil, err
	}
	if fee.Cmp(minFee) < 0 {
		fee = minFee
	}
	return fee, nil
}

// inboundFee prices the source chain's inbound fee in destination and
// source pool units.
func inboundFee(snap *pools.Snapshot, params *network.Parameters, src, dst asset.Asset) (inDst, inSrc *big.Int, err error) {
	chain := src.SettlementChain()
	attrs, _ := params.Chain(chain)
	gas, ok := asset.GasAsset(chain)
	if !ok {
		return nil, nil, fmt.Errorf("no gas asset for chain %s", chain)
	}
	fee := attrs.InboundFee.Int()
	if inDst, err = snap.ConvertUnits(gas, dst, fee); err != nil {
		return nil, nil, err
	}
	if inSrc, err = snap.ConvertUnits(gas, src, fee); err != nil {
		return nil, nil, err
	}
	return inDst, inSrc, nil
}
