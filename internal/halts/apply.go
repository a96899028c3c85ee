package halts

import (
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
)

// Apply folds overrides into a copy of params. Overrides for chains the
// parameters don't know are ignored; such chains are already halted.
func Apply(params *network.Parameters, overrides []*Halt) *network.Parameters {
	if params == nil || len(overrides) == 0 {
		return params
	}

	out := params.Clone()
	for _, h := range overrides {
		if h == nil {
			continue
		}
		t, err := ParseKey(h.Key)
		if err != nil {
			continue
		}

		switch t.Scope {
		case ScopeGlobal:
			out.GlobalHalt = h.Halted
		case ScopeChain:
			if attrs, ok := out.Chains[t.Chain]; ok {
				attrs.Halted = h.Halted
				out.Chains[t.Chain] = attrs
			}
		case ScopeTrading:
			if attrs, ok := out.Chains[t.Chain]; ok {
				attrs.TradingPaused = h.Halted
				out.Chains[t.Chain] = attrs
			}
		case ScopePool:
			if h.Halted {
				out.PausedPools[t.Pool] = true
			} else {
				delete(out.PausedPools, t.Pool)
			}
		}
	}
	return out
}
