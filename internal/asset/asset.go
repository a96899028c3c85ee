package asset

import (
	"fmt"
	"regexp"
	"strings"
)

// Chain identifies a settlement chain (e.g. "BTC", "ETH", "THOR")
type Chain string

// Known chains
const (
	THORChain Chain = "THOR"
	BTCChain  Chain = "BTC"
	ETHChain  Chain = "ETH"
	BNBChain  Chain = "BNB"
	BSCChain  Chain = "BSC"
	LTCChain  Chain = "LTC"
	BCHChain  Chain = "BCH"
	DOGEChain Chain = "DOGE"
	GAIAChain Chain = "GAIA"
	AVAXChain Chain = "AVAX"
)

// Asset identifies a tradeable unit. Comparable: two assets are equal when
// every field is equal.
type Asset struct {
	Chain    Chain
	Symbol   string
	Contract string // optional, e.g. token contract or BEP2 suffix
	Synth    bool
}

var (
	chainRe    = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}$`)
	symbolRe   = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)
	contractRe = regexp.MustCompile(`^[A-Za-z0-9]{1,80}$`)
)

// RUNE is the protocol's base currency; every pool is quoted against it.
var RUNE = Asset{Chain: THORChain, Symbol: "RUNE"}

var gasAssets = map[Chain]Asset{
	THORChain: RUNE,
	BTCChain:  {Chain: BTCChain, Symbol: "BTC"},
	ETHChain:  {Chain: ETHChain, Symbol: "ETH"},
	BNBChain:  {Chain: BNBChain, Symbol: "BNB"},
	BSCChain:  {Chain: BSCChain, Symbol: "BNB"},
	LTCChain:  {Chain: LTCChain, Symbol: "LTC"},
	BCHChain:  {Chain: BCHChain, Symbol: "BCH"},
	DOGEChain: {Chain: DOGEChain, Symbol: "DOGE"},
	GAIAChain: {Chain: GAIAChain, Symbol: "ATOM"},
	AVAXChain: {Chain: AVAXChain, Symbol: "AVAX"},
}

// Parse builds an Asset from its string form: CHAIN.SYMBOL[-CONTRACT] for
// layer-1 assets, CHAIN/SYMBOL[-CONTRACT] for synths.
func Parse(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Asset{}, fmt.Errorf("empty asset string")
	}

	sep := "."
	synth := false
	if strings.Contains(s, "/") {
		sep = "/"
		synth = true
	}

	chain, rest, ok := strings.Cut(s, sep)
	if !ok {
		return Asset{}, fmt.Errorf("invalid asset %q: missing chain separator", s)
	}
	if !chainRe.MatchString(chain) {
		return Asset{}, fmt.Errorf("invalid asset %q: bad chain %q", s, chain)
	}

	symbol, contract, _ := strings.Cut(rest, "-")
	if !symbolRe.MatchString(symbol) {
		return Asset{}, fmt.Errorf("invalid asset %q: bad symbol %q", s, symbol)
	}
	if strings.Contains(rest, "-") && !contractRe.MatchString(contract) {
		return Asset{}, fmt.Errorf("invalid asset %q: bad contract %q", s, contract)
	}

	a := Asset{Chain: Chain(chain), Symbol: symbol, Contract: contract, Synth: synth}
	if synth && a.Chain == THORChain {
		return Asset{}, fmt.Errorf("invalid asset %q: synths of THOR assets do not exist", s)
	}
	return a, nil
}

// MustParse is Parse for package-level fixtures; it panics on bad input.
func MustParse(s string) Asset {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Asset) String() string {
	if a.Chain == "" && a.Symbol == "" {
		return ""
	}
	sep := "."
	if a.Synth {
		sep = "/"
	}
	s := string(a.Chain) + sep + a.Symbol
	if a.Contract != "" {
		s += "-" + a.Contract
	}
	return s
}

// Ticker returns the symbol without the contract suffix.
func (a Asset) Ticker() string { return a.Symbol }

// IsBase reports whether a is the base currency.
func (a Asset) IsBase() bool { return a == RUNE }

// L1 returns the layer-1 asset backing a synth; it is the pool key.
func (a Asset) L1() Asset {
	a.Synth = false
	return a
}

// SettlementChain is the chain the asset is actually sent on. Synths live
// on THORChain regardless of the chain they track.
func (a Asset) SettlementChain() Chain {
	if a.Synth {
		return THORChain
	}
	return a.Chain
}

// GasAsset returns the fee-paying asset of a chain.
func GasAsset(c Chain) (Asset, bool) {
	a, ok := gasAssets[c]
	return a, ok
}

// IsGasAsset reports whether a is the native gas asset of its chain.
func (a Asset) IsGasAsset() bool {
	if a.Synth {
		return false
	}
	g, ok := gasAssets[a.Chain]
	return ok && g == a
}

func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Asset) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
