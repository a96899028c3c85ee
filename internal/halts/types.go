package halts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

var (
	ErrNotFound      = errors.New("halt not found")
	ErrInvalidReason = errors.New("invalid halt reason")
)

// MaxReasonLen bounds the operator note stored with an override
const MaxReasonLen = 256

// Scope is what an override applies to
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeChain   Scope = "chain"
	ScopeTrading Scope = "trading"
	ScopePool    Scope = "pool"
)

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._/-]{1,128}$`)

// Halt is an operator override. Keys look like "global", "chain.BTC",
// "trading.ETH" or "pool.ETH.USDC-0XA0B8...". Halted=false forces the
// target open even if the node reports it halted.
type Halt struct {
	Key       string    `json:"key"`
	Scope     Scope     `json:"scope"`
	Halted    bool      `json:"halted"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Target is a parsed halt key
type Target struct {
	Scope Scope
	Chain asset.Chain
	Pool  asset.Asset
}

// Key renders the canonical form of t: upper-case chains and pools keyed
// by their L1 asset, so "chain.btc" and "chain.BTC" name one override.
func (t Target) Key() string {
	switch t.Scope {
	case ScopeChain, ScopeTrading:
		return string(t.Scope) + "." + string(t.Chain)
	case ScopePool:
		return string(ScopePool) + "." + t.Pool.String()
	}
	return string(ScopeGlobal)
}

// ParseScope accepts one of the four override scopes
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeGlobal, ScopeChain, ScopeTrading, ScopePool:
		return sc, nil
	}
	return "", fmt.Errorf("unknown halt scope %q", s)
}

// ParseKey validates a halt key and splits it into scope and target
func ParseKey(key string) (Target, error) {
	if !keyRe.MatchString(key) {
		return Target{}, fmt.Errorf("invalid halt key")
	}
	if key == string(ScopeGlobal) {
		return Target{Scope: ScopeGlobal}, nil
	}

	scope, rest, ok := strings.Cut(key, ".")
	if !ok || rest == "" {
		return Target{}, fmt.Errorf("invalid halt key %q: missing target", key)
	}

	switch Scope(scope) {
	case ScopeChain, ScopeTrading:
		if strings.ContainsAny(rest, "./-") {
			return Target{}, fmt.Errorf("invalid halt key %q: bad chain", key)
		}
		return Target{Scope: Scope(scope), Chain: asset.Chain(strings.ToUpper(rest))}, nil
	case ScopePool:
		a, err := asset.Parse(rest)
		if err != nil {
			return Target{}, fmt.Errorf("invalid halt key %q: %w", key, err)
		}
		if a.IsBase() {
			return Target{}, fmt.Errorf("invalid halt key %q: RUNE has no pool", key)
		}
		return Target{Scope: ScopePool, Pool: a.L1()}, nil
	}
	return Target{}, fmt.Errorf("invalid halt key %q: unknown scope %q", key, scope)
}
