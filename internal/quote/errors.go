package quote

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

// Kind classifies a hard rejection
type Kind string

const (
	KindChainHalted         Kind = "ChainHalted"
	KindPoolUnavailable     Kind = "PoolUnavailable"
	KindInvalidAmount       Kind = "InvalidAmount"
	KindPoolDepthExceeded   Kind = "PoolDepthExceeded"
	KindInvalidRequest      Kind = "InvalidRequest"
	KindInvalidAffiliateFee Kind = "InvalidAffiliateFee"
)

// Side says which end of the swap a rejection concerns
type Side string

const (
	SideSource      Side = "source"
	SideDestination Side = "destination"
)

// Sentinels for errors.Is; they match any RejectionError of the same kind.
var (
	ErrChainHalted         = &RejectionError{Kind: KindChainHalted}
	ErrPoolUnavailable     = &RejectionError{Kind: KindPoolUnavailable}
	ErrInvalidAmount       = &RejectionError{Kind: KindInvalidAmount}
	ErrPoolDepthExceeded   = &RejectionError{Kind: KindPoolDepthExceeded}
	ErrInvalidRequest      = &RejectionError{Kind: KindInvalidRequest}
	ErrInvalidAffiliateFee = &RejectionError{Kind: KindInvalidAffiliateFee}
)

// RejectionError is returned instead of a quote when no meaningful price
// can be computed.
type RejectionError struct {
	Kind  Kind
	Side  Side
	Asset asset.Asset
	Msg   string
}

func (e *RejectionError) Error() string {
	var s string
	switch {
	case e.Side != "" && e.Asset.String() != "":
		s = fmt.Sprintf("%s (%s %s)", e.Kind, e.Side, e.Asset)
	case e.Side != "":
		s = fmt.Sprintf("%s (%s)", e.Kind, e.Side)
	case e.Asset.String() != "":
		s = fmt.Sprintf("%s (%s)", e.Kind, e.Asset)
	default:
		s = string(e.Kind)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is matches on Kind, and on Side when the target sets one
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Side == "" || t.Side == e.Side
}

// AsRejection unwraps err into a RejectionError if it is one
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func reject(kind Kind, side Side, a asset.Asset, format string, args ...any) *RejectionError {
	return &RejectionError{Kind: kind, Side: side, Asset: a, Msg: fmt.Sprintf(format, args...)}
}
