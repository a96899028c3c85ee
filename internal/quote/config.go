package quote

import (
	"fmt"
	"time"
)

// FeeConversion selects how the configured outbound fee is priced
type FeeConversion string

const (
	// FeeGasAsset charges the destination chain's fee in its gas asset,
	// converted gas asset -> RUNE -> destination at spot.
	FeeGasAsset FeeConversion = "gas_asset"
	// FeeBase charges THORChain's native fee in RUNE, converted through the
	// destination pool only.
	FeeBase FeeConversion = "base"
)

const DefaultQuoteTTL = 15 * time.Minute

type Config struct {
	OutboundFeeConversion FeeConversion

	// InterfaceID, when 1-999, is stamped into the memo limit
	InterfaceID int

	QuoteTTL time.Duration

	// Now is the clock used for Expiry; nil means time.Now
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		OutboundFeeConversion: FeeGasAsset,
		QuoteTTL:              DefaultQuoteTTL,
		Now:                   time.Now,
	}
}

func (c Config) Validate() error {
	switch c.OutboundFeeConversion {
	case FeeGasAsset, FeeBase:
	default:
		return fmt.Errorf("unknown outbound fee conversion %q", c.OutboundFeeConversion)
	}
	if c.InterfaceID < 0 || c.InterfaceID > 999 {
		return fmt.Errorf("interface id must be in [0, 999]")
	}
	if c.QuoteTTL <= 0 {
		return fmt.Errorf("quote ttl must be > 0")
	}
	return nil
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) ttl() time.Duration {
	if c.QuoteTTL <= 0 {
		return DefaultQuoteTTL
	}
	return c.QuoteTTL
}

func (c Config) conversion() FeeConversion {
	if c.OutboundFeeConversion == "" {
		return FeeGasAsset
	}
	return c.OutboundFeeConversion
}
