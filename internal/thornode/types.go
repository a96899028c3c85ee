package thornode

// Pool is an entry of /thorchain/pools. Balances are 8-decimal base units
// encoded as strings.
type Pool struct {
	Asset               string `json:"asset"`
	Status              string `json:"status"`
	Decimals            int64  `json:"decimals"`
	BalanceAsset        string `json:"balance_asset"`
	BalanceRune         string `json:"balance_rune"`
	PendingInboundAsset string `json:"pending_inbound_asset"`
	PendingInboundRune  string `json:"pending_inbound_rune"`
	SynthSupply         string `json:"synth_supply"`
	TradingHalted       bool   `json:"trading_halted"`
}

// InboundAddress is an entry of /thorchain/inbound_addresses
type InboundAddress struct {
	Chain                string `json:"chain"`
	PubKey               string `json:"pub_key"`
	Address              string `json:"address"`
	Router               string `json:"router"`
	Halted               bool   `json:"halted"`
	GlobalTradingPaused  bool   `json:"global_trading_paused"`
	ChainTradingPaused   bool   `json:"chain_trading_paused"`
	ChainLPActionsPaused bool   `json:"chain_lp_actions_paused"`
	GasRate              string `json:"gas_rate"`
	GasRateUnits         string `json:"gas_rate_units"`
	OutboundTxSize       string `json:"outbound_tx_size"`
	OutboundFee          string `json:"outbound_fee"`
	DustThreshold        string `json:"dust_threshold"`
}

// Coin is an asset amount in 8-decimal base units
type Coin struct {
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
	Decimals int64  `json:"decimals,omitempty"`
}

// OutboundItem is an entry of /thorchain/queue/outbound
type OutboundItem struct {
	Chain     string `json:"chain"`
	ToAddress string `json:"to_address"`
	Coin      Coin   `json:"coin"`
	Memo      string `json:"memo"`
	InHash    string `json:"in_hash"`
	Height    int64  `json:"height"`
}

// Mimir is the /thorchain/mimir key/value map
type Mimir map[string]int64

// Get returns a mimir value if it is set; negative values mean unset.
func (m Mimir) Get(key string) (int64, bool) {
	v, ok := m[key]
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}
