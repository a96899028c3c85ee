package constants

import "time"

// Redis keys
const (
	RedisKeyRecentQuotes = "quotes:recent"
	RedisKeySnapshot     = "snapshot:latest"
)

// Redis Pub/Sub channels
const (
	PubSubChannelQuotes    = "quotes:live"
	PubSubChannelPairFmt   = "quotes:pair:%s"
	PubSubChannelRouteFmt  = "quotes:route:%s"
	PubSubPatternAllQuotes = "quotes:*"
)

// Limits
const (
	MaxRecentQuotes    = 100
	DefaultRecentLimit = 50
	MaxRecentLimit     = 200
)

// Snapshot cache
const (
	// Cached snapshots older than this are not used for a warm start
	SnapshotCacheTTL = 10 * time.Minute
)

// ClickHouse
const (
	QuotesTable = "quotes"
)
