package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
)

// ErrCacheMiss is returned when nothing has been cached yet
var ErrCacheMiss = errors.New("cache miss")

// QuoteCache defines the interface for recent-quote caching and the live
// quote feed
type QuoteCache interface {
	// AddRecentQuote pushes a quote onto the bounded recent list
	AddRecentQuote(ctx context.Context, rec *models.QuoteRecord) error

	// GetRecentQuotes returns the newest quotes first
	GetRecentQuotes(ctx context.Context, limit int64) ([]*models.QuoteRecord, error)

	// PublishQuote publishes a quote to the Pub/Sub channels
	PublishQuote(ctx context.Context, rec *models.QuoteRecord) error

	// SubscribeQuotes streams live quotes until ctx is done
	SubscribeQuotes(ctx context.Context) (<-chan *models.QuoteRecord, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// SnapshotCache persists the last good refresh so a restart can serve
// quotes before the first node round trip
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, snap *pools.Snapshot, params *network.Parameters) error

	// LoadSnapshot returns ErrCacheMiss when nothing is stored
	LoadSnapshot(ctx context.Context) (*pools.Snapshot, *network.Parameters, error)
}

// QuoteStore defines the interface for persistent quote history
type QuoteStore interface {
	// EnsureSchema creates the quotes table if needed
	EnsureSchema(ctx context.Context) error

	InsertQuote(ctx context.Context, rec *models.QuoteRecord) error

	Ping(ctx context.Context) error

	io.Closer
}

// QuoteHandler processes quotes received from the live feed
type QuoteHandler func(*models.QuoteRecord)
