package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/constants"
	"github.com/aman-zulfiqar/thorchain-quote/internal/models"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
)

// RedisCache keeps recent quotes, the live quote feed and the last good
// snapshot in Redis
type RedisCache struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

var (
	_ storage.QuoteCache    = (*RedisCache)(nil)
	_ storage.SnapshotCache = (*RedisCache)(nil)
)

func NewRedisCache(client redis.UniversalClient, logger *logrus.Logger) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}, nil
}

// AddRecentQuote pushes rec and trims the list to MaxRecentQuotes
func (r *RedisCache) AddRecentQuote(ctx context.Context, rec *models.QuoteRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentQuotes, b)
	pipe.LTrim(ctx, constants.RedisKeyRecentQuotes, 0, constants.MaxRecentQuotes-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent quote: %w", err)
	}
	return nil
}

// GetRecentQuotes returns up to limit quotes, newest first
func (r *RedisCache) GetRecentQuotes(ctx context.Context, limit int64) ([]*models.QuoteRecord, error) {
	if limit <= 0 {
		return []*models.QuoteRecord{}, nil
	}
	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentQuotes, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent quotes: %w", err)
	}

	out := make([]*models.QuoteRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.QuoteRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached quote")
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

type snapshotDoc struct {
	Generation uint64              `json:"generation"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Pools      []pools.Pool        `json:"pools"`
	Params     *network.Parameters `json:"params"`
}

// SaveSnapshot stores snap and params together under one key
func (r *RedisCache) SaveSnapshot(ctx context.Context, snap *pools.Snapshot, params *network.Parameters) error {
	if snap == nil || params == nil {
		return fmt.Errorf("snapshot and parameters are required")
	}
	b, err := json.Marshal(snapshotDoc{
		Generation: snap.Generation,
		FetchedAt:  snap.FetchedAt,
		Pools:      snap.Pools(),
		Params:     params,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, constants.RedisKeySnapshot, b, constants.SnapshotCacheTTL).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot or storage.ErrCacheMiss
func (r *RedisCache) LoadSnapshot(ctx context.Context) (*pools.Snapshot, *network.Parameters, error) {
	val, err := r.client.Get(ctx, constants.RedisKeySnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, storage.ErrCacheMiss
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if doc.Params == nil {
		return nil, nil, fmt.Errorf("cached snapshot has no parameters")
	}
	return pools.NewSnapshot(doc.Generation, doc.FetchedAt, doc.Pools), doc.Params, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
