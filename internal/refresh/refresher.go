package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/halts"
	"github.com/aman-zulfiqar/thorchain-quote/internal/metrics"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

// Source is the node state a refresh reads; *thornode.Client implements it
type Source interface {
	Pools(ctx context.Context) ([]thornode.Pool, error)
	InboundAddresses(ctx context.Context) ([]thornode.InboundAddress, error)
	Mimir(ctx context.Context) (thornode.Mimir, error)
	OutboundQueue(ctx context.Context) ([]thornode.OutboundItem, error)
}

// HaltSource lists operator overrides; *halts.Store implements it
type HaltSource interface {
	List(ctx context.Context) ([]*halts.Halt, error)
}

// Refresher periodically rebuilds the pool and parameter snapshots from a
// node and swaps them into the repositories. A failed round leaves the
// last-known snapshots in place.
type Refresher struct {
	source   Source
	halts    HaltSource
	cache    storage.SnapshotCache
	pools    *pools.Repository
	params   *network.Repository
	defaults *network.Parameters
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	generation uint64
	running    bool
}

// Config holds configuration for the refresher
type Config struct {
	Source   Source
	Halts    HaltSource            // optional
	Cache    storage.SnapshotCache // optional
	Pools    *pools.Repository
	Params   *network.Repository
	Defaults *network.Parameters
	Interval time.Duration
	Timeout  time.Duration // per round; defaults to Interval
	Now      func() time.Time
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
}

// New creates a refresher
func New(cfg Config) (*Refresher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("refresh source is nil")
	}
	if cfg.Pools == nil || cfg.Params == nil {
		return nil, fmt.Errorf("pool and parameter repositories are required")
	}
	if cfg.Defaults == nil {
		return nil, fmt.Errorf("network defaults are nil")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be > 0")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Refresher{
		source:   cfg.Source,
		halts:    cfg.Halts,
		cache:    cfg.Cache,
		pools:    cfg.Pools,
		params:   cfg.Params,
		defaults: cfg.Defaults,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		now:      cfg.Now,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// WarmStart loads the cached snapshot into the repositories if nothing
// newer has been stored yet. A cache miss is not an error.
func (r *Refresher) WarmStart(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	snap, params, err := r.cache.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrCacheMiss) {
		r.logger.Debug("no cached snapshot")
		return nil
	}
	if err != nil {
		return fmt.Errorf("warm start: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pools.Snapshot().Generation >= snap.Generation {
		return nil
	}
	if snap.Generation > r.generation {
		r.generation = snap.Generation
	}
	r.params.Store(params)
	r.pools.Store(snap)

	r.logger.WithFields(logrus.Fields{
		"generation": snap.Generation,
		"pools":      snap.Len(),
		"fetched_at": snap.FetchedAt,
	}).Info("warm start from cached snapshot")
	return nil
}

// Start refreshes once, then on every tick until ctx is done
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("refresher already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.logger.WithField("interval", r.interval).Info("starting snapshot refresh")

	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Error("refresh error")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.WithError(err).Error("refresh error")
			}
		}
	}
}

// Running reports whether Start is looping
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Refresh performs one fetch round. Both snapshots it stores carry the
// same generation.
func (r *Refresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snap, params, err := r.build(ctx)
	if err != nil {
		r.metrics.ObserveRefresh(err, 0, 0, time.Time{})
		return err
	}

	r.mu.Lock()
	r.generation++
	gen := r.generation
	snap.Generation = gen
	params.Generation = gen
	r.params.Store(params)
	r.pools.Store(snap)
	r.mu.Unlock()

	r.metrics.ObserveRefresh(nil, gen, snap.Len(), snap.FetchedAt)
	r.logger.WithFields(logrus.Fields{
		"generation":  gen,
		"pools":       snap.Len(),
		"global_halt": params.GlobalHalt,
	}).Debug("snapshot refreshed")

	if r.cache != nil {
		if err := r.cache.SaveSnapshot(ctx, snap, params); err != nil {
			r.logger.WithError(err).Warn("failed to cache snapshot")
		}
	}
	return nil
}

// build fetches and converts one round without touching the repositories
func (r *Refresher) build(ctx context.Context) (*pools.Snapshot, *network.Parameters, error) {
	rawPools, err := r.source.Pools(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch pools: %w", err)
	}
	inbound, err := r.source.InboundAddresses(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch inbound addresses: %w", err)
	}
	mimir, err := r.source.Mimir(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch mimir: %w", err)
	}
	queue, err := r.source.OutboundQueue(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch outbound queue: %w", err)
	}

	list, skipped := BuildPools(rawPools)
	for _, e := range skipped {
		r.logger.WithError(e).Warn("skipping pool")
	}
	if len(list) == 0 && len(rawPools) > 0 {
		return nil, nil, fmt.Errorf("no usable pools in %d returned", len(rawPools))
	}

	// generation is stamped by the caller under the lock
	snap := pools.NewSnapshot(0, r.now().UTC(), list)

	params, err := BuildParameters(r.defaults, inbound, mimir, queue, rawPools, snap)
	if err != nil {
		return nil, nil, err
	}
	params.FetchedAt = snap.FetchedAt

	if r.halts != nil {
		overrides, err := r.halts.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list halt overrides: %w", err)
		}
		params = halts.Apply(params, overrides)
	}
	return snap, params, nil
}
