package refresh

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
	"github.com/aman-zulfiqar/thorchain-quote/internal/halts"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
	"github.com/aman-zulfiqar/thorchain-quote/internal/storage"
	"github.com/aman-zulfiqar/thorchain-quote/internal/thornode"
)

type fakeSource struct {
	mu      sync.Mutex
	pools   []thornode.Pool
	failing error
	calls   int
}

func (f *fakeSource) setFailing(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = err
}

func (f *fakeSource) Pools(ctx context.Context) ([]thornode.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing != nil {
		return nil, f.failing
	}
	return f.pools, nil
}

func (f *fakeSource) InboundAddresses(ctx context.Context) ([]thornode.InboundAddress, error) {
	return nodeInbound(), nil
}

func (f *fakeSource) Mimir(ctx context.Context) (thornode.Mimir, error) {
	return nodeMimir(), nil
}

func (f *fakeSource) OutboundQueue(ctx context.Context) ([]thornode.OutboundItem, error) {
	return nodeQueue(), nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHalts struct {
	list []*halts.Halt
	err  error
}

func (f *fakeHalts) List(ctx context.Context) ([]*halts.Halt, error) {
	return f.list, f.err
}

type memCache struct {
	mu     sync.Mutex
	snap   *pools.Snapshot
	params *network.Parameters
	saves  int
}

func (m *memCache) SaveSnapshot(ctx context.Context, snap *pools.Snapshot, params *network.Parameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap, m.params = snap, params
	m.saves++
	return nil
}

func (m *memCache) LoadSnapshot(ctx context.Context) (*pools.Snapshot, *network.Parameters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil, storage.ErrCacheMiss
	}
	return m.snap, m.params, nil
}

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestRefresher(t *testing.T, src Source, hs HaltSource, cache storage.SnapshotCache) (*Refresher, *pools.Repository, *network.Repository) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	poolRepo := pools.NewRepository()
	paramRepo := network.NewRepository(defaults(t))
	cfg := Config{
		Source:   src,
		Pools:    poolRepo,
		Params:   paramRepo,
		Defaults: defaults(t),
		Interval: 10 * time.Millisecond,
		Now:      func() time.Time { return fixedNow },
		Logger:   logger,
	}
	if hs != nil {
		cfg.Halts = hs
	}
	if cache != nil {
		cfg.Cache = cache
	}
	r, err := New(cfg)
	require.NoError(t, err)
	return r, poolRepo, paramRepo
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Source: &fakeSource{}, Pools: pools.NewRepository(), Params: network.NewRepository(nil), Defaults: defaults(t)})
	assert.Error(t, err, "interval required")
}

func TestRefresh_StoresMatchingGenerations(t *testing.T) {
	cache := &memCache{}
	r, poolRepo, paramRepo := newTestRefresher(t, &fakeSource{pools: nodePools()}, nil, cache)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx))
	snap := poolRepo.Snapshot()
	params := paramRepo.Parameters()
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, uint64(1), params.Generation)
	assert.Equal(t, fixedNow, snap.FetchedAt)
	assert.Equal(t, fixedNow, params.FetchedAt)
	assert.Equal(t, 4, snap.Len())
	assert.True(t, params.IsChainHalted(asset.ETHChain))

	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, uint64(2), poolRepo.Snapshot().Generation)
	assert.Equal(t, uint64(2), paramRepo.Parameters().Generation)
	assert.Equal(t, 2, cache.saves)
	assert.Equal(t, uint64(2), cache.snap.Generation)
}

func TestRefresh_KeepsLastKnownOnFailure(t *testing.T) {
	src := &fakeSource{pools: nodePools()}
	r, poolRepo, paramRepo := newTestRefresher(t, src, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx))
	before := poolRepo.Snapshot()
	beforeParams := paramRepo.Parameters()

	src.setFailing(errors.New("connection refused"))
	err := r.Refresh(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pools")

	assert.Same(t, before, poolRepo.Snapshot())
	assert.Same(t, beforeParams, paramRepo.Parameters())

	src.setFailing(nil)
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, uint64(2), poolRepo.Snapshot().Generation, "failed rounds don't consume a generation")
}

func TestRefresh_NoUsablePools(t *testing.T) {
	src := &fakeSource{pools: []thornode.Pool{{Asset: "bogus", Status: "Available"}}}
	r, poolRepo, _ := newTestRefresher(t, src, nil, nil)

	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, uint64(0), poolRepo.Snapshot().Generation)
}

func TestRefresh_AppliesHaltOverrides(t *testing.T) {
	hs := &fakeHalts{list: []*halts.Halt{
		{Key: "chain.ETH", Halted: false},
		{Key: "pool.BTC.BTC", Halted: true},
	}}
	r, _, paramRepo := newTestRefresher(t, &fakeSource{pools: nodePools()}, hs, nil)

	require.NoError(t, r.Refresh(context.Background()))
	params := paramRepo.Parameters()
	assert.False(t, params.IsChainHalted(asset.ETHChain), "operator reopened ETH")
	assert.True(t, params.IsChainHaltedForAsset(btc))
	assert.Equal(t, uint64(1), params.Generation)

	hs.err = errors.New("redis down")
	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, uint64(1), paramRepo.Parameters().Generation)
}

func TestWarmStart(t *testing.T) {
	cache := &memCache{}
	r1, _, _ := newTestRefresher(t, &fakeSource{pools: nodePools()}, nil, cache)
	require.NoError(t, r1.Refresh(context.Background()))
	require.NoError(t, r1.Refresh(context.Background()))

	r2, poolRepo, paramRepo := newTestRefresher(t, &fakeSource{pools: nodePools()}, nil, cache)
	require.NoError(t, r2.WarmStart(context.Background()))
	assert.Equal(t, uint64(2), poolRepo.Snapshot().Generation)
	assert.Equal(t, uint64(2), paramRepo.Parameters().Generation)

	// next live round continues the generation sequence
	require.NoError(t, r2.Refresh(context.Background()))
	assert.Equal(t, uint64(3), poolRepo.Snapshot().Generation)

	// an older cache entry never replaces newer data
	cache.snap = pools.NewSnapshot(1, fixedNow, nil)
	require.NoError(t, r2.WarmStart(context.Background()))
	assert.Equal(t, uint64(3), poolRepo.Snapshot().Generation)
}

func TestWarmStart_Miss(t *testing.T) {
	r, poolRepo, _ := newTestRefresher(t, &fakeSource{pools: nodePools()}, nil, &memCache{})
	require.NoError(t, r.WarmStart(context.Background()))
	assert.Equal(t, uint64(0), poolRepo.Snapshot().Generation)

	r, _, _ = newTestRefresher(t, &fakeSource{pools: nodePools()}, nil, nil)
	assert.NoError(t, r.WarmStart(context.Background()))
}

func TestStart_LoopsUntilCancelled(t *testing.T) {
	src := &fakeSource{pools: nodePools()}
	r, poolRepo, _ := newTestRefresher(t, src, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool { return src.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, r.Running())
	assert.Error(t, r.Start(ctx), "second Start is rejected")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
	assert.False(t, r.Running())
	assert.GreaterOrEqual(t, poolRepo.Snapshot().Generation, uint64(3))
}
