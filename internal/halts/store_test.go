package halts

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStore_UpsertGetDelete(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	h, err := store.Upsert(ctx, "chain.BTC", true, "node upgrade")
	require.NoError(t, err)
	assert.Equal(t, "chain.BTC", h.Key)
	assert.True(t, h.Halted)
	assert.NotZero(t, h.UpdatedAt)

	got, err := store.Get(ctx, "chain.BTC")
	require.NoError(t, err)
	assert.Equal(t, "node upgrade", got.Reason)
	assert.True(t, got.UpdatedAt.Equal(h.UpdatedAt))

	time.Sleep(time.Millisecond)
	h2, err := store.Upsert(ctx, "chain.BTC", false, "")
	require.NoError(t, err)
	assert.True(t, h2.UpdatedAt.After(h.UpdatedAt))

	require.NoError(t, store.Delete(ctx, "chain.BTC"))
	_, err = store.Get(ctx, "chain.BTC")
	assert.Equal(t, ErrNotFound, err)

	assert.NoError(t, store.Delete(ctx, "chain.ETH"))
}

func TestStore_List(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i, key := range []string{"trading.ETH", "global", "pool.BTC.BTC"} {
		_, err := store.Upsert(ctx, key, i%2 == 0, fmt.Sprintf("reason %d", i))
		require.NoError(t, err)
	}

	list, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "global", list[0].Key)
	assert.False(t, list[0].Halted)
	assert.Equal(t, "pool.BTC.BTC", list[1].Key)
	assert.Equal(t, "trading.ETH", list[2].Key)
}

func TestStore_InvalidKeys(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "chain:BTC", "pool.THOR.RUNE", "weather.BTC"} {
		_, err := store.Upsert(ctx, key, true, "")
		assert.Error(t, err, "key %q should be rejected", key)
	}
}

func TestStore_CanonicalKeys(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	h, err := store.Upsert(ctx, "chain.btc", true, "  reorg  ")
	require.NoError(t, err)
	assert.Equal(t, "chain.BTC", h.Key)
	assert.Equal(t, ScopeChain, h.Scope)
	assert.Equal(t, "reorg", h.Reason)

	_, err = store.Upsert(ctx, "chain.BTC", false, "")
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Halted)

	got, err := store.Get(ctx, "chain.Btc")
	require.NoError(t, err)
	assert.Equal(t, "chain.BTC", got.Key)

	require.NoError(t, store.Delete(ctx, "chain.btc"))
	_, err = store.Get(ctx, "chain.BTC")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListScope(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"chain.ETH", "trading.ETH", "chain.BTC", "pool.ETH.ETH"} {
		_, err := store.Upsert(ctx, key, true, "")
		require.NoError(t, err)
	}

	chains, err := store.ListScope(ctx, ScopeChain)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "chain.BTC", chains[0].Key)
	assert.Equal(t, "chain.ETH", chains[1].Key)

	global, err := store.ListScope(ctx, ScopeGlobal)
	require.NoError(t, err)
	assert.Empty(t, global)

	_, err = store.ListScope(ctx, Scope("weather"))
	assert.Error(t, err)
}

func TestStore_InvalidReason(t *testing.T) {
	store, err := NewStore(setupTestRedis(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upsert(ctx, "global", true, strings.Repeat("x", MaxReasonLen+1))
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = store.Upsert(ctx, "global", true, "line\nbreak")
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = store.Get(ctx, "global")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTarget_Key(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"global", "global"},
		{"chain.btc", "chain.BTC"},
		{"trading.Eth", "trading.ETH"},
		{"pool.BTC/BTC", "pool.BTC.BTC"},
	}
	for _, tt := range tests {
		target, err := ParseKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, target.Key(), tt.in)

		again, err := ParseKey(target.Key())
		require.NoError(t, err)
		assert.Equal(t, target, again)
	}
}

func TestParseScope(t *testing.T) {
	sc, err := ParseScope(" Pool ")
	require.NoError(t, err)
	assert.Equal(t, ScopePool, sc)

	_, err = ParseScope("")
	assert.Error(t, err)
}
