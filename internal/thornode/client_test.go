package thornode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string, retries int) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(ClientConfig{
		BaseURL:      url,
		ClientID:     "test-suite",
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
		Logger:       logger,
	})
}

func TestClient_Endpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/thorchain/pools", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-suite", r.Header.Get("x-client-id"))
		_, _ = io.WriteString(w, `[{"asset":"BTC.BTC","status":"Available","balance_asset":"100000000","balance_rune":"2000000000000"},
			{"asset":"ETH.USDC-0XA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48","status":"Staged","decimals":6,"balance_asset":"1","balance_rune":"2"}]`)
	})
	mux.HandleFunc("/thorchain/inbound_addresses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"chain":"BTC","address":"bc1q","halted":false,"chain_trading_paused":true,"gas_rate":"12","outbound_fee":"30000"}]`)
	})
	mux.HandleFunc("/thorchain/mimir", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"HALTBTCCHAIN":0,"TXOUTDELAYRATE":2500000000,"MAXTXOUTOFFSET":-1}`)
	})
	mux.HandleFunc("/thorchain/queue/outbound", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"chain":"BTC","to_address":"bc1q","coin":{"asset":"BTC.BTC","amount":"5000"}}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL+"/", 0)
	ctx := context.Background()

	pools, err := c.Pools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, "BTC.BTC", pools[0].Asset)
	assert.Equal(t, int64(6), pools[1].Decimals)

	inbound, err := c.InboundAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	assert.True(t, inbound[0].ChainTradingPaused)
	assert.Equal(t, "12", inbound[0].GasRate)

	mimir, err := c.Mimir(ctx)
	require.NoError(t, err)
	v, ok := mimir.Get("TXOUTDELAYRATE")
	assert.True(t, ok)
	assert.Equal(t, int64(2500000000), v)
	_, ok = mimir.Get("MAXTXOUTOFFSET")
	assert.False(t, ok, "negative mimir values are unset")

	queue, err := c.OutboundQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "5000", queue[0].Coin.Amount)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	pools, err := testClient(srv.URL, 3).Pools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pools)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Mimir(context.Background())
	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).InboundAddresses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 0).Pools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL, 5).OutboundQueue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
