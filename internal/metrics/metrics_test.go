package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_IsShared(t *testing.T) {
	a := Get()
	b := Get()
	require.NotNil(t, a)
	assert.Same(t, a, b)
}

func TestObserveQuote(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.quotes.WithLabelValues("double", "ok"))
	m.ObserveQuote("double", "ok", time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(m.quotes.WithLabelValues("double", "ok")))

	m.ObserveQuote("", "", 0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.quotes.WithLabelValues("none", "unknown")), 1.0)
}

func TestObserveRefresh(t *testing.T) {
	m := Get()
	errBefore := testutil.ToFloat64(m.refreshes.WithLabelValues("error"))
	m.ObserveRefresh(errors.New("boom"), 0, 0, time.Time{})
	assert.Equal(t, errBefore+1, testutil.ToFloat64(m.refreshes.WithLabelValues("error")))

	now := time.Unix(1700000000, 0)
	m.ObserveRefresh(nil, 7, 42, now)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.poolGeneration))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.poolsLoaded))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.snapshotAge))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveQuote("single", "ok", time.Second)
	m.ObserveRefresh(nil, 1, 1, time.Now())
	m.PublishFailed()
}
