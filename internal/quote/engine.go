package quote

import (
	"errors"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/metrics"
	"github.com/aman-zulfiqar/thorchain-quote/internal/network"
	"github.com/aman-zulfiqar/thorchain-quote/internal/pools"
)

// PoolSource yields the current pool snapshot; *pools.Repository implements it
type PoolSource interface {
	Snapshot() *pools.Snapshot
}

// ParamSource yields the current parameters; *network.Repository implements it
type ParamSource interface {
	Parameters() *network.Parameters
}

// ErrSnapshotMismatch means the pool and parameter snapshots kept
// disagreeing on their generation while a refresh was landing.
var ErrSnapshotMismatch = errors.New("pool and parameter snapshots are from different refreshes")

// snapshotReads bounds how often EstimateSwap re-reads a mismatched pair
const snapshotReads = 16

// Engine binds Estimate to live repositories
type Engine struct {
	pools   PoolSource
	params  ParamSource
	cfg     Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

type EngineConfig struct {
	Pools   PoolSource
	Params  ParamSource
	Quote   Config
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Quote.Now == nil {
		cfg.Quote.Now = time.Now
	}
	return &Engine{
		pools:   cfg.Pools,
		params:  cfg.Params,
		cfg:     cfg.Quote,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// EstimateSwap prices req against one pool snapshot and the parameters of
// the same refresh generation
func (e *Engine) EstimateSwap(req Request) (*Quote, error) {
	start := time.Now()
	snap, params, err := e.snapshots()
	if err != nil {
		e.metrics.ObserveQuote("none", "error", time.Since(start))
		e.logger.WithError(err).Warn("quote skipped")
		return nil, err
	}

	q, err := Estimate(snap, params, e.cfg, req)

	fields := logrus.Fields{
		"input":       req.Input.String(),
		"destination": req.DestinationAsset.String(),
		"pool_gen":    snap.Generation,
		"params_gen":  params.Generation,
	}
	if err != nil {
		outcome := "error"
		if rej, ok := AsRejection(err); ok {
			outcome = string(rej.Kind)
		}
		e.metrics.ObserveQuote("none", outcome, time.Since(start))
		e.logger.WithFields(fields).WithError(err).Debug("quote rejected")
		return nil, err
	}

	e.metrics.ObserveQuote(string(q.Route.Kind), q.Outcome(), time.Since(start))
	e.logger.WithFields(fields).WithFields(logrus.Fields{
		"route":    q.Route.String(),
		"net":      q.NetOutput.String(),
		"slip":     q.Slip.String(),
		"can_swap": q.CanSwap,
	}).Debug("quote computed")
	return q, nil
}

// snapshots loads a pool snapshot and parameters with equal generations.
// A refresh stores parameters then pools, so a mismatch clears as soon as
// the second store lands.
func (e *Engine) snapshots() (*pools.Snapshot, *network.Parameters, error) {
	for i := 0; i < snapshotReads; i++ {
		params := e.params.Parameters()
		snap := e.pools.Snapshot()
		if snap == nil || params == nil || snap.Generation == params.Generation {
			return snap, params, nil
		}
		runtime.Gosched()
	}
	return nil, nil, ErrSnapshotMismatch
}

// Config returns the engine's quote settings
func (e *Engine) Config() Config {
	return e.cfg
}
