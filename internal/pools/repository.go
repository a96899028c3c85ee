package pools

import (
	"sync/atomic"
	"time"

	"github.com/aman-zulfiqar/thorchain-quote/internal/asset"
)

// Repository holds the latest pool snapshot. Reads never block; before the
// first Store they see an empty generation-0 snapshot.
type Repository struct {
	current atomic.Pointer[Snapshot]
}

func NewRepository() *Repository {
	r := &Repository{}
	r.current.Store(NewSnapshot(0, time.Time{}, nil))
	return r
}

// Snapshot returns the current snapshot
func (r *Repository) Snapshot() *Snapshot {
	return r.current.Load()
}

// Store replaces the snapshot wholesale
func (r *Repository) Store(s *Snapshot) {
	if s == nil {
		return
	}
	r.current.Store(s)
}

// GetPools returns all pools of the current snapshot
func (r *Repository) GetPools() []Pool {
	return r.Snapshot().Pools()
}

// GetPool returns one pool of the current snapshot or ErrPoolNotFound
func (r *Repository) GetPool(a asset.Asset) (Pool, error) {
	return r.Snapshot().Pool(a)
}
