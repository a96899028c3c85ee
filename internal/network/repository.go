package network

import (
	"sync/atomic"
)

// Repository holds the latest Parameters. Reads never block and always see
// a complete value: the defaults until the first refresh lands.
type Repository struct {
	current atomic.Pointer[Parameters]
}

func NewRepository(initial *Parameters) *Repository {
	r := &Repository{}
	if initial == nil {
		initial = &Parameters{}
	}
	r.current.Store(initial)
	return r
}

// Parameters returns the current snapshot
func (r *Repository) Parameters() *Parameters {
	return r.current.Load()
}

// Store replaces the snapshot wholesale; nil is ignored
func (r *Repository) Store(p *Parameters) {
	if p == nil {
		return
	}
	r.current.Store(p)
}
