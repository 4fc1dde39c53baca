package game

import (
	"sync"

	"github.com/valyala/fastrand"
)

// RNG is the random source behind role assignment and room-id sampling.
// It is injected rather than global so tests can seed it.
type RNG struct {
	mtx sync.Mutex
	rng fastrand.RNG
}

func NewRNG() *RNG {
	return &RNG{}
}

func NewSeededRNG(seed uint32) *RNG {
	r := &RNG{}
	r.rng.Seed(seed)
	return r
}

func (r *RNG) Uint32n(maxN uint32) uint32 {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.rng.Uint32n(maxN)
}
