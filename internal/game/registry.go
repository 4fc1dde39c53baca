package game

import (
	"context"

	"github.com/changeling-games/changeling/internal/store"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "0123456789ABCDEF"
)

// Registry mints collision-checked room identifiers. Generation is
// check-then-create: two hosts sampling the same id at the same instant is
// possible but the id space makes it practically irrelevant.
type Registry struct {
	store store.Store
	rng   *RNG
}

func NewRegistry(s store.Store, rng *RNG) *Registry {
	return &Registry{store: s, rng: rng}
}

// GenerateRoomID samples short ids until one is free. No retry bound:
// exhaustion of a 16^6 space by live rooms is not a case worth handling.
func (r *Registry) GenerateRoomID(ctx context.Context) (string, error) {
	for {
		id := r.sample()
		exists, err := r.store.Exists(ctx, TypeRoom, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

func (r *Registry) RoomExists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, TypeRoom, id)
}

func (r *Registry) sample() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[r.rng.Uint32n(uint32(len(roomIDAlphabet)))]
	}
	return string(b)
}
