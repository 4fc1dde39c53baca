package game

import (
	"context"

	"github.com/changeling-games/changeling/internal/store"
)

const TypePlayer = "player"

const (
	fieldUsername = "username"
	fieldPortrait = "portrait"
	fieldRole     = "role"
)

// Player is one participant. Identity is immutable after creation; the role
// moves only through the room's state machine.
type Player struct {
	entity
}

func NewPlayer(s store.Store, id string) *Player {
	return &Player{entity: newEntity(s, TypePlayer, id)}
}

func CreatePlayer(ctx context.Context, s store.Store, id, username, portrait string) (*Player, error) {
	p := NewPlayer(s, id)
	if err := p.ensure(ctx, map[string]string{
		fieldUsername: username,
		fieldPortrait: portrait,
		fieldRole:     string(RoleUnassigned),
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Player) Username(ctx context.Context) (string, error) {
	return p.field(ctx, fieldUsername)
}

func (p *Player) Portrait(ctx context.Context) (string, error) {
	return p.field(ctx, fieldPortrait)
}

func (p *Player) Role(ctx context.Context) (Role, error) {
	raw, err := p.field(ctx, fieldRole)
	if err != nil {
		return "", err
	}
	return ParseRole(raw)
}

func (p *Player) SetRole(ctx context.Context, role Role) error {
	return p.setField(ctx, fieldRole, string(role))
}
