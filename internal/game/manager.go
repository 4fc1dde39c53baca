package game

import (
	"context"

	"github.com/changeling-games/changeling/internal/cache"
	"github.com/changeling-games/changeling/internal/logging"
	"github.com/changeling-games/changeling/internal/store"
)

// Config carries the deployment knobs the manager needs. Capacity is a
// configuration value, never a constant in here.
type Config struct {
	MaxPlayersPerRoom int
	TurnLimit         int
	SpecialRoundEvery int
	SpecialRound      SpecialRoundPolicy
}

// PlayerInfo is what the transport knows about a joining participant.
type PlayerInfo struct {
	ID       string
	Username string
	Portrait string
}

type displayInfo struct {
	username string
	portrait string
}

// Manager is the surface the transport layer talks to. It owns no state of
// its own: every operation builds fresh entity handles over the shared
// store, so any instance on any process sees the same rooms.
type Manager struct {
	store    store.Store
	config   Config
	registry *Registry
	rng      *RNG

	// display caches username/portrait pairs, which are immutable after
	// player creation. Roles and lists are never cached here.
	display cache.Cache
}

func NewManager(s store.Store, config Config, rng *RNG, display cache.Cache) *Manager {
	return &Manager{
		store:    s,
		config:   config,
		registry: NewRegistry(s, rng),
		rng:      rng,
		display:  display,
	}
}

func (m *Manager) rules() Rules {
	return Rules{
		TurnLimit:         m.config.TurnLimit,
		SpecialRoundEvery: m.config.SpecialRoundEvery,
		SpecialRound:      m.config.SpecialRound,
	}
}

// room builds a handle for an existing room or reports ErrRoomNotFound.
func (m *Manager) room(ctx context.Context, roomID string) (*Room, error) {
	exists, err := m.registry.RoomExists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	return NewRoom(m.store, roomID, m.rules()), nil
}

// CreateRoom mints a room with the admin as its first player.
func (m *Manager) CreateRoom(ctx context.Context, admin PlayerInfo) (string, error) {
	logger := logging.FromContext(ctx).Named("game.manager")

	roomID, err := m.registry.GenerateRoomID(ctx)
	if err != nil {
		return "", err
	}

	if _, err := CreatePlayer(ctx, m.store, admin.ID, admin.Username, admin.Portrait); err != nil {
		return "", err
	}

	room, err := CreateRoom(ctx, m.store, roomID, admin.ID, m.rules())
	if err != nil {
		return "", err
	}
	if err := room.AddUser(ctx, admin.ID); err != nil {
		return "", err
	}

	logger.Infof("room %s created by %s", roomID, admin.ID)
	return roomID, nil
}

// JoinRoom appends a player to a room. Capacity is checked before any
// mutating call; a rejected join writes nothing.
func (m *Manager) JoinRoom(ctx context.Context, roomID string, info PlayerInfo) error {
	logger := logging.FromContext(ctx).Named("game.manager")

	room, err := m.room(ctx, roomID)
	if err != nil {
		return err
	}

	users, err := room.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) >= m.config.MaxPlayersPerRoom {
		return ErrRoomFull
	}

	if _, err := CreatePlayer(ctx, m.store, info.ID, info.Username, info.Portrait); err != nil {
		return err
	}
	if err := room.AddUser(ctx, info.ID); err != nil {
		return err
	}

	logger.Infof("player %s joined room %s", info.ID, roomID)
	return nil
}

// StartGame assigns roles and moves the room out of the lobby. Returns the
// id of the player who became the changeling.
func (m *Manager) StartGame(ctx context.Context, roomID string) (string, error) {
	logger := logging.FromContext(ctx).Named("game.manager")

	room, err := m.room(ctx, roomID)
	if err != nil {
		return "", err
	}

	changelingID, err := room.AssignRoles(ctx, m.rng)
	if err != nil {
		return "", err
	}

	logger.Infof("room %s started", roomID)
	return changelingID, nil
}

// AdvanceTurn resolves the next turn on behalf of the requester. Ownership
// is checked before anything mutates.
func (m *Manager) AdvanceTurn(ctx context.Context, roomID, requesterID string) (TurnState, error) {
	room, err := m.room(ctx, roomID)
	if err != nil {
		return 0, err
	}

	owner, err := room.TurnOwner(ctx)
	if err != nil {
		return 0, err
	}
	if owner != requesterID {
		return 0, ErrNotTurnOwner
	}

	return room.AdvanceTurn(ctx, m.rng)
}

// CastVote records one ballot and returns the room state after it, which is
// past the election when this ballot was the last one.
func (m *Manager) CastVote(ctx context.Context, roomID, voterID, targetID string) (TurnState, error) {
	logger := logging.FromContext(ctx).Named("game.manager")

	room, err := m.room(ctx, roomID)
	if err != nil {
		return 0, err
	}

	state, err := room.CastVote(ctx, voterID, targetID)
	if err != nil {
		return state, err
	}

	logger.Debugf("vote by %s for %s in room %s, state now %s", voterID, targetID, roomID, state)
	return state, nil
}

// GameSnapshot assembles the full broadcast view of a room, with roles
// masked (the snapshot goes to everyone).
func (m *Manager) GameSnapshot(ctx context.Context, roomID string) (*GameSnapshot, error) {
	room, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	turn, err := room.Turn(ctx)
	if err != nil {
		return nil, err
	}
	realTurn, err := room.RealTurn(ctx)
	if err != nil {
		return nil, err
	}
	state, err := room.TurnState(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := room.TurnOwner(ctx)
	if err != nil {
		return nil, err
	}
	voted, err := room.UsersVoted(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &GameSnapshot{
		RoomID:     roomID,
		Turn:       turn,
		RealTurn:   realTurn,
		TurnState:  state,
		TurnOwner:  owner,
		UsersVoted: voted,
	}

	if state == StateBurnCamper {
		votes, err := room.Votes(ctx)
		if err != nil {
			return nil, err
		}
		snapshot.Votes = votes
	}

	players, err := m.PlayerStates(ctx, roomID, "")
	if err != nil {
		return nil, err
	}
	snapshot.Players = players

	return snapshot, nil
}

// PlayerStates projects the player list for one viewer. Changelings see
// true roles; everyone else sees changelings as campers.
func (m *Manager) PlayerStates(ctx context.Context, roomID, viewerID string) ([]PlayerState, error) {
	room, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	adminID, err := room.AdminID(ctx)
	if err != nil {
		return nil, err
	}

	changelings, err := room.Changelings(ctx)
	if err != nil {
		return nil, err
	}
	reveal := false
	for _, id := range changelings {
		if id == viewerID {
			reveal = true
			break
		}
	}

	users, err := room.Users(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]PlayerState, 0, len(users))
	for _, id := range users {
		display, err := m.displayInfo(ctx, id)
		if err != nil {
			return nil, err
		}

		role, err := NewPlayer(m.store, id).Role(ctx)
		if err != nil {
			return nil, err
		}

		states = append(states, PlayerState{
			ID:       id,
			Username: display.username,
			Portrait: display.portrait,
			Role:     role.Masked(reveal),
			Admin:    id == adminID,
			IsYou:    id == viewerID,
		})
	}

	return states, nil
}

func (m *Manager) displayInfo(ctx context.Context, playerID string) (displayInfo, error) {
	key := store.Key(TypePlayer, playerID)
	if m.display != nil {
		if v, ok := m.display.Get(key); ok {
			return v.(displayInfo), nil
		}
	}

	player := NewPlayer(m.store, playerID)
	username, err := player.Username(ctx)
	if err != nil {
		return displayInfo{}, err
	}
	portrait, err := player.Portrait(ctx)
	if err != nil {
		return displayInfo{}, err
	}

	info := displayInfo{username: username, portrait: portrait}
	if m.display != nil {
		m.display.Add(key, info)
	}

	return info, nil
}
