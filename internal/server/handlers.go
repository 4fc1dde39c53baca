package server

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"

	"github.com/enescakir/emoji"

	"github.com/changeling-games/changeling/internal/game"
	"github.com/changeling-games/changeling/internal/logging"
)

// defaultPortraits backs clients that join without choosing one.
var defaultPortraits = []string{
	emoji.Ghost.String(),
	emoji.Fire.String(),
	emoji.Alien.String(),
	emoji.Robot.String(),
	emoji.Unicorn.String(),
	emoji.Snail.String(),
}

func (s *Server) playerInfo(c *client, name, portrait string) game.PlayerInfo {
	if portrait == "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(c.playerID))
		portrait = defaultPortraits[h.Sum32()%uint32(len(defaultPortraits))]
	}
	return game.PlayerInfo{ID: c.playerID, Username: name, Portrait: portrait}
}

func (s *Server) handleHost(ctx context.Context, c *client, data json.RawMessage) error {
	if c.joined() {
		return c.send(EventError, errorPayload{ErrType: errTypeAlreadyJoined})
	}

	var req hostRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
		return c.send(EventError, errorPayload{ErrType: errTypeBadRequest})
	}

	info := s.playerInfo(c, req.Name, req.Portrait)
	roomID, err := s.manager.CreateRoom(ctx, info)
	if err != nil {
		return s.sendGameError(ctx, c, err)
	}

	c.roomID = roomID
	s.conns.Add(c)

	return c.send(EventAckHost, ackHostPayload{
		RoomID: roomID,
		PlayerState: game.PlayerState{
			ID:       info.ID,
			Username: info.Username,
			Portrait: info.Portrait,
			Role:     game.RoleUnassigned,
			Admin:    true,
			IsYou:    true,
		},
	})
}

func (s *Server) handleJoin(ctx context.Context, c *client, data json.RawMessage) error {
	if c.joined() {
		return c.send(EventError, errorPayload{ErrType: errTypeAlreadyJoined})
	}

	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Name == "" || req.RoomID == "" {
		return c.send(EventError, errorPayload{ErrType: errTypeBadRequest})
	}

	info := s.playerInfo(c, req.Name, req.Portrait)
	if err := s.manager.JoinRoom(ctx, req.RoomID, info); err != nil {
		return s.sendGameError(ctx, c, err)
	}

	c.roomID = req.RoomID
	s.conns.Add(c)

	if err := c.send(EventAckJoin, ackJoinPayload{RoomID: req.RoomID, PlayerID: c.playerID}); err != nil {
		return err
	}

	// announce everyone to the newcomer and the newcomer to everyone
	states, err := s.manager.PlayerStates(ctx, req.RoomID, c.playerID)
	if err != nil {
		return s.sendGameError(ctx, c, err)
	}
	for _, state := range states {
		if err := c.send(EventPlayerJoin, state); err != nil {
			return err
		}
		if state.ID == c.playerID {
			state.IsYou = false
			s.broadcast(ctx, req.RoomID, EventPlayerJoin, state, c.playerID)
		}
	}

	return nil
}

func (s *Server) handleStart(ctx context.Context, c *client) error {
	if !c.joined() {
		return c.send(EventError, errorPayload{ErrType: errTypeRoomNotFound})
	}

	if _, err := s.manager.StartGame(ctx, c.roomID); err != nil {
		return s.sendGameError(ctx, c, err)
	}

	// each player gets their own projection; only the changeling learns
	// the true roles
	for _, peer := range s.conns.Clients(c.roomID) {
		states, err := s.manager.PlayerStates(ctx, c.roomID, peer.playerID)
		if err != nil {
			return s.sendGameError(ctx, c, err)
		}
		if err := peer.send(EventGameStarted, gameStartedPayload{Players: states}); err != nil {
			logging.FromContext(ctx).Named("server").Debugf("send to %s: %v", peer.playerID, err)
		}
	}

	return nil
}

func (s *Server) handleAdvance(ctx context.Context, c *client) error {
	if !c.joined() {
		return c.send(EventError, errorPayload{ErrType: errTypeRoomNotFound})
	}

	state, err := s.manager.AdvanceTurn(ctx, c.roomID, c.playerID)
	if err != nil {
		return s.sendGameError(ctx, c, err)
	}

	return s.broadcastTurn(ctx, c, state)
}

func (s *Server) handleVote(ctx context.Context, c *client, data json.RawMessage) error {
	if !c.joined() {
		return c.send(EventError, errorPayload{ErrType: errTypeRoomNotFound})
	}

	var req voteRequest
	if err := json.Unmarshal(data, &req); err != nil || req.TargetID == "" {
		return c.send(EventError, errorPayload{ErrType: errTypeBadRequest})
	}

	state, err := s.manager.CastVote(ctx, c.roomID, c.playerID, req.TargetID)
	if err != nil {
		return s.sendGameError(ctx, c, err)
	}

	if state == game.StateBurnCamper {
		snapshot, err := s.manager.GameSnapshot(ctx, c.roomID)
		if err != nil {
			return s.sendGameError(ctx, c, err)
		}
		s.broadcast(ctx, c.roomID, EventVoteState, snapshot)
		return nil
	}

	// the ballot resolved the election
	return s.broadcastTurn(ctx, c, state)
}

func (s *Server) broadcastTurn(ctx context.Context, c *client, state game.TurnState) error {
	snapshot, err := s.manager.GameSnapshot(ctx, c.roomID)
	if err != nil {
		return s.sendGameError(ctx, c, err)
	}

	s.broadcast(ctx, c.roomID, EventTurn, snapshot)
	if state.Terminal() {
		s.broadcast(ctx, c.roomID, EventGameOver, snapshot)
	}

	return nil
}

// sendGameError maps a game error onto the wire taxonomy. Unmapped errors
// are internal and get logged with their cause.
func (s *Server) sendGameError(ctx context.Context, c *client, err error) error {
	var errType string
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		errType = errTypeRoomNotFound
	case errors.Is(err, game.ErrRoomFull):
		errType = errTypeUserLimit
	case errors.Is(err, game.ErrNotTurnOwner):
		errType = errTypeNotTurnOwner
	case errors.Is(err, game.ErrNoActiveVote), errors.Is(err, game.ErrVoteInProgress):
		errType = errTypeNoActiveVote
	case errors.Is(err, game.ErrGameStarted), errors.Is(err, game.ErrGameNotStarted), errors.Is(err, game.ErrNoPlayers),
		errors.Is(err, game.ErrAlreadyVoted), errors.Is(err, game.ErrInvalidBallot):
		errType = errTypeBadRequest
	default:
		logging.FromContext(ctx).Named("server").Errorf("internal: %v", err)
		errType = errTypeInternal
	}

	return c.send(EventError, errorPayload{ErrType: errType})
}
