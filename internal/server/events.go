package server

import (
	"encoding/json"

	"github.com/changeling-games/changeling/internal/game"
)

// Event names follow the protocol of the original client.
const (
	EventHostGame    = "req_host_game"
	EventJoinGame    = "req_join_game"
	EventStartGame   = "req_start_game"
	EventAdvanceTurn = "req_advance_turn"
	EventCastVote    = "req_cast_vote"

	EventAckHost     = "resp_ack_host"
	EventAckJoin     = "resp_ack_join"
	EventPlayerJoin  = "resp_player_join"
	EventGameStarted = "resp_game_started"
	EventTurn        = "resp_turn"
	EventVoteState   = "resp_vote_state"
	EventGameOver    = "resp_game_over"
	EventError       = "error_occured"
)

const (
	errTypeAlreadyJoined = "err_already_joined"
	errTypeRoomNotFound  = "err_room_not_found"
	errTypeUserLimit     = "err_user_limit"
	errTypeNotTurnOwner  = "err_not_turn_owner"
	errTypeNoActiveVote  = "err_no_active_vote"
	errTypeBadRequest    = "err_bad_request"
	errTypeInternal      = "err_internal"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type hostRequest struct {
	Name     string `json:"name"`
	Portrait string `json:"portrait"`
}

type joinRequest struct {
	Name     string `json:"name"`
	Portrait string `json:"portrait"`
	RoomID   string `json:"roomID"`
}

type voteRequest struct {
	TargetID string `json:"target_id"`
}

type errorPayload struct {
	ErrType string `json:"err_type"`
}

type ackHostPayload struct {
	RoomID string `json:"room_id"`
	game.PlayerState
}

type ackJoinPayload struct {
	RoomID   string `json:"roomID"`
	PlayerID string `json:"user_id"`
}

type gameStartedPayload struct {
	Players []game.PlayerState `json:"players"`
}
