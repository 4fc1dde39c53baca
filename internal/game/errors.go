package game

import "fmt"

var (
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrRoomFull       = fmt.Errorf("room is full")
	ErrNotTurnOwner   = fmt.Errorf("requester does not hold the turn")
	ErrGameStarted    = fmt.Errorf("game already started")
	ErrGameNotStarted = fmt.Errorf("game not started")
	ErrNoActiveVote   = fmt.Errorf("no election in progress")
	ErrVoteInProgress = fmt.Errorf("election in progress")
	ErrAlreadyVoted   = fmt.Errorf("player already voted this round")
	ErrInvalidBallot  = fmt.Errorf("ballot names a player outside the round")
	ErrNoPlayers      = fmt.Errorf("room has no players")
)
