package game

// PlayerState is the viewer-facing projection of one player. Field names
// follow the client protocol of the original deployment.
type PlayerState struct {
	ID       string `json:"user_id"`
	Username string `json:"name"`
	Portrait string `json:"portraitName"`
	Role     Role   `json:"playerRole"`
	Admin    bool   `json:"admin"`
	IsYou    bool   `json:"is_you"`
}

// GameSnapshot is the broadcastable view of a room.
type GameSnapshot struct {
	RoomID     string         `json:"room_id"`
	Turn       int            `json:"turn"`
	RealTurn   int            `json:"real_turn"`
	TurnState  TurnState      `json:"turn_state"`
	TurnOwner  string         `json:"turn_owner"`
	UsersVoted int            `json:"users_voted"`
	Votes      map[string]int `json:"votes,omitempty"`
	Players    []PlayerState  `json:"players"`
}
