package game

import (
	"fmt"
	"strconv"
)

// Role is a player's character state. Persisted by its string tag.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleChangeling Role = "changeling"
	RoleCamper     Role = "camper"
	RoleDead       Role = "dead"
)

func ParseRole(tag string) (Role, error) {
	switch Role(tag) {
	case RoleUnassigned, RoleChangeling, RoleCamper, RoleDead:
		return Role(tag), nil
	}
	return "", fmt.Errorf("unknown role tag %q", tag)
}

// Masked returns the role as a given viewer sees it: the changeling role is
// hidden behind camper unless the viewer is allowed to see true roles.
func (r Role) Masked(reveal bool) Role {
	if !reveal && r == RoleChangeling {
		return RoleCamper
	}
	return r
}

// TurnState is the room's position in the turn machine. Persisted by its
// integer tag; the numbering has a gap at 3 kept for client compatibility.
type TurnState int

const (
	StateLobby             TurnState = 0
	StateNormal            TurnState = 1
	StateCampfireOut       TurnState = 2
	StateBurnCamper        TurnState = 4
	StateCamperVictory     TurnState = 5
	StateChangelingVictory TurnState = 6
)

func ParseTurnState(tag string) (TurnState, error) {
	n, err := strconv.Atoi(tag)
	if err != nil {
		return 0, fmt.Errorf("turn state tag %q: %w", tag, err)
	}
	s := TurnState(n)
	switch s {
	case StateLobby, StateNormal, StateCampfireOut, StateBurnCamper, StateCamperVictory, StateChangelingVictory:
		return s, nil
	}
	return 0, fmt.Errorf("unknown turn state tag %q", tag)
}

func (s TurnState) Tag() string {
	return strconv.Itoa(int(s))
}

// Terminal reports whether the game is over; terminal rooms accept no
// further transitions.
func (s TurnState) Terminal() bool {
	return s == StateCamperVictory || s == StateChangelingVictory
}

func (s TurnState) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateNormal:
		return "normal"
	case StateCampfireOut:
		return "campfire_out"
	case StateBurnCamper:
		return "burn_camper"
	case StateCamperVictory:
		return "camper_victory"
	case StateChangelingVictory:
		return "changeling_victory"
	}
	return "unknown"
}
