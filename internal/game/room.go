package game

import (
	"context"
	"strconv"

	"github.com/changeling-games/changeling/internal/store"
)

const TypeRoom = "room"

const (
	fieldAdmin          = "admin"
	fieldTurn           = "turn"
	fieldRealTurn       = "real_turn"
	fieldTurnOwnerIndex = "turn_owner_index"
	fieldTurnState      = "turn_state"
	fieldUsersVoted     = "users_voted"

	listUsers       = "users"
	listChangelings = "changelings"

	subVotes  = "user_votes"
	subVoters = "voted_users"
)

// SpecialRoundPolicy picks the outcome of a special round. The shipped
// policy always opens an election; custom policies may roll for
// StateCampfireOut or skip the round by returning StateNormal.
type SpecialRoundPolicy func(rng *RNG) TurnState

func AlwaysBurnCamper(*RNG) TurnState {
	return StateBurnCamper
}

// Rules are the per-deployment knobs of the turn machine.
type Rules struct {
	// TurnLimit is the day count after which the campers win outright.
	TurnLimit int

	// SpecialRoundEvery triggers a special round whenever a non-zero turn
	// is a multiple of it.
	SpecialRoundEvery int

	SpecialRound SpecialRoundPolicy
}

func (r Rules) withDefaults() Rules {
	if r.TurnLimit == 0 {
		r.TurnLimit = 40
	}
	if r.SpecialRoundEvery == 0 {
		r.SpecialRoundEvery = 5
	}
	if r.SpecialRound == nil {
		r.SpecialRound = AlwaysBurnCamper
	}
	return r
}

// Room is one game session: the ordered player list, the changeling list,
// the turn counters and the turn machine that ties them together. All state
// lives in the attribute store; a Room handle is built per operation.
type Room struct {
	entity
	rules Rules
}

func NewRoom(s store.Store, id string, rules Rules) *Room {
	return &Room{entity: newEntity(s, TypeRoom, id), rules: rules.withDefaults()}
}

func CreateRoom(ctx context.Context, s store.Store, id, adminID string, rules Rules) (*Room, error) {
	r := NewRoom(s, id, rules)
	if err := r.ensure(ctx, map[string]string{
		fieldAdmin:          adminID,
		fieldTurn:           "0",
		fieldRealTurn:       "0",
		fieldTurnOwnerIndex: "0",
		fieldTurnState:      StateLobby.Tag(),
		fieldUsersVoted:     "0",
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Room) AdminID(ctx context.Context) (string, error) {
	return r.field(ctx, fieldAdmin)
}

func (r *Room) Turn(ctx context.Context) (int, error) {
	return r.intField(ctx, fieldTurn)
}

func (r *Room) RealTurn(ctx context.Context) (int, error) {
	return r.intField(ctx, fieldRealTurn)
}

func (r *Room) TurnOwnerIndex(ctx context.Context) (int, error) {
	return r.intField(ctx, fieldTurnOwnerIndex)
}

func (r *Room) TurnState(ctx context.Context) (TurnState, error) {
	raw, err := r.field(ctx, fieldTurnState)
	if err != nil {
		return 0, err
	}
	return ParseTurnState(raw)
}

func (r *Room) setTurnState(ctx context.Context, state TurnState) error {
	return r.setField(ctx, fieldTurnState, state.Tag())
}

func (r *Room) UsersVoted(ctx context.Context) (int, error) {
	return r.intField(ctx, fieldUsersVoted)
}

func (r *Room) Users(ctx context.Context) ([]string, error) {
	return r.list(ctx, listUsers)
}

func (r *Room) Changelings(ctx context.Context) ([]string, error) {
	return r.list(ctx, listChangelings)
}

func (r *Room) AddUser(ctx context.Context, playerID string) error {
	return r.appendList(ctx, listUsers, playerID)
}

func (r *Room) player(id string) *Player {
	return NewPlayer(r.store, id)
}

// TurnOwner resolves the player currently privileged to advance the game.
// The index is taken modulo the live list length on every call, so an index
// left pointing past a shrunk list still lands on a player.
func (r *Room) TurnOwner(ctx context.Context) (string, error) {
	users, err := r.Users(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", ErrNoPlayers
	}

	idx, err := r.TurnOwnerIndex(ctx)
	if err != nil {
		return "", err
	}

	return users[idx%len(users)], nil
}

// LivingPlayers filters the user list down to players whose role is not dead.
func (r *Room) LivingPlayers(ctx context.Context) ([]string, error) {
	users, err := r.Users(ctx)
	if err != nil {
		return nil, err
	}

	living := make([]string, 0, len(users))
	for _, id := range users {
		role, err := r.player(id).Role(ctx)
		if err != nil {
			return nil, err
		}
		if role != RoleDead {
			living = append(living, id)
		}
	}

	return living, nil
}

// AssignRoles runs once at game start: every player becomes a camper, then
// one player picked uniformly over the current user list is promoted to
// changeling. Returns the changeling's id.
func (r *Room) AssignRoles(ctx context.Context, rng *RNG) (string, error) {
	state, err := r.TurnState(ctx)
	if err != nil {
		return "", err
	}
	if state != StateLobby {
		return "", ErrGameStarted
	}

	users, err := r.Users(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", ErrNoPlayers
	}

	for _, id := range users {
		if err := r.player(id).SetRole(ctx, RoleCamper); err != nil {
			return "", err
		}
	}

	changelingID := users[rng.Uint32n(uint32(len(users)))]
	if err := r.player(changelingID).SetRole(ctx, RoleChangeling); err != nil {
		return "", err
	}
	if err := r.appendList(ctx, listChangelings, changelingID); err != nil {
		return "", err
	}

	if err := r.setTurnState(ctx, StateNormal); err != nil {
		return "", err
	}

	return changelingID, nil
}

// AdvanceTurn resolves one turn: winner check first, then either a special
// round or a normal step. real_turn moves on every resolution.
func (r *Room) AdvanceTurn(ctx context.Context, rng *RNG) (TurnState, error) {
	state, err := r.TurnState(ctx)
	if err != nil {
		return 0, err
	}
	if state.Terminal() {
		return state, nil
	}
	if state == StateLobby {
		return state, ErrGameNotStarted
	}
	if state == StateBurnCamper {
		return state, ErrVoteInProgress
	}

	if winner, over, err := r.winner(ctx); err != nil {
		return 0, err
	} else if over {
		return r.finish(ctx, winner)
	}

	turn, err := r.Turn(ctx)
	if err != nil {
		return 0, err
	}

	if turn != 0 && turn%r.rules.SpecialRoundEvery == 0 {
		switch outcome := r.rules.SpecialRound(rng); {
		case outcome == StateBurnCamper:
			if err := r.openElection(ctx); err != nil {
				return 0, err
			}
			if _, err := r.increment(ctx, fieldRealTurn); err != nil {
				return 0, err
			}
			return StateBurnCamper, nil
		case outcome.Terminal():
			return r.finish(ctx, outcome)
		case outcome == StateCampfireOut:
			// consumes the day like a normal step, so the next advance
			// does not land on the same special round again
			if _, err := r.increment(ctx, fieldTurn); err != nil {
				return 0, err
			}
			if _, err := r.increment(ctx, fieldTurnOwnerIndex); err != nil {
				return 0, err
			}
			if _, err := r.increment(ctx, fieldRealTurn); err != nil {
				return 0, err
			}
			if err := r.setTurnState(ctx, StateCampfireOut); err != nil {
				return 0, err
			}
			return StateCampfireOut, nil
		}
	}

	return r.normalStep(ctx)
}

// CastVote records one ballot during an election. Each living player gets
// one ballot per round, counted on its first cast; the target must hold one
// of the seeded tally entries. When the last living player votes, the
// election resolves in the same call: the leading player burns and the room
// takes its next turn step.
func (r *Room) CastVote(ctx context.Context, voterID, targetID string) (TurnState, error) {
	state, err := r.TurnState(ctx)
	if err != nil {
		return 0, err
	}
	if state != StateBurnCamper {
		return state, ErrNoActiveVote
	}

	living, err := r.LivingPlayers(ctx)
	if err != nil {
		return 0, err
	}
	eligible := false
	for _, id := range living {
		if id == voterID {
			eligible = true
			break
		}
	}
	if !eligible {
		return StateBurnCamper, ErrInvalidBallot
	}

	votes, err := r.Votes(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := votes[targetID]; !ok {
		return StateBurnCamper, ErrInvalidBallot
	}

	voters, err := r.store.SubFields(ctx, r.typ, r.id, subVoters)
	if err != nil {
		return 0, err
	}
	if _, ok := voters[voterID]; ok {
		return StateBurnCamper, ErrAlreadyVoted
	}
	if err := r.store.SubSetField(ctx, r.typ, r.id, subVoters, voterID, "1"); err != nil {
		return 0, err
	}

	if _, err := r.store.SubIncrement(ctx, r.typ, r.id, subVotes, targetID); err != nil {
		return 0, err
	}
	if _, err := r.increment(ctx, fieldUsersVoted); err != nil {
		return 0, err
	}

	all, err := r.HasAllVoted(ctx)
	if err != nil {
		return 0, err
	}
	if !all {
		return StateBurnCamper, nil
	}

	burned, err := r.TallyVotes(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.BurnPlayer(ctx, burned); err != nil {
		return 0, err
	}
	if err := r.closeElection(ctx); err != nil {
		return 0, err
	}

	if winner, over, err := r.winner(ctx); err != nil {
		return 0, err
	} else if over {
		return r.finish(ctx, winner)
	}

	return r.normalStep(ctx)
}

// HasAllVoted compares the distinct-voter counter against the living player
// count. The two reads are not atomic together; a join or a death between
// them can make the answer stale for one call, which the next vote corrects.
func (r *Room) HasAllVoted(ctx context.Context) (bool, error) {
	voted, err := r.UsersVoted(ctx)
	if err != nil {
		return false, err
	}

	living, err := r.LivingPlayers(ctx)
	if err != nil {
		return false, err
	}

	return voted >= len(living), nil
}

// Votes reads the current tally, one entry per nominated player.
func (r *Room) Votes(ctx context.Context) (map[string]int, error) {
	raw, err := r.store.SubFields(ctx, r.typ, r.id, subVotes)
	if err != nil {
		return nil, err
	}

	votes := make(map[string]int, len(raw))
	for id, tally := range raw {
		n, err := strconv.Atoi(tally)
		if err != nil {
			continue
		}
		votes[id] = n
	}

	return votes, nil
}

// TallyVotes picks the player with the highest tally. Ties go to whichever
// maximal entry is scanned first, which is not deterministic.
func (r *Room) TallyVotes(ctx context.Context) (string, error) {
	votes, err := r.Votes(ctx)
	if err != nil {
		return "", err
	}
	if len(votes) == 0 {
		return "", ErrNoActiveVote
	}

	var top string
	max := -1
	for id, tally := range votes {
		if tally > max {
			top = id
			max = tally
		}
	}

	return top, nil
}

// BurnPlayer eliminates a player: the role goes to dead and a changeling is
// struck from the changeling list.
func (r *Room) BurnPlayer(ctx context.Context, playerID string) error {
	if err := r.player(playerID).SetRole(ctx, RoleDead); err != nil {
		return err
	}

	changelings, err := r.Changelings(ctx)
	if err != nil {
		return err
	}
	for _, id := range changelings {
		if id == playerID {
			return r.removeFromList(ctx, listChangelings, playerID)
		}
	}

	return nil
}

// winner evaluates the win condition: changelings over the living count win
// for the changelings; no changelings left or the day limit passed wins for
// the campers.
func (r *Room) winner(ctx context.Context) (TurnState, bool, error) {
	changelings, err := r.Changelings(ctx)
	if err != nil {
		return 0, false, err
	}

	living, err := r.LivingPlayers(ctx)
	if err != nil {
		return 0, false, err
	}

	if len(changelings) > len(living) {
		return StateChangelingVictory, true, nil
	}

	turn, err := r.Turn(ctx)
	if err != nil {
		return 0, false, err
	}
	if turn > r.rules.TurnLimit || len(changelings) == 0 {
		return StateCamperVictory, true, nil
	}

	return 0, false, nil
}

// openElection enters a burn round with a fresh tally: a zero entry per
// current player, no recorded voters and the voter counter reset.
func (r *Room) openElection(ctx context.Context) error {
	if err := r.store.DeleteSub(ctx, r.typ, r.id, subVotes); err != nil {
		return err
	}
	if err := r.store.DeleteSub(ctx, r.typ, r.id, subVoters); err != nil {
		return err
	}

	users, err := r.Users(ctx)
	if err != nil {
		return err
	}
	for _, id := range users {
		if err := r.store.SubSetField(ctx, r.typ, r.id, subVotes, id, "0"); err != nil {
			return err
		}
	}

	if err := r.setIntField(ctx, fieldUsersVoted, 0); err != nil {
		return err
	}

	return r.setTurnState(ctx, StateBurnCamper)
}

// closeElection drops the tally and the voter record; both exist only while
// a round is live.
func (r *Room) closeElection(ctx context.Context) error {
	if err := r.store.DeleteSub(ctx, r.typ, r.id, subVotes); err != nil {
		return err
	}
	if err := r.store.DeleteSub(ctx, r.typ, r.id, subVoters); err != nil {
		return err
	}
	return r.setIntField(ctx, fieldUsersVoted, 0)
}

func (r *Room) normalStep(ctx context.Context) (TurnState, error) {
	if _, err := r.increment(ctx, fieldTurn); err != nil {
		return 0, err
	}
	if _, err := r.increment(ctx, fieldTurnOwnerIndex); err != nil {
		return 0, err
	}
	if _, err := r.increment(ctx, fieldRealTurn); err != nil {
		return 0, err
	}
	if err := r.setTurnState(ctx, StateNormal); err != nil {
		return 0, err
	}
	return StateNormal, nil
}

func (r *Room) finish(ctx context.Context, winner TurnState) (TurnState, error) {
	if err := r.setTurnState(ctx, winner); err != nil {
		return 0, err
	}
	if _, err := r.increment(ctx, fieldRealTurn); err != nil {
		return 0, err
	}
	return winner, nil
}
