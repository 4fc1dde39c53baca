package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/changeling-games/changeling/internal/cache"
	"github.com/changeling-games/changeling/internal/store/memstore"
)

func newTestManager(t *testing.T, seed uint32) *Manager {
	t.Helper()

	display, err := cache.NewLRU(64)
	if err != nil {
		t.Fatalf("lru: %v", err)
	}

	return NewManager(memstore.New(), Config{MaxPlayersPerRoom: 5}, NewSeededRNG(seed), display)
}

func TestCreateRoomStartsInLobby(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 1)

	roomID, err := m.CreateRoom(ctx, PlayerInfo{ID: "p1", Username: "ada", Portrait: "fox"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if len(roomID) != roomIDLength {
		t.Errorf("room id %q, expected %d chars", roomID, roomIDLength)
	}

	room, err := m.room(ctx, roomID)
	if err != nil {
		t.Fatalf("room: %v", err)
	}

	users, err := room.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 || users[0] != "p1" {
		t.Errorf("expected [p1], got %v", users)
	}

	state, err := room.TurnState(ctx)
	if err != nil {
		t.Fatalf("turn state: %v", err)
	}
	if state != StateLobby {
		t.Errorf("expected lobby, got %s", state)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 2)

	err := m.JoinRoom(ctx, "NOSUCH", PlayerInfo{ID: "p1", Username: "ada"})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinAtCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 3)

	roomID, err := m.CreateRoom(ctx, PlayerInfo{ID: "p1", Username: "ada"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	for i := 2; i <= 5; i++ {
		id := fmt.Sprintf("p%d", i)
		if err := m.JoinRoom(ctx, roomID, PlayerInfo{ID: id, Username: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	if err := m.JoinRoom(ctx, roomID, PlayerInfo{ID: "p6", Username: "late"}); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	// the rejected join must not have touched the user list
	room, err := m.room(ctx, roomID)
	if err != nil {
		t.Fatalf("room: %v", err)
	}
	users, err := room.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 5 {
		t.Errorf("expected 5 users, got %v", users)
	}
}

func TestStartGamePicksOneChangeling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 4)

	roomID, err := m.CreateRoom(ctx, PlayerInfo{ID: "p1", Username: "ada"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := m.JoinRoom(ctx, roomID, PlayerInfo{ID: "p2", Username: "bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	changelingID, err := m.StartGame(ctx, roomID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if changelingID != "p1" && changelingID != "p2" {
		t.Errorf("changeling %q is not a player", changelingID)
	}

	snapshot, err := m.GameSnapshot(ctx, roomID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.TurnState != StateNormal {
		t.Errorf("expected normal, got %s", snapshot.TurnState)
	}
	if snapshot.Turn != 0 {
		t.Errorf("expected starting turn 0, got %d", snapshot.Turn)
	}
}

func TestAdvanceTurnOwnership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 5)

	roomID, err := m.CreateRoom(ctx, PlayerInfo{ID: "p1", Username: "ada"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := m.JoinRoom(ctx, roomID, PlayerInfo{ID: "p2", Username: "bob"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := m.StartGame(ctx, roomID); err != nil {
		t.Fatalf("start game: %v", err)
	}

	// owner index 0 means p1 holds the first turn
	if _, err := m.AdvanceTurn(ctx, roomID, "p2"); !errors.Is(err, ErrNotTurnOwner) {
		t.Fatalf("expected ErrNotTurnOwner, got %v", err)
	}

	state, err := m.AdvanceTurn(ctx, roomID, "p1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state != StateNormal {
		t.Errorf("expected normal, got %s", state)
	}

	// ownership rotated to p2
	if _, err := m.AdvanceTurn(ctx, roomID, "p1"); !errors.Is(err, ErrNotTurnOwner) {
		t.Errorf("expected ErrNotTurnOwner after rotation, got %v", err)
	}
}

func TestPlayerStatesMasking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t, 6)

	roomID, err := m.CreateRoom(ctx, PlayerInfo{ID: "p1", Username: "ada", Portrait: "fox"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, id := range []string{"p2", "p3"} {
		if err := m.JoinRoom(ctx, roomID, PlayerInfo{ID: id, Username: id, Portrait: "owl"}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	changelingID, err := m.StartGame(ctx, roomID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}

	camperID := "p1"
	if camperID == changelingID {
		camperID = "p2"
	}

	// a camper sees nothing but campers
	states, err := m.PlayerStates(ctx, roomID, camperID)
	if err != nil {
		t.Fatalf("player states: %v", err)
	}
	for _, state := range states {
		if state.Role == RoleChangeling {
			t.Errorf("camper viewer saw changeling %s", state.ID)
		}
		if state.ID == camperID && !state.IsYou {
			t.Error("viewer not marked as is_you")
		}
	}

	// the changeling sees everyone's true role
	states, err = m.PlayerStates(ctx, roomID, changelingID)
	if err != nil {
		t.Fatalf("player states: %v", err)
	}
	var sawSelf bool
	for _, state := range states {
		if state.ID == changelingID {
			sawSelf = true
			if state.Role != RoleChangeling {
				t.Errorf("changeling viewer got role %s for self", state.Role)
			}
		}
	}
	if !sawSelf {
		t.Error("changeling missing from projection")
	}

	// admin flag follows the creator
	for _, state := range states {
		if state.Admin != (state.ID == "p1") {
			t.Errorf("admin flag wrong for %s", state.ID)
		}
	}
}
