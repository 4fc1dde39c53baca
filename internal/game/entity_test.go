package game

import (
	"context"
	"testing"

	"github.com/changeling-games/changeling/internal/store/memstore"
)

func TestCreateIsNotUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()

	if _, err := CreatePlayer(ctx, s, "p1", "ada", "fox"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	// a second construction with the same id must not overwrite fields
	p, err := CreatePlayer(ctx, s, "p1", "grace", "owl")
	if err != nil {
		t.Fatalf("create player again: %v", err)
	}

	username, err := p.Username(ctx)
	if err != nil {
		t.Fatalf("username: %v", err)
	}
	if username != "ada" {
		t.Errorf("expected ada, got %q", username)
	}
}

func TestScalarReadsAreCachedPerHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()

	if _, err := CreatePlayer(ctx, s, "p1", "ada", "fox"); err != nil {
		t.Fatalf("create player: %v", err)
	}

	handle := NewPlayer(s, "p1")
	role1, err := handle.Role(ctx)
	if err != nil {
		t.Fatalf("role: %v", err)
	}

	// another caller writes behind this handle's back
	if err := NewPlayer(s, "p1").SetRole(ctx, RoleCamper); err != nil {
		t.Fatalf("set role: %v", err)
	}

	// same handle keeps its read, one logical operation sees one value
	role2, err := handle.Role(ctx)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if role2 != role1 {
		t.Errorf("cached read changed: %s then %s", role1, role2)
	}

	// a fresh handle observes the store's truth
	role3, err := NewPlayer(s, "p1").Role(ctx)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if role3 != RoleCamper {
		t.Errorf("fresh handle expected camper, got %s", role3)
	}
}

func TestListsAreNeverCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()

	if _, err := CreatePlayer(ctx, s, "p1", "ada", "fox"); err != nil {
		t.Fatalf("create player: %v", err)
	}
	room, err := CreateRoom(ctx, s, "AB12CD", "p1", Rules{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := room.AddUser(ctx, "p1"); err != nil {
		t.Fatalf("add user: %v", err)
	}

	users, err := room.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %v", users)
	}

	// a concurrent join through another handle must show up on re-read
	if err := NewRoom(s, "AB12CD", Rules{}).AddUser(ctx, "p2"); err != nil {
		t.Fatalf("add user: %v", err)
	}

	users, err = room.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 2 || users[0] != "p1" || users[1] != "p2" {
		t.Errorf("expected [p1 p2], got %v", users)
	}
}
