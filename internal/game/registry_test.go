package game

import (
	"context"
	"testing"

	"github.com/changeling-games/changeling/internal/store/memstore"
)

func TestGenerateRoomIDShape(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRegistry(memstore.New(), NewSeededRNG(1))

	id, err := r.GenerateRoomID(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(id) != roomIDLength {
		t.Fatalf("id %q, expected %d chars", id, roomIDLength)
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			t.Errorf("id %q holds %q outside the alphabet", id, c)
		}
	}
}

func TestGenerateRoomIDSkipsCollisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// learn what a seeded generator samples first
	first, err := NewRegistry(memstore.New(), NewSeededRNG(42)).GenerateRoomID(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// occupy that id, then generate again with the same seed
	s := memstore.New()
	if _, err := CreateRoom(ctx, s, first, "p1", Rules{}); err != nil {
		t.Fatalf("create room: %v", err)
	}

	r := NewRegistry(s, NewSeededRNG(42))
	id, err := r.GenerateRoomID(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if id == first {
		t.Errorf("generator returned occupied id %q", id)
	}

	exists, err := r.RoomExists(ctx, id)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Errorf("fresh id %q already exists", id)
	}
}

func TestRoomExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	r := NewRegistry(s, NewSeededRNG(9))

	exists, err := r.RoomExists(ctx, "ABCDEF")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("room should not exist")
	}

	if _, err := CreateRoom(ctx, s, "ABCDEF", "p1", Rules{}); err != nil {
		t.Fatalf("create room: %v", err)
	}

	exists, err = r.RoomExists(ctx, "ABCDEF")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("room should exist")
	}
}
