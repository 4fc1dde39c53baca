package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/changeling-games/changeling/internal/store"
)

func TestFieldRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	if _, err := s.Field(ctx, "room", "AB12CD", "turn"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetField(ctx, "room", "AB12CD", "turn", "3"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	v, err := s.Field(ctx, "room", "AB12CD", "turn")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if v != "3" {
		t.Errorf("expected 3, got %q", v)
	}

	// reading twice without a write returns the same value
	v2, err := s.Field(ctx, "room", "AB12CD", "turn")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if v2 != v {
		t.Errorf("expected %q, got %q", v, v2)
	}
}

func TestSetFieldIfAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	set, err := s.SetFieldIfAbsent(ctx, "player", "p1", "id", "p1")
	if err != nil {
		t.Fatalf("set if absent: %v", err)
	}
	if !set {
		t.Error("first write should set")
	}

	set, err = s.SetFieldIfAbsent(ctx, "player", "p1", "id", "other")
	if err != nil {
		t.Fatalf("set if absent: %v", err)
	}
	if set {
		t.Error("second write should not set")
	}

	v, err := s.Field(ctx, "player", "p1", "id")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if v != "p1" {
		t.Errorf("existing value overwritten: %q", v)
	}
}

func TestListOrderAndRemoval(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	for _, id := range []string{"p1", "p2", "p3", "p2"} {
		if err := s.AppendList(ctx, "room", "r", "users", id); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := s.RemoveFromList(ctx, "room", "r", "users", "p2"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got, err := s.List(ctx, "room", "r", "users")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{"p1", "p3", "p2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestIncrement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "room", "r", "real_turn")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestSubMapLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	if err := s.SubSetField(ctx, "room", "r", "user_votes", "p1", "0"); err != nil {
		t.Fatalf("sub set: %v", err)
	}
	if _, err := s.SubIncrement(ctx, "room", "r", "user_votes", "p1"); err != nil {
		t.Fatalf("sub increment: %v", err)
	}

	votes, err := s.SubFields(ctx, "room", "r", "user_votes")
	if err != nil {
		t.Fatalf("sub fields: %v", err)
	}
	if votes["p1"] != "1" {
		t.Errorf("expected tally 1, got %q", votes["p1"])
	}

	if err := s.DeleteSub(ctx, "room", "r", "user_votes"); err != nil {
		t.Fatalf("delete sub: %v", err)
	}
	votes, err = s.SubFields(ctx, "room", "r", "user_votes")
	if err != nil {
		t.Fatalf("sub fields: %v", err)
	}
	if len(votes) != 0 {
		t.Errorf("expected empty tally after delete, got %v", votes)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	ok, err := s.Exists(ctx, "room", "r")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Error("room should not exist yet")
	}

	if err := s.SetField(ctx, "room", "r", "turn", "0"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	ok, err = s.Exists(ctx, "room", "r")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Error("room should exist")
	}
}
