package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/changeling-games/changeling/internal/cache"
	"github.com/changeling-games/changeling/internal/game"
	"github.com/changeling-games/changeling/internal/store/memstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	display, err := cache.NewLRU(16)
	if err != nil {
		t.Fatalf("cache.NewLRU: %v", err)
	}

	manager := game.NewManager(memstore.New(), game.Config{
		MaxPlayersPerRoom: 5,
		TurnLimit:         40,
		SpecialRoundEvery: 5,
	}, game.NewSeededRNG(7), display)

	return New(&Config{Port: "0"}, manager)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != `{"status":"ok"}` {
		t.Fatalf("body = %q", body)
	}
}

func TestHandleHealthMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestConnRegistry(t *testing.T) {
	t.Parallel()

	reg := NewConnRegistry()

	a := &client{playerID: "a", roomID: "ROOM01"}
	b := &client{playerID: "b", roomID: "ROOM01"}
	c := &client{playerID: "c", roomID: "ROOM02"}

	reg.Add(a)
	reg.Add(b)
	reg.Add(c)

	if got := len(reg.Clients("ROOM01")); got != 2 {
		t.Fatalf("ROOM01 clients = %d, want 2", got)
	}
	if got := len(reg.Clients("ROOM02")); got != 1 {
		t.Fatalf("ROOM02 clients = %d, want 1", got)
	}

	reg.Remove(a)
	clients := reg.Clients("ROOM01")
	if len(clients) != 1 || clients[0].playerID != "b" {
		t.Fatalf("after removal ROOM01 clients = %v", clients)
	}

	reg.Remove(b)
	if got := len(reg.Clients("ROOM01")); got != 0 {
		t.Fatalf("emptied room still has %d clients", got)
	}

	if got := len(reg.Clients("UNKNOWN")); got != 0 {
		t.Fatalf("unknown room clients = %d, want 0", got)
	}
}
