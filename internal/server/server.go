package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/changeling-games/changeling/internal/game"
	"github.com/changeling-games/changeling/internal/logging"
)

type Server struct {
	config  *Config
	manager *game.Manager

	upgrader websocket.Upgrader
	router   *mux.Router
	conns    *ConnRegistry
}

func New(config *Config, manager *game.Manager) *Server {
	s := &Server{
		config:  config,
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		router: mux.NewRouter(),
		conns:  NewConnRegistry(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS)

	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context closes, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("server")

	srv := &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on :%s", s.config.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx).Named("server.ws")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("upgrade: %v", err)
		return
	}

	c := &client{conn: conn, playerID: uuid.NewString()}
	defer func() {
		if c.joined() {
			s.conns.Remove(c)
		}
		_ = conn.Close()
	}()

	for {
		var msg envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("read: %v", err)
			}
			return
		}

		if err := s.dispatch(ctx, c, msg); err != nil {
			logger.Errorf("dispatch %s: %v", msg.Event, err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *client, msg envelope) error {
	switch msg.Event {
	case EventHostGame:
		return s.handleHost(ctx, c, msg.Data)
	case EventJoinGame:
		return s.handleJoin(ctx, c, msg.Data)
	case EventStartGame:
		return s.handleStart(ctx, c)
	case EventAdvanceTurn:
		return s.handleAdvance(ctx, c)
	case EventCastVote:
		return s.handleVote(ctx, c, msg.Data)
	}
	return c.send(EventError, errorPayload{ErrType: errTypeBadRequest})
}

// broadcast fans an event out to every connection of a room.
func (s *Server) broadcast(ctx context.Context, roomID, event string, data interface{}, exclude ...string) {
	logger := logging.FromContext(ctx).Named("server.broadcast")

ClientLoop:
	for _, c := range s.conns.Clients(roomID) {
		for _, id := range exclude {
			if c.playerID == id {
				continue ClientLoop
			}
		}
		if err := c.send(event, data); err != nil {
			logger.Debugf("send to %s: %v", c.playerID, err)
		}
	}
}
