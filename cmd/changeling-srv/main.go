package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/changeling-games/changeling/internal/cache"
	"github.com/changeling-games/changeling/internal/game"
	"github.com/changeling-games/changeling/internal/logging"
	"github.com/changeling-games/changeling/internal/server"
	"github.com/changeling-games/changeling/internal/shutdown"
	"github.com/changeling-games/changeling/internal/store"
	"github.com/changeling-games/changeling/internal/store/boltstore"
	"github.com/changeling-games/changeling/internal/store/redisstore"
)

func main() {
	ctx, done := shutdown.New()
	defer done()

	_ = godotenv.Load()

	config := server.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, config); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config server.Config) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	st, closeStore, err := newStore(ctx, config)
	if err != nil {
		return err
	}
	defer closeStore()

	display, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	manager := game.NewManager(st, game.Config{
		MaxPlayersPerRoom: config.MaxPlayersPerRoom,
		TurnLimit:         config.TurnLimit,
		SpecialRoundEvery: config.SpecialRoundEvery,
	}, game.NewRNG(), display)

	srv := server.New(&config, manager)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(ctx)
	})
	group.Go(func() error {
		logger.Infof("pprof listening on :%s", config.ProfPort)
		return http.ListenAndServe(":"+config.ProfPort, nil)
	})

	return group.Wait()
}

func newStore(ctx context.Context, config server.Config) (store.Store, func(), error) {
	logger := logging.FromContext(ctx).Named("main.newStore")

	switch config.StoreBackend {
	case "redis":
		st := redisstore.New(config.Redis)
		if err := st.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Infof("using redis store at %s", config.Redis.Addr)
		return st, func() { _ = st.Close() }, nil
	case "bolt":
		st, err := boltstore.New(ctx, config.Bolt)
		if err != nil {
			return nil, nil, fmt.Errorf("bolt store: %w", err)
		}
		return st, func() { _ = st.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", config.StoreBackend)
	}
}
