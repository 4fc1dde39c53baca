package server

import (
	"time"

	"github.com/changeling-games/changeling/internal/store/boltstore"
	"github.com/changeling-games/changeling/internal/store/redisstore"
)

type Config struct {
	// Logging at debug level
	Debug bool `envconfig:"CHANGELING_DEBUG" default:"false"`

	// Port serving the websocket endpoint and health check
	Port string `envconfig:"CHANGELING_PORT" default:"8080"`

	// profile port
	ProfPort string `envconfig:"CHANGELING_PROF_PORT" default:"8888"`

	// Store backend: redis for shared deployments, bolt for a single node
	StoreBackend string `envconfig:"CHANGELING_STORE" default:"redis"`

	// Room capacity; a deployment value, not a constant
	MaxPlayersPerRoom int `envconfig:"CHANGELING_MAX_PLAYERS" default:"5"`

	// Day count after which the campers win outright
	TurnLimit int `envconfig:"CHANGELING_TURN_LIMIT" default:"40"`

	// A special round triggers every this many days
	SpecialRoundEvery int `envconfig:"CHANGELING_SPECIAL_ROUND_EVERY" default:"5"`

	// Number of items in the player display cache
	CacheSize int `envconfig:"CHANGELING_CACHE_SIZE" default:"1024"`

	ShutdownTimeout time.Duration `envconfig:"CHANGELING_SHUTDOWN_TIMEOUT" default:"10s"`

	Redis redisstore.Config
	Bolt  boltstore.Config
}
