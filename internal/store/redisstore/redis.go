// Package redisstore backs the attribute store with Redis. Field maps are
// hashes, ordered lists are Redis lists, counters are HINCRBY fields, so
// every store call maps to exactly one Redis command.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/changeling-games/changeling/internal/store"
)

type Config struct {
	Addr     string `envconfig:"CHANGELING_REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"CHANGELING_REDIS_PASSWORD"`
	DB       int    `envconfig:"CHANGELING_REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"CHANGELING_REDIS_POOL_SIZE" default:"10"`
}

func New(config Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	return &Store{client: client}
}

var _ store.Store = (*Store)(nil)

type Store struct {
	client *redis.Client
}

func (s *Store) SetField(ctx context.Context, typ, id, field, value string) error {
	if err := s.client.HSet(ctx, store.Key(typ, id), field, value).Err(); err != nil {
		return wrap("hset", err)
	}
	return nil
}

func (s *Store) Field(ctx context.Context, typ, id, field string) (string, error) {
	value, err := s.client.HGet(ctx, store.Key(typ, id), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", wrap("hget", err)
	}
	return value, nil
}

func (s *Store) SetFieldIfAbsent(ctx context.Context, typ, id, field, value string) (bool, error) {
	set, err := s.client.HSetNX(ctx, store.Key(typ, id), field, value).Result()
	if err != nil {
		return false, wrap("hsetnx", err)
	}
	return set, nil
}

func (s *Store) Fields(ctx context.Context, typ, id string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, store.Key(typ, id)).Result()
	if err != nil {
		return nil, wrap("hgetall", err)
	}
	return fields, nil
}

func (s *Store) Increment(ctx context.Context, typ, id, field string) (int64, error) {
	value, err := s.client.HIncrBy(ctx, store.Key(typ, id), field, 1).Result()
	if err != nil {
		return 0, wrap("hincrby", err)
	}
	return value, nil
}

func (s *Store) AppendList(ctx context.Context, typ, id, list, value string) error {
	if err := s.client.RPush(ctx, store.SubKey(typ, id, list), value).Err(); err != nil {
		return wrap("rpush", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, typ, id, list string) ([]string, error) {
	values, err := s.client.LRange(ctx, store.SubKey(typ, id, list), 0, -1).Result()
	if err != nil {
		return nil, wrap("lrange", err)
	}
	return values, nil
}

func (s *Store) RemoveFromList(ctx context.Context, typ, id, list, value string) error {
	if err := s.client.LRem(ctx, store.SubKey(typ, id, list), 1, value).Err(); err != nil {
		return wrap("lrem", err)
	}
	return nil
}

func (s *Store) SubSetField(ctx context.Context, typ, id, subKey, field, value string) error {
	if err := s.client.HSet(ctx, store.SubKey(typ, id, subKey), field, value).Err(); err != nil {
		return wrap("hset", err)
	}
	return nil
}

func (s *Store) SubIncrement(ctx context.Context, typ, id, subKey, field string) (int64, error) {
	value, err := s.client.HIncrBy(ctx, store.SubKey(typ, id, subKey), field, 1).Result()
	if err != nil {
		return 0, wrap("hincrby", err)
	}
	return value, nil
}

func (s *Store) SubFields(ctx context.Context, typ, id, subKey string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, store.SubKey(typ, id, subKey)).Result()
	if err != nil {
		return nil, wrap("hgetall", err)
	}
	return fields, nil
}

func (s *Store) DeleteSub(ctx context.Context, typ, id, subKey string) error {
	if err := s.client.Del(ctx, store.SubKey(typ, id, subKey)).Err(); err != nil {
		return wrap("del", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, typ, id string) (bool, error) {
	n, err := s.client.Exists(ctx, store.Key(typ, id)).Result()
	if err != nil {
		return false, wrap("exists", err)
	}
	return n > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func wrap(op string, err error) error {
	return fmt.Errorf("redis %s: %w: %v", op, store.ErrUnavailable, err)
}
