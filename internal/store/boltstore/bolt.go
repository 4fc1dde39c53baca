// Package boltstore backs the attribute store with a local bbolt file, for
// single-node deployments and tests that run without a Redis daemon. Each
// store key becomes a top-level bucket; bolt serializes update transactions,
// which gives the same per-call atomicity the contract asks for.
package boltstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/changeling-games/changeling/internal/logging"
	"github.com/changeling-games/changeling/internal/store"
)

type Config struct {
	FilePath string `envconfig:"CHANGELING_BOLT_PATH" default:"changeling.db"`
}

func New(ctx context.Context, config Config) (*Store, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening bolt store %s", config.FilePath)

	db, err := bolt.Open(config.FilePath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	return &Store{db: db}, nil
}

var _ store.Store = (*Store)(nil)

type Store struct {
	db *bolt.DB
}

func (s *Store) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing bolt store")

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close bolt store: %w", err)
	}

	return nil
}

func (s *Store) SetField(_ context.Context, typ, id, field, value string) error {
	return s.put(store.Key(typ, id), field, value)
}

func (s *Store) Field(_ context.Context, typ, id, field string) (string, error) {
	var value string
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(store.Key(typ, id)))
		if b == nil {
			return store.ErrNotFound
		}
		raw := b.Get([]byte(field))
		if raw == nil {
			return store.ErrNotFound
		}
		value = string(raw)
		return nil
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		return "", wrap(err)
	}
	return value, nil
}

func (s *Store) SetFieldIfAbsent(_ context.Context, typ, id, field, value string) (bool, error) {
	var set bool
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(store.Key(typ, id)))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if b.Get([]byte(field)) != nil {
			return nil
		}
		set = true
		return b.Put([]byte(field), []byte(value))
	}); err != nil {
		return false, wrap(err)
	}
	return set, nil
}

func (s *Store) Fields(_ context.Context, typ, id string) (map[string]string, error) {
	return s.fieldMap(store.Key(typ, id))
}

func (s *Store) Increment(_ context.Context, typ, id, field string) (int64, error) {
	return s.incr(store.Key(typ, id), field)
}

func (s *Store) AppendList(_ context.Context, typ, id, list, value string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(store.SubKey(typ, id, list)))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		var k [8]byte
		binary.BigEndian.PutUint64(k[:], seq)
		return b.Put(k[:], []byte(value))
	}); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) List(_ context.Context, typ, id, list string) ([]string, error) {
	var values []string
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(store.SubKey(typ, id, list)))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			values = append(values, string(v))
		}
		return nil
	}); err != nil {
		return nil, wrap(err)
	}
	return values, nil
}

func (s *Store) RemoveFromList(_ context.Context, typ, id, list, value string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(store.SubKey(typ, id, list)))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if string(v) == value {
				return b.Delete(k)
			}
		}
		return nil
	}); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) SubSetField(_ context.Context, typ, id, subKey, field, value string) error {
	return s.put(store.SubKey(typ, id, subKey), field, value)
}

func (s *Store) SubIncrement(_ context.Context, typ, id, subKey, field string) (int64, error) {
	return s.incr(store.SubKey(typ, id, subKey), field)
}

func (s *Store) SubFields(_ context.Context, typ, id, subKey string) (map[string]string, error) {
	return s.fieldMap(store.SubKey(typ, id, subKey))
}

func (s *Store) DeleteSub(_ context.Context, typ, id, subKey string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(store.SubKey(typ, id, subKey))) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(store.SubKey(typ, id, subKey)))
	}); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) Exists(_ context.Context, typ, id string) (bool, error) {
	var exists bool
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket([]byte(store.Key(typ, id))) != nil
		return nil
	}); err != nil {
		return false, wrap(err)
	}
	return exists, nil
}

func (s *Store) put(key, field, value string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		return b.Put([]byte(field), []byte(value))
	}); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) fieldMap(key string) (map[string]string, error) {
	fields := map[string]string{}
	if err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			fields[string(k)] = string(v)
		}
		return nil
	}); err != nil {
		return nil, wrap(err)
	}
	return fields, nil
}

func (s *Store) incr(key, field string) (int64, error) {
	var value int64
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		raw := b.Get([]byte(field))
		if raw != nil {
			n, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("counter field %q holds %q: %w", field, raw, err)
			}
			value = n
		}
		value++
		return b.Put([]byte(field), []byte(strconv.FormatInt(value, 10)))
	}); err != nil {
		return 0, wrap(err)
	}
	return value, nil
}

func wrap(err error) error {
	return fmt.Errorf("bolt transaction: %w: %v", store.ErrUnavailable, err)
}
