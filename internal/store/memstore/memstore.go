// Package memstore is an in-process attribute store used by tests and by
// anything that wants game semantics without a backend. A single mutex per
// store makes each call atomic, which is all the contract promises.
package memstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/changeling-games/changeling/internal/store"
)

func New() *Store {
	return &Store{
		fields: map[string]map[string]string{},
		lists:  map[string][]string{},
	}
}

var _ store.Store = (*Store)(nil)

type Store struct {
	mtx    sync.Mutex
	fields map[string]map[string]string
	lists  map[string][]string
}

func (s *Store) SetField(_ context.Context, typ, id, field, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.fieldMap(store.Key(typ, id))[field] = value
	return nil
}

func (s *Store) Field(_ context.Context, typ, id, field string) (string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	m, ok := s.fields[store.Key(typ, id)]
	if !ok {
		return "", store.ErrNotFound
	}
	value, ok := m[field]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (s *Store) SetFieldIfAbsent(_ context.Context, typ, id, field, value string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	m := s.fieldMap(store.Key(typ, id))
	if _, ok := m[field]; ok {
		return false, nil
	}
	m[field] = value
	return true, nil
}

func (s *Store) Fields(_ context.Context, typ, id string) (map[string]string, error) {
	return s.copyMap(store.Key(typ, id)), nil
}

func (s *Store) Increment(_ context.Context, typ, id, field string) (int64, error) {
	return s.incr(store.Key(typ, id), field)
}

func (s *Store) AppendList(_ context.Context, typ, id, list, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	key := store.SubKey(typ, id, list)
	s.lists[key] = append(s.lists[key], value)
	return nil
}

func (s *Store) List(_ context.Context, typ, id, list string) ([]string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	values := s.lists[store.SubKey(typ, id, list)]
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

func (s *Store) RemoveFromList(_ context.Context, typ, id, list, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	key := store.SubKey(typ, id, list)
	for i, v := range s.lists[key] {
		if v == value {
			s.lists[key] = append(s.lists[key][:i], s.lists[key][i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) SubSetField(_ context.Context, typ, id, subKey, field, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.fieldMap(store.SubKey(typ, id, subKey))[field] = value
	return nil
}

func (s *Store) SubIncrement(_ context.Context, typ, id, subKey, field string) (int64, error) {
	return s.incr(store.SubKey(typ, id, subKey), field)
}

func (s *Store) SubFields(_ context.Context, typ, id, subKey string) (map[string]string, error) {
	return s.copyMap(store.SubKey(typ, id, subKey)), nil
}

func (s *Store) DeleteSub(_ context.Context, typ, id, subKey string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.fields, store.SubKey(typ, id, subKey))
	return nil
}

func (s *Store) Exists(_ context.Context, typ, id string) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, ok := s.fields[store.Key(typ, id)]
	return ok, nil
}

// fieldMap returns the live map for key, creating it if needed. Callers hold the mutex.
func (s *Store) fieldMap(key string) map[string]string {
	m, ok := s.fields[key]
	if !ok {
		m = map[string]string{}
		s.fields[key] = m
	}
	return m
}

func (s *Store) copyMap(key string) map[string]string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := map[string]string{}
	for k, v := range s.fields[key] {
		out[k] = v
	}
	return out
}

func (s *Store) incr(key, field string) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	m := s.fieldMap(key)
	var value int64
	if raw, ok := m[field]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		value = n
	}
	value++
	m[field] = strconv.FormatInt(value, 10)
	return value, nil
}
