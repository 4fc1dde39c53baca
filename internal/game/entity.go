package game

import (
	"context"
	"fmt"
	"strconv"

	"github.com/changeling-games/changeling/internal/store"
)

// entity is a typed, identified record whose fields live in the attribute
// store. Scalar reads go through a local cache that lasts as long as the
// handle; handles are built fresh per logical operation, so the cache never
// becomes a second source of truth. List fields are never cached: every read
// re-fetches so concurrent joins stay visible.
type entity struct {
	store  store.Store
	typ    string
	id     string
	cached map[string]string
}

func newEntity(s store.Store, typ, id string) entity {
	return entity{store: s, typ: typ, id: id, cached: map[string]string{}}
}

func (e *entity) ID() string {
	return e.id
}

// ensure creates the backing record from defaults when it is absent. The id
// field doubles as the creation sentinel: only the caller that wins the
// sentinel write fills in the defaults, so a second construction with the
// same id never overwrites existing fields.
func (e *entity) ensure(ctx context.Context, defaults map[string]string) error {
	created, err := e.store.SetFieldIfAbsent(ctx, e.typ, e.id, "id", e.id)
	if err != nil {
		return fmt.Errorf("create %s:%s: %w", e.typ, e.id, err)
	}
	if !created {
		return nil
	}

	for field, value := range defaults {
		if err := e.store.SetField(ctx, e.typ, e.id, field, value); err != nil {
			return fmt.Errorf("init %s:%s field %s: %w", e.typ, e.id, field, err)
		}
	}

	return nil
}

func (e *entity) field(ctx context.Context, name string) (string, error) {
	if value, ok := e.cached[name]; ok {
		return value, nil
	}

	value, err := e.store.Field(ctx, e.typ, e.id, name)
	if err != nil {
		return "", fmt.Errorf("read %s:%s field %s: %w", e.typ, e.id, name, err)
	}

	e.cached[name] = value
	return value, nil
}

func (e *entity) setField(ctx context.Context, name, value string) error {
	if err := e.store.SetField(ctx, e.typ, e.id, name, value); err != nil {
		return fmt.Errorf("write %s:%s field %s: %w", e.typ, e.id, name, err)
	}

	e.cached[name] = value
	return nil
}

func (e *entity) intField(ctx context.Context, name string) (int, error) {
	raw, err := e.field(ctx, name)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s:%s field %s holds %q: %w", e.typ, e.id, name, raw, err)
	}

	return n, nil
}

func (e *entity) setIntField(ctx context.Context, name string, value int) error {
	return e.setField(ctx, name, strconv.Itoa(value))
}

// increment bumps a counter field at the store and refreshes the cache with
// the value the store reports, not a locally computed one.
func (e *entity) increment(ctx context.Context, name string) (int, error) {
	value, err := e.store.Increment(ctx, e.typ, e.id, name)
	if err != nil {
		return 0, fmt.Errorf("increment %s:%s field %s: %w", e.typ, e.id, name, err)
	}

	e.cached[name] = strconv.FormatInt(value, 10)
	return int(value), nil
}

func (e *entity) list(ctx context.Context, name string) ([]string, error) {
	values, err := e.store.List(ctx, e.typ, e.id, name)
	if err != nil {
		return nil, fmt.Errorf("read %s:%s list %s: %w", e.typ, e.id, name, err)
	}
	return values, nil
}

func (e *entity) appendList(ctx context.Context, name, value string) error {
	if err := e.store.AppendList(ctx, e.typ, e.id, name, value); err != nil {
		return fmt.Errorf("append %s:%s list %s: %w", e.typ, e.id, name, err)
	}
	return nil
}

func (e *entity) removeFromList(ctx context.Context, name, value string) error {
	if err := e.store.RemoveFromList(ctx, e.typ, e.id, name, value); err != nil {
		return fmt.Errorf("remove from %s:%s list %s: %w", e.typ, e.id, name, err)
	}
	return nil
}
