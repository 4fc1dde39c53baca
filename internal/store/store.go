// Package store defines the attribute store contract: single-key atomic
// operations on entity records held in a shared key-value backend.
//
// Records live under three kinds of keys:
//
//	{type}:{id}            field map of the record
//	{type}:{id}:{list}     ordered list of referenced ids
//	{type}:{id}:{subKey}   auxiliary field map (per-round vote tally)
//
// Every call is atomic with respect to other callers of the same backend.
// No sequence of calls is atomic; callers must tolerate interleavings
// between their own successive calls.
package store

import (
	"context"
	"fmt"
)

var (
	// ErrNotFound reports an absent field or record.
	ErrNotFound = fmt.Errorf("not found")

	// ErrUnavailable wraps backend transport failures. The store layer does
	// not retry; recovery policy belongs to the caller.
	ErrUnavailable = fmt.Errorf("store unavailable")
)

type Store interface {
	// SetField writes one scalar field of the record.
	SetField(ctx context.Context, typ, id, field, value string) error

	// Field reads one scalar field. Returns ErrNotFound when the field or
	// the record is absent.
	Field(ctx context.Context, typ, id, field string) (string, error)

	// SetFieldIfAbsent writes the field only when it does not exist yet and
	// reports whether the write happened.
	SetFieldIfAbsent(ctx context.Context, typ, id, field, value string) (bool, error)

	// Fields reads the whole field map of the record.
	Fields(ctx context.Context, typ, id string) (map[string]string, error)

	// Increment atomically adds 1 to an integer field and returns the new value.
	Increment(ctx context.Context, typ, id, field string) (int64, error)

	// AppendList appends a value to an ordered list, creating it if needed.
	AppendList(ctx context.Context, typ, id, list, value string) error

	// List reads the full list in insertion order. An absent list reads as empty.
	List(ctx context.Context, typ, id, list string) ([]string, error)

	// RemoveFromList removes the first exact match from the list.
	RemoveFromList(ctx context.Context, typ, id, list, value string) error

	// SubSetField writes a field of the {type}:{id}:{subKey} map.
	SubSetField(ctx context.Context, typ, id, subKey, field, value string) error

	// SubIncrement atomically adds 1 to a field of the sub-object map.
	SubIncrement(ctx context.Context, typ, id, subKey, field string) (int64, error)

	// SubFields reads the whole sub-object map. An absent map reads as empty.
	SubFields(ctx context.Context, typ, id, subKey string) (map[string]string, error)

	// DeleteSub drops the sub-object map entirely.
	DeleteSub(ctx context.Context, typ, id, subKey string) error

	// Exists reports whether the record {type}:{id} is present.
	Exists(ctx context.Context, typ, id string) (bool, error)
}

// Key builds the primary record key.
func Key(typ, id string) string {
	return typ + ":" + id
}

// SubKey builds a list or sub-object key.
func SubKey(typ, id, name string) string {
	return typ + ":" + id + ":" + name
}
