package record

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Object is implemented by every hash-backed record type (Player,
// Room, Offer). Values returns the live, mutable field map the
// generic helpers below read and write directly. Domain structs
// expose typed accessors on top of it but never keep a second copy of
// the state.
type Object interface {
	Schema() *Schema
	ID() string
	Values() map[string]any
}

// NewID returns a 24-character hex id.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("record: failed to generate id: %v", err))
	}
	return hex.EncodeToString(b[:])
}

func storageKey(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// Save writes every stored field of obj atomically as a single hash
// write, after recomputing calculated fields (which are not written).
func Save(ctx context.Context, st Store, obj Object) error {
	schema := obj.Schema()
	RecomputeCalculated(schema, obj.Values())
	return st.HSet(ctx, storageKey(schema.KeyPrefix, obj.ID()), ToStorage(schema, obj.Values()))
}

// Refresh re-reads every field from storage, overwriting obj's
// in-memory values and recomputing calculated fields. A record that
// was never saved refreshes to its zero values (empty hash decodes to
// every field's zero value, matching get_by_id's "not found" case).
func Refresh(ctx context.Context, st Store, obj Object) error {
	schema := obj.Schema()
	raw, err := st.HGetAll(ctx, storageKey(schema.KeyPrefix, obj.ID()))
	if err != nil {
		return err
	}
	decoded := FromStorage(schema, raw)
	values := obj.Values()
	for k := range values {
		delete(values, k)
	}
	for k, v := range decoded {
		values[k] = v
	}
	RecomputeCalculated(schema, values)
	return nil
}

// Exists reports whether the record's hash is currently stored; it is
// false again once the hash has been deleted.
func Exists(ctx context.Context, st Store, schema *Schema, id string) (bool, error) {
	raw, err := st.HGetAll(ctx, storageKey(schema.KeyPrefix, id))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// IncrementField atomically bumps a single integer field via the
// store's counter primitive and mirrors the new value into obj's
// in-memory state and public projection, without a full Refresh.
func IncrementField(ctx context.Context, st Store, obj Object, field string, by int) error {
	schema := obj.Schema()
	n, err := st.HIncrBy(ctx, storageKey(schema.KeyPrefix, obj.ID()), field, int64(by))
	if err != nil {
		return err
	}
	values := obj.Values()
	values[field] = int(n)
	RecomputeCalculated(schema, values)
	return nil
}

// PublicDataOf is a convenience wrapper around PublicData for an
// Object.
func PublicDataOf(obj Object) map[string]any {
	return PublicData(obj.Schema(), obj.Values())
}

// GetByID loads a record by id, returning found=false (and a zero
// object otherwise left alone) if no hash exists under that id yet.
func GetByID[T Object](ctx context.Context, st Store, id string, newObj func(id string) T) (T, bool, error) {
	obj := newObj(id)
	schema := obj.Schema()
	raw, err := st.HGetAll(ctx, storageKey(schema.KeyPrefix, id))
	if err != nil {
		var zero T
		return zero, false, err
	}
	if len(raw) == 0 {
		var zero T
		return zero, false, nil
	}

	decoded := FromStorage(schema, raw)
	values := obj.Values()
	for k, v := range decoded {
		values[k] = v
	}
	RecomputeCalculated(schema, values)
	return obj, true, nil
}

// Create builds a fresh record (generating an id via NewID if id is
// empty) and saves it immediately.
func Create[T Object](ctx context.Context, st Store, newObj func(id string) T, id string) (T, error) {
	if id == "" {
		id = NewID()
	}
	obj := newObj(id)
	if err := Save(ctx, st, obj); err != nil {
		var zero T
		return zero, err
	}
	return obj, nil
}

// GetOrCreate loads a record by id or creates it if absent, reporting
// whether it was newly created.
func GetOrCreate[T Object](ctx context.Context, st Store, id string, newObj func(id string) T) (T, bool, error) {
	obj, found, err := GetByID(ctx, st, id, newObj)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if found {
		return obj, false, nil
	}
	created, err := Create(ctx, st, newObj, id)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return created, true, nil
}
