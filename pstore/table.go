package pstore

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is a decoded value and the time it was written.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
}

// Table is a typed view of one namespace in a Store. Values are encoded as
// JSON.
type Table[T any] struct {
	store     *Store
	namespace string
}

// NewTable returns a Table for the namespace in store.
func NewTable[T any](store *Store, namespace string) *Table[T] {
	return &Table[T]{
		store:     store,
		namespace: namespace,
	}
}

// Namespace returns the namespace the table reads and writes.
func (t *Table[T]) Namespace() string {
	return t.namespace
}

// Get returns the value for key, if present and not expired.
func (t *Table[T]) Get(ctx context.Context, key string) (T, bool) {
	e, ok := t.GetEntry(ctx, key)
	return e.Data, ok
}

// GetEntry returns the value for key along with its write time.
func (t *Table[T]) GetEntry(ctx context.Context, key string) (Entry[T], bool) {
	var e Entry[T]
	raw, written, ok := t.store.Get(ctx, t.namespace, key)
	if !ok {
		return e, false
	}
	if err := json.Unmarshal(raw, &e.Data); err != nil {
		log.Warnw("Discarding undecodable cache value", "err", err, "namespace", t.namespace, "key", key)
		t.store.delete(ctx, makeKey(t.namespace, key))
		var zero Entry[T]
		return zero, false
	}
	e.Timestamp = written
	return e, true
}

// Set encodes and stores value under key.
func (t *Table[T]) Set(ctx context.Context, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Errorw("Cannot encode cache value", "err", err, "namespace", t.namespace, "key", key)
		return
	}
	t.store.Set(ctx, t.namespace, key, raw)
}
