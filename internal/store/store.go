// Package store is the hierarchical record store every Quest Board record
// lives in: users/{id}, quests/{id}, notifications/{id} and
// messages/{conversationId}/{messageId}.
//
// Values are JSON-like: map[string]any, []any, string, float64, bool or nil.
// Anything else handed to Write, Update or Append is first converted through
// encoding/json, so tagged structs may be stored directly.
package store

import (
	"context"
	"encoding/json"
	"sort"
)

// Store is implemented by MemoryStore and PostgresStore.
type Store interface {
	// Subscribe delivers the value at path now and again after every change
	// that overlaps path, until the subscription is cancelled or ctx ends.
	// Read failures go to onError, which may be nil.
	Subscribe(ctx context.Context, path string, onData func(Snapshot), onError func(error)) (Subscription, error)
	// ReadOnce returns the current value. A missing path is an empty
	// snapshot, not an error.
	ReadOnce(ctx context.Context, path string) (Snapshot, error)
	// Write replaces the subtree at path. A nil value deletes it.
	Write(ctx context.Context, path string, value any) error
	// Update writes each key of partial under path and leaves other
	// children alone.
	Update(ctx context.Context, path string, partial map[string]any) error
	// Append stores value under a new time-ordered key below prefix and
	// returns the key.
	Append(ctx context.Context, prefix string, value any) (string, error)
	Delete(ctx context.Context, path string) error
}

// Subscription is returned by Store.Subscribe.
type Subscription interface {
	// Cancel stops deliveries: once it returns no further callback starts.
	// It is idempotent and may be called from inside a delivery callback.
	Cancel()
}

// Snapshot is a value read at some path.
type Snapshot struct {
	Key   string
	Value any
}

// Exists reports whether anything is stored at the snapshot's path.
func (s Snapshot) Exists() bool {
	return s.Value != nil
}

// Decode converts the value into v the way encoding/json would.
func (s Snapshot) Decode(v any) error {
	b, err := json.Marshal(s.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Child returns the snapshot of key below s.
func (s Snapshot) Child(key string) Snapshot {
	m, _ := s.Value.(map[string]any)
	return Snapshot{Key: key, Value: m[key]}
}

// Children lists the direct children sorted by key. Leaves have none.
func (s Snapshot) Children() []Snapshot {
	m, ok := s.Value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, Snapshot{Key: k, Value: m[k]})
	}
	return out
}
