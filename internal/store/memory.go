package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/google/uuid"
)

// MemoryStore keeps the whole tree in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
	hub  *Hub
}

func NewMemoryStore(logger logging.Logger) *MemoryStore {
	return &MemoryStore{root: map[string]any{}, hub: NewHub(logger)}
}

func (m *MemoryStore) Subscribe(ctx context.Context, path string, onData func(Snapshot), onError func(error)) (Subscription, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	read := func(ctx context.Context) (Snapshot, error) {
		return m.ReadOnce(ctx, path)
	}
	return m.hub.Subscribe(ctx, segs, read, onData, onError), nil
}

// SubscriberCount returns the number of live subscriptions.
func (m *MemoryStore) SubscriberCount() int {
	return m.hub.Len()
}

func (m *MemoryStore) ReadOnce(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var cur any = m.root
	for _, s := range segs {
		node, ok := cur.(map[string]any)
		if !ok {
			cur = nil
			break
		}
		cur = node[s]
	}
	if node, ok := cur.(map[string]any); ok && len(node) == 0 {
		cur = nil
	}
	return Snapshot{Key: lastSegment(segs), Value: deepCopy(cur)}, nil
}

func (m *MemoryStore) Write(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.set(segs, v)
	m.mu.Unlock()

	m.hub.Publish(path)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, partial map[string]any) error {
	base, err := SplitPath(path)
	if err != nil {
		return err
	}
	type change struct {
		path string
		segs []string
		v    any
	}
	changes := make([]change, 0, len(partial))
	for k, child := range partial {
		p := JoinPath(path, k)
		segs, err := SplitPath(p)
		if err != nil {
			return err
		}
		if len(segs) == len(base) {
			return fmt.Errorf("%w: update key must not be empty", common.ErrValidation)
		}
		v, err := normalize(child)
		if err != nil {
			return err
		}
		changes = append(changes, change{path: p, segs: segs, v: v})
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	for _, c := range changes {
		m.set(c.segs, c.v)
	}
	m.mu.Unlock()

	for _, c := range changes {
		m.hub.Publish(c.path)
	}
	return nil
}

func (m *MemoryStore) Append(ctx context.Context, prefix string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := m.Write(ctx, JoinPath(prefix, id.String()), value); err != nil {
		return "", err
	}
	return id.String(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	return m.Write(ctx, path, nil)
}

// set stores v at segs, creating parents as needed and removing parents
// left empty. Must be called with m.mu held.
func (m *MemoryStore) set(segs []string, v any) {
	if len(segs) == 0 {
		root, _ := v.(map[string]any)
		if root == nil {
			root = map[string]any{}
		}
		m.root = root
		return
	}

	parents := make([]map[string]any, 0, len(segs))
	node := m.root
	for _, s := range segs[:len(segs)-1] {
		parents = append(parents, node)
		next, ok := node[s].(map[string]any)
		if !ok {
			if v == nil {
				return
			}
			next = map[string]any{}
			node[s] = next
		}
		node = next
	}

	leaf := segs[len(segs)-1]
	if v == nil {
		delete(node, leaf)
	} else {
		node[leaf] = v
	}

	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segs[i])
		node = parents[i]
	}
}

func lastSegment(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
