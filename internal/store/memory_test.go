package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T) *MemoryStore {
	t.Helper()
	return NewMemoryStore(logging.Nop{})
}

func TestMemoryStore_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	snap, err := m.ReadOnce(ctx, "quests/q1")
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "missing path is an empty snapshot")

	require.NoError(t, m.Write(ctx, "quests/q1", map[string]any{"title": "Wash", "amount": "100"}))
	require.NoError(t, m.Write(ctx, "quests/q2", map[string]any{"title": "Print"}))

	snap, err = m.ReadOnce(ctx, "quests/q1/title")
	require.NoError(t, err)
	assert.Equal(t, "Wash", snap.Value)
	assert.Equal(t, "title", snap.Key)

	require.NoError(t, m.Write(ctx, "quests/q1", map[string]any{"title": "Wash again"}))
	snap, err = m.ReadOnce(ctx, "quests/q1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Wash again"}, snap.Value, "write replaces the subtree")

	require.NoError(t, m.Delete(ctx, "quests/q1"))
	require.NoError(t, m.Delete(ctx, "quests/q2"))
	snap, err = m.ReadOnce(ctx, "quests")
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "emptied parents disappear")
}

func TestMemoryStore_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	require.NoError(t, m.Write(ctx, "users/u1", map[string]any{"name": "Ana"}))

	snap, err := m.ReadOnce(ctx, "users/u1")
	require.NoError(t, err)
	snap.Value.(map[string]any)["name"] = "changed"

	snap, err = m.ReadOnce(ctx, "users/u1/name")
	require.NoError(t, err)
	assert.Equal(t, "Ana", snap.Value)
}

func TestMemoryStore_UpdateKeepsSiblings(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	require.NoError(t, m.Write(ctx, "notifications/n1", map[string]any{"status": "Pending", "userId": "a"}))
	require.NoError(t, m.Update(ctx, "notifications/n1", map[string]any{"status": "Accepted"}))

	snap, err := m.ReadOnce(ctx, "notifications/n1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "Accepted", "userId": "a"}, snap.Value)
}

func TestMemoryStore_AppendIsTimeOrdered(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		id, err := m.Append(ctx, "messages/a_b", map[string]any{"text": text})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	snap, err := m.ReadOnce(ctx, "messages/a_b")
	require.NoError(t, err)
	children := snap.Children()
	require.Len(t, children, 3)
	for i, c := range children {
		assert.Equal(t, ids[i], c.Key)
	}
	assert.Equal(t, "one", children[0].Child("text").Value)
}

func TestMemoryStore_RejectsBadPaths(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	assert.Error(t, m.Write(ctx, "quests/a.b", "x"))
	_, err := m.ReadOnce(ctx, "quests/[0]")
	assert.Error(t, err)
	_, err = m.Subscribe(ctx, "a#b", func(Snapshot) {}, nil)
	assert.Error(t, err)
}

// collector records deliveries and lets tests wait for them.
type collector struct {
	mu    sync.Mutex
	snaps []Snapshot
	ch    chan Snapshot
}

func newCollector() *collector {
	return &collector{ch: make(chan Snapshot, 64)}
}

func (c *collector) onData(s Snapshot) {
	c.mu.Lock()
	c.snaps = append(c.snaps, s)
	c.mu.Unlock()
	c.ch <- s
}

func (c *collector) next(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-c.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
		return Snapshot{}
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

func TestMemoryStore_SubscribeInitialAndChanges(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)
	require.NoError(t, m.Write(ctx, "quests/q1", map[string]any{"title": "Wash"}))

	c := newCollector()
	sub, err := m.Subscribe(ctx, "quests", c.onData, nil)
	require.NoError(t, err)
	defer sub.Cancel()

	first := c.next(t)
	assert.Len(t, first.Children(), 1)

	require.NoError(t, m.Write(ctx, "quests/q2", map[string]any{"title": "Print"}))
	for {
		s := c.next(t)
		if len(s.Children()) == 2 {
			break
		}
	}
}

func TestMemoryStore_SubscribeIgnoresUnrelatedPaths(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	c := newCollector()
	sub, err := m.Subscribe(ctx, "quests", c.onData, nil)
	require.NoError(t, err)
	defer sub.Cancel()
	c.next(t)

	require.NoError(t, m.Write(ctx, "users/u1", map[string]any{"name": "Ana"}))
	require.NoError(t, m.Write(ctx, "quests/q1", map[string]any{"title": "Wash"}))

	s := c.next(t)
	assert.True(t, s.Child("q1").Exists(), "the next delivery is the quests change")
}

func TestSubscription_CancelTwiceStopsDeliveries(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	c := newCollector()
	sub, err := m.Subscribe(ctx, "quests", c.onData, nil)
	require.NoError(t, err)
	c.next(t)

	sub.Cancel()
	assert.NotPanics(t, sub.Cancel)
	assert.Equal(t, 0, m.hub.Len())

	require.NoError(t, m.Write(ctx, "quests/q1", map[string]any{"title": "Wash"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

func TestSubscription_CancelFromCallback(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	var (
		sub   Subscription
		ready = make(chan struct{})
		calls = make(chan struct{}, 8)
	)
	sub, err := m.Subscribe(ctx, "quests", func(Snapshot) {
		<-ready
		calls <- struct{}{}
		sub.Cancel()
	}, nil)
	require.NoError(t, err)
	close(ready)

	<-calls
	require.NoError(t, m.Write(ctx, "quests/q1", "x"))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, calls, 0)
	assert.Equal(t, 0, m.hub.Len())
}

func TestSubscription_NoDeliveryStartsAfterCancel(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	for i := 0; i < 200; i++ {
		var cancelled, late atomic.Bool
		first := make(chan struct{}, 1)
		sub, err := m.Subscribe(ctx, "quests", func(Snapshot) {
			if cancelled.Load() {
				late.Store(true)
			}
			select {
			case first <- struct{}{}:
			default:
			}
		}, nil)
		require.NoError(t, err)
		<-first

		stop := make(chan struct{})
		go func() {
			for j := 0; ; j++ {
				select {
				case <-stop:
					return
				default:
				}
				_ = m.Write(ctx, "quests/q1", map[string]any{"n": float64(j)})
			}
		}()
		sub.Cancel()
		cancelled.Store(true)
		close(stop)
		<-sub.(*hubSubscription).done

		require.False(t, late.Load(), "delivery started after Cancel returned (iteration %d)", i)
	}
	assert.Equal(t, 0, m.hub.Len())
}

func TestSubscription_EndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := newMemory(t)

	c := newCollector()
	_, err := m.Subscribe(ctx, "quests", c.onData, nil)
	require.NoError(t, err)
	c.next(t)

	cancel()
	assert.Eventually(t, func() bool { return m.hub.Len() == 0 }, time.Second, 10*time.Millisecond)
}
