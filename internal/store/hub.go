package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/questboard/internal/logging"
)

// Hub fans change signals out to subscriptions. Each subscription runs one
// goroutine that re-reads its path when signalled; signals arriving while a
// read is pending collapse into one.
type Hub struct {
	mu     sync.Mutex
	subs   map[*hubSubscription]struct{}
	logger logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{subs: map[*hubSubscription]struct{}{}, logger: logger.With("module", "store.hub")}
}

// ReadFunc reads the current snapshot of a subscribed path.
type ReadFunc func(ctx context.Context) (Snapshot, error)

// Subscribe registers a subscription on segs and starts its goroutine. The
// first delivery happens right away.
func (h *Hub) Subscribe(ctx context.Context, segs []string, read ReadFunc, onData func(Snapshot), onError func(error)) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &hubSubscription{
		hub:     h,
		segs:    segs,
		read:    read,
		onData:  onData,
		onError: onError,
		dirty:   make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.dirty <- struct{}{}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.run(ctx)
	return s
}

// Publish signals every subscription whose path overlaps the changed path.
func (h *Hub) Publish(path string) {
	segs, err := SplitPath(path)
	if err != nil {
		h.logger.Warn(context.Background(), "publish with invalid path", "path", path, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if overlaps(s.segs, segs) {
			s.signal()
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(s *hubSubscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type hubSubscription struct {
	hub     *Hub
	segs    []string
	read    ReadFunc
	onData  func(Snapshot)
	onError func(error)
	dirty   chan struct{}
	cancel  context.CancelFunc
	closed  atomic.Bool
	once    sync.Once
	done    chan struct{}

	// deliver is held from the closed check until the callback returns.
	deliver    sync.Mutex
	delivering atomic.Bool
}

func (s *hubSubscription) signal() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *hubSubscription) Cancel() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.hub.remove(s)
	})
	// Called from inside a callback: that delivery is the running one.
	if s.delivering.Load() {
		return
	}
	s.deliver.Lock()
	s.deliver.Unlock()
}

// emit runs fn unless the subscription was cancelled. It reports false
// once cancelled.
func (s *hubSubscription) emit(fn func()) bool {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	if s.closed.Load() {
		return false
	}
	s.delivering.Store(true)
	defer s.delivering.Store(false)
	fn()
	return true
}

func (s *hubSubscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
		}

		snap, err := s.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if s.onError != nil && !s.emit(func() { s.onError(err) }) {
				return
			}
			continue
		}
		if !s.emit(func() { s.onData(snap) }) {
			return
		}
	}
}
