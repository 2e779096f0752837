// Package session holds who is signed in. The client keeps one Session and
// hands it to every component that needs identity; the server carries the
// authenticated Identity on the request context.
package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// Identity is the signed-in user.
type Identity struct {
	UserID      string
	DisplayName string
}

// SignedIn reports whether i names a user.
func (i Identity) SignedIn() bool {
	return i.UserID != ""
}

// Session is the current identity plus its observers.
type Session struct {
	mu      sync.Mutex
	current Identity
	nextID  int
	subs    map[int]*Subscription
}

func New() *Session {
	return &Session{subs: map[int]*Subscription{}}
}

func (s *Session) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) SignIn(id Identity) {
	s.set(id)
}

func (s *Session) SignOut() {
	s.set(Identity{})
}

// Subscribe calls fn with the current identity right away and again after
// every SignIn or SignOut, until the returned Subscription is cancelled.
func (s *Session) Subscribe(fn func(Identity)) *Subscription {
	s.mu.Lock()
	sub := &Subscription{fn: fn, session: s, id: s.nextID}
	s.nextID++
	s.subs[sub.id] = sub
	current := s.current
	s.mu.Unlock()

	sub.deliver(current)
	return sub
}

func (s *Session) set(id Identity) {
	s.mu.Lock()
	s.current = id
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(id)
	}
}

// Subscription observes a Session.
type Subscription struct {
	fn      func(Identity)
	session *Session
	id      int
	closed  atomic.Bool
	once    sync.Once
}

// Cancel stops deliveries. Calling it more than once, or from inside the
// callback, is safe.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.closed.Store(true)
		sub.session.mu.Lock()
		delete(sub.session.subs, sub.id)
		sub.session.mu.Unlock()
	})
}

func (sub *Subscription) deliver(id Identity) {
	if sub.closed.Load() {
		return
	}
	sub.fn(id)
}

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.SignedIn() {
		return Identity{}, false
	}
	return id, true
}
