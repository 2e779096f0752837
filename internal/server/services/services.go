// Package services contains the server-side business logic of Quest Board:
// accounts and profiles, the quest lifecycle, the interest/notification
// flow, conversations, picture presigning and live views. Services take the
// caller's session.Identity explicitly; they never read it from a context.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/store"
)

// Record store roots.
const (
	usersRoot         = "users"
	questsRoot        = "quests"
	notificationsRoot = "notifications"
	messagesRoot      = "messages"
)

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// recordPath joins root and id. An id that is not exactly one record key
// names no record.
func recordPath(root, id string) (string, error) {
	segs, err := store.SplitPath(id)
	if err != nil || len(segs) != 1 || segs[0] != id {
		return "", fmt.Errorf("%w: invalid id %q", common.ErrorNotFound, id)
	}
	return store.JoinPath(root, id), nil
}

// readRecord decodes the record at path into v. A missing record is
// common.ErrorNotFound.
func readRecord(ctx context.Context, s store.Store, path string, v any) error {
	snap, err := s.ReadOnce(ctx, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !snap.Exists() {
		return common.ErrorNotFound
	}
	if err := snap.Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", common.ErrorInternal, path, err)
	}
	return nil
}

// decodeChildren decodes every child of snap in key order. keyed, if not
// nil, receives each child's key before it is appended.
func decodeChildren[T any](snap store.Snapshot, keyed func(key string, v *T)) ([]T, error) {
	children := snap.Children()
	out := make([]T, 0, len(children))
	for _, c := range children {
		var v T
		if err := c.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", common.ErrorInternal, c.Key, err)
		}
		if keyed != nil {
			keyed(c.Key, &v)
		}
		out = append(out, v)
	}
	return out, nil
}
