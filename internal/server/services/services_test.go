package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
	"github.com/stretchr/testify/require"
)

var (
	feb1  = time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	alice = session.Identity{UserID: "alice", DisplayName: "Alice A"}
	bob   = session.Identity{UserID: "bob", DisplayName: "Bob B"}
	carol = session.Identity{UserID: "carol", DisplayName: "Carol C"}
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fixture struct {
	store         *store.MemoryStore
	profiles      *ProfileService
	quests        *QuestService
	notifications *NotificationService
	conversations *ConversationService
	watch         *WatchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Nop{}
	st := store.NewMemoryStore(logger)
	clock := fixedClock(feb1)

	f := &fixture{store: st}
	f.profiles = NewProfileService(st, logger)
	f.quests = NewQuestService(st, clock, logger)
	f.notifications = NewNotificationService(st, f.quests, clock, logger)
	f.conversations = NewConversationService(st, f.profiles, clock, logger)
	f.watch = NewWatchService(st, f.conversations, logger)

	for _, id := range []session.Identity{alice, bob, carol} {
		require.NoError(t, f.profiles.Create(context.Background(), models.Profile{ID: id.UserID, Name: id.DisplayName}))
	}
	return f
}

func cleanCarDraft() models.QuestDraft {
	return models.QuestDraft{
		Content:         "Clean my car",
		SkillRequired:   "none",
		Deadline:        "2025-03-01",
		Amount:          "100",
		Category:        "Personal",
		ReferenceNumber: "1234567890123",
	}
}

// dump returns the whole store, for asserting that nothing changed.
func (f *fixture) dump(t *testing.T) any {
	t.Helper()
	snap, err := f.store.ReadOnce(context.Background(), "")
	require.NoError(t, err)
	return snap.Value
}
