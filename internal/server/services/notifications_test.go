package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestFlow_Accept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)

	req, err := f.notifications.ExpressInterest(ctx, alice, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPending, req.Status)
	assert.Equal(t, "bob", req.OwnerID)
	assert.Equal(t, "Alice A", req.UserName)
	assert.Equal(t, "Clean my car", req.QuestTitle)

	bobs, err := f.notifications.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.True(t, bobs[0].Actionable())
	assert.Equal(t, req.ID, bobs[0].ID)

	convID, err := f.notifications.Accept(ctx, bob, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob_alice", convID)

	var stored models.Notification
	require.NoError(t, readRecord(ctx, f.store, store.JoinPath(notificationsRoot, req.ID), &stored))
	assert.Equal(t, models.NotificationAccepted, stored.Status)
	assert.Equal(t, "alice", stored.UserID, "accept only changes the status")

	alices, err := f.notifications.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, alices, 1)
	assert.Equal(t, models.NotificationMessage, alices[0].Status)
	assert.Equal(t, "Bob B accepted your request to take the quest.", alices[0].Message)
	assert.Equal(t, "bob_alice", alices[0].ConversationID)
	assert.False(t, alices[0].Actionable())

	_, err = f.notifications.Accept(ctx, bob, req.ID)
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestInterestFlow_Decline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)
	req, err := f.notifications.ExpressInterest(ctx, alice, q.ID)
	require.NoError(t, err)

	require.NoError(t, f.notifications.Decline(ctx, bob, req.ID))

	snap, err := f.store.ReadOnce(ctx, store.JoinPath(notificationsRoot, req.ID))
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "declined requests are removed")

	alices, err := f.notifications.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, alices, 1)
	assert.Equal(t, "Bob B declined your request to take the quest.", alices[0].Message)
	assert.Empty(t, alices[0].ConversationID)

	bobs, err := f.notifications.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	assert.ErrorIs(t, f.notifications.Decline(ctx, bob, req.ID), common.ErrorNotFound)
}

func TestInterestFlow_SelfInterestWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)
	before := f.dump(t)

	_, err = f.notifications.ExpressInterest(ctx, bob, q.ID)
	assert.ErrorIs(t, err, common.ErrSelfInterest)
	assert.Equal(t, before, f.dump(t))
}

func TestInterestFlow_UnknownQuest(t *testing.T) {
	f := newFixture(t)
	_, err := f.notifications.ExpressInterest(context.Background(), alice, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInterestFlow_OnlyOwnerActs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)
	req, err := f.notifications.ExpressInterest(ctx, alice, q.ID)
	require.NoError(t, err)
	before := f.dump(t)

	for _, who := range []struct {
		name string
		call func() error
	}{
		{"requester accepts", func() error { _, err := f.notifications.Accept(ctx, alice, req.ID); return err }},
		{"stranger accepts", func() error { _, err := f.notifications.Accept(ctx, carol, req.ID); return err }},
		{"stranger declines", func() error { return f.notifications.Decline(ctx, carol, req.ID) }},
	} {
		t.Run(who.name, func(t *testing.T) {
			assert.ErrorIs(t, who.call(), common.ErrorForbidden)
			assert.Equal(t, before, f.dump(t))
		})
	}
}

func TestInterestFlow_NoticesAreNotActionable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)
	req, err := f.notifications.ExpressInterest(ctx, alice, q.ID)
	require.NoError(t, err)
	_, err = f.notifications.Accept(ctx, bob, req.ID)
	require.NoError(t, err)

	alices, err := f.notifications.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, alices, 1)

	_, err = f.notifications.Accept(ctx, alice, alices[0].ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestInterestFlow_MalformedIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.quests.Post(ctx, bob, cleanCarDraft())
	require.NoError(t, err)
	req, err := f.notifications.ExpressInterest(ctx, alice, q.ID)
	require.NoError(t, err)
	before := f.dump(t)

	for _, bad := range []string{"", "/", req.ID + "/status", "a/b", "/" + req.ID} {
		t.Run(bad, func(t *testing.T) {
			_, err := f.notifications.ExpressInterest(ctx, alice, bad)
			assert.ErrorIs(t, err, common.ErrorNotFound)
			_, err = f.notifications.Accept(ctx, bob, bad)
			assert.ErrorIs(t, err, common.ErrorNotFound)
			assert.ErrorIs(t, f.notifications.Decline(ctx, bob, bad), common.ErrorNotFound)
			assert.Equal(t, before, f.dump(t))
		})
	}

	alices, err := f.notifications.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, alices)
}
