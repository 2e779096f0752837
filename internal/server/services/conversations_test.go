package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_SendAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tick := feb1
	f.conversations.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	_, err := f.conversations.Send(ctx, bob, "bob_alice", "Hi, when can you start?")
	require.NoError(t, err)
	m, err := f.conversations.Send(ctx, alice, "bob_alice", "  Tomorrow  ")
	require.NoError(t, err)
	assert.Equal(t, "Tomorrow", m.Text)
	assert.Equal(t, "bob", m.Receiver)
	assert.NotEmpty(t, m.ID)

	msgs, err := f.conversations.Conversation(ctx, alice, "bob_alice")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi, when can you start?", msgs[0].Text)
	assert.Equal(t, "Tomorrow", msgs[1].Text)
	assert.Equal(t, "bob_alice", msgs[1].ConversationID)
}

func TestConversationService_SendRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.dump(t)

	_, err := f.conversations.Send(ctx, alice, "bob_alice", "   ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.conversations.Send(ctx, carol, "bob_alice", "let me in")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.conversations.Send(ctx, alice, "not-a-conversation", "hi")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.conversations.Send(ctx, alice, "bob_alice/nested", "hi")
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, before, f.dump(t))

	_, err = f.conversations.Conversation(ctx, carol, "bob_alice")
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestConversationService_Inbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	at := func(ms int64) Clock { return func() time.Time { return time.UnixMilli(ms) } }

	f.conversations.now = at(1000)
	_, err := f.conversations.Send(ctx, bob, "bob_alice", "first")
	require.NoError(t, err)
	f.conversations.now = at(3000)
	_, err = f.conversations.Send(ctx, carol, "carol_alice", "newest")
	require.NoError(t, err)
	f.conversations.now = at(2000)
	_, err = f.conversations.Send(ctx, alice, "bob_alice", "second")
	require.NoError(t, err)
	f.conversations.now = at(9000)
	_, err = f.conversations.Send(ctx, carol, "carol_bob", "not for alice")
	require.NoError(t, err)

	inbox, err := f.conversations.Inbox(ctx, alice)
	require.NoError(t, err)

	want := []models.ConversationSummary{
		{ConversationID: "carol_alice", LastMessage: "newest", Timestamp: 3000, OtherUserID: "carol", OtherUserName: "Carol C"},
		{ConversationID: "bob_alice", LastMessage: "second", Timestamp: 2000, OtherUserID: "bob", OtherUserName: "Bob B"},
	}
	assert.Equal(t, want, inbox)
}
