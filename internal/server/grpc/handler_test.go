package grpc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func draft() models.QuestDraft {
	return models.QuestDraft{
		Content:         "Clean my car",
		SkillRequired:   "none",
		Deadline:        "2025-03-01",
		Amount:          "100",
		Category:        "Personal",
		ReferenceNumber: "1234567890123",
	}
}

func TestPing_Public(t *testing.T) {
	h := newHarness(t)
	var resp api.PingResponse
	require.NoError(t, h.call(context.Background(), api.MethodPing, api.Empty{}, &resp))
	assert.Equal(t, "OK", resp.Status)
}

func TestAccountMethods(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.users.regID = "u-1"
	var reg api.RegisterResponse
	require.NoError(t, h.call(ctx, api.MethodRegister, models.Registration{Email: "ana@ustp.edu.ph"}, &reg))
	assert.Equal(t, "u-1", reg.UserID)
	assert.Equal(t, "ana@ustp.edu.ph", h.users.registered.Email)

	h.users.tokens = &services.TokenPair{AccessToken: "a", RefreshToken: "r", UserID: "u-1"}
	var tokens api.Tokens
	require.NoError(t, h.call(ctx, api.MethodLogin, api.LoginRequest{Email: "x", Password: "y"}, &tokens))
	assert.Equal(t, api.Tokens{AccessToken: "a", RefreshToken: "r", UserID: "u-1"}, tokens)

	h.users.loginErr = common.ErrorUnauthorized
	err := h.call(ctx, api.MethodLogin, api.LoginRequest{}, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	h.users.refreshErr = common.ErrRefreshTokenExpired
	err = h.call(ctx, api.MethodRefreshToken, api.RefreshRequest{RefreshToken: "r"}, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, h.call(ctx, api.MethodLogout, api.RefreshRequest{RefreshToken: "r"}, nil))
	assert.Equal(t, "r", h.users.loggedOut)

	h.users.regErr = common.ErrEmailRegistered
	err = h.call(ctx, api.MethodRegister, models.Registration{}, nil)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestProtectedMethodNeedsToken(t *testing.T) {
	h := newHarness(t)
	err := h.call(context.Background(), api.MethodListQuests, api.ListQuestsRequest{}, nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestInterestFlowOverTheWire(t *testing.T) {
	h := newHarness(t)
	alice, bob := as(t, "alice"), as(t, "bob")

	var posted api.QuestResponse
	require.NoError(t, h.call(alice, api.MethodPostQuest, draft(), &posted))
	assert.Equal(t, "Alice A", posted.Quest.DisplayName)
	assert.Equal(t, models.QuestStatusPending, posted.Quest.Status)

	var list api.QuestsResponse
	require.NoError(t, h.call(bob, api.MethodListQuests, api.ListQuestsRequest{Search: "CAR", Category: "Personal"}, &list))
	require.Len(t, list.Quests, 1)
	assert.Equal(t, posted.Quest.ID, list.Quests[0].ID)

	err := h.call(alice, api.MethodExpressInterest, api.IDRequest{ID: posted.Quest.ID}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	var interest api.NotificationResponse
	require.NoError(t, h.call(bob, api.MethodExpressInterest, api.IDRequest{ID: posted.Quest.ID}, &interest))

	var inbound api.NotificationsResponse
	require.NoError(t, h.call(alice, api.MethodListNotifications, api.Empty{}, &inbound))
	require.Len(t, inbound.Notifications, 1)
	nid := inbound.Notifications[0].ID

	err = h.call(bob, api.MethodAcceptInterest, api.IDRequest{ID: nid}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var accepted api.AcceptResponse
	require.NoError(t, h.call(alice, api.MethodAcceptInterest, api.IDRequest{ID: nid}, &accepted))
	assert.Equal(t, "alice_bob", accepted.ConversationID)

	err = h.call(alice, api.MethodDeclineInterest, api.IDRequest{ID: nid}, nil)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, h.call(bob, api.MethodSendMessage, api.SendMessageRequest{ConversationID: "alice_bob", Text: "On my way"}, nil))

	var inbox api.InboxResponse
	require.NoError(t, h.call(alice, api.MethodInbox, api.Empty{}, &inbox))
	require.Len(t, inbox.Conversations, 1)
	assert.Equal(t, "Bob B", inbox.Conversations[0].OtherUserName)
	assert.Equal(t, "On my way", inbox.Conversations[0].LastMessage)

	var msgs api.MessagesResponse
	require.NoError(t, h.call(alice, api.MethodConversation, api.ConversationRequest{ConversationID: "alice_bob"}, &msgs))
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, "bob", msgs.Messages[0].Sender)
}

func TestQuestOwnershipAndErrors(t *testing.T) {
	h := newHarness(t)
	alice, bob := as(t, "alice"), as(t, "bob")

	bad := draft()
	bad.Amount = "10"
	err := h.call(alice, api.MethodPostQuest, bad, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	var posted api.QuestResponse
	require.NoError(t, h.call(alice, api.MethodPostQuest, draft(), &posted))

	err = h.call(bob, api.MethodDeleteQuest, api.IDRequest{ID: posted.Quest.ID}, nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var updated api.QuestResponse
	edit := api.UpdateQuestRequest{ID: posted.Quest.ID, Edit: models.QuestEdit{Title: "Car wash", Content: "Clean my car"}}
	require.NoError(t, h.call(alice, api.MethodUpdateQuest, edit, &updated))
	assert.Equal(t, "Car wash", updated.Quest.Title)

	var mine api.QuestsResponse
	require.NoError(t, h.call(alice, api.MethodListMyQuests, api.Empty{}, &mine))
	assert.Len(t, mine.Quests, 1)

	require.NoError(t, h.call(alice, api.MethodDeleteQuest, api.IDRequest{ID: posted.Quest.ID}, nil))
	err = h.call(alice, api.MethodGetQuest, api.IDRequest{ID: posted.Quest.ID}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestProfileMethods(t *testing.T) {
	h := newHarness(t)
	alice := as(t, "alice")

	var me api.ProfileResponse
	require.NoError(t, h.call(alice, api.MethodGetProfile, api.IDRequest{}, &me))
	assert.Equal(t, "Alice A", me.Profile.Name)

	var updated api.ProfileResponse
	edit := models.ProfileEdit{Name: "Alice", Bio: "hi", ProfilePicture: "pictures/alice/x.jpg"}
	require.NoError(t, h.call(alice, api.MethodUpdateProfile, edit, &updated))
	assert.Equal(t, "pictures/alice/x.jpg", updated.Profile.ProfilePicture)

	var bob api.ProfileResponse
	require.NoError(t, h.call(alice, api.MethodGetProfile, api.IDRequest{ID: "bob"}, &bob))
	assert.Equal(t, "Bob B", bob.Profile.Name)

	err := h.call(alice, api.MethodUpdateProfile, models.ProfileEdit{}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetProfile_HidesOthersContactDetails(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Update(context.Background(), "users/bob", map[string]any{
		"firstName":   "Bob",
		"email":       "bob@ustp.edu.ph",
		"phoneNumber": "09171234567",
		"bday":        "2001-04-05",
	}))

	var seen api.ProfileResponse
	require.NoError(t, h.call(as(t, "alice"), api.MethodGetProfile, api.IDRequest{ID: "bob"}, &seen))
	assert.Equal(t, models.Profile{ID: "bob", Name: "Bob B", FirstName: "Bob"}, seen.Profile)

	var own api.ProfileResponse
	require.NoError(t, h.call(as(t, "bob"), api.MethodGetProfile, api.IDRequest{ID: "bob"}, &own))
	assert.Equal(t, "bob@ustp.edu.ph", own.Profile.Email)
	assert.Equal(t, "09171234567", own.Profile.PhoneNumber)
	assert.Equal(t, "2001-04-05", own.Profile.Birthday)
}

func openWatch(t *testing.T, h *harness, ctx context.Context, req models.WatchRequest) grpc.ClientStream {
	t.Helper()
	stream, err := h.conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, api.FullMethod(api.MethodWatch))
	require.NoError(t, err)
	in, err := api.Encode(req)
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(in))
	require.NoError(t, stream.CloseSend())
	return stream
}

func recvView(t *testing.T, stream grpc.ClientStream) models.View {
	t.Helper()
	out := new(structpb.Struct)
	require.NoError(t, stream.RecvMsg(out))
	var v models.View
	require.NoError(t, api.Decode(out, &v))
	return v
}

func TestWatch_StreamsQuestViews(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(as(t, "bob"))
	defer cancel()

	stream := openWatch(t, h, ctx, models.WatchRequest{Topic: models.TopicQuests, Search: "car"})
	first := recvView(t, stream)
	assert.Equal(t, models.TopicQuests, first.Topic)
	assert.Empty(t, first.Quests)

	require.NoError(t, h.call(as(t, "alice"), api.MethodPostQuest, draft(), nil))
	next := recvView(t, stream)
	require.Len(t, next.Quests, 1)
	assert.Equal(t, "Clean my car", next.Quests[0].Content)

	cancel()
	require.Eventually(t, func() bool { return h.store.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_Errors(t *testing.T) {
	h := newHarness(t)

	stream := openWatch(t, h, context.Background(), models.WatchRequest{Topic: models.TopicQuests})
	err := stream.RecvMsg(new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	stream = openWatch(t, h, as(t, "alice"), models.WatchRequest{Topic: "weather"})
	err = stream.RecvMsg(new(structpb.Struct))
	require.NotEqual(t, io.EOF, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	stream = openWatch(t, h, as(t, "alice"), models.WatchRequest{Topic: models.TopicConversation, ConversationID: "bob_carol"})
	err = stream.RecvMsg(new(structpb.Struct))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
