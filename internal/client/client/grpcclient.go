package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     func(api.Tokens)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(api.AccessTokenHeader)
	md.Set(api.AccessTokenHeader, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(t api.Tokens) {
	s.mu.Lock()
	s.accessToken = t.AccessToken
	s.refreshToken = t.RefreshToken
	fn := s.onTokens
	s.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

// OnTokens registers fn to be called whenever a new token pair is issued.
func (s *GRPCClient) OnTokens(fn func(api.Tokens)) {
	s.mu.Lock()
	s.onTokens = fn
	s.mu.Unlock()
}

// refresh rotates the token pair using invoker directly, bypassing the
// interceptor.
func (s *GRPCClient) refresh(ctx context.Context, cc *grpc.ClientConn, invoker grpc.UnaryInvoker) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrNotSignedIn
	}
	in, err := api.Encode(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := invoker(ctx, api.FullMethod(api.MethodRefreshToken), in, out, cc); err != nil {
		return err
	}
	var t api.Tokens
	if err := api.Decode(out, &t); err != nil {
		return err
	}
	s.setTokens(t)
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	accessToken, _ := s.tokens()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)

	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx, cc, invoker); rerr != nil {
		return err
	}

	// tokens refreshed, retry once with the new access token
	accessToken, _ = s.tokens()
	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func NewQuestBoardClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	in, err := api.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, api.FullMethod(method), in, out); err != nil {
		return mapError(err)
	}
	if resp == nil {
		return nil
	}
	return api.Decode(out, resp)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	if err := s.call(ctx, api.MethodPing, api.Empty{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp api.RegisterResponse
	if err := s.call(ctx, api.MethodRegister, reg, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (api.Tokens, error) {
	var t api.Tokens
	if err := s.call(ctx, api.MethodLogin, api.LoginRequest{Email: email, Password: password}, &t); err != nil {
		return api.Tokens{}, err
	}
	s.setTokens(t)
	return t, nil
}

// Resume exchanges a saved refresh token for a fresh pair.
func (s *GRPCClient) Resume(ctx context.Context, refreshToken string) (api.Tokens, error) {
	var t api.Tokens
	if err := s.call(ctx, api.MethodRefreshToken, api.RefreshRequest{RefreshToken: refreshToken}, &t); err != nil {
		return api.Tokens{}, err
	}
	s.setTokens(t)
	return t, nil
}

// Logout revokes the refresh token on the server and forgets both tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, refreshToken := s.tokens()
	s.mu.Lock()
	s.accessToken, s.refreshToken = "", ""
	s.mu.Unlock()
	if refreshToken == "" {
		return nil
	}
	return s.call(ctx, api.MethodLogout, api.RefreshRequest{RefreshToken: refreshToken}, nil)
}

func (s *GRPCClient) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var resp api.ProfileResponse
	err := s.call(ctx, api.MethodGetProfile, api.IDRequest{ID: userID}, &resp)
	return resp.Profile, err
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error) {
	var resp api.ProfileResponse
	err := s.call(ctx, api.MethodUpdateProfile, edit, &resp)
	return resp.Profile, err
}

func (s *GRPCClient) RequestPictureUpload(ctx context.Context) (api.PictureUpload, error) {
	var resp api.PictureUpload
	err := s.call(ctx, api.MethodRequestPictureUpload, api.Empty{}, &resp)
	return resp, err
}

func (s *GRPCClient) PictureURL(ctx context.Context, key string) (string, error) {
	var resp api.PictureURLResponse
	err := s.call(ctx, api.MethodPictureURL, api.PictureURLRequest{Key: key}, &resp)
	return resp.URL, err
}

func (s *GRPCClient) PostQuest(ctx context.Context, draft models.QuestDraft) (models.Quest, error) {
	var resp api.QuestResponse
	err := s.call(ctx, api.MethodPostQuest, draft, &resp)
	return resp.Quest, err
}

func (s *GRPCClient) GetQuest(ctx context.Context, questID string) (models.Quest, error) {
	var resp api.QuestResponse
	err := s.call(ctx, api.MethodGetQuest, api.IDRequest{ID: questID}, &resp)
	return resp.Quest, err
}

func (s *GRPCClient) ListQuests(ctx context.Context, search, category string) ([]models.Quest, error) {
	var resp api.QuestsResponse
	err := s.call(ctx, api.MethodListQuests, api.ListQuestsRequest{Search: search, Category: category}, &resp)
	return resp.Quests, err
}

func (s *GRPCClient) ListMyQuests(ctx context.Context) ([]models.Quest, error) {
	var resp api.QuestsResponse
	err := s.call(ctx, api.MethodListMyQuests, api.Empty{}, &resp)
	return resp.Quests, err
}

func (s *GRPCClient) UpdateQuest(ctx context.Context, questID string, edit models.QuestEdit) (models.Quest, error) {
	var resp api.QuestResponse
	err := s.call(ctx, api.MethodUpdateQuest, api.UpdateQuestRequest{ID: questID, Edit: edit}, &resp)
	return resp.Quest, err
}

func (s *GRPCClient) DeleteQuest(ctx context.Context, questID string) error {
	return s.call(ctx, api.MethodDeleteQuest, api.IDRequest{ID: questID}, nil)
}

func (s *GRPCClient) ExpressInterest(ctx context.Context, questID string) (models.Notification, error) {
	var resp api.NotificationResponse
	err := s.call(ctx, api.MethodExpressInterest, api.IDRequest{ID: questID}, &resp)
	return resp.Notification, err
}

func (s *GRPCClient) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var resp api.NotificationsResponse
	err := s.call(ctx, api.MethodListNotifications, api.Empty{}, &resp)
	return resp.Notifications, err
}

func (s *GRPCClient) AcceptInterest(ctx context.Context, notificationID string) (string, error) {
	var resp api.AcceptResponse
	err := s.call(ctx, api.MethodAcceptInterest, api.IDRequest{ID: notificationID}, &resp)
	return resp.ConversationID, err
}

func (s *GRPCClient) DeclineInterest(ctx context.Context, notificationID string) error {
	return s.call(ctx, api.MethodDeclineInterest, api.IDRequest{ID: notificationID}, nil)
}

func (s *GRPCClient) Inbox(ctx context.Context) ([]models.ConversationSummary, error) {
	var resp api.InboxResponse
	err := s.call(ctx, api.MethodInbox, api.Empty{}, &resp)
	return resp.Conversations, err
}

func (s *GRPCClient) Conversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	var resp api.MessagesResponse
	err := s.call(ctx, api.MethodConversation, api.ConversationRequest{ConversationID: conversationID}, &resp)
	return resp.Messages, err
}

func (s *GRPCClient) SendMessage(ctx context.Context, conversationID, text string) (models.Message, error) {
	var resp api.MessageResponse
	err := s.call(ctx, api.MethodSendMessage, api.SendMessageRequest{ConversationID: conversationID, Text: text}, &resp)
	return resp.Message, err
}

func plainInvoke(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
	return cc.Invoke(ctx, method, req, reply, opts...)
}

var watchDesc = &grpc.StreamDesc{StreamName: api.MethodWatch, ServerStreams: true}

func (s *GRPCClient) Watch(ctx context.Context, req models.WatchRequest, fn func(models.View)) error {
	err := s.watch(ctx, req, fn)
	if isTokenExpired(err) {
		if rerr := s.refresh(ctx, s.conn, plainInvoke); rerr == nil {
			err = s.watch(ctx, req, fn)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return mapError(err)
}

func (s *GRPCClient) watch(ctx context.Context, req models.WatchRequest, fn func(models.View)) error {
	accessToken, _ := s.tokens()
	stream, err := s.conn.NewStream(withAccessToken(ctx, accessToken), watchDesc, api.FullMethod(api.MethodWatch))
	if err != nil {
		return err
	}
	in, err := api.Encode(req)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var v models.View
		if err := api.Decode(out, &v); err != nil {
			return err
		}
		fn(v)
	}
}

// mapError wraps a gRPC status in the matching sentinel, keeping the
// server's message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = ErrForbidden
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.InvalidArgument:
		sentinel = ErrInvalid
	case codes.FailedPrecondition, codes.AlreadyExists:
		sentinel = ErrConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
