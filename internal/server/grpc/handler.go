package grpc

import (
	"context"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func caller(ctx context.Context) (session.Identity, error) {
	id, ok := session.FromContext(ctx)
	if !ok {
		return session.Identity{}, common.ErrorUnauthorized
	}
	return id, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ api.Empty) (api.PingResponse, error) {
	return api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req models.Registration) (api.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request")

	userID, err := s.svc.Users.Register(ctx, req)
	if err != nil {
		return api.RegisterResponse{}, err
	}

	s.logger.Info(ctx, "Registered", "user_id", userID)
	return api.RegisterResponse{UserID: userID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req api.LoginRequest) (api.Tokens, error) {
	tokens, err := s.svc.Users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return api.Tokens{}, err
	}
	return api.Tokens{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, UserID: tokens.UserID}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req api.RefreshRequest) (api.Tokens, error) {
	tokens, err := s.svc.Users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return api.Tokens{}, err
	}
	return api.Tokens{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken, UserID: tokens.UserID}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req api.RefreshRequest) (api.Empty, error) {
	return api.Empty{}, s.svc.Users.Logout(ctx, req.RefreshToken)
}

// GetProfile returns the profile of req.ID, or of the caller when ID is empty.
// Other users' profiles come without contact details.
func (s *GRPCServer) GetProfile(ctx context.Context, req api.IDRequest) (api.ProfileResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.ProfileResponse{}, err
	}
	userID := req.ID
	if userID == "" {
		userID = id.UserID
	}
	p, err := s.svc.Profiles.Get(ctx, userID)
	if err != nil {
		return api.ProfileResponse{}, err
	}
	if userID != id.UserID {
		p = p.Public()
	}
	return api.ProfileResponse{Profile: p}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req models.ProfileEdit) (api.ProfileResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.ProfileResponse{}, err
	}
	p, err := s.svc.Profiles.Update(ctx, id, req)
	if err != nil {
		return api.ProfileResponse{}, err
	}
	return api.ProfileResponse{Profile: p}, nil
}

func (s *GRPCServer) RequestPictureUpload(ctx context.Context, _ api.Empty) (api.PictureUpload, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.PictureUpload{}, err
	}
	up, err := s.svc.Media.RequestPictureUpload(ctx, id)
	if err != nil {
		return api.PictureUpload{}, err
	}
	return api.PictureUpload{Key: up.Key, URL: up.URL}, nil
}

func (s *GRPCServer) PictureURL(ctx context.Context, req api.PictureURLRequest) (api.PictureURLResponse, error) {
	url, err := s.svc.Media.PictureURL(ctx, req.Key)
	if err != nil {
		return api.PictureURLResponse{}, err
	}
	return api.PictureURLResponse{URL: url}, nil
}

func (s *GRPCServer) PostQuest(ctx context.Context, req models.QuestDraft) (api.QuestResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.QuestResponse{}, err
	}
	q, err := s.svc.Quests.Post(ctx, id, req)
	if err != nil {
		return api.QuestResponse{}, err
	}
	return api.QuestResponse{Quest: q}, nil
}

func (s *GRPCServer) GetQuest(ctx context.Context, req api.IDRequest) (api.QuestResponse, error) {
	q, err := s.svc.Quests.Get(ctx, req.ID)
	if err != nil {
		return api.QuestResponse{}, err
	}
	return api.QuestResponse{Quest: q}, nil
}

func (s *GRPCServer) ListQuests(ctx context.Context, req api.ListQuestsRequest) (api.QuestsResponse, error) {
	qs, err := s.svc.Quests.List(ctx, req.Search, req.Category)
	if err != nil {
		return api.QuestsResponse{}, err
	}
	return api.QuestsResponse{Quests: qs}, nil
}

func (s *GRPCServer) ListMyQuests(ctx context.Context, _ api.Empty) (api.QuestsResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.QuestsResponse{}, err
	}
	qs, err := s.svc.Quests.ListMine(ctx, id)
	if err != nil {
		return api.QuestsResponse{}, err
	}
	return api.QuestsResponse{Quests: qs}, nil
}

func (s *GRPCServer) UpdateQuest(ctx context.Context, req api.UpdateQuestRequest) (api.QuestResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.QuestResponse{}, err
	}
	q, err := s.svc.Quests.Update(ctx, id, req.ID, req.Edit)
	if err != nil {
		return api.QuestResponse{}, err
	}
	return api.QuestResponse{Quest: q}, nil
}

func (s *GRPCServer) DeleteQuest(ctx context.Context, req api.IDRequest) (api.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.Empty{}, err
	}
	return api.Empty{}, s.svc.Quests.Delete(ctx, id, req.ID)
}

func (s *GRPCServer) ExpressInterest(ctx context.Context, req api.IDRequest) (api.NotificationResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.NotificationResponse{}, err
	}
	n, err := s.svc.Notifications.ExpressInterest(ctx, id, req.ID)
	if err != nil {
		return api.NotificationResponse{}, err
	}
	return api.NotificationResponse{Notification: n}, nil
}

func (s *GRPCServer) ListNotifications(ctx context.Context, _ api.Empty) (api.NotificationsResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.NotificationsResponse{}, err
	}
	ns, err := s.svc.Notifications.List(ctx, id)
	if err != nil {
		return api.NotificationsResponse{}, err
	}
	return api.NotificationsResponse{Notifications: ns}, nil
}

func (s *GRPCServer) AcceptInterest(ctx context.Context, req api.IDRequest) (api.AcceptResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.AcceptResponse{}, err
	}
	conv, err := s.svc.Notifications.Accept(ctx, id, req.ID)
	if err != nil {
		return api.AcceptResponse{}, err
	}
	return api.AcceptResponse{ConversationID: conv}, nil
}

func (s *GRPCServer) DeclineInterest(ctx context.Context, req api.IDRequest) (api.Empty, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.Empty{}, err
	}
	return api.Empty{}, s.svc.Notifications.Decline(ctx, id, req.ID)
}

func (s *GRPCServer) Inbox(ctx context.Context, _ api.Empty) (api.InboxResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.InboxResponse{}, err
	}
	cs, err := s.svc.Conversations.Inbox(ctx, id)
	if err != nil {
		return api.InboxResponse{}, err
	}
	return api.InboxResponse{Conversations: cs}, nil
}

func (s *GRPCServer) Conversation(ctx context.Context, req api.ConversationRequest) (api.MessagesResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.MessagesResponse{}, err
	}
	ms, err := s.svc.Conversations.Conversation(ctx, id, req.ConversationID)
	if err != nil {
		return api.MessagesResponse{}, err
	}
	return api.MessagesResponse{Messages: ms}, nil
}

func (s *GRPCServer) SendMessage(ctx context.Context, req api.SendMessageRequest) (api.MessageResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return api.MessageResponse{}, err
	}
	m, err := s.svc.Conversations.Send(ctx, id, req.ConversationID, req.Text)
	if err != nil {
		return api.MessageResponse{}, err
	}
	return api.MessageResponse{Message: m}, nil
}

// Watch streams recomputed views until the client goes away or the server
// stops.
func (s *GRPCServer) Watch(stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()
	stop := context.AfterFunc(s.stopping, cancel)
	defer stop()

	id, err := caller(ctx)
	if err != nil {
		return s.toStatus(ctx, err)
	}

	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	var req models.WatchRequest
	if err := api.Decode(in, &req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Info(ctx, "watch opened", "user_id", id.UserID, "topic", req.Topic)
	err = s.svc.Watch.Watch(ctx, id, req, func(v models.View) error {
		out, err := api.Encode(v)
		if err != nil {
			return err
		}
		return stream.SendMsg(out)
	})
	s.logger.Info(ctx, "watch closed", "user_id", id.UserID, "topic", req.Topic)
	return s.toStatus(ctx, err)
}
