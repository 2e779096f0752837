package client

import (
	"context"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, reg models.Registration) (string, error)
	Login(ctx context.Context, email, password string) (api.Tokens, error)
	Resume(ctx context.Context, refreshToken string) (api.Tokens, error)
	Logout(ctx context.Context) error
	OnTokens(fn func(api.Tokens))

	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	UpdateProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error)
	RequestPictureUpload(ctx context.Context) (api.PictureUpload, error)
	PictureURL(ctx context.Context, key string) (string, error)

	PostQuest(ctx context.Context, draft models.QuestDraft) (models.Quest, error)
	GetQuest(ctx context.Context, questID string) (models.Quest, error)
	ListQuests(ctx context.Context, search, category string) ([]models.Quest, error)
	ListMyQuests(ctx context.Context) ([]models.Quest, error)
	UpdateQuest(ctx context.Context, questID string, edit models.QuestEdit) (models.Quest, error)
	DeleteQuest(ctx context.Context, questID string) error

	ExpressInterest(ctx context.Context, questID string) (models.Notification, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	AcceptInterest(ctx context.Context, notificationID string) (string, error)
	DeclineInterest(ctx context.Context, notificationID string) error

	Inbox(ctx context.Context) ([]models.ConversationSummary, error)
	Conversation(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, text string) (models.Message, error)

	// Watch calls fn with every view until ctx ends (nil) or the stream
	// fails.
	Watch(ctx context.Context, req models.WatchRequest, fn func(models.View)) error
}
