package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/feed"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
)

// NotificationService runs the interest flow: a user asks to take a quest,
// the owner accepts or declines, and the user is told the outcome.
type NotificationService struct {
	store  store.Store
	quests *QuestService
	now    Clock
	logger logging.Logger
}

func NewNotificationService(s store.Store, quests *QuestService, now Clock, logger logging.Logger) *NotificationService {
	return &NotificationService{store: s, quests: quests, now: orNow(now), logger: logger.With("module", "notifications")}
}

// ExpressInterest records a pending request from id on questID. Owners
// cannot request their own quest.
func (s *NotificationService) ExpressInterest(ctx context.Context, id session.Identity, questID string) (models.Notification, error) {
	if !id.SignedIn() {
		return models.Notification{}, common.ErrorUnauthorized
	}
	q, err := s.quests.Get(ctx, questID)
	if err != nil {
		return models.Notification{}, err
	}
	if q.UserID == id.UserID {
		return models.Notification{}, common.ErrSelfInterest
	}

	n := models.Notification{
		QuestID:    q.ID,
		QuestTitle: q.Heading(),
		UserID:     id.UserID,
		UserName:   id.DisplayName,
		OwnerID:    q.UserID,
		Status:     models.NotificationPending,
		Date:       s.date(),
	}
	key, err := s.store.Append(ctx, notificationsRoot, n)
	if err != nil {
		return models.Notification{}, fmt.Errorf("append notification: %w", err)
	}
	n.ID = key

	s.logger.Info(ctx, "interest expressed", "quest_id", q.ID, "user_id", id.UserID, "notification_id", key)
	return n, nil
}

// List returns the notifications addressed to id, oldest first.
func (s *NotificationService) List(ctx context.Context, id session.Identity) ([]models.Notification, error) {
	if !id.SignedIn() {
		return nil, common.ErrorUnauthorized
	}
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return models.Inbound(id.UserID, all), nil
}

// Accept marks a pending request accepted, tells the requester and returns
// the conversation id the two users chat under.
func (s *NotificationService) Accept(ctx context.Context, id session.Identity, notificationID string) (string, error) {
	n, err := s.actionable(ctx, id, notificationID)
	if err != nil {
		return "", err
	}

	path := store.JoinPath(notificationsRoot, notificationID)
	if err := s.store.Update(ctx, path, map[string]any{"status": models.NotificationAccepted}); err != nil {
		return "", fmt.Errorf("accept notification: %w", err)
	}

	conversationID := feed.ConversationID(n.OwnerID, n.UserID)
	notice := models.Notification{
		UserID:         n.UserID,
		UserName:       id.DisplayName,
		Status:         models.NotificationMessage,
		Message:        fmt.Sprintf("%s accepted your request to take the quest.", id.DisplayName),
		Date:           s.date(),
		ConversationID: conversationID,
	}
	if _, err := s.store.Append(ctx, notificationsRoot, notice); err != nil {
		return "", fmt.Errorf("append notice: %w", err)
	}

	s.logger.Info(ctx, "interest accepted", "notification_id", notificationID, "conversation_id", conversationID)
	return conversationID, nil
}

// Decline removes a pending request and tells the requester.
func (s *NotificationService) Decline(ctx context.Context, id session.Identity, notificationID string) error {
	n, err := s.actionable(ctx, id, notificationID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, store.JoinPath(notificationsRoot, notificationID)); err != nil {
		return fmt.Errorf("decline notification: %w", err)
	}

	notice := models.Notification{
		UserID:   n.UserID,
		UserName: id.DisplayName,
		Status:   models.NotificationMessage,
		Message:  fmt.Sprintf("%s declined your request to take the quest.", id.DisplayName),
		Date:     s.date(),
	}
	if _, err := s.store.Append(ctx, notificationsRoot, notice); err != nil {
		return fmt.Errorf("append notice: %w", err)
	}

	s.logger.Info(ctx, "interest declined", "notification_id", notificationID)
	return nil
}

// actionable loads a request the owner id may still accept or decline.
func (s *NotificationService) actionable(ctx context.Context, id session.Identity, notificationID string) (models.Notification, error) {
	if !id.SignedIn() {
		return models.Notification{}, common.ErrorUnauthorized
	}
	path, err := recordPath(notificationsRoot, notificationID)
	if err != nil {
		return models.Notification{}, err
	}
	var n models.Notification
	if err := readRecord(ctx, s.store, path, &n); err != nil {
		return models.Notification{}, err
	}
	n.ID = notificationID
	if !n.IsRequest() || n.OwnerID != id.UserID {
		return models.Notification{}, common.ErrorForbidden
	}
	if !n.Actionable() {
		return models.Notification{}, common.ErrInvalidState
	}
	return n, nil
}

func (s *NotificationService) all(ctx context.Context) ([]models.Notification, error) {
	snap, err := s.store.ReadOnce(ctx, notificationsRoot)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	return notificationsFromSnapshot(snap)
}

func (s *NotificationService) date() string {
	return s.now().UTC().Format(time.RFC3339)
}

func notificationsFromSnapshot(snap store.Snapshot) ([]models.Notification, error) {
	return decodeChildren(snap, func(key string, n *models.Notification) {
		n.ID = key
	})
}
