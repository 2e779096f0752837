package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/feed"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
)

// ConversationService reads and writes chat messages at
// messages/{conversationId}/{messageId}.
type ConversationService struct {
	store    store.Store
	profiles *ProfileService
	now      Clock
	logger   logging.Logger
}

func NewConversationService(s store.Store, profiles *ProfileService, now Clock, logger logging.Logger) *ConversationService {
	return &ConversationService{store: s, profiles: profiles, now: orNow(now), logger: logger.With("module", "conversations")}
}

// Inbox lists the conversations id takes part in, newest first.
func (s *ConversationService) Inbox(ctx context.Context, id session.Identity) ([]models.ConversationSummary, error) {
	if !id.SignedIn() {
		return nil, common.ErrorUnauthorized
	}
	snap, err := s.store.ReadOnce(ctx, messagesRoot)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return s.summaries(ctx, id, snap)
}

// Conversation returns the transcript of conversationID, oldest first.
func (s *ConversationService) Conversation(ctx context.Context, id session.Identity, conversationID string) ([]models.Message, error) {
	if err := participant(id, conversationID); err != nil {
		return nil, err
	}
	snap, err := s.store.ReadOnce(ctx, store.JoinPath(messagesRoot, conversationID))
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	msgs, err := messagesFromSnapshot(conversationID, snap)
	if err != nil {
		return nil, err
	}
	return feed.Transcript(msgs), nil
}

// Send appends text from id to conversationID. The timestamp is taken now.
func (s *ConversationService) Send(ctx context.Context, id session.Identity, conversationID, text string) (models.Message, error) {
	if err := participant(id, conversationID); err != nil {
		return models.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, fmt.Errorf("%w: message cannot be empty", common.ErrValidation)
	}

	m := models.Message{
		Sender:    id.UserID,
		Receiver:  feed.Other(conversationID, id.UserID),
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}
	key, err := s.store.Append(ctx, store.JoinPath(messagesRoot, conversationID), m)
	if err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}
	m.ID, m.ConversationID = key, conversationID

	s.logger.Debug(ctx, "message sent", "conversation_id", conversationID, "message_id", key)
	return m, nil
}

func (s *ConversationService) summaries(ctx context.Context, id session.Identity, snap store.Snapshot) ([]models.ConversationSummary, error) {
	var (
		groups []feed.Group
		others []string
	)
	for _, c := range snap.Children() {
		if !feed.IsParticipant(c.Key, id.UserID) {
			continue
		}
		msgs, err := messagesFromSnapshot(c.Key, c)
		if err != nil {
			return nil, err
		}
		groups = append(groups, feed.Group{ConversationID: c.Key, Messages: msgs})
		others = append(others, feed.Other(c.Key, id.UserID))
	}

	users, err := s.profiles.Lookup(ctx, others)
	if err != nil {
		return nil, err
	}
	return feed.Summaries(id.UserID, groups, users), nil
}

func participant(id session.Identity, conversationID string) error {
	if !id.SignedIn() {
		return common.ErrorUnauthorized
	}
	if _, err := recordPath(messagesRoot, conversationID); err != nil {
		return fmt.Errorf("%w: malformed conversation id", common.ErrValidation)
	}
	if _, _, ok := feed.Participants(conversationID); !ok {
		return fmt.Errorf("%w: malformed conversation id", common.ErrValidation)
	}
	if !feed.IsParticipant(conversationID, id.UserID) {
		return common.ErrorForbidden
	}
	return nil
}

func messagesFromSnapshot(conversationID string, snap store.Snapshot) ([]models.Message, error) {
	return decodeChildren(snap, func(key string, m *models.Message) {
		m.ID = key
		m.ConversationID = conversationID
	})
}
