package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/listing"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
	"github.com/google/uuid"
)

// QuestService posts, lists and edits quests at quests/{id}.
type QuestService struct {
	store  store.Store
	now    Clock
	logger logging.Logger
}

func NewQuestService(s store.Store, now Clock, logger logging.Logger) *QuestService {
	return &QuestService{store: s, now: orNow(now), logger: logger.With("module", "quests")}
}

// Post validates the trimmed draft and stores it as a pending quest owned
// by id.
func (s *QuestService) Post(ctx context.Context, id session.Identity, draft models.QuestDraft) (models.Quest, error) {
	if !id.SignedIn() {
		return models.Quest{}, common.ErrorUnauthorized
	}
	now := s.now()
	draft = draft.Trimmed()
	if err := draft.Validate(now); err != nil {
		return models.Quest{}, err
	}

	key, err := uuid.NewV7()
	if err != nil {
		return models.Quest{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	q := models.Quest{
		ID:              key.String(),
		Title:           draft.Title,
		Content:         draft.Content,
		Category:        draft.Category,
		SkillRequired:   draft.SkillRequired,
		Amount:          draft.Amount,
		Deadline:        draft.Deadline,
		ReferenceNumber: draft.ReferenceNumber,
		UserID:          id.UserID,
		DisplayName:     id.DisplayName,
		Status:          models.QuestStatusPending,
		CreatedAt:       now.UTC().Format(time.RFC3339),
	}
	if err := s.store.Write(ctx, store.JoinPath(questsRoot, q.ID), q); err != nil {
		return models.Quest{}, fmt.Errorf("write quest: %w", err)
	}

	s.logger.Info(ctx, "quest posted", "quest_id", q.ID, "user_id", id.UserID)
	return q, nil
}

func (s *QuestService) Get(ctx context.Context, questID string) (models.Quest, error) {
	path, err := recordPath(questsRoot, questID)
	if err != nil {
		return models.Quest{}, err
	}
	var q models.Quest
	if err := readRecord(ctx, s.store, path, &q); err != nil {
		return models.Quest{}, err
	}
	if q.ID == "" {
		q.ID = questID
	}
	return q, nil
}

// All returns every quest in posting order.
func (s *QuestService) All(ctx context.Context) ([]models.Quest, error) {
	snap, err := s.store.ReadOnce(ctx, questsRoot)
	if err != nil {
		return nil, fmt.Errorf("read quests: %w", err)
	}
	return questsFromSnapshot(snap)
}

// List returns the quests matching search and category.
func (s *QuestService) List(ctx context.Context, search, category string) ([]models.Quest, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Filter(all, search, categoryOrAll(category)), nil
}

// ListMine returns the quests posted by id.
func (s *QuestService) ListMine(ctx context.Context, id session.Identity) ([]models.Quest, error) {
	if !id.SignedIn() {
		return nil, common.ErrorUnauthorized
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return ownedBy(all, id.UserID), nil
}

// Update changes title and content. Only the creator may edit.
func (s *QuestService) Update(ctx context.Context, id session.Identity, questID string, edit models.QuestEdit) (models.Quest, error) {
	q, err := s.owned(ctx, id, questID)
	if err != nil {
		return models.Quest{}, err
	}
	edit.Title = strings.TrimSpace(edit.Title)
	edit.Content = strings.TrimSpace(edit.Content)
	if err := edit.Validate(); err != nil {
		return models.Quest{}, err
	}

	err = s.store.Update(ctx, store.JoinPath(questsRoot, questID), map[string]any{
		"title":   edit.Title,
		"content": edit.Content,
	})
	if err != nil {
		return models.Quest{}, fmt.Errorf("update quest: %w", err)
	}
	q.Title, q.Content = edit.Title, edit.Content
	return q, nil
}

// Delete removes a quest. Only the creator may delete.
func (s *QuestService) Delete(ctx context.Context, id session.Identity, questID string) error {
	if _, err := s.owned(ctx, id, questID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.JoinPath(questsRoot, questID)); err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	s.logger.Info(ctx, "quest deleted", "quest_id", questID, "user_id", id.UserID)
	return nil
}

func (s *QuestService) owned(ctx context.Context, id session.Identity, questID string) (models.Quest, error) {
	if !id.SignedIn() {
		return models.Quest{}, common.ErrorUnauthorized
	}
	q, err := s.Get(ctx, questID)
	if err != nil {
		return models.Quest{}, err
	}
	if q.UserID != id.UserID {
		return models.Quest{}, common.ErrorForbidden
	}
	return q, nil
}

func questsFromSnapshot(snap store.Snapshot) ([]models.Quest, error) {
	return decodeChildren(snap, func(key string, q *models.Quest) {
		if q.ID == "" {
			q.ID = key
		}
	})
}

func ownedBy(quests []models.Quest, userID string) []models.Quest {
	out := make([]models.Quest, 0, len(quests))
	for _, q := range quests {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out
}

func categoryOrAll(c string) string {
	if c == "" {
		return models.CategoryAll
	}
	return c
}
