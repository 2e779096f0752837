package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/feed"
	"github.com/dmitrijs2005/questboard/internal/listing"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/dmitrijs2005/questboard/internal/store"
)

// WatchService turns record store subscriptions into live views.
type WatchService struct {
	store         store.Store
	conversations *ConversationService
	logger        logging.Logger
}

func NewWatchService(s store.Store, conversations *ConversationService, logger logging.Logger) *WatchService {
	return &WatchService{store: s, conversations: conversations, logger: logger.With("module", "watch")}
}

// Watch sends the view named by req to send now and after every relevant
// change. It returns when ctx ends (nil), when send fails, or when the
// store reports a read error. The underlying subscription is cancelled on
// return.
func (s *WatchService) Watch(ctx context.Context, id session.Identity, req models.WatchRequest, send func(models.View) error) error {
	if !id.SignedIn() {
		return common.ErrorUnauthorized
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	views := make(chan models.View, 1)
	errs := make(chan error, 1)

	push := func(v models.View) {
		select {
		case <-views:
		default:
		}
		views <- v
	}
	fail := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	path, onData, err := s.builder(ctx, id, req, push, fail)
	if err != nil {
		return err
	}

	sub, err := s.store.Subscribe(ctx, path, onData, fail)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	s.logger.Debug(ctx, "watch started", "topic", req.Topic, "user_id", id.UserID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case v := <-views:
			if err := send(v); err != nil {
				return err
			}
		}
	}
}

// builder picks the subscribed path and the snapshot handler for a topic.
func (s *WatchService) builder(ctx context.Context, id session.Identity, req models.WatchRequest, push func(models.View), fail func(error)) (string, func(store.Snapshot), error) {
	switch req.Topic {
	case models.TopicQuests:
		l := listing.New(nil)
		l.SetSearch(req.Search)
		l.SetCategory(req.Category)
		return questsRoot, func(snap store.Snapshot) {
			quests, err := questsFromSnapshot(snap)
			if err != nil {
				fail(err)
				return
			}
			l.SetQuests(quests)
			push(models.View{Topic: req.Topic, Quests: l.Visible()})
		}, nil

	case models.TopicMyQuests:
		return questsRoot, func(snap store.Snapshot) {
			quests, err := questsFromSnapshot(snap)
			if err != nil {
				fail(err)
				return
			}
			push(models.View{Topic: req.Topic, Quests: ownedBy(quests, id.UserID)})
		}, nil

	case models.TopicNotifications:
		return notificationsRoot, func(snap store.Snapshot) {
			all, err := notificationsFromSnapshot(snap)
			if err != nil {
				fail(err)
				return
			}
			push(models.View{Topic: req.Topic, Notifications: models.Inbound(id.UserID, all)})
		}, nil

	case models.TopicInbox:
		return messagesRoot, func(snap store.Snapshot) {
			rows, err := s.conversations.summaries(ctx, id, snap)
			if err != nil {
				fail(err)
				return
			}
			push(models.View{Topic: req.Topic, Conversations: rows})
		}, nil

	case models.TopicConversation:
		if err := participant(id, req.ConversationID); err != nil {
			return "", nil, err
		}
		return store.JoinPath(messagesRoot, req.ConversationID), func(snap store.Snapshot) {
			msgs, err := messagesFromSnapshot(req.ConversationID, snap)
			if err != nil {
				fail(err)
				return
			}
			push(models.View{Topic: req.Topic, Messages: feed.Transcript(msgs)})
		}, nil

	default:
		return "", nil, fmt.Errorf("%w: unknown topic %q", common.ErrValidation, req.Topic)
	}
}
