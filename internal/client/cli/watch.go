package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/questboard/internal/models"
)

func watchRequest(args []string) (models.WatchRequest, error) {
	if len(args) == 0 || !slices.Contains(models.Topics, args[0]) {
		return models.WatchRequest{}, errUsage
	}
	req := models.WatchRequest{Topic: args[0]}
	rest := args[1:]

	switch req.Topic {
	case models.TopicQuests:
		req.Category, req.Search = parseQuestArgs(rest)
	case models.TopicConversation:
		if len(rest) != 1 {
			return models.WatchRequest{}, errUsage
		}
		req.ConversationID = rest[0]
	default:
		if len(rest) != 0 {
			return models.WatchRequest{}, errUsage
		}
	}
	return req, nil
}

func (a *App) printView(v models.View, other string) {
	fmt.Fprintf(a.out, "--- %s @ %s ---\n", v.Topic, a.now().Format("15:04:05"))
	switch v.Topic {
	case models.TopicQuests, models.TopicMyQuests:
		printQuests(a.out, v.Quests)
	case models.TopicNotifications:
		printNotifications(a.out, v.Notifications)
	case models.TopicInbox:
		printInbox(a.out, v.Conversations)
	case models.TopicConversation:
		printTranscript(a.out, a.me().UserID, other, v.Messages)
	}
}

// watch prints every update of a live view until the user presses Enter.
// Topics: quests [category] [search...], my_quests, notifications, inbox,
// conversation <conversationId>.
func (a *App) watch(ctx context.Context, args []string) error {
	req, err := watchRequest(args)
	if err != nil {
		fmt.Fprintf(a.out, "Topics: quests [category] [search...], my_quests, notifications, inbox, conversation <id>\n")
		return err
	}

	var other string
	if req.Topic == models.TopicConversation {
		rctx, cancel := a.rpc(ctx)
		other = a.otherName(rctx, req.ConversationID)
		cancel()
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := a.qb.Watch(wctx, req, func(v models.View) {
			a.printView(v, other)
		})
		if wctx.Err() == nil {
			fmt.Fprintln(a.out, "Watch stopped, press Enter.")
		}
		done <- err
	}()

	fmt.Fprintln(a.out, "Watching, press Enter to stop.")
	_, _ = a.reader.ReadString('\n')

	select {
	case err := <-done:
		return err
	default:
	}
	cancel()
	<-done
	return nil
}
