package models

// Live view topics.
const (
	TopicQuests        = "quests"
	TopicMyQuests      = "my_quests"
	TopicNotifications = "notifications"
	TopicInbox         = "inbox"
	TopicConversation  = "conversation"
)

// Topics lists every live view topic.
var Topics = []string{TopicQuests, TopicMyQuests, TopicNotifications, TopicInbox, TopicConversation}

// WatchRequest opens a live view. Search and Category apply to
// TopicQuests; ConversationID is required for TopicConversation.
type WatchRequest struct {
	Topic          string `json:"topic"`
	Search         string `json:"search,omitempty"`
	Category       string `json:"category,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// View is one recomputed state of a live view. Only the list matching
// Topic is set.
type View struct {
	Topic         string                `json:"topic"`
	Quests        []Quest               `json:"quests,omitempty"`
	Notifications []Notification        `json:"notifications,omitempty"`
	Conversations []ConversationSummary `json:"conversations,omitempty"`
	Messages      []Message             `json:"messages,omitempty"`
}
