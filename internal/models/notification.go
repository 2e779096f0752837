package models

// Notification statuses. A declined request is deleted, so it has no status.
const (
	NotificationPending  = "Pending"
	NotificationAccepted = "Accepted"
	NotificationMessage  = "Notification"
)

// Notification mediates interest between a quest owner and an interested
// user. Requests carry a quest reference; reciprocal notices carry a
// message and are addressed to UserID. Stored at notifications/{ID}; the
// key is not repeated inside the record.
type Notification struct {
	ID             string `json:"id,omitempty"`
	QuestID        string `json:"questId,omitempty"`
	QuestTitle     string `json:"questTitle,omitempty"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	OwnerID        string `json:"ownerId,omitempty"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	Date           string `json:"date,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// IsRequest reports whether n is an interest request rather than a notice.
func (n Notification) IsRequest() bool {
	return n.QuestID != ""
}

// Actionable reports whether the owner can still accept or decline n.
func (n Notification) Actionable() bool {
	return n.IsRequest() && n.Status == NotificationPending
}

// Inbound picks the notifications viewer should see: requests on quests
// viewer owns, and notices addressed to viewer. Order is preserved.
func Inbound(viewer string, all []Notification) []Notification {
	out := make([]Notification, 0, len(all))
	for _, n := range all {
		if n.IsRequest() {
			if n.OwnerID == viewer {
				out = append(out, n)
			}
			continue
		}
		if n.UserID == viewer {
			out = append(out, n)
		}
	}
	return out
}
