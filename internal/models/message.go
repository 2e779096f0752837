package models

// Message is one chat line. Stored at messages/{ConversationID}/{ID};
// Timestamp is Unix milliseconds taken by the sender. ID and
// ConversationID come from the path and are left empty when stored.
type Message struct {
	ID             string `json:"id,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Sender         string `json:"sender"`
	Receiver       string `json:"receiver"`
	Text           string `json:"text"`
	Timestamp      int64  `json:"timestamp"`
}

// ConversationSummary is one inbox row.
type ConversationSummary struct {
	ConversationID string `json:"conversationId"`
	LastMessage    string `json:"lastMessage"`
	Timestamp      int64  `json:"timestamp"`
	OtherUserID    string `json:"otherUserId"`
	OtherUserName  string `json:"otherUserName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
