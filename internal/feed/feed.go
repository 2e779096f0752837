// Package feed turns raw chat messages into transcripts and inbox rows.
package feed

import (
	"sort"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/models"
)

const idSeparator = "_"

// ConversationID is the id the accept flow gives the chat between a quest
// owner and the user taking the quest.
func ConversationID(ownerID, takerID string) string {
	return ownerID + idSeparator + takerID
}

// Participants splits a conversation id. ok is false when id is not of
// the owner_taker form.
func Participants(id string) (ownerID, takerID string, ok bool) {
	ownerID, takerID, ok = strings.Cut(id, idSeparator)
	if !ok || ownerID == "" || takerID == "" || strings.Contains(takerID, idSeparator) {
		return "", "", false
	}
	return ownerID, takerID, true
}

// IsParticipant reports whether userID is one of the two ends of id.
func IsParticipant(id, userID string) bool {
	owner, taker, ok := Participants(id)
	return ok && (userID == owner || userID == taker)
}

// Other returns the participant of id that is not userID.
func Other(id, userID string) string {
	owner, taker, ok := Participants(id)
	switch {
	case !ok:
		return ""
	case userID == owner:
		return taker
	default:
		return owner
	}
}

// Transcript returns messages oldest first. Equal timestamps keep input order.
func Transcript(messages []models.Message) []models.Message {
	out := append([]models.Message(nil), messages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// LastMessage returns the message with the largest timestamp; on a tie the
// earliest in input order wins.
func LastMessage(messages []models.Message) (models.Message, bool) {
	if len(messages) == 0 {
		return models.Message{}, false
	}
	last := messages[0]
	for _, m := range messages[1:] {
		if m.Timestamp > last.Timestamp {
			last = m
		}
	}
	return last, true
}

// Group is the messages of one conversation, in key order.
type Group struct {
	ConversationID string
	Messages       []models.Message
}

// Summaries builds the inbox of viewer: one row per conversation viewer
// takes part in, newest first. users resolves display names and pictures;
// unknown users are shown by id.
func Summaries(viewer string, groups []Group, users map[string]models.Profile) []models.ConversationSummary {
	out := make([]models.ConversationSummary, 0, len(groups))
	for _, g := range groups {
		if !IsParticipant(g.ConversationID, viewer) {
			continue
		}
		s := models.ConversationSummary{ConversationID: g.ConversationID}
		if last, ok := LastMessage(g.Messages); ok {
			s.LastMessage = last.Text
			s.Timestamp = last.Timestamp
		}
		s.OtherUserID = Other(g.ConversationID, viewer)
		p, ok := users[s.OtherUserID]
		if !ok {
			p = models.Profile{ID: s.OtherUserID}
		}
		if p.ID == "" {
			p.ID = s.OtherUserID
		}
		s.OtherUserName = p.DisplayName()
		s.ProfilePicture = p.ProfilePicture
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}
