package models

import (
	"time"

	"github.com/google/uuid"
)

// NoMessageYet is the placeholder shown for contacts without a conversation.
const NoMessageYet = "No message yet"

// RosterEntry is one row of the HR chat sidebar: an employee merged with the
// HR user's conversation metadata, if any.
type RosterEntry struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	ConversationID  *uuid.UUID `json:"conversation_id"`
	HasConversation bool       `json:"has_conversation"`
}
