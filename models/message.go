package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletedMarker replaces the body of soft-deleted messages and the owning
// conversation's last-message cache when the latest message is deleted.
const DeletedMarker = "🗑️ Deleted"

// ReplySnapshot is the embedded copy of a replied-to message captured at send
// time. Deleting or editing the original later does not change it.
type ReplySnapshot struct {
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	MessageID  string `json:"messageId"`
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Message        string    `json:"message"`

	// FileURL is the stored object name, not a browsable URL. It resolves to
	// a time-boxed access URL through the attachment endpoints. Persisted as
	// an empty string when no attachment is present.
	FileURL string `json:"file_url"`

	// Timestamp is assigned server-side on insert and defines display order
	// within the conversation.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	IsRead    bool       `gorm:"default:false" json:"is_read"`
	IsDeleted bool       `gorm:"default:false" json:"is_deleted"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`

	ReplyTo *ReplySnapshot `gorm:"embedded;embeddedPrefix:reply_to_" json:"reply_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Message string         `json:"message" conform:"trim"`
	FileURL string         `json:"file_url"`
	ReplyTo *ReplySnapshot `json:"reply_to"`
}
