package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Conversation is a two-party chat channel. The last-message columns are a
// write-time cache maintained on every append and on delete-of-latest, not a
// query-time join.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	// PairKey is the canonical sorted participant pair. Its unique index is
	// what makes find-or-create safe under concurrent creation from both
	// participants.
	PairKey      string    `gorm:"uniqueIndex;not null" json:"-"`
	ParticipantA uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ParticipantB uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`

	// ParticipantNames is a display-name snapshot captured at creation time.
	// It is not kept in sync with later identity changes.
	ParticipantNames datatypes.JSONMap `json:"participant_names"`

	LastMessage         string    `json:"last_message"`
	LastMessageTime     time.Time `json:"last_message_time"`
	LastMessageSenderID string    `json:"last_message_sender_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participants returns the two member ids.
func (c *Conversation) Participants() []uuid.UUID {
	return []uuid.UUID{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether id is a member of the conversation.
func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.ParticipantA == id || c.ParticipantB == id
}

// OtherParticipant returns the member that is not id.
func (c *Conversation) OtherParticipant(id uuid.UUID) uuid.UUID {
	if c.ParticipantA == id {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// PairKeyFor computes the canonical key for an unordered participant pair.
func PairKeyFor(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return strings.Join([]string{x, y}, ":")
}
