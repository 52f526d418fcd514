package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment records an object stored in the chat bucket. StoredName is the
// opaque key referenced by Message.FileURL; StoredID is the provider's file id.
type Attachment struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	StoredName   string    `gorm:"index" json:"file_name"`
	StoredID     string    `json:"file_id"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	UploaderID   uuid.UUID `gorm:"type:uuid;index" json:"uploader_id"`
	CreatedAt    time.Time `json:"created_at"`
}
