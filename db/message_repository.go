package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// MessageRepository interface
type MessageRepository interface {
	Save(message *models.Message) error
	FindByID(id uuid.UUID) (*models.Message, error)
	ListByConversation(conversationID uuid.UUID) ([]models.Message, error)
	LatestInConversation(conversationID uuid.UUID) (*models.Message, error)
	MarkDeleted(id uuid.UUID, at time.Time) error
}

// messageRepo struct
type messageRepo struct {
	DB *gorm.DB
}

// NewMessageRepo creates a new instance of MessageRepository
func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) Save(message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return r.DB.Create(message).Error
}

func (r *messageRepo) FindByID(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.DB.Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListByConversation returns the full ordered log, soft-deleted rows included.
// Order is the store-assigned timestamp ascending; equal stamps keep whatever
// stable order the store returns.
func (r *messageRepo) ListByConversation(conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("timestamp asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// LatestInConversation returns the top-1 most recent row, or nil when the
// conversation has no messages.
func (r *messageRepo) LatestInConversation(conversationID uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.DB.Where("conversation_id = ?", conversationID).
		Order("timestamp desc").
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkDeleted scrubs the visible content and flags the row. The row itself is
// retained for audit and order stability.
func (r *messageRepo) MarkDeleted(id uuid.UUID, at time.Time) error {
	return r.DB.Model(&models.Message{}).Where("id = ?", id).Updates(map[string]interface{}{
		"message":    models.DeletedMarker,
		"file_url":   "",
		"is_deleted": true,
		"edited_at":  at,
	}).Error
}
