package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// ConversationRepository interface
type ConversationRepository interface {
	Create(conversation *models.Conversation) error
	FindByID(id uuid.UUID) (*models.Conversation, error)
	FindByPairKey(pairKey string) (*models.Conversation, error)
	ListByParticipant(participantID uuid.UUID) ([]models.Conversation, error)
	UpdateLastMessage(id uuid.UUID, body, senderID string, at time.Time) error
}

// conversationRepo struct
type conversationRepo struct {
	DB *gorm.DB
}

// NewConversationRepo creates a new instance of ConversationRepository
func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

func (r *conversationRepo) Create(conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	return r.DB.Create(conversation).Error
}

func (r *conversationRepo) FindByID(id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.DB.Where("id = ?", id).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) FindByPairKey(pairKey string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.DB.Where("pair_key = ?", pairKey).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepo) ListByParticipant(participantID uuid.UUID) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.DB.Where("participant_a = ? OR participant_b = ?", participantID, participantID).
		Order("last_message_time desc").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *conversationRepo) UpdateLastMessage(id uuid.UUID, body, senderID string, at time.Time) error {
	return r.DB.Model(&models.Conversation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message":           body,
		"last_message_time":      at,
		"last_message_sender_id": senderID,
	}).Error
}
