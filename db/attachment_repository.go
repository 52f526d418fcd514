package db

import (
	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// AttachmentRepository interface
type AttachmentRepository interface {
	Save(attachment *models.Attachment) error
	FindByStoredName(storedName string) (*models.Attachment, error)
}

// attachmentRepo struct
type attachmentRepo struct {
	DB *gorm.DB
}

// NewAttachmentRepo creates a new instance of AttachmentRepository
func NewAttachmentRepo(db *GormDB) AttachmentRepository {
	return &attachmentRepo{db.DB}
}

func (r *attachmentRepo) Save(attachment *models.Attachment) error {
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	return r.DB.Create(attachment).Error
}

func (r *attachmentRepo) FindByStoredName(storedName string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.DB.Where("stored_name = ?", storedName).First(&attachment).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}
