package db

import (
	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// FeedbackRepository interface
type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	Update(id uuid.UUID, fields map[string]interface{}) error
	Delete(id uuid.UUID) error
	FindByID(id uuid.UUID) (*models.Feedback, error)
	List() ([]models.Feedback, error)
	ListByEmployee(employeeID uuid.UUID) ([]models.Feedback, error)
}

// feedbackRepo struct
type feedbackRepo struct {
	DB *gorm.DB
}

// NewFeedbackRepo creates a new instance of FeedbackRepository
func NewFeedbackRepo(db *GormDB) FeedbackRepository {
	return &feedbackRepo{db.DB}
}

func (r *feedbackRepo) Create(feedback *models.Feedback) error {
	return r.DB.Create(feedback).Error
}

func (r *feedbackRepo) Update(id uuid.UUID, fields map[string]interface{}) error {
	return r.DB.Model(&models.Feedback{}).Where("id = ?", id).Updates(fields).Error
}

func (r *feedbackRepo) Delete(id uuid.UUID) error {
	return r.DB.Where("id = ?", id).Delete(&models.Feedback{}).Error
}

func (r *feedbackRepo) FindByID(id uuid.UUID) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.DB.Where("id = ?", id).First(&feedback).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepo) List() ([]models.Feedback, error) {
	var feedback []models.Feedback
	if err := r.DB.Order("updated_at desc").Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *feedbackRepo) ListByEmployee(employeeID uuid.UUID) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := r.DB.Where("employee_id = ?", employeeID).
		Order("updated_at desc").
		Find(&feedback).Error
	if err != nil {
		return nil, err
	}
	return feedback, nil
}
