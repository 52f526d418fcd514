package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// FeedbackService interface
type FeedbackService interface {
	SubmitFeedback(request *models.FeedbackRequest) (*models.Feedback, error)
	UpdateFeedback(id uuid.UUID, request *models.FeedbackRequest) error
	DeleteFeedback(id uuid.UUID) error
	ListFeedback() ([]models.Feedback, error)
	ListFeedbackForEmployee(employeeID uuid.UUID) ([]models.Feedback, error)
}

// feedbackService struct
type feedbackService struct {
	Config       *config.Config
	feedbackRepo db.FeedbackRepository
	bus          *LiveBus
}

// NewFeedbackService creates a new instance of FeedbackService
func NewFeedbackService(feedbackRepo db.FeedbackRepository, bus *LiveBus, conf *config.Config) FeedbackService {
	return &feedbackService{
		Config:       conf,
		feedbackRepo: feedbackRepo,
		bus:          bus,
	}
}

func (s *feedbackService) SubmitFeedback(request *models.FeedbackRequest) (*models.Feedback, error) {
	feedback := &models.Feedback{
		EmployeeID:   request.EmployeeID,
		EmployeeName: request.EmployeeName,
		Notes:        request.Notes,
		Score:        request.Score,
	}
	if err := s.feedbackRepo.Create(feedback); err != nil {
		return nil, err
	}
	s.bus.Publish(topicFeedback)
	return feedback, nil
}

func (s *feedbackService) UpdateFeedback(id uuid.UUID, request *models.FeedbackRequest) error {
	if _, err := s.feedbackRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.ErrNotFound
		}
		return err
	}
	err := s.feedbackRepo.Update(id, map[string]interface{}{
		"employee_name": request.EmployeeName,
		"notes":         request.Notes,
		"score":         request.Score,
	})
	if err != nil {
		return err
	}
	s.bus.Publish(topicFeedback)
	return nil
}

func (s *feedbackService) DeleteFeedback(id uuid.UUID) error {
	if _, err := s.feedbackRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.ErrNotFound
		}
		return err
	}
	if err := s.feedbackRepo.Delete(id); err != nil {
		return err
	}
	s.bus.Publish(topicFeedback)
	return nil
}

func (s *feedbackService) ListFeedback() ([]models.Feedback, error) {
	return s.feedbackRepo.List()
}

func (s *feedbackService) ListFeedbackForEmployee(employeeID uuid.UUID) ([]models.Feedback, error) {
	return s.feedbackRepo.ListByEmployee(employeeID)
}
