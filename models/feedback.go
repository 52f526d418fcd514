package models

import "github.com/google/uuid"

// Feedback is an HR note about an employee with a numeric score.
type Feedback struct {
	Model
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Notes        string    `json:"notes"`
	Score        float64   `json:"score"`
}

type FeedbackRequest struct {
	EmployeeID   uuid.UUID `json:"employee_id" binding:"required"`
	EmployeeName string    `json:"employee_name" conform:"trim"`
	Notes        string    `json:"notes" conform:"trim"`
	Score        float64   `json:"score"`
}
