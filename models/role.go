package models

import "github.com/google/uuid"

type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"unique;not null" json:"name"`
}

const (
	RoleHR       = "hr"
	RoleEmployee = "employee"
)
