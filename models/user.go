package models

import (
	"github.com/google/uuid"
	goval "github.com/go-passwd/validator"
)

// User represents a portal account, either an HR member or an employee.
type User struct {
	Model
	Name           string    `json:"name" conform:"trim" binding:"required,min=2"`
	Email          string    `json:"email" gorm:"unique;not null" conform:"email" binding:"required,email"`
	Password       string    `json:"password,omitempty" gorm:"-"`
	HashedPassword string    `json:"-"`
	RoleID         uuid.UUID `gorm:"type:uuid" json:"role_id"`
	Role           Role      `gorm:"foreignKey:RoleID" json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" conform:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

type CreateUserRequest struct {
	Email    string `json:"email" conform:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" conform:"trim" binding:"required"`
	Role     string `json:"role"`
}

// ValidatePassword enforces the portal's password policy on signup and
// admin-created accounts.
func ValidatePassword(password string) error {
	v := goval.New(goval.MinLength(6, nil), goval.MaxLength(72, nil))
	return v.Validate(password)
}
