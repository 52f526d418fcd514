package db

import (
	"github.com/google/uuid"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// AuthRepository interface
type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	FindUserByID(id uuid.UUID) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	IsEmailExist(email string) error
	FindRoleByName(name string) (*models.Role, error)
	ListUsersByRole(roleName string) ([]models.User, error)
}

// authRepo struct
type authRepo struct {
	DB *gorm.DB
}

// NewAuthRepo creates a new instance of AuthRepository
func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if err := a.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := a.DB.Preload("Role").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := a.DB.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apiError.New("email already exists", 409)
	}
	return nil
}

func (a *authRepo) FindRoleByName(name string) (*models.Role, error) {
	var role models.Role
	if err := a.DB.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListUsersByRole returns users holding the named role in creation order. The
// stable ordering matters: the merged roster keeps contacts without a
// conversation in arrival order.
func (a *authRepo) ListUsersByRole(roleName string) ([]models.User, error) {
	var users []models.User
	err := a.DB.Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", roleName).
		Order("users.created_at asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
