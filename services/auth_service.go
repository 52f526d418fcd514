package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"github.com/wavehq/hrbridge/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService interface
type AuthService interface {
	SignupUser(user *models.User) (*models.LoginResponse, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, error)
	CreateUser(callerRole string, request *models.CreateUserRequest) (uuid.UUID, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
}

// authService struct
type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
	bus      *LiveBus
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, bus *LiveBus, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
		bus:      bus,
	}
}

func (s *authService) SignupUser(user *models.User) (*models.LoginResponse, error) {
	if err := s.authRepo.IsEmailExist(user.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, err
	}
	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	created, err := s.createWithRole(user.Email, user.Password, user.Name, models.RoleEmployee)
	if err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(created.ID, created.Role.Name, created.Name, s.Config.JWTSecret)
	if err != nil {
		log.Printf("SignupUser error generating token: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	created.Password = ""
	return &models.LoginResponse{User: created, AccessToken: token}, nil
}

func (s *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.authRepo.FindUserByEmail(loginRequest.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apiError.New("invalid email or password", http.StatusUnauthorized)
	}
	if err != nil {
		log.Printf("LoginUser error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(loginRequest.Password)); err != nil {
		return nil, apiError.New("invalid email or password", http.StatusUnauthorized)
	}

	token, err := jwt.GenerateToken(user.ID, user.Role.Name, user.Name, s.Config.JWTSecret)
	if err != nil {
		log.Printf("LoginUser error generating token: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return &models.LoginResponse{User: user, AccessToken: token}, nil
}

// CreateUser is the admin path: only HR callers may create accounts, with an
// explicit role. Defaults to employee.
func (s *authService) CreateUser(callerRole string, request *models.CreateUserRequest) (uuid.UUID, error) {
	if callerRole != models.RoleHR {
		return uuid.Nil, apiError.New("only HR users can create accounts", http.StatusForbidden)
	}
	if request.Email == "" || request.Password == "" || request.Name == "" {
		return uuid.Nil, apiError.New("missing required fields", http.StatusBadRequest)
	}
	if err := s.authRepo.IsEmailExist(request.Email); err != nil {
		return uuid.Nil, err
	}
	if err := models.ValidatePassword(request.Password); err != nil {
		return uuid.Nil, apiError.New(err.Error(), http.StatusBadRequest)
	}

	role := request.Role
	if role == "" {
		role = models.RoleEmployee
	}

	created, err := s.createWithRole(request.Email, request.Password, request.Name, role)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (s *authService) createWithRole(email, password, name, roleName string) (*models.User, error) {
	role, err := s.authRepo.FindRoleByName(roleName)
	if err != nil {
		return nil, apiError.New("unknown role: "+roleName, http.StatusBadRequest)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		Name:           name,
		Email:          email,
		HashedPassword: string(hashedPassword),
		RoleID:         role.ID,
	}
	created, err := s.authRepo.CreateUser(user)
	if err != nil {
		return nil, apiError.GetUniqueContraintError(err)
	}
	created.Role = *role

	if roleName == models.RoleEmployee {
		s.bus.Publish(topicRoster)
	}
	return created, nil
}

func (s *authService) GetUserByID(id uuid.UUID) (*models.User, error) {
	return s.authRepo.FindUserByID(id)
}
