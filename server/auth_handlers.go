package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leebenson/conform"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"github.com/wavehq/hrbridge/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&user); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		loginResponse, err := s.AuthService.SignupUser(&user)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, loginResponse, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := c.ShouldBindJSON(&loginRequest); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&loginRequest); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		loginResponse, err := s.AuthService.LoginUser(&loginRequest)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse, nil)
	}
}

// handleCreateUser is the admin account-creation endpoint. It is disabled
// (501) until a service account is configured.
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Config.ServiceAccountPath == "" {
			response.JSON(c, "", http.StatusNotImplemented, nil,
				apiError.New("server not configured to create accounts, set SERVICE_ACCOUNT_PATH", http.StatusNotImplemented))
			return
		}

		var request models.CreateUserRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		role, _ := c.Get("role")
		callerRole, _ := role.(string)
		uid, err := s.AuthService.CreateUser(callerRole, &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}

		log.Printf("admin created account %s with role %q", uid, request.Role)
		response.JSON(c, "user created", http.StatusCreated, gin.H{"uid": uid}, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			response.JSON(c, "", http.StatusInternalServerError, nil, apiError.ErrInternalServerError)
			return
		}
		response.JSON(c, "profile retrieved", http.StatusOK, user, nil)
	}
}
