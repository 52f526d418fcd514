package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"github.com/wavehq/hrbridge/server/response"
	"github.com/wavehq/hrbridge/services/jwt"
	"gorm.io/gorm"
)

func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, apiError.New("missing authorization token", http.StatusUnauthorized))
			return
		}

		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, s.Config.JWTSecret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, apiError.New("unauthorized", http.StatusUnauthorized))
			return
		}

		idStr, _ := accessClaims["id"].(string)
		userID, err := uuid.Parse(idStr)
		if err != nil {
			respondAndAbort(c, "", http.StatusBadRequest, nil, apiError.New("invalid user id in token", http.StatusBadRequest))
			return
		}

		user, err := s.AuthService.GetUserByID(userID)
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, apiError.New(err.Error(), http.StatusUnauthorized))
			default:
				respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, apiError.ErrInternalServerError)
			}
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("userName", user.Name)
		c.Set("role", user.Role.Name)
		c.Next()
	}
}

// RequireHR guards the HR-only surfaces: roster, feedback mutation, admin
// user creation.
func (s *Server) RequireHR() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != models.RoleHR {
			respondAndAbort(c, "", http.StatusForbidden, nil, apiError.New("only HR users can access this resource", http.StatusForbidden))
			return
		}
		c.Next()
	}
}

func respondAndAbort(c *gin.Context, message string, status int, data interface{}, err error) {
	response.JSON(c, message, status, data, err)
	c.Abort()
}

func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return authHeader[7:]
	}
	return ""
}

func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
