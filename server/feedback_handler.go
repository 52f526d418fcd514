package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leebenson/conform"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"github.com/wavehq/hrbridge/server/response"
)

func (s *Server) handleSubmitFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.FeedbackRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		feedback, err := s.FeedbackService.SubmitFeedback(&request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "feedback submitted", http.StatusCreated, feedback, nil)
	}
}

func (s *Server) handleUpdateFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid feedback id", http.StatusBadRequest))
			return
		}

		var request models.FeedbackRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		if err := s.FeedbackService.UpdateFeedback(id, &request); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "feedback updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleDeleteFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid feedback id", http.StatusBadRequest))
			return
		}
		if err := s.FeedbackService.DeleteFeedback(id); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "feedback deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleListFeedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		// employees see only their own feedback; HR sees everything
		role := c.GetString("role")
		if role != models.RoleHR {
			userID, _ := contextUserID(c)
			feedback, err := s.FeedbackService.ListFeedbackForEmployee(userID)
			if err != nil {
				response.HandleErrors(c, err)
				return
			}
			response.JSON(c, "feedback retrieved", http.StatusOK, feedback, nil)
			return
		}

		feedback, err := s.FeedbackService.ListFeedback()
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "feedback retrieved", http.StatusOK, feedback, nil)
	}
}
