package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/leebenson/conform"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"github.com/wavehq/hrbridge/server/response"
)

func (s *Server) handleOpenConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			EmployeeID   uuid.UUID `json:"employee_id" binding:"required"`
			EmployeeName string    `json:"employee_name"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		userID, _ := contextUserID(c)
		userName := c.GetString("userName")
		conversation, err := s.ChatService.OpenConversation(userID, request.EmployeeID, userName, request.EmployeeName)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "conversation ready", http.StatusOK, gin.H{"conversationId": conversation.ID, "conversation": conversation}, nil)
	}
}

func (s *Server) handleListConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := contextUserID(c)
		conversations, err := s.ChatService.ListConversations(userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "conversations retrieved", http.StatusOK, conversations, nil)
	}
}

func (s *Server) handleListMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid conversation id", http.StatusBadRequest))
			return
		}
		messages, err := s.ChatService.ListMessages(conversationID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "messages retrieved", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid conversation id", http.StatusBadRequest))
			return
		}

		var request models.SendMessageRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if err := conform.Strings(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		userID, _ := contextUserID(c)
		userName := c.GetString("userName")
		messageID, err := s.ChatService.SendMessage(conversationID, userID, userName, &request)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, gin.H{"messageId": messageID}, nil)
	}
}

func (s *Server) handleDeleteMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid conversation id", http.StatusBadRequest))
			return
		}
		messageID, err := uuid.Parse(c.Param("messageID"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid message id", http.StatusBadRequest))
			return
		}

		userID, _ := contextUserID(c)
		if err := s.ChatService.DeleteMessage(conversationID, messageID, userID); err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "message deleted", http.StatusOK, nil, nil)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamSnapshots pushes each snapshot from the subscription over the socket
// until the client goes away or the subscription ends. cancel is always
// called; an unreleased subscription holds its live query open forever.
func streamSnapshots[T any](c *gin.Context, snapshots <-chan T, cancel func()) {
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) handleMessageStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("invalid conversation id", http.StatusBadRequest))
			return
		}
		snapshots, cancel := s.LiveService.SubscribeMessages(conversationID)
		streamSnapshots(c, snapshots, cancel)
	}
}

func (s *Server) handleConversationStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := contextUserID(c)
		snapshots, cancel := s.LiveService.SubscribeConversations(userID)
		streamSnapshots(c, snapshots, cancel)
	}
}

func (s *Server) handleRosterStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := contextUserID(c)
		snapshots, cancel := s.LiveService.SubscribeMergedRoster(userID)
		streamSnapshots(c, snapshots, cancel)
	}
}
