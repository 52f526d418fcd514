package services

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// ChatService interface
type ChatService interface {
	OpenConversation(requesterID, otherID uuid.UUID, requesterName, otherName string) (*models.Conversation, error)
	SendMessage(conversationID, senderID uuid.UUID, senderName string, req *models.SendMessageRequest) (uuid.UUID, error)
	DeleteMessage(conversationID, messageID, requesterID uuid.UUID) error
	ListMessages(conversationID uuid.UUID) ([]models.Message, error)
	ListConversations(participantID uuid.UUID) ([]models.Conversation, error)
	Close()
}

type denormTask struct {
	conversationID uuid.UUID
	body           string
	senderID       string
	at             time.Time
}

// chatService struct
type chatService struct {
	Config   *config.Config
	convRepo db.ConversationRepository
	msgRepo  db.MessageRepository
	bus      *LiveBus
	now      func() time.Time

	// The last-message denormalization runs on its own queue: a message send
	// must not fail merely because the secondary write failed.
	denorm    chan denormTask
	denormWG  sync.WaitGroup
	workerWG  sync.WaitGroup
	closeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewChatService creates a new instance of ChatService and starts its
// denormalization worker. Call Close on shutdown.
func NewChatService(convRepo db.ConversationRepository, msgRepo db.MessageRepository, bus *LiveBus, conf *config.Config) ChatService {
	s := &chatService{
		Config:   conf,
		convRepo: convRepo,
		msgRepo:  msgRepo,
		bus:      bus,
		now:      time.Now,
		denorm:   make(chan denormTask, 64),
	}
	s.workerWG.Add(1)
	go s.denormWorker()
	return s
}

func (s *chatService) denormWorker() {
	defer s.workerWG.Done()
	for task := range s.denorm {
		err := s.convRepo.UpdateLastMessage(task.conversationID, task.body, task.senderID, task.at)
		if err != nil {
			// one retry before giving up
			err = s.convRepo.UpdateLastMessage(task.conversationID, task.body, task.senderID, task.at)
		}
		if err != nil {
			log.Printf("last-message update for conversation %s failed: %v", task.conversationID, err)
		} else {
			s.bus.Publish(topicConversations)
			s.bus.Publish(topicRoster)
		}
		s.denormWG.Done()
	}
}

func (s *chatService) enqueueDenorm(task denormTask) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		// shutting down; the next append to the conversation catches up
		return
	}
	s.denormWG.Add(1)
	s.denorm <- task
}

// Close drains the denormalization queue and stops the worker. Sends that
// land after Close skip the denormalization instead of hitting a closed
// channel.
func (s *chatService) Close() {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()
		s.denormWG.Wait()
		close(s.denorm)
		s.workerWG.Wait()
	})
}

// OpenConversation finds or creates the conversation for an unordered
// participant pair. The canonical pair key's unique index makes this
// idempotent even when both participants open simultaneously: the loser of
// the race re-reads the winner's row.
func (s *chatService) OpenConversation(requesterID, otherID uuid.UUID, requesterName, otherName string) (*models.Conversation, error) {
	if requesterID == otherID {
		return nil, apiError.New("cannot open a conversation with yourself", http.StatusBadRequest)
	}

	pairKey := models.PairKeyFor(requesterID, otherID)
	conversation, err := s.convRepo.FindByPairKey(pairKey)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a, b := requesterID, otherID
	if a.String() > b.String() {
		a, b = b, a
	}
	conversation = &models.Conversation{
		PairKey:      pairKey,
		ParticipantA: a,
		ParticipantB: b,
		ParticipantNames: map[string]interface{}{
			requesterID.String(): requesterName,
			otherID.String():     otherName,
		},
		LastMessage:         "",
		LastMessageTime:     s.now(),
		LastMessageSenderID: "",
	}
	if err := s.convRepo.Create(conversation); err != nil {
		// lost the creation race: the other participant's row wins
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return s.convRepo.FindByPairKey(pairKey)
		}
		return nil, err
	}

	s.bus.Publish(topicConversations)
	s.bus.Publish(topicRoster)
	return conversation, nil
}

// SendMessage appends a message to the conversation's ordered log. The
// timestamp is assigned here, never client-supplied. The conversation's
// last-message cache is updated best-effort on the denorm queue after the
// append; the append's success does not depend on it.
func (s *chatService) SendMessage(conversationID, senderID uuid.UUID, senderName string, req *models.SendMessageRequest) (uuid.UUID, error) {
	if strings.TrimSpace(req.Message) == "" && req.FileURL == "" {
		return uuid.Nil, apiError.New("message body or attachment required", http.StatusBadRequest)
	}

	conversation, err := s.convRepo.FindByID(conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, apiError.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !conversation.HasParticipant(senderID) {
		return uuid.Nil, apiError.New("you are not a participant of this conversation", http.StatusForbidden)
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     senderName,
		Message:        req.Message,
		FileURL:        req.FileURL,
		Timestamp:      s.now(),
		IsRead:         false,
		ReplyTo:        req.ReplyTo,
	}
	if err := s.msgRepo.Save(message); err != nil {
		return uuid.Nil, err
	}

	s.bus.Publish(topicMessages(conversationID))
	s.enqueueDenorm(denormTask{
		conversationID: conversationID,
		body:           message.Message,
		senderID:       senderID.String(),
		at:             message.Timestamp,
	})

	return message.ID, nil
}

// DeleteMessage soft-deletes a message the requester owns. If the deleted
// message was the conversation's latest, the last-message cache is rewritten
// with the deletion marker. The latest check is a separate top-1 read, not
// atomic with the delete; a message appended in between can be missed.
func (s *chatService) DeleteMessage(conversationID, messageID, requesterID uuid.UUID) error {
	message, err := s.msgRepo.FindByID(messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError.ErrNotFound
	}
	if err != nil {
		return err
	}
	if message.ConversationID != conversationID {
		return apiError.ErrNotFound
	}
	if message.SenderID != requesterID {
		return apiError.New("you can only delete your own messages", http.StatusForbidden)
	}

	if err := s.msgRepo.MarkDeleted(messageID, s.now()); err != nil {
		return err
	}
	s.bus.Publish(topicMessages(conversationID))

	latest, err := s.msgRepo.LatestInConversation(conversationID)
	if err != nil {
		log.Printf("latest-message check for conversation %s failed: %v", conversationID, err)
		return nil
	}
	if latest != nil && latest.ID == messageID {
		s.enqueueDenorm(denormTask{
			conversationID: conversationID,
			body:           models.DeletedMarker,
			senderID:       message.SenderID.String(),
			at:             s.now(),
		})
	}

	return nil
}

func (s *chatService) ListMessages(conversationID uuid.UUID) ([]models.Message, error) {
	return s.msgRepo.ListByConversation(conversationID)
}

func (s *chatService) ListConversations(participantID uuid.UUID) ([]models.Conversation, error) {
	return s.convRepo.ListByParticipant(participantID)
}
