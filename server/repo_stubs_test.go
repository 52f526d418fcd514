package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// in-memory conversation and message stores backing the route tests

type stubConvRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Conversation
	byPairKey map[string]*models.Conversation
}

func newStubConvRepo() *stubConvRepo {
	return &stubConvRepo{
		byID:      make(map[uuid.UUID]*models.Conversation),
		byPairKey: make(map[string]*models.Conversation),
	}
}

func (r *stubConvRepo) Create(conversation *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	if _, exists := r.byPairKey[conversation.PairKey]; exists {
		return gorm.ErrDuplicatedKey
	}
	cp := *conversation
	r.byID[cp.ID] = &cp
	r.byPairKey[cp.PairKey] = &cp
	return nil
}

func (r *stubConvRepo) FindByID(id uuid.UUID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubConvRepo) FindByPairKey(pairKey string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPairKey[pairKey]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubConvRepo) ListByParticipant(participantID uuid.UUID) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(participantID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out, nil
}

func (r *stubConvRepo) UpdateLastMessage(id uuid.UUID, body, senderID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastMessage = body
	c.LastMessageSenderID = senderID
	c.LastMessageTime = at
	return nil
}

type stubFeedbackRepo struct {
	mu       sync.Mutex
	feedback []models.Feedback
}

func (r *stubFeedbackRepo) Create(feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	r.feedback = append(r.feedback, *feedback)
	return nil
}

func (r *stubFeedbackRepo) Update(id uuid.UUID, fields map[string]interface{}) error { return nil }

func (r *stubFeedbackRepo) Delete(id uuid.UUID) error { return nil }

func (r *stubFeedbackRepo) FindByID(id uuid.UUID) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.feedback {
		if r.feedback[i].ID == id {
			return &r.feedback[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubFeedbackRepo) List() ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Feedback, len(r.feedback))
	copy(out, r.feedback)
	return out, nil
}

func (r *stubFeedbackRepo) ListByEmployee(employeeID uuid.UUID) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Feedback
	for _, f := range r.feedback {
		if f.EmployeeID == employeeID {
			out = append(out, f)
		}
	}
	return out, nil
}

type stubMsgRepo struct {
	mu       sync.Mutex
	messages []*models.Message
}

func newStubMsgRepo() *stubMsgRepo {
	return &stubMsgRepo{}
}

func (r *stubMsgRepo) Save(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	cp := *message
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *stubMsgRepo) FindByID(id uuid.UUID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubMsgRepo) ListByConversation(conversationID uuid.UUID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *stubMsgRepo) LatestInConversation(conversationID uuid.UUID) (*models.Message, error) {
	all, err := r.ListByConversation(conversationID)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	cp := all[len(all)-1]
	return &cp, nil
}

func (r *stubMsgRepo) MarkDeleted(id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			m.Message = models.DeletedMarker
			m.FileURL = ""
			m.IsDeleted = true
			t := at
			m.EditedAt = &t
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
