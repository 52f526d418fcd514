package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/models"
	"gorm.io/gorm"
)

// in-memory repository fakes backing the service tests

type fakeConversationRepo struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]*models.Conversation
	byPairKey    map[string]*models.Conversation
	created      int
	failLastMsg  bool
	lastMsgCalls int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:      make(map[uuid.UUID]*models.Conversation),
		byPairKey: make(map[string]*models.Conversation),
	}
}

func (r *fakeConversationRepo) Create(conversation *models.Conversation) error {
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
	r.created++
	return nil
}

func (r *fakeConversationRepo) FindByID(id uuid.UUID) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) FindByPairKey(pairKey string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPairKey[pairKey]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeConversationRepo) ListByParticipant(participantID uuid.UUID) ([]models.Conversation, error) {
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

func (r *fakeConversationRepo) UpdateLastMessage(id uuid.UUID, body, senderID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastMsgCalls++
	if r.failLastMsg {
		return gorm.ErrInvalidDB
	}
	c, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastMessage = body
	c.LastMessageSenderID = senderID
	c.LastMessageTime = at
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Save(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	cp := *message
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) FindByID(id uuid.UUID) (*models.Message, error) {
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

func (r *fakeMessageRepo) ListByConversation(conversationID uuid.UUID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	// stable: insertion order kept for equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *fakeMessageRepo) LatestInConversation(conversationID uuid.UUID) (*models.Message, error) {
	all, err := r.ListByConversation(conversationID)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	cp := all[len(all)-1]
	return &cp, nil
}

func (r *fakeMessageRepo) MarkDeleted(id uuid.UUID, at time.Time) error {
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

type fakeAuthRepo struct {
	mu    sync.Mutex
	users []models.User
}

func (r *fakeAuthRepo) CreateUser(user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users = append(r.users, *user)
	return user, nil
}

func (r *fakeAuthRepo) FindUserByID(id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			return &r.users[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			return &r.users[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuthRepo) IsEmailExist(email string) error {
	return nil
}

func (r *fakeAuthRepo) FindRoleByName(name string) (*models.Role, error) {
	return &models.Role{ID: uuid.New(), Name: name}, nil
}

func (r *fakeAuthRepo) ListUsersByRole(roleName string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.Role.Name == roleName {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	mu       sync.Mutex
	feedback []models.Feedback
}

func (r *fakeFeedbackRepo) Create(feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	r.feedback = append(r.feedback, *feedback)
	return nil
}

func (r *fakeFeedbackRepo) Update(id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func (r *fakeFeedbackRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.feedback {
		if r.feedback[i].ID == id {
			r.feedback = append(r.feedback[:i], r.feedback[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeFeedbackRepo) FindByID(id uuid.UUID) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.feedback {
		if r.feedback[i].ID == id {
			return &r.feedback[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFeedbackRepo) List() ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Feedback, len(r.feedback))
	copy(out, r.feedback)
	return out, nil
}

func (r *fakeFeedbackRepo) ListByEmployee(employeeID uuid.UUID) ([]models.Feedback, error) {
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

type fakeAttachmentRepo struct {
	mu     sync.Mutex
	byName map[string]*models.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{byName: make(map[string]*models.Attachment)}
}

func (r *fakeAttachmentRepo) Save(attachment *models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}
	cp := *attachment
	r.byName[cp.StoredName] = &cp
	return nil
}

func (r *fakeAttachmentRepo) FindByStoredName(storedName string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byName[storedName]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

// sequentialClock hands out strictly increasing timestamps.
func sequentialClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}
