package services

import (
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/db"
	"github.com/wavehq/hrbridge/models"
)

// LiveService republishes merged, sorted snapshots whenever any underlying
// source changes. Every subscription returns a cancel func that tears down
// the bus registrations; dropping a subscription without calling it leaks.
type LiveService interface {
	SubscribeMessages(conversationID uuid.UUID) (<-chan []models.Message, func())
	SubscribeConversations(participantID uuid.UUID) (<-chan []models.Conversation, func())
	SubscribeMergedRoster(hrID uuid.UUID) (<-chan []models.RosterEntry, func())
}

// liveService struct
type liveService struct {
	authRepo     db.AuthRepository
	feedbackRepo db.FeedbackRepository
	convRepo     db.ConversationRepository
	msgRepo      db.MessageRepository
	bus          *LiveBus
}

// NewLiveService creates a new instance of LiveService
func NewLiveService(authRepo db.AuthRepository, feedbackRepo db.FeedbackRepository, convRepo db.ConversationRepository, msgRepo db.MessageRepository, bus *LiveBus) LiveService {
	return &liveService{
		authRepo:     authRepo,
		feedbackRepo: feedbackRepo,
		convRepo:     convRepo,
		msgRepo:      msgRepo,
		bus:          bus,
	}
}

// pushLatest delivers v without ever blocking the projection loop: a pending
// undelivered snapshot is replaced, so a slow consumer always receives the
// freshest state.
func pushLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

// project runs the snapshot loop: emit once up front, then re-emit on every
// signal from any of the given sources until cancelled. The returned cancel
// is idempotent and tears down all bus registrations.
func project[T any](compute func() (T, error), signals []<-chan struct{}, cancels []func()) (<-chan T, func()) {
	out := make(chan T, 1)
	done := make(chan struct{})

	emit := func() {
		snapshot, err := compute()
		if err != nil {
			log.Printf("live projection query failed: %v", err)
			return
		}
		pushLatest(out, snapshot)
	}

	// fan the source signals into one
	merged := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, sig := range signals {
		wg.Add(1)
		go func(sig <-chan struct{}) {
			defer wg.Done()
			for {
				select {
				case <-sig:
					select {
					case merged <- struct{}{}:
					default:
					}
				case <-done:
					return
				}
			}
		}(sig)
	}

	go func() {
		emit()
		for {
			select {
			case <-merged:
				emit()
			case <-done:
				wg.Wait()
				close(out)
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			for _, c := range cancels {
				c()
			}
		})
	}
	return out, cancel
}

// SubscribeMessages pushes the full ordered message list of a conversation on
// every insert or update, timestamp ascending.
func (s *liveService) SubscribeMessages(conversationID uuid.UUID) (<-chan []models.Message, func()) {
	sig, cancelSig := s.bus.Subscribe(topicMessages(conversationID))
	return project(func() ([]models.Message, error) {
		return s.msgRepo.ListByConversation(conversationID)
	}, []<-chan struct{}{sig}, []func(){cancelSig})
}

// SubscribeConversations pushes the participant's conversation list ordered
// by last-message recency, newest first.
func (s *liveService) SubscribeConversations(participantID uuid.UUID) (<-chan []models.Conversation, func()) {
	sig, cancelSig := s.bus.Subscribe(topicConversations)
	return project(func() ([]models.Conversation, error) {
		return s.convRepo.ListByParticipant(participantID)
	}, []<-chan struct{}{sig}, []func(){cancelSig})
}

// SubscribeMergedRoster merges the employee roster, the feedback records and
// the HR user's conversations into one contact list, recomputed whenever any
// of the three sources changes. The sources update
// at independent times; a snapshot may briefly lag one of them until the next
// change fires.
func (s *liveService) SubscribeMergedRoster(hrID uuid.UUID) (<-chan []models.RosterEntry, func()) {
	rosterSig, cancelRoster := s.bus.Subscribe(topicRoster)
	feedbackSig, cancelFeedback := s.bus.Subscribe(topicFeedback)
	convSig, cancelConv := s.bus.Subscribe(topicConversations)

	return project(func() ([]models.RosterEntry, error) {
		return s.computeRoster(hrID)
	},
		[]<-chan struct{}{rosterSig, feedbackSig, convSig},
		[]func(){cancelRoster, cancelFeedback, cancelConv})
}

func (s *liveService) computeRoster(hrID uuid.UUID) ([]models.RosterEntry, error) {
	employees, err := s.authRepo.ListUsersByRole(models.RoleEmployee)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedbackRepo.List()
	if err != nil {
		return nil, err
	}
	conversations, err := s.convRepo.ListByParticipant(hrID)
	if err != nil {
		return nil, err
	}

	// roster arrival order is the baseline order for contacts without a
	// conversation
	index := make(map[uuid.UUID]int)
	entries := make([]models.RosterEntry, 0, len(employees))
	add := func(id uuid.UUID, name string) {
		if _, ok := index[id]; ok {
			return
		}
		index[id] = len(entries)
		entries = append(entries, models.RosterEntry{
			ID:          id,
			Name:        name,
			LastMessage: models.NoMessageYet,
		})
	}

	for _, emp := range employees {
		add(emp.ID, emp.Name)
	}
	// employees with feedback appear even when absent from the roster
	for _, fb := range feedback {
		add(fb.EmployeeID, fb.EmployeeName)
	}

	for i := range conversations {
		conv := conversations[i]
		employeeID := conv.OtherParticipant(hrID)
		if _, ok := index[employeeID]; !ok {
			name, _ := conv.ParticipantNames[employeeID.String()].(string)
			add(employeeID, name)
		}
		entry := &entries[index[employeeID]]
		entry.HasConversation = true
		convID := conv.ID
		entry.ConversationID = &convID
		t := conv.LastMessageTime
		entry.LastMessageTime = &t
		if conv.LastMessage != "" {
			entry.LastMessage = conv.LastMessage
		}
	}

	// conversations first by recency, then no-conversation contacts in
	// arrival order (stable)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasConversation != b.HasConversation {
			return a.HasConversation
		}
		if a.LastMessageTime != nil && b.LastMessageTime != nil {
			return a.LastMessageTime.After(*b.LastMessageTime)
		}
		if a.LastMessageTime != nil {
			return true
		}
		return false
	})

	return entries, nil
}
