package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavehq/hrbridge/models"
)

func newLiveFixture() (*liveService, *fakeAuthRepo, *fakeFeedbackRepo, *fakeConversationRepo, *fakeMessageRepo, *LiveBus) {
	authRepo := &fakeAuthRepo{}
	feedbackRepo := &fakeFeedbackRepo{}
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	bus := NewLiveBus()
	svc := NewLiveService(authRepo, feedbackRepo, convRepo, msgRepo, bus).(*liveService)
	return svc, authRepo, feedbackRepo, convRepo, msgRepo, bus
}

func addEmployee(t *testing.T, authRepo *fakeAuthRepo, name string) uuid.UUID {
	t.Helper()
	u, err := authRepo.CreateUser(&models.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  models.Role{Name: models.RoleEmployee},
	})
	require.NoError(t, err)
	return u.ID
}

// recv waits for the next snapshot with a deadline, so a broken projection
// fails the test instead of hanging it.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		panic("unreachable")
	}
}

func TestRosterMergesEmployeesFeedbackAndConversations(t *testing.T) {
	svc, authRepo, feedbackRepo, convRepo, _, _ := newLiveFixture()

	hr := uuid.New()
	ada := addEmployee(t, authRepo, "Ada")
	bob := addEmployee(t, authRepo, "Bob")
	_ = addEmployee(t, authRepo, "Cleo")

	// feedback for an employee missing from the roster
	ghost := uuid.New()
	require.NoError(t, feedbackRepo.Create(&models.Feedback{
		EmployeeID:   ghost,
		EmployeeName: "Departed Dev",
		Notes:        "exit interview",
	}))

	now := time.Now()
	older := &models.Conversation{
		PairKey:             models.PairKeyFor(hr, ada),
		ParticipantA:        hr,
		ParticipantB:        ada,
		ParticipantNames:    map[string]interface{}{hr.String(): "HR", ada.String(): "Ada"},
		LastMessage:         "see you monday",
		LastMessageTime:     now.Add(-time.Hour),
		LastMessageSenderID: ada.String(),
	}
	newer := &models.Conversation{
		PairKey:             models.PairKeyFor(hr, bob),
		ParticipantA:        hr,
		ParticipantB:        bob,
		ParticipantNames:    map[string]interface{}{hr.String(): "HR", bob.String(): "Bob"},
		LastMessage:         "thanks!",
		LastMessageTime:     now,
		LastMessageSenderID: hr.String(),
	}
	require.NoError(t, convRepo.Create(older))
	require.NoError(t, convRepo.Create(newer))

	entries, err := svc.computeRoster(hr)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// conversation partners first, newest first
	assert.Equal(t, bob, entries[0].ID)
	assert.Equal(t, "thanks!", entries[0].LastMessage)
	assert.True(t, entries[0].HasConversation)
	require.NotNil(t, entries[0].ConversationID)
	assert.Equal(t, newer.ID, *entries[0].ConversationID)

	assert.Equal(t, ada, entries[1].ID)
	assert.Equal(t, "see you monday", entries[1].LastMessage)

	// then contacts without a conversation, roster arrival order, with the
	// feedback-only employee appended after the registered ones
	assert.Equal(t, "Cleo", entries[2].Name)
	assert.False(t, entries[2].HasConversation)
	assert.Equal(t, models.NoMessageYet, entries[2].LastMessage)
	assert.Nil(t, entries[2].ConversationID)

	assert.Equal(t, ghost, entries[3].ID)
	assert.Equal(t, "Departed Dev", entries[3].Name)
	assert.Equal(t, models.NoMessageYet, entries[3].LastMessage)
}

func TestRosterEmptyConversationKeepsPlaceholder(t *testing.T) {
	svc, authRepo, _, convRepo, _, _ := newLiveFixture()

	hr := uuid.New()
	ada := addEmployee(t, authRepo, "Ada")
	require.NoError(t, convRepo.Create(&models.Conversation{
		PairKey:          models.PairKeyFor(hr, ada),
		ParticipantA:     hr,
		ParticipantB:     ada,
		ParticipantNames: map[string]interface{}{hr.String(): "HR", ada.String(): "Ada"},
	}))

	entries, err := svc.computeRoster(hr)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].HasConversation)
	assert.Equal(t, models.NoMessageYet, entries[0].LastMessage)
}

func TestSubscribeMergedRosterPushesOnChange(t *testing.T) {
	svc, authRepo, _, _, _, bus := newLiveFixture()
	hr := uuid.New()
	addEmployee(t, authRepo, "Ada")

	snapshots, cancel := svc.SubscribeMergedRoster(hr)
	defer cancel()

	initial := recv(t, snapshots)
	assert.Len(t, initial, 1)

	addEmployee(t, authRepo, "Bob")
	bus.Publish(topicRoster)

	// the next delivered snapshot reflects the change; an intermediate stale
	// one may arrive first
	deadline := time.After(2 * time.Second)
	for {
		select {
		case next := <-snapshots:
			if len(next) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("roster snapshot never reflected the new employee")
			return
		}
	}
}

func TestSubscribeMessagesPushesOnPublish(t *testing.T) {
	svc, _, _, _, msgRepo, bus := newLiveFixture()

	convID := uuid.New()
	snapshots, cancel := svc.SubscribeMessages(convID)
	defer cancel()

	initial := recv(t, snapshots)
	assert.Empty(t, initial)

	require.NoError(t, msgRepo.Save(&models.Message{
		ConversationID: convID,
		SenderID:       uuid.New(),
		Message:        "hello",
		Timestamp:      time.Now(),
	}))
	bus.Publish(topicMessages(convID))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case next := <-snapshots:
			if len(next) == 1 {
				assert.Equal(t, "hello", next[0].Message)
				return
			}
		case <-deadline:
			t.Fatal("message snapshot never arrived")
			return
		}
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	svc, _, _, _, _, _ := newLiveFixture()

	snapshots, cancel := svc.SubscribeMessages(uuid.New())
	recv(t, snapshots)

	cancel()
	cancel() // idempotent

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-snapshots:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel was not closed after cancel")
			return
		}
	}
}

func TestPushLatestDropsStaleSnapshot(t *testing.T) {
	out := make(chan int, 1)
	pushLatest(out, 1)
	pushLatest(out, 2)
	assert.Equal(t, 2, <-out)
}
