package services

import (
	"sync"

	"github.com/google/uuid"
)

const (
	topicConversations = "conversations"
	topicRoster        = "roster"
	topicFeedback      = "feedback"
)

func topicMessages(conversationID uuid.UUID) string {
	return "messages:" + conversationID.String()
}

// LiveBus is the in-process change-notification fan-out feeding the live
// projections. Mutation paths publish a topic; subscribers re-query and push
// fresh snapshots. Signals are coalesced, so a subscriber sees "something
// changed" at least once, not one signal per write.
type LiveBus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func NewLiveBus() *LiveBus {
	return &LiveBus{subs: make(map[string]map[int]chan struct{})}
}

// Publish signals every subscriber of topic without blocking. A subscriber
// with a pending signal keeps exactly one.
func (b *LiveBus) Publish(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers for change signals on topic. The cancel func must be
// called to release the registration; a dropped subscription leaks otherwise.
func (b *LiveBus) Subscribe(topic string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan struct{})
	}
	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subs[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subs, topic)
			}
		}
	}
	return ch, cancel
}
