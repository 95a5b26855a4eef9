// Package notification provides the notification manager for broadcasting events.
package notification

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/app/playback"
)

// Notification is a playback event stamped with a sequence number.
type Notification struct {
	SequenceNo uint64
	Event      playback.Event
}

// Subscriber receives notifications.
type Subscriber interface {
	Send(Notification) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Notification) error

// Send calls f(n).
func (f SubscriberFunc) Send(n Notification) error {
	return f(n)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id         string
	subscriber Subscriber
}

// Manager manages subscriptions and broadcasts engine events.
// Delivery is synchronous and in subscription order: Broadcast returns only
// after every subscriber has seen the notification.
type Manager struct {
	mu            sync.RWMutex
	subscriptions []*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make([]*subscription, 0),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(subscriber Subscriber) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions = append(m.subscriptions, &subscription{
		id:         id,
		subscriber: subscriber,
	})
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = slices.DeleteFunc(m.subscriptions, func(s *subscription) bool {
		return s.id == subscriptionID
	})
}

// nextSequenceNo returns the next sequence number.
func (m *Manager) nextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Notify implements playback.Notifier.
func (m *Manager) Notify(ev playback.Event) {
	m.Broadcast(ev)
}

// Broadcast sends an event to all subscribers and returns its sequence number.
// A failing subscriber is logged and skipped; it does not stop delivery to the others.
func (m *Manager) Broadcast(ev playback.Event) uint64 {
	n := Notification{
		SequenceNo: m.nextSequenceNo(),
		Event:      ev,
	}

	m.mu.RLock()
	// Copy subscriptions so a subscriber may unsubscribe from within Send
	subs := slices.Clone(m.subscriptions)
	m.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.subscriber.Send(n); err != nil {
			zlog.Warn().Err(err).Msgf("notification: subscriber failed: id=%s event=%s seq=%d", sub.id, ev.Type, n.SequenceNo)
		}
	}
	return n.SequenceNo
}

// Send sends an event to a specific subscriber.
func (m *Manager) Send(subscriptionID string, ev playback.Event) error {
	m.mu.RLock()
	idx := slices.IndexFunc(m.subscriptions, func(s *subscription) bool {
		return s.id == subscriptionID
	})
	var sub *subscription
	if idx >= 0 {
		sub = m.subscriptions[idx]
	}
	m.mu.RUnlock()

	if sub == nil {
		return nil
	}
	return sub.subscriber.Send(Notification{SequenceNo: m.nextSequenceNo(), Event: ev})
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make([]*subscription, 0)
}
