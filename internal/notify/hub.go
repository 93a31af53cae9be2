// internal/notify/hub.go
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/sirupsen/logrus"
)

// subscriberBuffer is the number of undelivered events a slow subscriber may hold before
// further events to it are dropped.
const subscriberBuffer = 16

type subscriber struct {
	ch chan models.FriendEvent
}

// Hub routes friend events to the websocket sessions of the users involved. A user may hold
// several sessions at once; each one gets its own copy of the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a session for userID. The returned cancel func unregisters it and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan models.FriendEvent, func()) {
	sub := &subscriber{ch: make(chan models.FriendEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(sub.ch)
		})
	}
}

// Notify delivers ev to every session of its recipients without blocking.
func (h *Hub) Notify(_ context.Context, ev models.FriendEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range ev.Recipients() {
		for sub := range h.subs[userID] {
			select {
			case sub.ch <- ev:
			default:
				h.logger.WithFields(logrus.Fields{
					"user_id": userID,
					"event":   ev.Type,
				}).Warn("dropping friend event for slow subscriber")
			}
		}
	}
	return nil
}

// Sessions returns the number of live sessions for userID.
func (h *Hub) Sessions(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
