// Package realtime provides the in-process publish/subscribe feed that
// delivers newly appended messages to active conversation subscribers.
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind is dropped rather than blocking the publisher.
const subscriberBuffer = 64

// Hub maintains active subscriptions and fans published messages out to
// the subscribers of the message's conversation
type Hub struct {
	mu      sync.RWMutex
	feeds   map[string]map[*subscription]bool // conversationID -> subscribers
	closed  bool
	logger  *zap.Logger
	metrics *HubMetrics
}

// HubMetrics tracks feed delivery counters
type HubMetrics struct {
	mu                  sync.RWMutex
	ActiveSubscriptions int64
	MessagesDelivered   int64
	MessagesDropped     int64
}

// NewHub creates a new realtime hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		feeds:   make(map[string]map[*subscription]bool),
		logger:  logger,
		metrics: &HubMetrics{},
	}
}

var _ ports.RealtimeFeed = (*Hub)(nil)

// subscription is one live feed over a single conversation
type subscription struct {
	hub            *Hub
	conversationID string
	ch             chan *entities.Message
}

func (s *subscription) C() <-chan *entities.Message {
	return s.ch
}

// Unsubscribe detaches from the hub and closes the channel. Safe to call
// any number of times, including after the hub shut down.
func (s *subscription) Unsubscribe() {
	s.hub.detach(s)
}

// Subscribe opens a feed of messages published after the call returns
func (h *Hub) Subscribe(ctx context.Context, conversationID valueobjects.ConversationID) (ports.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, apperrors.NewUnavailableError("subscribe", nil)
	}

	sub := &subscription{
		hub:            h,
		conversationID: conversationID.String(),
		ch:             make(chan *entities.Message, subscriberBuffer),
	}

	if h.feeds[sub.conversationID] == nil {
		h.feeds[sub.conversationID] = make(map[*subscription]bool)
	}
	h.feeds[sub.conversationID][sub] = true

	h.metrics.mu.Lock()
	h.metrics.ActiveSubscriptions++
	h.metrics.mu.Unlock()

	h.logger.Debug("subscriber attached",
		zap.String("conversationID", sub.conversationID),
		zap.Int("subscribers", len(h.feeds[sub.conversationID])),
	)

	return sub, nil
}

// Publish fans a message out to the conversation's subscribers in the
// order Publish is called. Slow subscribers are detached, never waited on.
//
// Sends happen under the read lock. Channels are only ever closed by
// detach or Close, both of which hold the write lock, so a subscriber
// visible here cannot have its channel closed mid-send.
func (h *Hub) Publish(ctx context.Context, message *entities.Message) error {
	if message == nil {
		return apperrors.NewInvalidArgumentError("message cannot be nil")
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return apperrors.NewUnavailableError("publish", nil)
	}

	var slow []*subscription
	for sub := range h.feeds[message.ConversationID().String()] {
		select {
		case sub.ch <- message:
			h.metrics.mu.Lock()
			h.metrics.MessagesDelivered++
			h.metrics.mu.Unlock()
		default:
			h.metrics.mu.Lock()
			h.metrics.MessagesDropped++
			h.metrics.mu.Unlock()

			h.logger.Warn("dropping slow subscriber",
				zap.String("conversationID", sub.conversationID),
			)
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		sub.Unsubscribe()
	}

	return nil
}

// Close shuts the hub down and tears down every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	var all []*subscription
	for _, subs := range h.feeds {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.feeds = make(map[string]map[*subscription]bool)
	for _, sub := range all {
		close(sub.ch)
	}
	h.mu.Unlock()

	h.logger.Info("realtime hub closed", zap.Int("subscriptions", len(all)))
}

// SubscriberCount returns the number of active subscribers for a conversation
func (h *Hub) SubscriberCount(conversationID valueobjects.ConversationID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[conversationID.String()])
}

// Metrics returns a snapshot of the delivery counters
func (h *Hub) Metrics() (delivered, dropped, active int64) {
	h.metrics.mu.RLock()
	defer h.metrics.mu.RUnlock()
	return h.metrics.MessagesDelivered, h.metrics.MessagesDropped, h.metrics.ActiveSubscriptions
}

// detach removes a subscription from the hub's index and closes its
// channel. Map membership decides whether the channel is still open, so
// the close happens exactly once no matter how detach and Close interleave.
func (h *Hub) detach(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.feeds[sub.conversationID]
	if !ok || !subs[sub] {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.feeds, sub.conversationID)
	}
	close(sub.ch)

	h.metrics.mu.Lock()
	h.metrics.ActiveSubscriptions--
	h.metrics.mu.Unlock()
}
