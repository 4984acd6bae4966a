package entities

import (
	"time"

	"github.com/google/uuid"

	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
	pkgerrors "studybuddy-backend/pkg/errors"
)

// Message is a single entry in a conversation's append-only log
type Message struct {
	id             string
	conversationID valueobjects.ConversationID
	senderID       valueobjects.UserID
	body           valueobjects.MessageBody
	sentAt         time.Time

	events []events.DomainEvent
}

// NewMessage creates a message for a conversation the sender belongs to
func NewMessage(conversationID valueobjects.ConversationID, senderID valueobjects.UserID, body valueobjects.MessageBody) (*Message, error) {
	if conversationID.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("message requires a conversation")
	}
	if senderID.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("message requires a sender")
	}
	if body.IsEmpty() {
		return nil, pkgerrors.NewInvalidArgumentError("message body cannot be empty")
	}

	now := time.Now()
	msg := &Message{
		id:             uuid.New().String(),
		conversationID: conversationID,
		senderID:       senderID,
		body:           body,
		sentAt:         now,
		events:         []events.DomainEvent{},
	}

	msg.addEvent(events.NewMessageSent(msg.id, conversationID, senderID, now))

	return msg, nil
}

// ReconstructMessage rebuilds a message from repository data
func ReconstructMessage(
	id string,
	conversationID valueobjects.ConversationID,
	senderID valueobjects.UserID,
	body valueobjects.MessageBody,
	sentAt time.Time,
) (*Message, error) {
	if id == "" {
		return nil, pkgerrors.NewInvalidArgumentError("message requires an ID")
	}
	if conversationID.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("message requires a conversation")
	}

	return &Message{
		id:             id,
		conversationID: conversationID,
		senderID:       senderID,
		body:           body,
		sentAt:         sentAt,
		events:         []events.DomainEvent{},
	}, nil
}

// ID returns the message's unique identifier
func (m *Message) ID() string {
	return m.id
}

// ConversationID returns the owning conversation
func (m *Message) ConversationID() valueobjects.ConversationID {
	return m.conversationID
}

// SenderID returns the author of the message
func (m *Message) SenderID() valueobjects.UserID {
	return m.senderID
}

// Body returns the message payload
func (m *Message) Body() valueobjects.MessageBody {
	return m.body
}

// SentAt returns the append timestamp
func (m *Message) SentAt() time.Time {
	return m.sentAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (m *Message) GetUncommittedEvents() []events.DomainEvent {
	return m.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (m *Message) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}

func (m *Message) addEvent(event events.DomainEvent) {
	m.events = append(m.events, event)
}
