package events

import (
	"time"

	"studybuddy-backend/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Connection Events

// ConnectionRequested is raised when a user asks to connect with another
type ConnectionRequested struct {
	BaseEvent
	PairKey     string `json:"pair_key"`
	RequesterID string `json:"requester_id"`
	TargetID    string `json:"target_id"`
}

// NewConnectionRequested creates a ConnectionRequested event
func NewConnectionRequested(pair valueobjects.PairKey, requester, target valueobjects.UserID, timestamp time.Time) ConnectionRequested {
	return ConnectionRequested{
		BaseEvent: BaseEvent{
			AggregateID: pair.String(),
			EventType:   "connection.requested",
			Timestamp:   timestamp,
			Version:     1,
		},
		PairKey:     pair.String(),
		RequesterID: requester.String(),
		TargetID:    target.String(),
	}
}

// ConnectionAccepted is raised when a pending request is accepted
type ConnectionAccepted struct {
	BaseEvent
	PairKey     string `json:"pair_key"`
	RequesterID string `json:"requester_id"`
	AcceptedBy  string `json:"accepted_by"`
}

// NewConnectionAccepted creates a ConnectionAccepted event
func NewConnectionAccepted(pair valueobjects.PairKey, requester, acceptedBy valueobjects.UserID, timestamp time.Time) ConnectionAccepted {
	return ConnectionAccepted{
		BaseEvent: BaseEvent{
			AggregateID: pair.String(),
			EventType:   "connection.accepted",
			Timestamp:   timestamp,
			Version:     1,
		},
		PairKey:     pair.String(),
		RequesterID: requester.String(),
		AcceptedBy:  acceptedBy.String(),
	}
}

// Conversation Events

// ConversationCreated is raised when a conversation comes into existence
type ConversationCreated struct {
	BaseEvent
	ConversationID string   `json:"conversation_id"`
	Kind           string   `json:"kind"`
	ParticipantIDs []string `json:"participant_ids"`
}

// NewConversationCreated creates a ConversationCreated event
func NewConversationCreated(id valueobjects.ConversationID, kind string, participantIDs []string, timestamp time.Time) ConversationCreated {
	return ConversationCreated{
		BaseEvent: BaseEvent{
			AggregateID: id.String(),
			EventType:   "conversation.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		ConversationID: id.String(),
		Kind:           kind,
		ParticipantIDs: participantIDs,
	}
}

// Message Events

// MessageSent is raised when a message is appended to a conversation
type MessageSent struct {
	BaseEvent
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
}

// NewMessageSent creates a MessageSent event
func NewMessageSent(messageID string, conversationID valueobjects.ConversationID, senderID valueobjects.UserID, timestamp time.Time) MessageSent {
	return MessageSent{
		BaseEvent: BaseEvent{
			AggregateID: conversationID.String(),
			EventType:   "message.sent",
			Timestamp:   timestamp,
			Version:     1,
		},
		MessageID:      messageID,
		ConversationID: conversationID.String(),
		SenderID:       senderID.String(),
	}
}
