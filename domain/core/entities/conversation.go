package entities

import (
	"strings"
	"time"

	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
	pkgerrors "studybuddy-backend/pkg/errors"
)

// ConversationKind distinguishes direct threads from group chats
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// DefaultGroupName is the fallback title for unnamed group conversations
const DefaultGroupName = "Group"

// Conversation is a messaging thread. Direct conversations hold exactly two
// participants and are unique per canonical pair; group conversations carry
// an arbitrary member set and are deliberately never deduplicated.
type Conversation struct {
	id            valueobjects.ConversationID
	kind          ConversationKind
	name          string
	participants  []valueobjects.UserID
	createdAt     time.Time
	lastMessageAt time.Time

	events []events.DomainEvent
}

// NewDirectConversation creates the single thread for an unordered user pair
func NewDirectConversation(a, b valueobjects.UserID) (*Conversation, error) {
	pair, err := valueobjects.NewPairKey(a, b)
	if err != nil {
		return nil, pkgerrors.NewInvalidArgumentError(err.Error())
	}

	now := time.Now()
	conv := &Conversation{
		id:           valueobjects.NewConversationID(),
		kind:         ConversationDirect,
		participants: []valueobjects.UserID{pair.First(), pair.Second()},
		createdAt:    now,
		events:       []events.DomainEvent{},
	}

	conv.addEvent(events.NewConversationCreated(conv.id, string(ConversationDirect), conv.ParticipantIDs(), now))

	return conv, nil
}

// NewGroupConversation creates a fresh group thread. The creator is always a
// participant; duplicate member IDs collapse. Repeated calls with the same
// member set still produce distinct conversations.
func NewGroupConversation(creator valueobjects.UserID, members []valueobjects.UserID, name string) (*Conversation, error) {
	if creator.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("group requires a creator")
	}

	participants := []valueobjects.UserID{creator}
	seen := map[string]bool{creator.String(): true}
	for _, m := range members {
		if m.IsZero() || seen[m.String()] {
			continue
		}
		seen[m.String()] = true
		participants = append(participants, m)
	}

	if len(participants) < 2 {
		return nil, pkgerrors.NewInvalidArgumentError("group requires at least one member besides the creator")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultGroupName
	}

	now := time.Now()
	conv := &Conversation{
		id:           valueobjects.NewConversationID(),
		kind:         ConversationGroup,
		name:         name,
		participants: participants,
		createdAt:    now,
		events:       []events.DomainEvent{},
	}

	conv.addEvent(events.NewConversationCreated(conv.id, string(ConversationGroup), conv.ParticipantIDs(), now))

	return conv, nil
}

// ReconstructConversation rebuilds a conversation from repository data
func ReconstructConversation(
	id valueobjects.ConversationID,
	kind ConversationKind,
	name string,
	participants []valueobjects.UserID,
	createdAt, lastMessageAt time.Time,
) (*Conversation, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewInvalidArgumentError("conversation requires an ID")
	}
	if kind == ConversationDirect && len(participants) != 2 {
		return nil, pkgerrors.NewInvalidArgumentError("direct conversation requires exactly two participants")
	}
	if len(participants) == 0 {
		return nil, pkgerrors.NewInvalidArgumentError("conversation requires participants")
	}

	return &Conversation{
		id:            id,
		kind:          kind,
		name:          name,
		participants:  append([]valueobjects.UserID{}, participants...),
		createdAt:     createdAt,
		lastMessageAt: lastMessageAt,
		events:        []events.DomainEvent{},
	}, nil
}

// ID returns the conversation's unique identifier
func (c *Conversation) ID() valueobjects.ConversationID {
	return c.id
}

// Kind returns whether this is a direct or group conversation
func (c *Conversation) Kind() ConversationKind {
	return c.kind
}

// IsDirect reports whether this is a two-party thread
func (c *Conversation) IsDirect() bool {
	return c.kind == ConversationDirect
}

// Name returns the stored name, empty for direct conversations
func (c *Conversation) Name() string {
	return c.name
}

// Participants returns the participant set
func (c *Conversation) Participants() []valueobjects.UserID {
	return append([]valueobjects.UserID{}, c.participants...)
}

// ParticipantIDs returns the participant set as raw strings
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, len(c.participants))
	for i, p := range c.participants {
		ids[i] = p.String()
	}
	return ids
}

// HasParticipant reports whether the user is part of the conversation
func (c *Conversation) HasParticipant(id valueobjects.UserID) bool {
	for _, p := range c.participants {
		if p.Equals(id) {
			return true
		}
	}
	return false
}

// PairKey returns the canonical pair key of a direct conversation. The
// second return value is false for group conversations.
func (c *Conversation) PairKey() (valueobjects.PairKey, bool) {
	if c.kind != ConversationDirect || len(c.participants) != 2 {
		return valueobjects.PairKey{}, false
	}
	key, err := valueobjects.NewPairKey(c.participants[0], c.participants[1])
	if err != nil {
		return valueobjects.PairKey{}, false
	}
	return key, true
}

// Counterpart returns the other participant of a direct conversation
func (c *Conversation) Counterpart(viewer valueobjects.UserID) (valueobjects.UserID, bool) {
	key, ok := c.PairKey()
	if !ok {
		return valueobjects.UserID{}, false
	}
	return key.Other(viewer)
}

// RecordMessage bumps the last-activity timestamp
func (c *Conversation) RecordMessage(at time.Time) {
	if at.After(c.lastMessageAt) {
		c.lastMessageAt = at
	}
}

// CreatedAt returns when the conversation was created
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}

// LastMessageAt returns the time of the most recent message, zero if none
func (c *Conversation) LastMessageAt() time.Time {
	return c.lastMessageAt
}

// LastActivity returns the ordering timestamp for conversation lists:
// the last message time, falling back to creation time.
func (c *Conversation) LastActivity() time.Time {
	if !c.lastMessageAt.IsZero() {
		return c.lastMessageAt
	}
	return c.createdAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Conversation) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Conversation) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Conversation) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}
