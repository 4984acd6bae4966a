package ports

import (
	"context"
	"time"

	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
)

// ProfileRepository defines the interface for profile reads
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ProfileRepository interface {
	// Save persists a profile (create or update)
	Save(ctx context.Context, profile *entities.Profile) error

	// GetByID retrieves a profile by user ID
	GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Profile, error)

	// GetByIDs retrieves multiple profiles, skipping missing ones
	GetByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.Profile, error)

	// ListCandidates retrieves the discoverable candidate pool
	ListCandidates(ctx context.Context, limit int) ([]*entities.Profile, error)
}

// ConnectionRepository defines the interface for connection edge persistence.
// Upsert must be conditional on the canonical pair key not existing so that
// concurrent writers for the same pair converge on a single edge.
type ConnectionRepository interface {
	// Create writes a new edge, failing with Conflict if the pair already exists
	Create(ctx context.Context, connection *entities.Connection) error

	// Update overwrites an existing edge
	Update(ctx context.Context, connection *entities.Connection) error

	// GetByPair retrieves the edge for a canonical pair, NotFound if absent
	GetByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Connection, error)

	// GetByUser retrieves all edges involving a user
	GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Connection, error)

	// CountAccepted counts a user's accepted edges
	CountAccepted(ctx context.Context, userID valueobjects.UserID) (int, error)
}

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// Save persists a conversation and its membership rows
	Save(ctx context.Context, conversation *entities.Conversation) error

	// GetByID retrieves a conversation by ID, NotFound if absent
	GetByID(ctx context.Context, id valueobjects.ConversationID) (*entities.Conversation, error)

	// GetDirectByPair looks up the direct conversation indexed under the
	// canonical pair, NotFound if none exists
	GetDirectByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Conversation, error)

	// CreateDirect atomically writes the conversation and its pair index,
	// failing with Conflict if the pair index already exists
	CreateDirect(ctx context.Context, conversation *entities.Conversation, pair valueobjects.PairKey) error

	// GetByUser retrieves all conversations containing a user
	GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Conversation, error)

	// TouchLastMessage records the latest message time on the conversation
	TouchLastMessage(ctx context.Context, id valueobjects.ConversationID, at time.Time) error
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Append writes a message to the conversation's log
	Append(ctx context.Context, message *entities.Message) error

	// History retrieves the full ordered message log of a conversation
	History(ctx context.Context, conversationID valueobjects.ConversationID) ([]*entities.Message, error)

	// Latest retrieves the most recent message, nil if the log is empty
	Latest(ctx context.Context, conversationID valueobjects.ConversationID) (*entities.Message, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
