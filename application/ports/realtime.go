package ports

import (
	"context"

	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
)

// Subscription is a live message feed for one conversation. Messages arrive
// on C in creation order. Unsubscribe is idempotent; after it returns, C is
// closed and no further messages are delivered.
type Subscription interface {
	// C returns the delivery channel
	C() <-chan *entities.Message

	// Unsubscribe tears the subscription down and releases its resources
	Unsubscribe()
}

// RealtimeFeed is a publish/subscribe primitive keyed by conversation ID.
// Publishing and subscribing on the same conversation are serialized so a
// subscriber never misses a message published after its subscription took
// effect.
type RealtimeFeed interface {
	// Publish fans a message out to the conversation's active subscribers
	Publish(ctx context.Context, message *entities.Message) error

	// Subscribe opens a feed of messages created after the call returns
	Subscribe(ctx context.Context, conversationID valueobjects.ConversationID) (Subscription, error)
}
