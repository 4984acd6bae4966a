package memory

import (
	"context"
	"sort"
	"sync"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// MessageRepository is a map-backed ports.MessageRepository. Logs are kept
// in append order; History re-sorts by timestamp with message ID as the
// tie-breaker, matching the sort-key ordering of the DynamoDB store.
type MessageRepository struct {
	mu   sync.RWMutex
	logs map[string][]*entities.Message
}

// NewMessageRepository creates an empty in-memory message repository
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		logs: make(map[string][]*entities.Message),
	}
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

// Append writes a message to the conversation's log
func (r *MessageRepository) Append(ctx context.Context, message *entities.Message) error {
	if message == nil {
		return apperrors.NewInvalidArgumentError("message cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := message.ConversationID().String()
	r.logs[key] = append(r.logs[key], message)
	return nil
}

// History retrieves the full ordered message log of a conversation
func (r *MessageRepository) History(ctx context.Context, conversationID valueobjects.ConversationID) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.logs[conversationID.String()]
	ordered := make([]*entities.Message, len(log))
	copy(ordered, log)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SentAt().Equal(ordered[j].SentAt()) {
			return ordered[i].ID() < ordered[j].ID()
		}
		return ordered[i].SentAt().Before(ordered[j].SentAt())
	})

	return ordered, nil
}

// Latest retrieves the most recent message, nil if the log is empty
func (r *MessageRepository) Latest(ctx context.Context, conversationID valueobjects.ConversationID) (*entities.Message, error) {
	ordered, err := r.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(ordered) == 0 {
		return nil, nil
	}
	return ordered[len(ordered)-1], nil
}
