package memory

import (
	"context"
	"sync"
	"time"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ConversationRepository is a map-backed ports.ConversationRepository with
// a separate canonical-pair index for direct conversations
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entities.Conversation
	byPair        map[string]string
}

// NewConversationRepository creates an empty in-memory conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]*entities.Conversation),
		byPair:        make(map[string]string),
	}
}

var _ ports.ConversationRepository = (*ConversationRepository)(nil)

// Save persists a conversation
func (r *ConversationRepository) Save(ctx context.Context, conversation *entities.Conversation) error {
	if conversation == nil {
		return apperrors.NewInvalidArgumentError("conversation cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conversations[conversation.ID().String()] = conversation
	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id valueobjects.ConversationID) (*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("conversation not found: " + id.String())
	}
	return conversation, nil
}

// GetDirectByPair looks up the direct conversation indexed under the pair
func (r *ConversationRepository) GetDirectByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	convID, ok := r.byPair[pair.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("no direct conversation for pair " + pair.String())
	}
	conversation, ok := r.conversations[convID]
	if !ok {
		return nil, apperrors.NewNotFoundError("conversation not found: " + convID)
	}
	return conversation, nil
}

// CreateDirect writes the conversation and its pair index atomically,
// failing with Conflict if the pair is already indexed
func (r *ConversationRepository) CreateDirect(ctx context.Context, conversation *entities.Conversation, pair valueobjects.PairKey) error {
	if conversation == nil {
		return apperrors.NewInvalidArgumentError("conversation cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPair[pair.String()]; exists {
		return apperrors.NewConflictError("direct conversation already exists for pair " + pair.String())
	}
	r.byPair[pair.String()] = conversation.ID().String()
	r.conversations[conversation.ID().String()] = conversation
	return nil
}

// GetByUser retrieves all conversations containing a user
func (r *ConversationRepository) GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			result = append(result, conversation)
		}
	}
	return result, nil
}

// TouchLastMessage records the latest message time on the conversation
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id valueobjects.ConversationID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id.String()]
	if !ok {
		return apperrors.NewNotFoundError("conversation not found: " + id.String())
	}
	conversation.RecordMessage(at)
	return nil
}
