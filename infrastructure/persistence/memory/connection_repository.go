package memory

import (
	"context"
	"sync"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ConnectionRepository is a map-backed ports.ConnectionRepository keyed by
// the canonical pair string. Create is conditional on absence, which gives
// the same single-winner semantics as the conditional DynamoDB put.
type ConnectionRepository struct {
	mu    sync.RWMutex
	edges map[string]*entities.Connection
}

// NewConnectionRepository creates an empty in-memory connection repository
func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{
		edges: make(map[string]*entities.Connection),
	}
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

// Create writes a new edge, failing with Conflict if the pair already exists
func (r *ConnectionRepository) Create(ctx context.Context, connection *entities.Connection) error {
	if connection == nil {
		return apperrors.NewInvalidArgumentError("connection cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := connection.Pair().String()
	if _, exists := r.edges[key]; exists {
		return apperrors.NewConflictError("connection already exists for pair " + key)
	}
	r.edges[key] = connection
	return nil
}

// Update overwrites an existing edge
func (r *ConnectionRepository) Update(ctx context.Context, connection *entities.Connection) error {
	if connection == nil {
		return apperrors.NewInvalidArgumentError("connection cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := connection.Pair().String()
	if _, exists := r.edges[key]; !exists {
		return apperrors.NewNotFoundError("connection not found for pair " + key)
	}
	r.edges[key] = connection
	return nil
}

// GetByPair retrieves the edge for a canonical pair
func (r *ConnectionRepository) GetByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connection, ok := r.edges[pair.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("connection not found for pair " + pair.String())
	}
	return connection, nil
}

// GetByUser retrieves all edges involving a user
func (r *ConnectionRepository) GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var connections []*entities.Connection
	for _, connection := range r.edges {
		if connection.Pair().Contains(userID) {
			connections = append(connections, connection)
		}
	}
	return connections, nil
}

// CountAccepted counts a user's accepted edges
func (r *ConnectionRepository) CountAccepted(ctx context.Context, userID valueobjects.UserID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, connection := range r.edges {
		if connection.IsAccepted() && connection.Pair().Contains(userID) {
			count++
		}
	}
	return count, nil
}
