// Package memory provides in-process repository implementations backed by
// maps. They are used by unit tests and local development runs; production
// traffic goes through the dynamodb package.
package memory

import (
	"context"
	"sync"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ProfileRepository is a map-backed ports.ProfileRepository
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*entities.Profile
	order    []string
}

// NewProfileRepository creates an empty in-memory profile repository
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]*entities.Profile),
	}
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// Save persists a profile (create or update)
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	if profile == nil {
		return apperrors.NewInvalidArgumentError("profile cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := profile.ID().String()
	if _, exists := r.profiles[key]; !exists {
		r.order = append(r.order, key)
	}
	r.profiles[key] = profile
	return nil
}

// GetByID retrieves a profile by user ID
func (r *ProfileRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("profile not found: " + id.String())
	}
	return profile, nil
}

// GetByIDs retrieves multiple profiles, skipping missing ones
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profiles := make([]*entities.Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := r.profiles[id.String()]; ok {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

// ListCandidates retrieves the candidate pool in insertion order, which
// keeps ranking deterministic across calls
func (r *ProfileRepository) ListCandidates(ctx context.Context, limit int) ([]*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profiles := make([]*entities.Profile, 0, len(r.order))
	for _, key := range r.order {
		if limit > 0 && len(profiles) >= limit {
			break
		}
		profiles = append(profiles, r.profiles[key])
	}
	return profiles, nil
}
