package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ProfileUpdate carries the editable attributes of a profile. Nil slices
// leave the stored value untouched; empty slices clear it.
type ProfileUpdate struct {
	DisplayName       *string
	University        *string
	CourseLabel       *string
	Major             *string
	Interests         []string
	AcademicGoals     []string
	AvailabilitySlots []string
}

// ProfileService exposes the profile directory: reads for matching and
// display, writes for the subject user's own onboarding and edit flow
type ProfileService struct {
	profileRepo ports.ProfileRepository
	logger      *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo ports.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// GetProfile retrieves a single profile by user ID
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*entities.Profile, error) {
	id, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	return s.profileRepo.GetByID(ctx, id)
}

// UpsertProfile applies an update to the caller's own profile, creating it
// on first use. Profiles are never deleted, only updated.
func (s *ProfileService) UpsertProfile(ctx context.Context, userID string, update ProfileUpdate) (*entities.Profile, error) {
	id, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	current, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		current, err = entities.NewProfile(id, stringOr(update.DisplayName, ""))
		if err != nil {
			return nil, err
		}
	}

	next, err := entities.ReconstructProfile(
		id,
		stringOr(update.DisplayName, current.DisplayName()),
		stringOr(update.University, current.University()),
		stringOr(update.CourseLabel, current.CourseLabel()),
		stringOr(update.Major, current.Major()),
		sliceOr(update.Interests, current.Interests()),
		sliceOr(update.AcademicGoals, current.AcademicGoals()),
		sliceOr(update.AvailabilitySlots, current.AvailabilitySlots()),
		current.CreatedAt(),
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.Save(ctx, next); err != nil {
		return nil, err
	}

	s.logger.Info("profile saved", zap.String("userID", id.String()))

	return next, nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func sliceOr(v, fallback []string) []string {
	if v == nil {
		return fallback
	}
	return v
}
