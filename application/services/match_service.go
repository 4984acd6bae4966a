package services

import (
	"context"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	domainservices "studybuddy-backend/domain/services"
	apperrors "studybuddy-backend/pkg/errors"
)

// candidatePoolLimit caps how many profiles one suggestion request scores
const candidatePoolLimit = 200

// Suggestion is a scored candidate annotated with the viewer's connection
// status toward them
type Suggestion struct {
	Profile          *entities.Profile
	Score            float64
	Reasons          []string
	ConnectionStatus entities.ViewerStatus
}

// MatchService produces ranked study-partner suggestions for a viewer
type MatchService struct {
	profileRepo    ports.ProfileRepository
	connectionRepo ports.ConnectionRepository
	ranker         *domainservices.CandidateRanker
	logger         *zap.Logger
}

// NewMatchService creates a new match service
func NewMatchService(
	profileRepo ports.ProfileRepository,
	connectionRepo ports.ConnectionRepository,
	ranker *domainservices.CandidateRanker,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		profileRepo:    profileRepo,
		connectionRepo: connectionRepo,
		ranker:         ranker,
		logger:         logger,
	}
}

// Suggestions ranks the candidate pool against the viewer, drops anyone the
// viewer already has an edge with, applies the requested filters, and
// returns one page plus the total number of filtered candidates. Ranking is
// deterministic for an unchanged pool.
func (s *MatchService) Suggestions(ctx context.Context, viewerID string, filters domainservices.MatchFilters, page, pageSize int) ([]Suggestion, int, error) {
	viewer, err := valueobjects.NewUserID(viewerID)
	if err != nil {
		return nil, 0, apperrors.NewInvalidArgumentError(err.Error())
	}

	viewerProfile, err := s.profileRepo.GetByID(ctx, viewer)
	if err != nil {
		return nil, 0, err
	}

	pool, err := s.profileRepo.ListCandidates(ctx, candidatePoolLimit)
	if err != nil {
		return nil, 0, err
	}

	exclude, statusByID, err := s.edgeIndex(ctx, viewer)
	if err != nil {
		return nil, 0, err
	}

	ranked := s.ranker.Rank(viewerProfile, pool, exclude)
	ranked = s.ranker.Filter(viewerProfile, ranked, filters)
	pageItems := s.ranker.Page(ranked, page, pageSize)

	suggestions := make([]Suggestion, 0, len(pageItems))
	for _, rc := range pageItems {
		suggestions = append(suggestions, Suggestion{
			Profile:          rc.Profile,
			Score:            rc.Score.Score,
			Reasons:          rc.Score.Reasons,
			ConnectionStatus: statusByID[rc.Profile.ID().String()],
		})
	}

	s.logger.Debug("computed suggestions",
		zap.String("viewer", viewer.String()),
		zap.Int("pool", len(pool)),
		zap.Int("matched", len(ranked)),
		zap.Int("returned", len(suggestions)),
	)

	return suggestions, len(ranked), nil
}

// ScoreAgainst computes the viewer's compatibility with one specific user
func (s *MatchService) ScoreAgainst(ctx context.Context, viewerID, otherID string) (domainservices.MatchScore, error) {
	viewer, err := valueobjects.NewUserID(viewerID)
	if err != nil {
		return domainservices.MatchScore{}, apperrors.NewInvalidArgumentError(err.Error())
	}
	other, err := valueobjects.NewUserID(otherID)
	if err != nil {
		return domainservices.MatchScore{}, apperrors.NewInvalidArgumentError(err.Error())
	}

	viewerProfile, err := s.profileRepo.GetByID(ctx, viewer)
	if err != nil {
		return domainservices.MatchScore{}, err
	}
	otherProfile, err := s.profileRepo.GetByID(ctx, other)
	if err != nil {
		return domainservices.MatchScore{}, err
	}

	scored := s.ranker.Rank(viewerProfile, []*entities.Profile{otherProfile}, nil)
	if len(scored) == 0 {
		return domainservices.MatchScore{Reasons: []string{}}, nil
	}
	return scored[0].Score, nil
}

// edgeIndex loads the viewer's existing edges once: accepted counterparts
// are excluded from suggestions entirely, pending ones are kept but
// annotated so the UI can render the right affordance
func (s *MatchService) edgeIndex(ctx context.Context, viewer valueobjects.UserID) (map[string]bool, map[string]entities.ViewerStatus, error) {
	connections, err := s.connectionRepo.GetByUser(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}

	exclude := make(map[string]bool)
	statusByID := make(map[string]entities.ViewerStatus, len(connections))
	for _, connection := range connections {
		other, ok := connection.Pair().Other(viewer)
		if !ok {
			continue
		}
		statusByID[other.String()] = connection.StatusFor(viewer)
		if connection.IsAccepted() {
			exclude[other.String()] = true
		}
	}
	return exclude, statusByID, nil
}
