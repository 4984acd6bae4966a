package services

import (
	"context"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
	apperrors "studybuddy-backend/pkg/errors"
)

// ConnectionService manages the bilateral connection graph. An edge for an
// unordered user pair moves through Pending into Accepted; requesting a
// connection that the other side already requested counts as acceptance.
type ConnectionService struct {
	connectionRepo ports.ConnectionRepository
	profileRepo    ports.ProfileRepository
	publisher      ports.EventPublisher
	logger         *zap.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	connectionRepo ports.ConnectionRepository,
	profileRepo ports.ProfileRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		connectionRepo: connectionRepo,
		profileRepo:    profileRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// RequestConnection records the requester's intent to connect with the
// target. Self-requests are a no-op. If the target already requested the
// connection, the edge transitions to Accepted instead of duplicating.
// A Conflict from the store means another writer won the race for the
// pair; it is resolved by re-reading the edge, never surfaced.
func (s *ConnectionService) RequestConnection(ctx context.Context, requesterID, targetID string) (*entities.Connection, error) {
	requester, err := valueobjects.NewUserID(requesterID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	target, err := valueobjects.NewUserID(targetID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	if requester.Equals(target) {
		return nil, nil
	}

	// The target must be a real user before an edge can point at them
	if _, err := s.profileRepo.GetByID(ctx, target); err != nil {
		return nil, err
	}

	pair, err := valueobjects.NewPairKey(requester, target)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	existing, err := s.connectionRepo.GetByPair(ctx, pair)
	switch {
	case err == nil:
		return s.advance(ctx, existing, requester)
	case apperrors.IsNotFound(err):
		// fall through to create
	default:
		return nil, err
	}

	connection, err := entities.NewConnection(requester, target)
	if err != nil {
		return nil, err
	}

	if err := s.connectionRepo.Create(ctx, connection); err != nil {
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		// Lost the race for this pair; the winner's edge is authoritative
		s.logger.Debug("connection create lost race, re-reading pair",
			zap.String("pair", pair.String()),
		)
		winner, readErr := s.connectionRepo.GetByPair(ctx, pair)
		if readErr != nil {
			return nil, readErr
		}
		return s.advance(ctx, winner, requester)
	}

	s.publishEvents(ctx, connection.GetUncommittedEvents())
	connection.MarkEventsAsCommitted()

	s.logger.Info("connection requested",
		zap.String("pair", pair.String()),
		zap.String("requester", requester.String()),
	)

	return connection, nil
}

// advance applies a request against an existing edge: the original
// requester repeating the request is a no-op, the other party requesting
// is an acceptance, and an Accepted edge stays put.
func (s *ConnectionService) advance(ctx context.Context, connection *entities.Connection, by valueobjects.UserID) (*entities.Connection, error) {
	if connection.IsAccepted() || connection.Requester().Equals(by) {
		return connection, nil
	}

	if err := connection.Accept(by); err != nil {
		return nil, err
	}

	if err := s.connectionRepo.Update(ctx, connection); err != nil {
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		return s.connectionRepo.GetByPair(ctx, connection.Pair())
	}

	s.publishEvents(ctx, connection.GetUncommittedEvents())
	connection.MarkEventsAsCommitted()

	s.logger.Info("connection accepted",
		zap.String("pair", connection.Pair().String()),
		zap.String("acceptedBy", by.String()),
	)

	return connection, nil
}

// AcceptConnection explicitly accepts a pending request aimed at the caller
func (s *ConnectionService) AcceptConnection(ctx context.Context, accepterID, otherID string) (*entities.Connection, error) {
	accepter, err := valueobjects.NewUserID(accepterID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	other, err := valueobjects.NewUserID(otherID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	pair, err := valueobjects.NewPairKey(accepter, other)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	connection, err := s.connectionRepo.GetByPair(ctx, pair)
	if err != nil {
		return nil, err
	}

	return s.advance(ctx, connection, accepter)
}

// StatusFor derives the viewer-relative status of the edge between two users
func (s *ConnectionService) StatusFor(ctx context.Context, viewerID, otherID string) (entities.ViewerStatus, error) {
	viewer, err := valueobjects.NewUserID(viewerID)
	if err != nil {
		return entities.ViewerStatusNone, apperrors.NewInvalidArgumentError(err.Error())
	}
	other, err := valueobjects.NewUserID(otherID)
	if err != nil {
		return entities.ViewerStatusNone, apperrors.NewInvalidArgumentError(err.Error())
	}
	if viewer.Equals(other) {
		return entities.ViewerStatusNone, nil
	}

	pair, err := valueobjects.NewPairKey(viewer, other)
	if err != nil {
		return entities.ViewerStatusNone, apperrors.NewInvalidArgumentError(err.Error())
	}

	connection, err := s.connectionRepo.GetByPair(ctx, pair)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return entities.ViewerStatusNone, nil
		}
		return entities.ViewerStatusNone, err
	}

	return connection.StatusFor(viewer), nil
}

// ListAccepted returns the profiles of everyone the user is connected with,
// used for contact lists and chat-start pickers
func (s *ConnectionService) ListAccepted(ctx context.Context, userID string) ([]*entities.Profile, error) {
	user, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	connections, err := s.connectionRepo.GetByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	counterparts := make([]valueobjects.UserID, 0, len(connections))
	for _, connection := range connections {
		if !connection.IsAccepted() {
			continue
		}
		if other, ok := connection.Pair().Other(user); ok {
			counterparts = append(counterparts, other)
		}
	}

	if len(counterparts) == 0 {
		return []*entities.Profile{}, nil
	}

	return s.profileRepo.GetByIDs(ctx, counterparts)
}

// CountAccepted returns the user's accepted connection count
func (s *ConnectionService) CountAccepted(ctx context.Context, userID string) (int, error) {
	user, err := valueobjects.NewUserID(userID)
	if err != nil {
		return 0, apperrors.NewInvalidArgumentError(err.Error())
	}
	return s.connectionRepo.CountAccepted(ctx, user)
}

// ConnectedIDs returns the set of user IDs with any edge to the user,
// pending or accepted, keyed by raw ID
func (s *ConnectionService) ConnectedIDs(ctx context.Context, user valueobjects.UserID) (map[string]bool, error) {
	connections, err := s.connectionRepo.GetByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(connections))
	for _, connection := range connections {
		if other, ok := connection.Pair().Other(user); ok {
			ids[other.String()] = true
		}
	}
	return ids, nil
}

func (s *ConnectionService) publishEvents(ctx context.Context, evts []events.DomainEvent) {
	if s.publisher == nil || len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		// Event delivery is best-effort; the write already committed
		s.logger.Warn("failed to publish connection events", zap.Error(err))
	}
}
