//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/application/services"
	"studybuddy-backend/infrastructure/config"
	"studybuddy-backend/infrastructure/realtime"
	"studybuddy-backend/interfaces/http/rest"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config              *config.Config
	Logger              *zap.Logger
	ProfileRepo         ports.ProfileRepository
	ConnectionRepo      ports.ConnectionRepository
	ConversationRepo    ports.ConversationRepository
	MessageRepo         ports.MessageRepository
	EventPublisher      ports.EventPublisher
	Hub                 *realtime.Hub
	Feed                ports.RealtimeFeed
	JWTValidator        *auth.JWTValidator
	ProfileService      *services.ProfileService
	MatchService        *services.MatchService
	ConnectionService   *services.ConnectionService
	ConversationService *services.ConversationService
	MessageService      *services.MessageService
	Metrics             *observability.Metrics
	Router              *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideProfileRepository,
	ProvideConnectionRepository,
	ProvideConversationRepository,
	ProvideMessageRepository,
	ProvideEventPublisher,
	ProvideRealtimeHub,
	ProvideRealtimeFeed,
	ProvideMetrics,
	ProvideCompatibilityScorer,
	ProvideCandidateRanker,
	ProvideJWTValidator,
	ProvideProfileService,
	ProvideMatchService,
	ProvideConnectionService,
	ProvideConversationService,
	ProvideMessageService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
