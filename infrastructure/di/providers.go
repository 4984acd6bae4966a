package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/application/services"
	domainservices "studybuddy-backend/domain/services"
	"studybuddy-backend/infrastructure/config"
	"studybuddy-backend/infrastructure/messaging/eventbridge"
	"studybuddy-backend/infrastructure/persistence/dynamodb"
	"studybuddy-backend/infrastructure/realtime"
	"studybuddy-backend/interfaces/http/rest"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideProfileRepository creates a profile repository
func ProvideProfileRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProfileRepository {
	return dynamodb.NewProfileRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideConnectionRepository creates a connection repository
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConnectionRepository {
	return dynamodb.NewConnectionRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideConversationRepository creates a conversation repository
func ProvideConversationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConversationRepository {
	return dynamodb.NewConversationRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideMessageRepository creates a message repository
func ProvideMessageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MessageRepository {
	return dynamodb.NewMessageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the EventBridge event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
}

// ProvideRealtimeHub creates the in-process realtime feed
func ProvideRealtimeHub(logger *zap.Logger) *realtime.Hub {
	return realtime.NewHub(logger)
}

// ProvideRealtimeFeed exposes the hub through its port
func ProvideRealtimeFeed(hub *realtime.Hub) ports.RealtimeFeed {
	return hub
}

// ProvideMetrics creates the CloudWatch metrics sink
func ProvideMetrics(client *awscloudwatch.Client) *observability.Metrics {
	return observability.NewMetrics("StudyBuddy/Backend", client)
}

// ProvideCompatibilityScorer creates the compatibility scorer
func ProvideCompatibilityScorer() *domainservices.CompatibilityScorer {
	return domainservices.NewCompatibilityScorer()
}

// ProvideCandidateRanker creates the candidate ranker
func ProvideCandidateRanker(scorer *domainservices.CompatibilityScorer) *domainservices.CandidateRanker {
	return domainservices.NewCandidateRanker(scorer)
}

// ProvideProfileService creates the profile service
func ProvideProfileService(profileRepo ports.ProfileRepository, logger *zap.Logger) *services.ProfileService {
	return services.NewProfileService(profileRepo, logger)
}

// ProvideMatchService creates the match service
func ProvideMatchService(
	profileRepo ports.ProfileRepository,
	connectionRepo ports.ConnectionRepository,
	ranker *domainservices.CandidateRanker,
	logger *zap.Logger,
) *services.MatchService {
	return services.NewMatchService(profileRepo, connectionRepo, ranker, logger)
}

// ProvideConnectionService creates the connection service
func ProvideConnectionService(
	connectionRepo ports.ConnectionRepository,
	profileRepo ports.ProfileRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.ConnectionService {
	return services.NewConnectionService(connectionRepo, profileRepo, publisher, logger)
}

// ProvideConversationService creates the conversation service
func ProvideConversationService(
	conversationRepo ports.ConversationRepository,
	messageRepo ports.MessageRepository,
	profileRepo ports.ProfileRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.ConversationService {
	return services.NewConversationService(conversationRepo, messageRepo, profileRepo, publisher, logger)
}

// ProvideMessageService creates the message service
func ProvideMessageService(
	messageRepo ports.MessageRepository,
	conversationRepo ports.ConversationRepository,
	feed ports.RealtimeFeed,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.MessageService {
	return services.NewMessageService(messageRepo, conversationRepo, feed, publisher, logger)
}

// ProvideJWTValidator creates the JWT validator used by the auth middleware
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}

	var audience []string
	if cfg.JWTAudience != "" {
		audience = []string{cfg.JWTAudience}
	}

	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        cfg.JWTIssuer,
		Audience:      audience,
	})
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	validator *auth.JWTValidator,
	profileService *services.ProfileService,
	matchService *services.MatchService,
	connectionService *services.ConnectionService,
	conversationService *services.ConversationService,
	messageService *services.MessageService,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, validator, profileService, matchService, connectionService, conversationService, messageService, logger)
}
