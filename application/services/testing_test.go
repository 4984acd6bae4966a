package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/domain/events"
	"studybuddy-backend/infrastructure/persistence/memory"
)

// fixtures bundles the in-memory repositories one test scenario works on
type fixtures struct {
	profiles      *memory.ProfileRepository
	connections   *memory.ConnectionRepository
	conversations *memory.ConversationRepository
	messages      *memory.MessageRepository
	publisher     *capturingPublisher
	logger        *zap.Logger
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()
	return &fixtures{
		profiles:      memory.NewProfileRepository(),
		connections:   memory.NewConnectionRepository(),
		conversations: memory.NewConversationRepository(),
		messages:      memory.NewMessageRepository(),
		publisher:     &capturingPublisher{},
		logger:        zap.NewNop(),
	}
}

// seedProfile stores a minimal profile and returns its ID
func (f *fixtures) seedProfile(t *testing.T, id, displayName, university, courseLabel string) valueobjects.UserID {
	t.Helper()

	uid, err := valueobjects.NewUserID(id)
	require.NoError(t, err)

	profile, err := entities.ReconstructProfile(
		uid, displayName, university, courseLabel, "",
		nil, nil, nil,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.NoError(t, f.profiles.Save(context.Background(), profile))

	return uid
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	published []events.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.published = append(p.published, event)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	p.published = append(p.published, evts...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	types := make([]string, len(p.published))
	for i, e := range p.published {
		types[i] = e.GetEventType()
	}
	return types
}
