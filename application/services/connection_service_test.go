package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/infrastructure/persistence/memory"
	apperrors "studybuddy-backend/pkg/errors"
)

func newConnectionService(f *fixtures) *ConnectionService {
	return NewConnectionService(f.connections, f.profiles, f.publisher, f.logger)
}

func TestConnectionService_RequestConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending edge", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConnectionService(f)

		conn, err := svc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)
		require.NotNil(t, conn)

		assert.Equal(t, entities.ConnectionPending, conn.Status())
		assert.Equal(t, "alice", conn.Requester().String())
		assert.Equal(t, []string{"connection.requested"}, f.publisher.eventTypes())
	})

	t.Run("repeat request by same user is a no-op", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConnectionService(f)

		first, err := svc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)

		second, err := svc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)

		assert.Equal(t, first.Pair().String(), second.Pair().String())
		assert.Equal(t, entities.ConnectionPending, second.Status())
		assert.Equal(t, []string{"connection.requested"}, f.publisher.eventTypes())
	})

	t.Run("reverse request accepts the pending edge", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConnectionService(f)

		_, err := svc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)

		conn, err := svc.RequestConnection(ctx, "bob", "alice")
		require.NoError(t, err)

		assert.True(t, conn.IsAccepted())
		assert.Equal(t, []string{"connection.requested", "connection.accepted"}, f.publisher.eventTypes())
	})

	t.Run("self request is a silent no-op", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConnectionService(f)

		conn, err := svc.RequestConnection(ctx, "alice", "alice")
		require.NoError(t, err)
		assert.Nil(t, conn)
		assert.Empty(t, f.publisher.published)
	})

	t.Run("unknown target is rejected", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConnectionService(f)

		_, err := svc.RequestConnection(ctx, "alice", "ghost")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("conflict on create resolves to the winner's edge", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")

		// The repo pretends the pair does not exist on the first read so
		// the service takes the create path and collides with bob's edge.
		racing := &racingConnectionRepo{ConnectionRepository: f.connections}

		bob, err := valueobjects.NewUserID("bob")
		require.NoError(t, err)
		alice, err := valueobjects.NewUserID("alice")
		require.NoError(t, err)
		existing, err := entities.NewConnection(bob, alice)
		require.NoError(t, err)
		require.NoError(t, f.connections.Create(ctx, existing))

		svc := NewConnectionService(racing, f.profiles, f.publisher, f.logger)

		conn, err := svc.RequestConnection(ctx, "alice", "bob")
		require.NoError(t, err)

		// Bob's pending edge was found after the conflict; alice's request
		// against it counts as acceptance.
		assert.True(t, conn.IsAccepted())
		assert.Equal(t, "bob", conn.Requester().String())
	})
}

// racingConnectionRepo reports NotFound for the first pair read, simulating
// a concurrent writer creating the edge between read and create
type racingConnectionRepo struct {
	*memory.ConnectionRepository
	missedFirstRead bool
}

func (r *racingConnectionRepo) GetByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Connection, error) {
	if !r.missedFirstRead {
		r.missedFirstRead = true
		return nil, apperrors.NewNotFoundError("connection not found for pair " + pair.String())
	}
	return r.ConnectionRepository.GetByPair(ctx, pair)
}

func TestConnectionService_StatusFor(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
	svc := newConnectionService(f)

	_, err := svc.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	status, err := svc.StatusFor(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, entities.ViewerStatusOutgoingPending, status)

	status, err = svc.StatusFor(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, entities.ViewerStatusIncomingPending, status)

	status, err = svc.StatusFor(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, entities.ViewerStatusNone, status)

	status, err = svc.StatusFor(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, entities.ViewerStatusNone, status)
}

func TestConnectionService_AcceptConnection(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	svc := newConnectionService(f)

	_, err := svc.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)

	conn, err := svc.AcceptConnection(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, conn.IsAccepted())

	// Accepting again stays accepted without another event
	conn, err = svc.AcceptConnection(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, conn.IsAccepted())
	assert.Equal(t, []string{"connection.requested", "connection.accepted"}, f.publisher.eventTypes())
}

func TestConnectionService_ListAndCount(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
	svc := newConnectionService(f)

	_, err := svc.RequestConnection(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = svc.RequestConnection(ctx, "bob", "alice")
	require.NoError(t, err)

	// Pending edge to carol must not appear in the accepted list
	_, err = svc.RequestConnection(ctx, "alice", "carol")
	require.NoError(t, err)

	accepted, err := svc.ListAccepted(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "bob", accepted[0].ID().String())

	count, err := svc.CountAccepted(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.CountAccepted(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

var _ ports.ConnectionRepository = (*racingConnectionRepo)(nil)
