package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/domain/core/valueobjects"
	pkgerrors "studybuddy-backend/pkg/errors"
)

func timeZero() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func userID(t *testing.T, id string) valueobjects.UserID {
	t.Helper()
	uid, err := valueobjects.NewUserID(id)
	require.NoError(t, err)
	return uid
}

func TestNewConnection(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")

	t.Run("creates pending edge with requester", func(t *testing.T) {
		conn, err := NewConnection(bob, alice)
		require.NoError(t, err)

		assert.Equal(t, ConnectionPending, conn.Status())
		assert.Equal(t, bob, conn.Requester())
		assert.Equal(t, alice, conn.Target())
		assert.Equal(t, "alice#bob", conn.Pair().String())

		events := conn.GetUncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "connection.requested", events[0].GetEventType())
	})

	t.Run("rejects self connection", func(t *testing.T) {
		_, err := NewConnection(alice, alice)
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})

	t.Run("rejects missing user", func(t *testing.T) {
		_, err := NewConnection(alice, valueobjects.UserID{})
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})
}

func TestConnection_Accept(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	carol := userID(t, "carol")

	t.Run("target accepts pending request", func(t *testing.T) {
		conn, err := NewConnection(alice, bob)
		require.NoError(t, err)
		conn.MarkEventsAsCommitted()

		require.NoError(t, conn.Accept(bob))
		assert.True(t, conn.IsAccepted())

		events := conn.GetUncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "connection.accepted", events[0].GetEventType())
	})

	t.Run("requester cannot accept own request", func(t *testing.T) {
		conn, err := NewConnection(alice, bob)
		require.NoError(t, err)

		err = conn.Accept(alice)
		assert.True(t, pkgerrors.IsInvalidArgument(err))
		assert.Equal(t, ConnectionPending, conn.Status())
	})

	t.Run("outsider cannot accept", func(t *testing.T) {
		conn, err := NewConnection(alice, bob)
		require.NoError(t, err)

		err = conn.Accept(carol)
		assert.True(t, pkgerrors.IsForbidden(err))
	})

	t.Run("accepting twice is a no-op", func(t *testing.T) {
		conn, err := NewConnection(alice, bob)
		require.NoError(t, err)
		require.NoError(t, conn.Accept(bob))
		conn.MarkEventsAsCommitted()

		require.NoError(t, conn.Accept(bob))
		assert.True(t, conn.IsAccepted())
		assert.Empty(t, conn.GetUncommittedEvents())
	})
}

func TestConnection_StatusFor(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	carol := userID(t, "carol")

	conn, err := NewConnection(alice, bob)
	require.NoError(t, err)

	assert.Equal(t, ViewerStatusOutgoingPending, conn.StatusFor(alice))
	assert.Equal(t, ViewerStatusIncomingPending, conn.StatusFor(bob))
	assert.Equal(t, ViewerStatusNone, conn.StatusFor(carol))

	require.NoError(t, conn.Accept(bob))
	assert.Equal(t, ViewerStatusAccepted, conn.StatusFor(alice))
	assert.Equal(t, ViewerStatusAccepted, conn.StatusFor(bob))
}

func TestReconstructConnection(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	pair, err := valueobjects.NewPairKey(alice, bob)
	require.NoError(t, err)

	t.Run("rebuilds without emitting events", func(t *testing.T) {
		conn, err := ReconstructConnection(pair, bob, ConnectionAccepted, timeZero(), timeZero())
		require.NoError(t, err)

		assert.True(t, conn.IsAccepted())
		assert.Equal(t, bob, conn.Requester())
		assert.Equal(t, alice, conn.Target())
		assert.Empty(t, conn.GetUncommittedEvents())
	})

	t.Run("rejects requester outside pair", func(t *testing.T) {
		_, err := ReconstructConnection(pair, userID(t, "carol"), ConnectionPending, timeZero(), timeZero())
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})
}
