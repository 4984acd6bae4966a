package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/domain/core/valueobjects"
	pkgerrors "studybuddy-backend/pkg/errors"
)

func TestNewDirectConversation(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")

	t.Run("orders participants canonically", func(t *testing.T) {
		conv, err := NewDirectConversation(bob, alice)
		require.NoError(t, err)

		assert.True(t, conv.IsDirect())
		assert.Equal(t, []string{"alice", "bob"}, conv.ParticipantIDs())

		key, ok := conv.PairKey()
		require.True(t, ok)
		assert.Equal(t, "alice#bob", key.String())

		events := conv.GetUncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "conversation.created", events[0].GetEventType())
	})

	t.Run("rejects self conversation", func(t *testing.T) {
		_, err := NewDirectConversation(alice, alice)
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})
}

func TestNewGroupConversation(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	carol := userID(t, "carol")

	t.Run("collapses duplicate members", func(t *testing.T) {
		conv, err := NewGroupConversation(alice, []valueobjects.UserID{bob, bob, alice, carol}, "Exam prep")
		require.NoError(t, err)

		assert.Equal(t, ConversationGroup, conv.Kind())
		assert.Equal(t, "Exam prep", conv.Name())
		assert.Equal(t, []string{"alice", "bob", "carol"}, conv.ParticipantIDs())
	})

	t.Run("same member set yields distinct conversations", func(t *testing.T) {
		first, err := NewGroupConversation(alice, []valueobjects.UserID{bob}, "")
		require.NoError(t, err)
		second, err := NewGroupConversation(alice, []valueobjects.UserID{bob}, "")
		require.NoError(t, err)

		assert.False(t, first.ID().Equals(second.ID()))
	})

	t.Run("defaults the name", func(t *testing.T) {
		conv, err := NewGroupConversation(alice, []valueobjects.UserID{bob}, "   ")
		require.NoError(t, err)
		assert.Equal(t, DefaultGroupName, conv.Name())
	})

	t.Run("requires a second participant", func(t *testing.T) {
		_, err := NewGroupConversation(alice, []valueobjects.UserID{alice}, "solo")
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})
}

func TestConversation_Counterpart(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	carol := userID(t, "carol")

	direct, err := NewDirectConversation(alice, bob)
	require.NoError(t, err)

	other, ok := direct.Counterpart(alice)
	require.True(t, ok)
	assert.Equal(t, bob, other)

	_, ok = direct.Counterpart(carol)
	assert.False(t, ok)

	group, err := NewGroupConversation(alice, []valueobjects.UserID{bob, carol}, "")
	require.NoError(t, err)

	_, ok = group.Counterpart(alice)
	assert.False(t, ok)
}

func TestConversation_LastActivity(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")

	conv, err := NewDirectConversation(alice, bob)
	require.NoError(t, err)

	assert.Equal(t, conv.CreatedAt(), conv.LastActivity())

	first := time.Now().Add(time.Minute)
	conv.RecordMessage(first)
	assert.Equal(t, first, conv.LastActivity())

	// An older message must not move the activity time backwards
	conv.RecordMessage(first.Add(-time.Second))
	assert.Equal(t, first, conv.LastActivity())
}

func TestReconstructConversation(t *testing.T) {
	alice := userID(t, "alice")
	bob := userID(t, "bob")
	id := valueobjects.NewConversationID()

	t.Run("rebuilds without emitting events", func(t *testing.T) {
		conv, err := ReconstructConversation(id, ConversationDirect, "", []valueobjects.UserID{alice, bob}, timeZero(), time.Time{})
		require.NoError(t, err)

		assert.True(t, conv.HasParticipant(alice))
		assert.Empty(t, conv.GetUncommittedEvents())
	})

	t.Run("direct requires exactly two participants", func(t *testing.T) {
		_, err := ReconstructConversation(id, ConversationDirect, "", []valueobjects.UserID{alice}, timeZero(), time.Time{})
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})
}

func TestNewMessage(t *testing.T) {
	alice := userID(t, "alice")
	convID := valueobjects.NewConversationID()

	t.Run("creates message with event", func(t *testing.T) {
		msg, err := NewMessage(convID, alice, valueobjects.TextBody("see you at the library"))
		require.NoError(t, err)

		assert.NotEmpty(t, msg.ID())
		assert.Equal(t, "see you at the library", msg.Body().Text())

		events := msg.GetUncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "message.sent", events[0].GetEventType())
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, err := NewMessage(convID, alice, valueobjects.TextBody("   "))
		assert.True(t, pkgerrors.IsInvalidArgument(err))
	})

	t.Run("event share needs no text", func(t *testing.T) {
		msg, err := NewMessage(convID, alice, valueobjects.EventShareBody("event-42", ""))
		require.NoError(t, err)
		assert.True(t, msg.Body().HasEventRef())
	})
}
