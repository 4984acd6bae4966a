package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "studybuddy-backend/pkg/errors"
)

func newConversationService(f *fixtures) *ConversationService {
	return NewConversationService(f.conversations, f.messages, f.profiles, f.publisher, f.logger)
}

func TestConversationService_ResolveDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the thread on first resolve", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConversationService(f)

		conv, err := svc.ResolveDirect(ctx, "alice", "bob")
		require.NoError(t, err)

		assert.True(t, conv.IsDirect())
		assert.ElementsMatch(t, []string{"alice", "bob"}, conv.ParticipantIDs())
		assert.Equal(t, []string{"conversation.created"}, f.publisher.eventTypes())
	})

	t.Run("same pair in either order resolves to the same thread", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConversationService(f)

		first, err := svc.ResolveDirect(ctx, "alice", "bob")
		require.NoError(t, err)
		second, err := svc.ResolveDirect(ctx, "bob", "alice")
		require.NoError(t, err)

		assert.True(t, first.ID().Equals(second.ID()))
		assert.Equal(t, []string{"conversation.created"}, f.publisher.eventTypes())
	})

	t.Run("rejects self pair", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConversationService(f)

		_, err := svc.ResolveDirect(ctx, "alice", "alice")
		assert.True(t, apperrors.IsInvalidArgument(err))
	})

	t.Run("rejects unknown participant", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConversationService(f)

		_, err := svc.ResolveDirect(ctx, "alice", "ghost")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestConversationService_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("identical member sets create distinct groups", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConversationService(f)

		first, err := svc.CreateGroup(ctx, "alice", []string{"bob"}, "Algorithms crew")
		require.NoError(t, err)
		second, err := svc.CreateGroup(ctx, "alice", []string{"bob"}, "Algorithms crew")
		require.NoError(t, err)

		assert.False(t, first.ID().Equals(second.ID()))
	})

	t.Run("blank member IDs are skipped", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		svc := newConversationService(f)

		conv, err := svc.CreateGroup(ctx, "alice", []string{"", "  ", "bob"}, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, conv.ParticipantIDs())
	})

	t.Run("requires at least one valid member", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConversationService(f)

		_, err := svc.CreateGroup(ctx, "alice", []string{"", "  "}, "empty")
		assert.True(t, apperrors.IsInvalidArgument(err))
	})

	t.Run("rejects unknown members", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc := newConversationService(f)

		_, err := svc.CreateGroup(ctx, "alice", []string{"ghost"}, "")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestConversationService_GetByID(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
	svc := newConversationService(f)

	conv, err := svc.ResolveDirect(ctx, "alice", "bob")
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, "alice", conv.ID().String())
	require.NoError(t, err)
	assert.True(t, got.ID().Equals(conv.ID()))

	_, err = svc.GetByID(ctx, "carol", conv.ID().String())
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.GetByID(ctx, "alice", "not-a-uuid")
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestConversationService_ListFor(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
	convSvc := newConversationService(f)
	msgSvc := NewMessageService(f.messages, f.conversations, nil, f.publisher, f.logger)

	withBob, err := convSvc.ResolveDirect(ctx, "alice", "bob")
	require.NoError(t, err)
	group, err := convSvc.CreateGroup(ctx, "alice", []string{"bob", "carol"}, "Exam prep")
	require.NoError(t, err)

	// A message in the older thread moves it to the top of the list
	_, err = msgSvc.Send(ctx, withBob.ID().String(), "bob", "library at 3?", "")
	require.NoError(t, err)

	summaries, err := convSvc.ListFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.True(t, summaries[0].Conversation.ID().Equals(withBob.ID()))
	assert.Equal(t, "Bob", summaries[0].Title)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "library at 3?", summaries[0].LastMessage.Body().Text())

	assert.True(t, summaries[1].Conversation.ID().Equals(group.ID()))
	assert.Equal(t, "Exam prep", summaries[1].Title)
	assert.Nil(t, summaries[1].LastMessage)

	// Carol only sees the group
	summaries, err = convSvc.ListFor(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Conversation.ID().Equals(group.ID()))
}
