package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	"studybuddy-backend/infrastructure/realtime"
	apperrors "studybuddy-backend/pkg/errors"
)

func newMessageService(f *fixtures) (*MessageService, *realtime.Hub) {
	hub := realtime.NewHub(f.logger)
	return NewMessageService(f.messages, f.conversations, hub, f.publisher, f.logger), hub
}

// seedDirect creates a direct conversation between two seeded users
func seedDirect(t *testing.T, f *fixtures, a, b string) *entities.Conversation {
	t.Helper()
	svc := newConversationService(f)
	conv, err := svc.ResolveDirect(context.Background(), a, b)
	require.NoError(t, err)
	f.publisher.published = nil
	return conv
}

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("appends and publishes", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		msg, err := svc.Send(ctx, conv.ID().String(), "alice", "hello", "")
		require.NoError(t, err)

		assert.Equal(t, "hello", msg.Body().Text())
		assert.Equal(t, "alice", msg.SenderID().String())
		assert.Equal(t, []string{"message.sent"}, f.publisher.eventTypes())

		// Sending bumps the conversation's activity timestamp
		assert.False(t, conv.LastMessageAt().IsZero())
	})

	t.Run("event share without text is valid", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		msg, err := svc.Send(ctx, conv.ID().String(), "alice", "", "event-42")
		require.NoError(t, err)
		assert.Equal(t, "event-42", msg.Body().EventRef())
	})

	t.Run("rejects empty message", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		_, err := svc.Send(ctx, conv.ID().String(), "alice", "   ", "")
		assert.True(t, apperrors.IsInvalidArgument(err))
	})

	t.Run("rejects non-participant", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		_, err := svc.Send(ctx, conv.ID().String(), "carol", "hi", "")
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("rejects unknown conversation", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		svc, _ := newMessageService(f)

		_, err := svc.Send(ctx, "7b69cd42-3a4f-4f6a-9a3c-02b6f9a8c321", "alice", "hi", "")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestMessageService_History(t *testing.T) {
	ctx := context.Background()
	f := newFixtures(t)
	f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
	f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
	f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
	conv := seedDirect(t, f, "alice", "bob")
	svc, _ := newMessageService(f)

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.Send(ctx, conv.ID().String(), "alice", text, "")
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "bob", conv.ID().String())
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Body().Text())
	assert.Equal(t, "second", history[1].Body().Text())
	assert.Equal(t, "third", history[2].Body().Text())

	_, err = svc.History(ctx, "carol", conv.ID().String())
	assert.True(t, apperrors.IsForbidden(err))
}

func TestMessageService_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("history then live feed with no gap and no duplicate", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		_, err := svc.Send(ctx, conv.ID().String(), "alice", "before", "")
		require.NoError(t, err)

		history, sub, err := svc.Subscribe(ctx, "bob", conv.ID().String())
		require.NoError(t, err)
		defer sub.Unsubscribe()

		require.Len(t, history, 1)
		assert.Equal(t, "before", history[0].Body().Text())

		sent, err := svc.Send(ctx, conv.ID().String(), "alice", "after", "")
		require.NoError(t, err)

		select {
		case got := <-sub.C():
			assert.Equal(t, sent.ID(), got.ID())
			assert.Equal(t, "after", got.Body().Text())
		case <-time.After(time.Second):
			t.Fatal("expected live delivery of the new message")
		}

		// Nothing else pending: the history message was not redelivered
		select {
		case extra := <-sub.C():
			t.Fatalf("unexpected extra delivery: %q", extra.Body().Text())
		default:
		}
	})

	t.Run("rejects non-participant", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		f.seedProfile(t, "carol", "Carol", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, _ := newMessageService(f)

		_, _, err := svc.Subscribe(ctx, "carol", conv.ID().String())
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("unsubscribe detaches from the hub", func(t *testing.T) {
		f := newFixtures(t)
		f.seedProfile(t, "alice", "Alice", "Monash", "FIT2004")
		f.seedProfile(t, "bob", "Bob", "Monash", "FIT2004")
		conv := seedDirect(t, f, "alice", "bob")
		svc, hub := newMessageService(f)

		_, sub, err := svc.Subscribe(ctx, "bob", conv.ID().String())
		require.NoError(t, err)
		assert.Equal(t, 1, hub.SubscriberCount(conv.ID()))

		sub.Unsubscribe()
		sub.Unsubscribe() // idempotent
		assert.Equal(t, 0, hub.SubscriberCount(conv.ID()))
	})
}

func TestMessageService_ConversationLockIsStableAndBounded(t *testing.T) {
	f := newFixtures(t)
	svc, _ := newMessageService(f)

	convID := valueobjects.NewConversationID()
	assert.Same(t, svc.conversationLock(convID), svc.conversationLock(convID))

	// Every conversation maps into the fixed shard table, so the lock set
	// cannot grow with conversation count
	distinct := make(map[*sync.Mutex]bool)
	for i := 0; i < 10_000; i++ {
		distinct[svc.conversationLock(valueobjects.NewConversationID())] = true
	}
	assert.LessOrEqual(t, len(distinct), conversationLockShards)
}
