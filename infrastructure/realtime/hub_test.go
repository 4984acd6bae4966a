package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

func buildMessage(t *testing.T, convID valueobjects.ConversationID, sender, text string) *entities.Message {
	t.Helper()
	uid, err := valueobjects.NewUserID(sender)
	require.NoError(t, err)
	msg, err := entities.NewMessage(convID, uid, valueobjects.TextBody(text))
	require.NoError(t, err)
	return msg
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	convID := valueobjects.NewConversationID()
	otherID := valueobjects.NewConversationID()

	sub, err := hub.Subscribe(ctx, convID)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, hub.Publish(ctx, buildMessage(t, convID, "alice", "hello")))
	require.NoError(t, hub.Publish(ctx, buildMessage(t, otherID, "alice", "wrong room")))

	select {
	case got := <-sub.C():
		assert.Equal(t, "hello", got.Body().Text())
	case <-time.After(time.Second):
		t.Fatal("expected delivery")
	}

	// The other conversation's message never arrives here
	select {
	case got := <-sub.C():
		t.Fatalf("unexpected delivery: %q", got.Body().Text())
	default:
	}
}

func TestHub_DeliveryOrder(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	convID := valueobjects.NewConversationID()
	sub, err := hub.Subscribe(ctx, convID)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	for i := 0; i < 10; i++ {
		require.NoError(t, hub.Publish(ctx, buildMessage(t, convID, "alice", fmt.Sprintf("msg-%d", i))))
	}

	for i := 0; i < 10; i++ {
		select {
		case got := <-sub.C():
			assert.Equal(t, fmt.Sprintf("msg-%d", i), got.Body().Text())
		case <-time.After(time.Second):
			t.Fatalf("missing message %d", i)
		}
	}
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	convID := valueobjects.NewConversationID()
	_, err := hub.Subscribe(ctx, convID)
	require.NoError(t, err)

	// Overflow the buffer without draining
	for i := 0; i < subscriberBuffer+1; i++ {
		require.NoError(t, hub.Publish(ctx, buildMessage(t, convID, "alice", "flood")))
	}

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(convID) == 0
	}, time.Second, 10*time.Millisecond)

	_, dropped, _ := hub.Metrics()
	assert.GreaterOrEqual(t, dropped, int64(1))
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	convID := valueobjects.NewConversationID()
	sub, err := hub.Subscribe(ctx, convID)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, 0, hub.SubscriberCount(convID))

	// Channel is closed after unsubscribe
	_, open := <-sub.C()
	assert.False(t, open)
}

func TestHub_PublishDuringSubscriberChurn(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	convID := valueobjects.NewConversationID()
	msg := buildMessage(t, convID, "alice", "churn")

	// Publishers racing against subscribers that attach, read nothing and
	// detach. A channel closed between the fan-out snapshot and the send
	// would panic the process.
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = hub.Publish(ctx, msg)
				}
			}
		}()
	}

	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				sub, err := hub.Subscribe(ctx, convID)
				if err != nil {
					return
				}
				sub.Unsubscribe()
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// Let subscribers finish, then stop the publishers
	time.Sleep(50 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("churn did not finish")
	}

	assert.Equal(t, 0, hub.SubscriberCount(convID))
}

func TestHub_Close(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())

	convID := valueobjects.NewConversationID()
	sub, err := hub.Subscribe(ctx, convID)
	require.NoError(t, err)

	hub.Close()
	hub.Close() // idempotent

	_, open := <-sub.C()
	assert.False(t, open)

	_, err = hub.Subscribe(ctx, convID)
	assert.True(t, apperrors.IsUnavailable(err))

	err = hub.Publish(ctx, buildMessage(t, convID, "alice", "too late"))
	assert.True(t, apperrors.IsUnavailable(err))

	// Unsubscribing after close must not panic
	sub.Unsubscribe()
}
