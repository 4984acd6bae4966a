package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// MessageService appends to and reads from conversation message logs and
// hands out live subscriptions.
//
// Append, history and subscribe for one conversation share a lock so the
// no-gap/no-dup contract holds: a subscriber opened after a History call
// under the same lock sees exactly the messages that follow the returned
// history, in order.
type MessageService struct {
	messageRepo      ports.MessageRepository
	conversationRepo ports.ConversationRepository
	feed             ports.RealtimeFeed
	publisher        ports.EventPublisher
	logger           *zap.Logger

	locks [conversationLockShards]sync.Mutex
}

// conversationLockShards bounds the lock table. Conversations hashing to the
// same shard share a mutex; that only costs extra serialization, never
// correctness, and the table stays fixed-size on a long-lived process.
const conversationLockShards = 128

// NewMessageService creates a new message service
func NewMessageService(
	messageRepo ports.MessageRepository,
	conversationRepo ports.ConversationRepository,
	feed ports.RealtimeFeed,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		feed:             feed,
		publisher:        publisher,
		logger:           logger,
	}
}

// Send appends a message to the conversation's log and fans it out to live
// subscribers. The message must carry a text body or an event reference.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID, text, eventRef string) (*entities.Message, error) {
	sender, err := valueobjects.NewUserID(senderID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	convID, err := valueobjects.NewConversationIDFromString(conversationID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("invalid conversation ID")
	}

	if strings.TrimSpace(text) == "" && strings.TrimSpace(eventRef) == "" {
		return nil, apperrors.NewInvalidArgumentError("message requires a text body or an event reference")
	}

	conversation, err := s.conversationRepo.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(sender) {
		return nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}

	var body valueobjects.MessageBody
	if strings.TrimSpace(eventRef) != "" {
		body = valueobjects.EventShareBody(eventRef, text)
	} else {
		body = valueobjects.TextBody(text)
	}

	message, err := entities.NewMessage(convID, sender, body)
	if err != nil {
		return nil, err
	}

	lock := s.conversationLock(convID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.messageRepo.Append(ctx, message); err != nil {
		return nil, err
	}

	if err := s.conversationRepo.TouchLastMessage(ctx, convID, message.SentAt()); err != nil {
		// Preview staleness only; the message itself is committed
		s.logger.Warn("failed to touch conversation activity",
			zap.String("conversationID", convID.String()),
			zap.Error(err),
		)
	}

	if s.feed != nil {
		if err := s.feed.Publish(ctx, message); err != nil {
			s.logger.Warn("failed to publish message to realtime feed",
				zap.String("conversationID", convID.String()),
				zap.Error(err),
			)
		}
	}

	s.publishEvents(ctx, message)

	return message, nil
}

// History returns the conversation's full message log in chronological
// order. A fresh call always re-reads the whole log.
func (s *MessageService) History(ctx context.Context, userID, conversationID string) ([]*entities.Message, error) {
	user, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	convID, err := valueobjects.NewConversationIDFromString(conversationID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError("invalid conversation ID")
	}

	conversation, err := s.conversationRepo.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(user) {
		return nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}

	return s.messageRepo.History(ctx, convID)
}

// Subscribe returns the conversation's current history together with a live
// subscription for everything after it. Taking both under the conversation
// lock guarantees no message is dropped between the read and the
// subscription, and none already in the history is redelivered.
func (s *MessageService) Subscribe(ctx context.Context, userID, conversationID string) ([]*entities.Message, ports.Subscription, error) {
	user, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	convID, err := valueobjects.NewConversationIDFromString(conversationID)
	if err != nil {
		return nil, nil, apperrors.NewInvalidArgumentError("invalid conversation ID")
	}

	conversation, err := s.conversationRepo.GetByID(ctx, convID)
	if err != nil {
		return nil, nil, err
	}
	if !conversation.HasParticipant(user) {
		return nil, nil, apperrors.NewForbiddenError("not a participant of this conversation")
	}

	lock := s.conversationLock(convID)
	lock.Lock()
	defer lock.Unlock()

	subscription, err := s.feed.Subscribe(ctx, convID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.messageRepo.History(ctx, convID)
	if err != nil {
		subscription.Unsubscribe()
		return nil, nil, err
	}

	return history, subscription, nil
}

// conversationLock returns the shard mutex serializing writes and
// subscriptions for one conversation
func (s *MessageService) conversationLock(id valueobjects.ConversationID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id.String()))
	return &s.locks[h.Sum32()%conversationLockShards]
}

func (s *MessageService) publishEvents(ctx context.Context, message *entities.Message) {
	if s.publisher == nil {
		return
	}
	evts := message.GetUncommittedEvents()
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		s.logger.Warn("failed to publish message events", zap.Error(err))
	}
	message.MarkEventsAsCommitted()
}
