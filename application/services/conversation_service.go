package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ConversationSummary is a conversation annotated for listing: a
// human-facing title and the latest message for preview
type ConversationSummary struct {
	Conversation *entities.Conversation
	Title        string
	LastMessage  *entities.Message
}

// ConversationService resolves direct conversations, creates groups, and
// produces annotated conversation lists
type ConversationService struct {
	conversationRepo ports.ConversationRepository
	messageRepo      ports.MessageRepository
	profileRepo      ports.ProfileRepository
	publisher        ports.EventPublisher
	logger           *zap.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(
	conversationRepo ports.ConversationRepository,
	messageRepo ports.MessageRepository,
	profileRepo ports.ProfileRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		profileRepo:      profileRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// ResolveDirect finds or creates the single direct conversation for a user
// pair. Repeated calls with the same pair, in either order, always return
// the same conversation. A Conflict on create means a concurrent resolver
// won; the winner's conversation is returned.
func (s *ConversationService) ResolveDirect(ctx context.Context, aID, bID string) (*entities.Conversation, error) {
	a, err := valueobjects.NewUserID(aID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}
	b, err := valueobjects.NewUserID(bID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	pair, err := valueobjects.NewPairKey(a, b)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	// Both endpoints must exist before a thread can bind them
	for _, id := range []valueobjects.UserID{a, b} {
		if _, err := s.profileRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	existing, err := s.conversationRepo.GetDirectByPair(ctx, pair)
	switch {
	case err == nil:
		return existing, nil
	case apperrors.IsNotFound(err):
		// fall through to create
	default:
		return nil, err
	}

	conversation, err := entities.NewDirectConversation(a, b)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.CreateDirect(ctx, conversation, pair); err != nil {
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		s.logger.Debug("direct conversation create lost race, re-reading pair",
			zap.String("pair", pair.String()),
		)
		return s.conversationRepo.GetDirectByPair(ctx, pair)
	}

	s.publishEvents(ctx, conversation)

	s.logger.Info("direct conversation created",
		zap.String("conversationID", conversation.ID().String()),
		zap.String("pair", pair.String()),
	)

	return conversation, nil
}

// CreateGroup creates a fresh group conversation every time. Identical
// member sets never collapse into an existing group.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID string, memberIDs []string, name string) (*entities.Conversation, error) {
	creator, err := valueobjects.NewUserID(creatorID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	members := make([]valueobjects.UserID, 0, len(memberIDs))
	for _, raw := range memberIDs {
		member, err := valueobjects.NewUserID(raw)
		if err != nil {
			continue
		}
		members = append(members, member)
	}
	if len(members) == 0 {
		return nil, apperrors.NewInvalidArgumentError("group requires at least one valid member")
	}

	for _, member := range members {
		if _, err := s.profileRepo.GetByID(ctx, member); err != nil {
			return nil, err
		}
	}

	conversation, err := entities.NewGroupConversation(creator, members, name)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.Save(ctx, conversation); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, conversation)

	s.logger.Info("group conversation created",
		zap.String("conversationID", conversation.ID().String()),
		zap.Int("members", len(conversation.Participants())),
	)

	return conversation, nil
}

// GetByID retrieves a conversation the user participates in
func (s *ConversationService) GetByID(ctx context.Context, userID, conversationID string) (*entities.Conversation, error) {
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
	return conversation, nil
}

// ListFor returns the user's conversations, most recently active first,
// each annotated with a title and a last-message preview
func (s *ConversationService) ListFor(ctx context.Context, userID string) ([]ConversationSummary, error) {
	user, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	conversations, err := s.conversationRepo.GetByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		latest, err := s.messageRepo.Latest(ctx, conversation.ID())
		if err != nil {
			s.logger.Warn("failed to load conversation preview",
				zap.String("conversationID", conversation.ID().String()),
				zap.Error(err),
			)
			latest = nil
		}
		summaries = append(summaries, ConversationSummary{
			Conversation: conversation,
			Title:        s.titleFor(ctx, conversation, user),
			LastMessage:  latest,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Conversation.LastActivity().After(summaries[j].Conversation.LastActivity())
	})

	return summaries, nil
}

// titleFor produces the human-facing name of a conversation: the
// counterpart's display name for direct threads, the stored name for groups
func (s *ConversationService) titleFor(ctx context.Context, conversation *entities.Conversation, viewer valueobjects.UserID) string {
	if conversation.IsDirect() {
		if counterpart, ok := conversation.Counterpart(viewer); ok {
			if profile, err := s.profileRepo.GetByID(ctx, counterpart); err == nil {
				return profile.DisplayName()
			}
			return counterpart.String()
		}
	}
	if name := conversation.Name(); name != "" {
		return name
	}
	return entities.DefaultGroupName
}

func (s *ConversationService) publishEvents(ctx context.Context, conversation *entities.Conversation) {
	if s.publisher == nil {
		return
	}
	evts := conversation.GetUncommittedEvents()
	if len(evts) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, evts); err != nil {
		s.logger.Warn("failed to publish conversation events", zap.Error(err))
	}
	conversation.MarkEventsAsCommitted()
}
