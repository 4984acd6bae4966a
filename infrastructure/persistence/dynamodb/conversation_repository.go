package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"studybuddy-backend/application/ports"
	"studybuddy-backend/domain/core/entities"
	"studybuddy-backend/domain/core/valueobjects"
	apperrors "studybuddy-backend/pkg/errors"
)

// ConversationRepository implements ports.ConversationRepository using
// DynamoDB. A direct conversation is created together with its canonical
// pair-index item in one transaction, so the conversation and the index
// are never observable separately.
type ConversationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ConversationRepository {
	return &ConversationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// conversationItem is the metadata row of a conversation
type conversationItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	ConversationID string   `dynamodbav:"ConversationID"`
	Kind           string   `dynamodbav:"Kind"`
	Name           string   `dynamodbav:"Name"`
	ParticipantIDs []string `dynamodbav:"ParticipantIDs"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	LastMessageAt  string   `dynamodbav:"LastMessageAt"`
}

// membershipItem mirrors one participant into the user's GSI partition so
// "conversations containing user X" is a single query
type membershipItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	EntityType     string `dynamodbav:"EntityType"`
	ConversationID string `dynamodbav:"ConversationID"`
	UserID         string `dynamodbav:"UserID"`
}

// pairIndexItem maps a canonical user pair to its direct conversation
type pairIndexItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	PairKey        string `dynamodbav:"PairKey"`
	ConversationID string `dynamodbav:"ConversationID"`
}

func conversationKey(id valueobjects.ConversationID) (string, string) {
	return fmt.Sprintf("CONV#%s", id.String()), "METADATA"
}

func pairIndexKey(pair valueobjects.PairKey) (string, string) {
	return fmt.Sprintf("DMPAIR#%s", pair.String()), "INDEX"
}

func (r *ConversationRepository) conversationWrites(conversation *entities.Conversation) ([]map[string]types.AttributeValue, error) {
	pk, sk := conversationKey(conversation.ID())

	lastMessageAt := ""
	if !conversation.LastMessageAt().IsZero() {
		lastMessageAt = conversation.LastMessageAt().Format(time.RFC3339)
	}

	meta := conversationItem{
		PK:             pk,
		SK:             sk,
		EntityType:     "CONVERSATION",
		ConversationID: conversation.ID().String(),
		Kind:           string(conversation.Kind()),
		Name:           conversation.Name(),
		ParticipantIDs: conversation.ParticipantIDs(),
		CreatedAt:      conversation.CreatedAt().Format(time.RFC3339),
		LastMessageAt:  lastMessageAt,
	}

	metaAV, err := attributevalue.MarshalMap(meta)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal conversation", err)
	}

	writes := []map[string]types.AttributeValue{metaAV}
	for _, userID := range conversation.ParticipantIDs() {
		member := membershipItem{
			PK:             pk,
			SK:             fmt.Sprintf("MEMBER#%s", userID),
			GSI1PK:         fmt.Sprintf("USER#%s", userID),
			GSI1SK:         pk,
			EntityType:     "MEMBERSHIP",
			ConversationID: conversation.ID().String(),
			UserID:         userID,
		}
		memberAV, err := attributevalue.MarshalMap(member)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to marshal membership", err)
		}
		writes = append(writes, memberAV)
	}

	return writes, nil
}

// Save persists a conversation and its membership rows
func (r *ConversationRepository) Save(ctx context.Context, conversation *entities.Conversation) error {
	writes, err := r.conversationWrites(conversation)
	if err != nil {
		return err
	}

	transactItems := make([]types.TransactWriteItem, 0, len(writes))
	for _, av := range writes {
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      av,
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	}); err != nil {
		r.logger.Error("failed to save conversation",
			zap.Error(err),
			zap.String("conversationID", conversation.ID().String()),
		)
		return apperrors.NewUnavailableError("conversation save", err)
	}

	return nil
}

// CreateDirect writes the conversation, its membership rows and the pair
// index in one transaction. The index put is conditional on the pair not
// being indexed yet; losing that condition surfaces as Conflict.
func (r *ConversationRepository) CreateDirect(ctx context.Context, conversation *entities.Conversation, pair valueobjects.PairKey) error {
	writes, err := r.conversationWrites(conversation)
	if err != nil {
		return err
	}

	indexPK, indexSK := pairIndexKey(pair)
	index := pairIndexItem{
		PK:             indexPK,
		SK:             indexSK,
		EntityType:     "DMPAIR_INDEX",
		PairKey:        pair.String(),
		ConversationID: conversation.ID().String(),
	}
	indexAV, err := attributevalue.MarshalMap(index)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal pair index", err)
	}

	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                indexAV,
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		},
	}
	for _, av := range writes {
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      av,
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	}); err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewConflictError("direct conversation already exists for pair " + pair.String())
		}
		r.logger.Error("failed to create direct conversation",
			zap.Error(err),
			zap.String("pair", pair.String()),
		)
		return apperrors.NewUnavailableError("direct conversation create", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id valueobjects.ConversationID) (*entities.Conversation, error) {
	pk, sk := conversationKey(id)
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("conversation get", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("conversation not found: " + id.String())
	}

	return unmarshalConversation(out.Item)
}

// GetDirectByPair resolves the pair index and loads the winning conversation
func (r *ConversationRepository) GetDirectByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Conversation, error) {
	pk, sk := pairIndexKey(pair)
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("pair index get", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("no direct conversation for pair " + pair.String())
	}

	var index pairIndexItem
	if err := attributevalue.UnmarshalMap(out.Item, &index); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal pair index", err)
	}

	convID, err := valueobjects.NewConversationIDFromString(index.ConversationID)
	if err != nil {
		return nil, apperrors.NewInternalError("pair index holds invalid conversation ID", err)
	}

	return r.GetByID(ctx, convID)
}

// GetByUser queries the membership mirror for all of a user's conversations
func (r *ConversationRepository) GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Conversation, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		FilterExpression:       aws.String("EntityType = :entityType"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":         &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID.String())},
			":prefix":     &types.AttributeValueMemberS{Value: "CONV#"},
			":entityType": &types.AttributeValueMemberS{Value: "MEMBERSHIP"},
		},
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("membership query", err)
	}

	conversations := make([]*entities.Conversation, 0, len(out.Items))
	for _, raw := range out.Items {
		var member membershipItem
		if err := attributevalue.UnmarshalMap(raw, &member); err != nil {
			r.logger.Warn("skipping malformed membership item", zap.Error(err))
			continue
		}
		convID, err := valueobjects.NewConversationIDFromString(member.ConversationID)
		if err != nil {
			continue
		}
		conversation, err := r.GetByID(ctx, convID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

// TouchLastMessage records the latest message time on the metadata row
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id valueobjects.ConversationID, at time.Time) error {
	pk, sk := conversationKey(id)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression:    aws.String("SET LastMessageAt = :at"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":at": &types.AttributeValueMemberS{Value: at.Format(time.RFC3339)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("conversation not found: " + id.String())
		}
		return apperrors.NewUnavailableError("conversation touch", err)
	}
	return nil
}

func unmarshalConversation(raw map[string]types.AttributeValue) (*entities.Conversation, error) {
	var item conversationItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal conversation", err)
	}

	id, err := valueobjects.NewConversationIDFromString(item.ConversationID)
	if err != nil {
		return nil, apperrors.NewInternalError("stored conversation has invalid ID", err)
	}

	participants := make([]valueobjects.UserID, 0, len(item.ParticipantIDs))
	for _, raw := range item.ParticipantIDs {
		userID, err := valueobjects.NewUserID(raw)
		if err != nil {
			continue
		}
		participants = append(participants, userID)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	var lastMessageAt time.Time
	if item.LastMessageAt != "" {
		lastMessageAt, _ = time.Parse(time.RFC3339, item.LastMessageAt)
	}

	return entities.ReconstructConversation(
		id,
		entities.ConversationKind(item.Kind),
		item.Name,
		participants,
		createdAt,
		lastMessageAt,
	)
}
