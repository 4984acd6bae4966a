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
	"studybuddy-backend/pkg/utils"
)

// MessageRepository implements ports.MessageRepository using DynamoDB.
// Messages live under their conversation's partition with a sort key of
// MSG#<nanosecond timestamp>#<message ID>, so a plain key-ordered query
// returns chronological order with message ID breaking timestamp ties.
type MessageRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.MessageRepository {
	return &MessageRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// messageItem represents the DynamoDB item structure for a message
type messageItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	MessageID      string `dynamodbav:"MessageID"`
	ConversationID string `dynamodbav:"ConversationID"`
	SenderID       string `dynamodbav:"SenderID"`
	Text           string `dynamodbav:"Text"`
	EventRef       string `dynamodbav:"EventRef"`
	SentAt         string `dynamodbav:"SentAt"`
}

func messageSortKey(message *entities.Message) string {
	return fmt.Sprintf("MSG#%s#%s", utils.FormatSortable(message.SentAt()), message.ID())
}

// Append writes a message under the conversation's partition. The put is
// conditional on the sort key being new, so a retried append of the same
// message never duplicates the log entry.
func (r *MessageRepository) Append(ctx context.Context, message *entities.Message) error {
	item := messageItem{
		PK:             fmt.Sprintf("CONV#%s", message.ConversationID().String()),
		SK:             messageSortKey(message),
		EntityType:     "MESSAGE",
		MessageID:      message.ID(),
		ConversationID: message.ConversationID().String(),
		SenderID:       message.SenderID().String(),
		Text:           message.Body().Text(),
		EventRef:       message.Body().EventRef(),
		SentAt:         message.SentAt().UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal message", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			// Same message already appended; the log is unchanged
			return nil
		}
		r.logger.Error("failed to append message",
			zap.Error(err),
			zap.String("conversationID", message.ConversationID().String()),
			zap.String("messageID", message.ID()),
		)
		return apperrors.NewUnavailableError("message append", err)
	}

	return nil
}

// History queries the conversation's full log in sort-key order, following
// pagination until exhausted so the caller always sees the whole sequence
func (r *MessageRepository) History(ctx context.Context, conversationID valueobjects.ConversationID) ([]*entities.Message, error) {
	var messages []*entities.Message
	var startKey map[string]types.AttributeValue

	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: fmt.Sprintf("CONV#%s", conversationID.String())},
				":prefix": &types.AttributeValueMemberS{Value: "MSG#"},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, apperrors.NewUnavailableError("message history query", err)
		}

		for _, raw := range out.Items {
			message, err := unmarshalMessage(raw)
			if err != nil {
				r.logger.Warn("skipping malformed message item", zap.Error(err))
				continue
			}
			messages = append(messages, message)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return messages, nil
}

// Latest reads the single newest message via a descending limit-1 query
func (r *MessageRepository) Latest(ctx context.Context, conversationID valueobjects.ConversationID) (*entities.Message, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: fmt.Sprintf("CONV#%s", conversationID.String())},
			":prefix": &types.AttributeValueMemberS{Value: "MSG#"},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("latest message query", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	return unmarshalMessage(out.Items[0])
}

func unmarshalMessage(raw map[string]types.AttributeValue) (*entities.Message, error) {
	var item messageItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal message", err)
	}

	conversationID, err := valueobjects.NewConversationIDFromString(item.ConversationID)
	if err != nil {
		return nil, apperrors.NewInternalError("stored message has invalid conversation ID", err)
	}
	senderID, err := valueobjects.NewUserID(item.SenderID)
	if err != nil {
		return nil, apperrors.NewInternalError("stored message has invalid sender", err)
	}

	sentAt, _ := time.Parse(time.RFC3339Nano, item.SentAt)

	return entities.ReconstructMessage(
		item.MessageID,
		conversationID,
		senderID,
		valueobjects.NewMessageBody(item.Text, item.EventRef),
		sentAt,
	)
}
