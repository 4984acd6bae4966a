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

// ConnectionRepository implements ports.ConnectionRepository using DynamoDB.
// The edge is keyed by the canonical unordered pair; Create uses a
// conditional put so concurrent requests for the same pair resolve to a
// single writer, with the loser seeing Conflict.
type ConnectionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ConnectionRepository {
	return &ConnectionRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// connectionItem represents the DynamoDB item structure for an edge
type connectionItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	GSI2PK      string `dynamodbav:"GSI2PK"`
	GSI2SK      string `dynamodbav:"GSI2SK"`
	EntityType  string `dynamodbav:"EntityType"`
	PairKey     string `dynamodbav:"PairKey"`
	RequesterID string `dynamodbav:"RequesterID"`
	Status      string `dynamodbav:"Status"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

func connectionKey(pair valueobjects.PairKey) (string, string) {
	return fmt.Sprintf("PAIR#%s", pair.String()), "CONNECTION"
}

func (r *ConnectionRepository) marshalConnection(connection *entities.Connection) (map[string]types.AttributeValue, error) {
	pair := connection.Pair()
	pk, sk := connectionKey(pair)
	item := connectionItem{
		PK:          pk,
		SK:          sk,
		GSI1PK:      fmt.Sprintf("USER#%s", pair.First().String()),
		GSI1SK:      pk,
		GSI2PK:      fmt.Sprintf("USER#%s", pair.Second().String()),
		GSI2SK:      pk,
		EntityType:  "CONNECTION",
		PairKey:     pair.String(),
		RequesterID: connection.Requester().String(),
		Status:      string(connection.Status()),
		CreatedAt:   connection.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   connection.UpdatedAt().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal connection", err)
	}
	return av, nil
}

// Create writes a new edge, conditional on the pair not existing yet
func (r *ConnectionRepository) Create(ctx context.Context, connection *entities.Connection) error {
	av, err := r.marshalConnection(connection)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewConflictError("connection already exists for pair " + connection.Pair().String())
		}
		r.logger.Error("failed to create connection",
			zap.Error(err),
			zap.String("pair", connection.Pair().String()),
		)
		return apperrors.NewUnavailableError("connection create", err)
	}

	return nil
}

// Update overwrites an existing edge, conditional on it still existing
func (r *ConnectionRepository) Update(ctx context.Context, connection *entities.Connection) error {
	av, err := r.marshalConnection(connection)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFoundError("connection not found for pair " + connection.Pair().String())
		}
		return apperrors.NewUnavailableError("connection update", err)
	}

	return nil
}

// GetByPair retrieves the edge for a canonical pair
func (r *ConnectionRepository) GetByPair(ctx context.Context, pair valueobjects.PairKey) (*entities.Connection, error) {
	pk, sk := connectionKey(pair)
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("connection get", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("connection not found for pair " + pair.String())
	}

	return unmarshalConnection(out.Item)
}

// GetByUser retrieves all edges involving a user via the two pair-side
// indexes: one query for edges where the user sorts first, one for edges
// where they sort second
func (r *ConnectionRepository) GetByUser(ctx context.Context, userID valueobjects.UserID) ([]*entities.Connection, error) {
	userKey := fmt.Sprintf("USER#%s", userID.String())

	var connections []*entities.Connection
	for _, index := range []struct {
		name string
		attr string
	}{
		{gsi1Name, "GSI1PK"},
		{gsi2Name, "GSI2PK"},
	} {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(index.name),
			KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", index.attr)),
			FilterExpression:       aws.String("EntityType = :entityType"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":         &types.AttributeValueMemberS{Value: userKey},
				":entityType": &types.AttributeValueMemberS{Value: "CONNECTION"},
			},
		})
		if err != nil {
			return nil, apperrors.NewUnavailableError("connection query", err)
		}

		for _, raw := range out.Items {
			connection, err := unmarshalConnection(raw)
			if err != nil {
				r.logger.Warn("skipping malformed connection item", zap.Error(err))
				continue
			}
			connections = append(connections, connection)
		}
	}

	return connections, nil
}

// CountAccepted counts a user's accepted edges
func (r *ConnectionRepository) CountAccepted(ctx context.Context, userID valueobjects.UserID) (int, error) {
	connections, err := r.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, connection := range connections {
		if connection.IsAccepted() {
			count++
		}
	}
	return count, nil
}

func unmarshalConnection(raw map[string]types.AttributeValue) (*entities.Connection, error) {
	var item connectionItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal connection", err)
	}

	pair, err := valueobjects.ParsePairKey(item.PairKey)
	if err != nil {
		return nil, apperrors.NewInternalError("stored connection has invalid pair key", err)
	}
	requester, err := valueobjects.NewUserID(item.RequesterID)
	if err != nil {
		return nil, apperrors.NewInternalError("stored connection has invalid requester", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructConnection(pair, requester, entities.ConnectionStatus(item.Status), createdAt, updatedAt)
}
