// Package main implements the WebSocket fan-out Lambda.
// It reacts to message.sent events from EventBridge and pushes the
// message to every conversation participant with a live connection.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Global DynamoDB client for Lambda performance optimization
var dynamoClient *dynamodb.Client

// messageSentDetail mirrors the EventBridge detail for message.sent
type messageSentDetail struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// wsMessage is the payload format pushed to clients
type wsMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func init() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(cfg)

	log.Println("WebSocket send-message handler initialized")
}

func tableName() string {
	if name := os.Getenv("DYNAMODB_TABLE"); name != "" {
		return name
	}
	return "studybuddy"
}

// apiGatewayClient creates a management client for the given endpoint
func apiGatewayClient(endpoint string) *apigatewaymanagementapi.Client {
	cfg, _ := awsconfig.LoadDefaultConfig(context.Background())

	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// participantIDs reads the membership rows of a conversation
func participantIDs(ctx context.Context, conversationID string) ([]string, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("CONV#%s", conversationID))).
		And(expression.Key("SK").BeginsWith("MEMBER#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build membership query: %w", err)
	}

	result, err := dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(tableName()),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}

	ids := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		sk, ok := item["SK"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		ids = append(ids, strings.TrimPrefix(sk.Value, "MEMBER#"))
	}
	return ids, nil
}

// connectionsForUser returns connectionID -> endpoint for a user's live sockets
func connectionsForUser(ctx context.Context, userID string) (map[string]string, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("GSI1SK").BeginsWith("WSCONN#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection query: %w", err)
	}

	result, err := dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(tableName()),
		IndexName:                 aws.String("GSI1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	connections := make(map[string]string, len(result.Items))
	for _, item := range result.Items {
		connID, _ := item["ConnectionID"].(*types.AttributeValueMemberS)
		endpoint, _ := item["Endpoint"].(*types.AttributeValueMemberS)
		if connID != nil && endpoint != nil {
			connections[connID.Value] = endpoint.Value
		}
	}
	return connections, nil
}

// pushToConnection posts a payload to one socket, cleaning up stale rows
func pushToConnection(ctx context.Context, client *apigatewaymanagementapi.Client, connectionID string, payload []byte) error {
	_, err := client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			log.Printf("Connection %s is gone, removing", connectionID)
			removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// removeStaleConnection deletes a dead connection row
func removeStaleConnection(ctx context.Context, connectionID string) {
	_, err := dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("WSCONN#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		log.Printf("Failed to remove stale connection %s: %v", connectionID, err)
	}
}

// fanOut delivers one message.sent event to all participants' sockets
func fanOut(ctx context.Context, detail messageSentDetail) error {
	participants, err := participantIDs(ctx, detail.ConversationID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		log.Printf("No participants found for conversation %s", detail.ConversationID)
		return nil
	}

	payload, err := json.Marshal(wsMessage{
		Type:      "message.sent",
		Timestamp: detail.Timestamp.Unix(),
		Data:      detail,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// The sender already has the message; push to the others
	successCount := 0
	failCount := 0
	for _, userID := range participants {
		if userID == detail.SenderID {
			continue
		}

		connections, err := connectionsForUser(ctx, userID)
		if err != nil {
			log.Printf("Failed to get connections for user %s: %v", userID, err)
			failCount++
			continue
		}

		for connID, endpoint := range connections {
			client := apiGatewayClient(endpoint)
			if err := pushToConnection(ctx, client, connID, payload); err != nil {
				log.Printf("Failed to send to connection %s: %v", connID, err)
				failCount++
			} else {
				successCount++
			}
		}
	}

	log.Printf("Fan-out complete for conversation %s: %d successful, %d failed",
		detail.ConversationID, successCount, failCount)

	if failCount > 0 && successCount == 0 {
		return fmt.Errorf("all message sends failed")
	}
	return nil
}

// handler processes EventBridge events carrying message.sent details
func handler(ctx context.Context, event events.CloudWatchEvent) error {
	if event.DetailType != "message.sent" {
		log.Printf("Ignoring event type %s", event.DetailType)
		return nil
	}

	var detail messageSentDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return fmt.Errorf("failed to parse event detail: %w", err)
	}
	if detail.ConversationID == "" {
		return fmt.Errorf("event detail missing conversation_id")
	}

	return fanOut(ctx, detail)
}

func main() {
	log.Println("Starting WebSocket send-message Lambda")
	lambda.Start(handler)
}
