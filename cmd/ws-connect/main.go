// Package main implements the WebSocket connection Lambda handler.
// It authenticates the client and records the connection so the
// send-message Lambda can push chat messages to it later.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"studybuddy-backend/pkg/auth"
)

// Global clients for Lambda performance optimization
var (
	dynamoClient *dynamodb.Client
	validator    *auth.JWTValidator
)

// connectionRecord is the DynamoDB row for one live WebSocket connection
type connectionRecord struct {
	ConnectionID string
	UserID       string
	Endpoint     string
	ConnectedAt  time.Time
}

func init() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(cfg)

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     os.Getenv("JWT_SECRET"),
		Issuer:        os.Getenv("JWT_ISSUER"),
	})
	if err != nil {
		log.Fatalf("Failed to create JWT validator: %v", err)
	}

	log.Println("WebSocket connect handler initialized")
}

func tableName() string {
	if name := os.Getenv("DYNAMODB_TABLE"); name != "" {
		return name
	}
	return "studybuddy"
}

// storeConnection saves the connection row keyed for user lookup via GSI1
func storeConnection(ctx context.Context, conn connectionRecord) error {
	ttl := time.Now().Add(24 * time.Hour).Unix()

	item := map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: fmt.Sprintf("WSCONN#%s", conn.ConnectionID)},
		"SK":           &types.AttributeValueMemberS{Value: "METADATA"},
		"EntityType":   &types.AttributeValueMemberS{Value: "WSCONNECTION"},
		"ConnectionID": &types.AttributeValueMemberS{Value: conn.ConnectionID},
		"UserID":       &types.AttributeValueMemberS{Value: conn.UserID},
		"GSI1PK":       &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", conn.UserID)},
		"GSI1SK":       &types.AttributeValueMemberS{Value: fmt.Sprintf("WSCONN#%s", conn.ConnectionID)},
		"Endpoint":     &types.AttributeValueMemberS{Value: conn.Endpoint},
		"ConnectedAt":  &types.AttributeValueMemberS{Value: conn.ConnectedAt.UTC().Format(time.RFC3339)},
		"TTL":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttl)},
	}

	_, err := dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName()),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	log.Printf("Stored connection %s for user %s", conn.ConnectionID, conn.UserID)
	return nil
}

// handler processes WebSocket $connect requests
func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Printf("WebSocket connect request from connection: %s", request.RequestContext.ConnectionID)

	// Browsers cannot set headers on WebSocket upgrade, so the token
	// usually arrives as a query parameter
	token := request.QueryStringParameters["token"]
	if token == "" {
		token = strings.TrimPrefix(request.Headers["Authorization"], "Bearer ")
	}

	user, err := validator.Validate(token)
	if err != nil {
		log.Printf("Authentication failed: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	conn := connectionRecord{
		ConnectionID: request.RequestContext.ConnectionID,
		UserID:       user.UserID,
		Endpoint:     fmt.Sprintf("%s/%s", request.RequestContext.DomainName, request.RequestContext.Stage),
		ConnectedAt:  time.Now(),
	}

	if err := storeConnection(ctx, conn); err != nil {
		log.Printf("Failed to store connection: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "internal server error"}`,
		}, nil
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":         "connection_established",
		"connectionId": conn.ConnectionID,
		"userId":       user.UserID,
		"timestamp":    time.Now().Unix(),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(welcome),
	}, nil
}

func main() {
	log.Println("Starting WebSocket connect Lambda")
	lambda.Start(handler)
}
