// Package dynamodb implements the application's repository ports on a
// single DynamoDB table.
//
// Key layout:
//
//	Profile       PK=USER#<id>    SK=PROFILE     GSI1PK=DIRECTORY GSI1SK=USER#<id>
//	Connection    PK=PAIR#<a>#<b> SK=CONNECTION  GSI1PK=USER#<a>  GSI2PK=USER#<b>
//	Conversation  PK=CONV#<id>    SK=METADATA
//	Membership    PK=CONV#<id>    SK=MEMBER#<u>  GSI1PK=USER#<u>  GSI1SK=CONV#<id>
//	Pair index    PK=DMPAIR#<a>#<b> SK=INDEX
//	Message       PK=CONV#<id>    SK=MSG#<ts>#<msgID>
package dynamodb

import (
	"context"
	"errors"
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

const (
	directoryPartition = "DIRECTORY"
	gsi1Name           = "GSI1"
	gsi2Name           = "GSI2"
)

// isConditionalCheckFailed reports whether the error is a lost conditional
// write, either directly or inside a cancelled transaction
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// ProfileRepository implements ports.ProfileRepository using DynamoDB
type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// profileItem represents the DynamoDB item structure for a profile
type profileItem struct {
	PK                string   `dynamodbav:"PK"`
	SK                string   `dynamodbav:"SK"`
	GSI1PK            string   `dynamodbav:"GSI1PK"`
	GSI1SK            string   `dynamodbav:"GSI1SK"`
	EntityType        string   `dynamodbav:"EntityType"`
	UserID            string   `dynamodbav:"UserID"`
	DisplayName       string   `dynamodbav:"DisplayName"`
	University        string   `dynamodbav:"University"`
	CourseLabel       string   `dynamodbav:"CourseLabel"`
	Major             string   `dynamodbav:"Major"`
	Interests         []string `dynamodbav:"Interests"`
	AcademicGoals     []string `dynamodbav:"AcademicGoals"`
	AvailabilitySlots []string `dynamodbav:"AvailabilitySlots"`
	CreatedAt         string   `dynamodbav:"CreatedAt"`
	UpdatedAt         string   `dynamodbav:"UpdatedAt"`
}

func profileKey(id valueobjects.UserID) (string, string) {
	return fmt.Sprintf("USER#%s", id.String()), "PROFILE"
}

// Save persists a profile to DynamoDB
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	pk, sk := profileKey(profile.ID())
	item := profileItem{
		PK:                pk,
		SK:                sk,
		GSI1PK:            directoryPartition,
		GSI1SK:            pk,
		EntityType:        "PROFILE",
		UserID:            profile.ID().String(),
		DisplayName:       profile.DisplayName(),
		University:        profile.University(),
		CourseLabel:       profile.CourseLabel(),
		Major:             profile.Major(),
		Interests:         profile.Interests(),
		AcademicGoals:     profile.AcademicGoals(),
		AvailabilitySlots: profile.AvailabilitySlots(),
		CreatedAt:         profile.CreatedAt().Format(time.RFC3339),
		UpdatedAt:         profile.UpdatedAt().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal profile", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save profile",
			zap.Error(err),
			zap.String("userID", profile.ID().String()),
		)
		return apperrors.NewUnavailableError("profile save", err)
	}

	return nil
}

// GetByID retrieves a profile by user ID
func (r *ProfileRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Profile, error) {
	pk, sk := profileKey(id)
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, apperrors.NewUnavailableError("profile get", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError("profile not found: " + id.String())
	}

	return unmarshalProfile(out.Item)
}

// GetByIDs retrieves multiple profiles, skipping missing ones
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []valueobjects.UserID) ([]*entities.Profile, error) {
	profiles := make([]*entities.Profile, 0, len(ids))
	for _, id := range ids {
		profile, err := r.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// ListCandidates queries the directory partition for the candidate pool.
// GSI1SK ordering keeps the pool stable across calls.
func (r *ProfileRepository) ListCandidates(ctx context.Context, limit int) ([]*entities.Profile, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: directoryPartition},
		},
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, apperrors.NewUnavailableError("profile directory query", err)
	}

	profiles := make([]*entities.Profile, 0, len(out.Items))
	for _, raw := range out.Items {
		profile, err := unmarshalProfile(raw)
		if err != nil {
			r.logger.Warn("skipping malformed profile item", zap.Error(err))
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func unmarshalProfile(raw map[string]types.AttributeValue) (*entities.Profile, error) {
	var item profileItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal profile", err)
	}

	id, err := valueobjects.NewUserID(item.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("stored profile has invalid user ID", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)

	return entities.ReconstructProfile(
		id,
		item.DisplayName,
		item.University,
		item.CourseLabel,
		item.Major,
		item.Interests,
		item.AcademicGoals,
		item.AvailabilitySlots,
		createdAt,
		updatedAt,
	)
}
