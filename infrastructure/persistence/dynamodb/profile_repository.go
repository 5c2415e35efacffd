package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	"calibrate-backend/domain/catalog"
	vo "calibrate-backend/domain/core/valueobjects"
	appErrors "calibrate-backend/pkg/errors"
)

// ProfileRepository implements ports.ProfileRepository using DynamoDB. The
// profile row is owned by the goal-editing surfaces; this engine only reads
// it.
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

// profileItem represents the DynamoDB item structure for a goal profile
type profileItem struct {
	PK         string     `dynamodbav:"PK"`
	SK         string     `dynamodbav:"SK"`
	EntityType string     `dynamodbav:"EntityType"`
	UserID     string     `dynamodbav:"UserID"`
	Goals      []goalItem `dynamodbav:"Goals"`
}

type goalItem struct {
	Tag      string `dynamodbav:"Tag"`
	Priority int    `dynamodbav:"Priority"`
}

// GetProfile reads the goal profile, or a not-found error when the user has
// never picked goals.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID vo.UserID) (calibration.GoalProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID.String())},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return calibration.GoalProfile{}, fmt.Errorf("failed to get goal profile: %w", err)
	}
	if out.Item == nil {
		return calibration.GoalProfile{}, appErrors.NewNotFoundError("goal profile")
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return calibration.GoalProfile{}, fmt.Errorf("failed to unmarshal goal profile: %w", err)
	}

	profile := calibration.GoalProfile{UserID: userID}
	for _, g := range item.Goals {
		profile.Goals = append(profile.Goals, calibration.Goal{
			Tag:      catalog.GoalTag(g.Tag),
			Priority: g.Priority,
		})
	}
	return profile, nil
}
