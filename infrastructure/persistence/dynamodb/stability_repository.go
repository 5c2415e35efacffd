package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
	appErrors "calibrate-backend/pkg/errors"
)

// StabilityRepository implements ports.StabilityRepository using DynamoDB.
// Saves are conditional on the stored version, turning concurrent writers
// into ErrStaleStabilityState instead of lost updates.
type StabilityRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewStabilityRepository creates a new StabilityRepository
func NewStabilityRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.StabilityRepository {
	return &StabilityRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// stabilityItem represents the DynamoDB item structure for per-user state
type stabilityItem struct {
	PK                    string    `dynamodbav:"PK"`
	SK                    string    `dynamodbav:"SK"`
	EntityType            string    `dynamodbav:"EntityType"`
	UserID                string    `dynamodbav:"UserID"`
	ConsecutiveStableDays int       `dynamodbav:"ConsecutiveStableDays"`
	Window                []float64 `dynamodbav:"Window"`
	ShortCadence          string    `dynamodbav:"ShortCadence"`
	LongCadence           string    `dynamodbav:"LongCadence"`
	ChangeReason          string    `dynamodbav:"ChangeReason"`
	LastSubmission        string    `dynamodbav:"LastSubmission,omitempty"`
	NextDue               string    `dynamodbav:"NextDue,omitempty"`
	Version               int64     `dynamodbav:"Version"`
}

const stabilitySK = "STABILITY"

// Get returns the state, or a not-found error for users who have never
// submitted.
func (r *StabilityRepository) Get(ctx context.Context, userID vo.UserID) (*calibration.StabilityState, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID.String())},
			"SK": &types.AttributeValueMemberS{Value: stabilitySK},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stability state: %w", err)
	}
	if out.Item == nil {
		return nil, appErrors.NewNotFoundError("stability state")
	}

	var item stabilityItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stability state: %w", err)
	}
	return item.toState()
}

// Save writes the state if its version still matches the store. A fresh
// state (version zero) requires the item not to exist yet.
func (r *StabilityRepository) Save(ctx context.Context, state *calibration.StabilityState) error {
	item := stabilityItem{
		PK:                    fmt.Sprintf("USER#%s", state.UserID.String()),
		SK:                    stabilitySK,
		EntityType:            "STABILITY",
		UserID:                state.UserID.String(),
		ConsecutiveStableDays: state.ConsecutiveStableDays,
		Window:                state.Window,
		ShortCadence:          string(state.ShortCadence),
		LongCadence:           string(state.LongCadence),
		ChangeReason:          string(state.ChangeReason),
		Version:               state.Version + 1,
	}
	if !state.LastSubmission.IsZero() {
		item.LastSubmission = state.LastSubmission.String()
	}
	if !state.NextDue.IsZero() {
		item.NextDue = state.NextDue.String()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal stability state: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if state.Version == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		input.ConditionExpression = aws.String("Version = :expected")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", state.Version)},
		}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			r.logger.Debug("Stability state version conflict",
				zap.String("userID", state.UserID.String()),
				zap.Int64("version", state.Version))
			return appErrors.ErrStaleStabilityState
		}
		return fmt.Errorf("failed to save stability state: %w", err)
	}

	state.Version = item.Version
	return nil
}

func (i stabilityItem) toState() (*calibration.StabilityState, error) {
	userID, err := vo.NewUserIDFromString(i.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt stability item: %w", err)
	}
	state := &calibration.StabilityState{
		UserID:                userID,
		ConsecutiveStableDays: i.ConsecutiveStableDays,
		Window:                i.Window,
		ShortCadence:          calibration.CadenceClass(i.ShortCadence),
		LongCadence:           calibration.CadenceClass(i.LongCadence),
		ChangeReason:          calibration.ChangeReason(i.ChangeReason),
		Version:               i.Version,
	}
	if i.LastSubmission != "" {
		day, err := vo.NewDayFromString(i.LastSubmission)
		if err != nil {
			return nil, fmt.Errorf("corrupt stability item: %w", err)
		}
		state.LastSubmission = day
	}
	if i.NextDue != "" {
		day, err := vo.NewDayFromString(i.NextDue)
		if err != nil {
			return nil, fmt.Errorf("corrupt stability item: %w", err)
		}
		state.NextDue = day
	}
	return state, nil
}
