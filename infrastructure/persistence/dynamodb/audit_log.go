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

	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
)

// EscalationLogRepository implements ports.EscalationLog using DynamoDB.
// One row per (user, scale, date), write-once: re-recording the same
// trigger is treated as success so pipeline retries stay idempotent.
type EscalationLogRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewEscalationLogRepository creates a new EscalationLogRepository
func NewEscalationLogRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.EscalationLog {
	return &EscalationLogRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// escalationItem represents the DynamoDB item structure for one trigger
type escalationItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	UserID      string  `dynamodbav:"UserID"`
	ScaleID     string  `dynamodbav:"ScaleID"`
	Score       float64 `dynamodbav:"Score"`
	TargetScale string  `dynamodbav:"TargetScale"`
	Confidence  float64 `dynamodbav:"Confidence"`
	Date        string  `dynamodbav:"Date"`
}

// Record writes one escalation trigger, once.
func (r *EscalationLogRepository) Record(ctx context.Context, trigger calibration.EscalationTrigger) error {
	item := escalationItem{
		PK:          fmt.Sprintf("USER#%s", trigger.UserID.String()),
		SK:          fmt.Sprintf("ESCALATION#%s#%s", trigger.Date.String(), trigger.ScaleID),
		EntityType:  "ESCALATION",
		UserID:      trigger.UserID.String(),
		ScaleID:     trigger.ScaleID,
		Score:       trigger.Score,
		TargetScale: trigger.TargetScale,
		Confidence:  trigger.Confidence,
		Date:        trigger.Date.String(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation trigger: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			// Already recorded for this user-scale-day.
			return nil
		}
		return fmt.Errorf("failed to record escalation trigger: %w", err)
	}

	r.logger.Info("Recorded escalation trigger",
		zap.String("userID", trigger.UserID.String()),
		zap.String("scale", trigger.ScaleID),
		zap.String("target", trigger.TargetScale),
	)
	return nil
}

// ListByUser returns the most recent triggers for a user, newest first.
func (r *EscalationLogRepository) ListByUser(ctx context.Context, userID vo.UserID, limit int) ([]calibration.EscalationTrigger, error) {
	out, err := r.queryPrefix(ctx, userID, "ESCALATION#", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalation triggers: %w", err)
	}

	triggers := make([]calibration.EscalationTrigger, 0, len(out))
	for _, av := range out {
		var item escalationItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal escalation item: %w", err)
		}
		day, err := vo.NewDayFromString(item.Date)
		if err != nil {
			r.logger.Warn("Skipping malformed escalation item", zap.String("sk", item.SK), zap.Error(err))
			continue
		}
		triggers = append(triggers, calibration.EscalationTrigger{
			UserID:      userID,
			ScaleID:     item.ScaleID,
			Score:       item.Score,
			TargetScale: item.TargetScale,
			Confidence:  item.Confidence,
			Date:        day,
		})
	}
	return triggers, nil
}

func (r *EscalationLogRepository) queryPrefix(ctx context.Context, userID vo.UserID, prefix string, limit int) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID.String())},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

// SafetyLogRepository implements ports.SafetyLog using DynamoDB. Append-only
// with a unique event id in the key; nothing ever updates or deletes a row.
type SafetyLogRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSafetyLogRepository creates a new SafetyLogRepository
func NewSafetyLogRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SafetyLog {
	return &SafetyLogRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// safetyItem represents the DynamoDB item structure for one safety event
type safetyItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	EventID    string  `dynamodbav:"EventID"`
	UserID     string  `dynamodbav:"UserID"`
	QuestionID string  `dynamodbav:"QuestionID"`
	Value      float64 `dynamodbav:"Value"`
	Severity   string  `dynamodbav:"Severity"`
	Context    string  `dynamodbav:"Context"`
	Date       string  `dynamodbav:"Date"`
	OccurredAt string  `dynamodbav:"OccurredAt"`
}

// Record appends one safety event. The caller treats any error as fatal for
// the submission, so no failure is swallowed here.
func (r *SafetyLogRepository) Record(ctx context.Context, event calibration.SafetyEvent) error {
	item := safetyItem{
		PK:         fmt.Sprintf("USER#%s", event.UserID.String()),
		SK:         fmt.Sprintf("SAFETY#%s#%s", event.OccurredAt.UTC().Format(time.RFC3339Nano), event.ID),
		EntityType: "SAFETY",
		EventID:    event.ID,
		UserID:     event.UserID.String(),
		QuestionID: event.QuestionID,
		Value:      event.Value,
		Severity:   string(event.Severity),
		Context:    event.Context,
		Date:       event.Date.String(),
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal safety event: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to record safety event: %w", err)
	}

	r.logger.Warn("Recorded safety event",
		zap.String("userID", event.UserID.String()),
		zap.String("questionID", event.QuestionID),
		zap.String("severity", string(event.Severity)),
	)
	return nil
}

// ListByUser returns the most recent safety events for a user, newest first.
func (r *SafetyLogRepository) ListByUser(ctx context.Context, userID vo.UserID, limit int) ([]calibration.SafetyEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID.String())},
			":prefix": &types.AttributeValueMemberS{Value: "SAFETY#"},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety events: %w", err)
	}

	events := make([]calibration.SafetyEvent, 0, len(out.Items))
	for _, av := range out.Items {
		var item safetyItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal safety item: %w", err)
		}
		event, err := item.toEvent(userID)
		if err != nil {
			r.logger.Warn("Skipping malformed safety item", zap.String("sk", item.SK), zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (i safetyItem) toEvent(userID vo.UserID) (calibration.SafetyEvent, error) {
	day, err := vo.NewDayFromString(i.Date)
	if err != nil {
		return calibration.SafetyEvent{}, err
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, i.OccurredAt)
	if err != nil {
		return calibration.SafetyEvent{}, err
	}
	return calibration.SafetyEvent{
		ID:         i.EventID,
		UserID:     userID,
		QuestionID: i.QuestionID,
		Value:      i.Value,
		Severity:   calibration.SafetySeverity(i.Severity),
		Context:    i.Context,
		Date:       day,
		OccurredAt: occurredAt,
	}, nil
}
