package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"calibrate-backend/application/ports"
	"calibrate-backend/domain/calibration"
	vo "calibrate-backend/domain/core/valueobjects"
)

// maxBatchWriteItems is the DynamoDB BatchWriteItem limit per request.
const maxBatchWriteItems = 25

// ResponseRepository implements ports.ResponseRepository using DynamoDB.
// Records key on (user, date, scale, question), so writing the same answer
// twice is an in-place overwrite rather than a duplicate.
type ResponseRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewResponseRepository creates a new ResponseRepository
func NewResponseRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ResponseRepository {
	return &ResponseRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// responseItem represents the DynamoDB item structure for one answer
type responseItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	GSI1PK     string  `dynamodbav:"GSI1PK,omitempty"` // For per-scale queries across users
	GSI1SK     string  `dynamodbav:"GSI1SK,omitempty"`
	EntityType string  `dynamodbav:"EntityType"`
	UserID     string  `dynamodbav:"UserID"`
	QuestionID string  `dynamodbav:"QuestionID"`
	ScaleID    string  `dynamodbav:"ScaleID,omitempty"`
	Date       string  `dynamodbav:"Date"`
	Value      float64 `dynamodbav:"Value"`
	Text       string  `dynamodbav:"Text,omitempty"`
	Source     string  `dynamodbav:"Source"`
}

func responseKey(userID vo.UserID, date vo.Day, scaleID, questionID string) (string, string) {
	pk := fmt.Sprintf("USER#%s", userID.String())
	sk := fmt.Sprintf("RESPONSE#%s#%s#%s", date.String(), scaleID, questionID)
	return pk, sk
}

// SaveBatch upserts one submission's records in chunks of 25.
func (r *ResponseRepository) SaveBatch(ctx context.Context, records []calibration.ResponseRecord) error {
	if len(records) == 0 {
		return nil
	}

	writes := make([]types.WriteRequest, 0, len(records))
	for _, record := range records {
		pk, sk := responseKey(record.UserID, record.Date, record.ScaleID, record.QuestionID)
		item := responseItem{
			PK:         pk,
			SK:         sk,
			EntityType: "RESPONSE",
			UserID:     record.UserID.String(),
			QuestionID: record.QuestionID,
			ScaleID:    record.ScaleID,
			Date:       record.Date.String(),
			Value:      record.Value,
			Text:       record.Text,
			Source:     string(record.Source),
		}
		if record.ScaleID != "" {
			item.GSI1PK = fmt.Sprintf("SCALE#%s", record.ScaleID)
			item.GSI1SK = fmt.Sprintf("%s#%s", record.Date.String(), record.UserID.String())
		}

		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal response %s: %w", record.QuestionID, err)
		}
		writes = append(writes, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}

	for start := 0; start < len(writes); start += maxBatchWriteItems {
		end := start + maxBatchWriteItems
		if end > len(writes) {
			end = len(writes)
		}
		if err := r.writeChunk(ctx, writes[start:end]); err != nil {
			return err
		}
	}

	r.logger.Debug("Saved response batch",
		zap.String("userID", records[0].UserID.String()),
		zap.String("date", records[0].Date.String()),
		zap.Int("count", len(records)),
	)
	return nil
}

func (r *ResponseRepository) writeChunk(ctx context.Context, writes []types.WriteRequest) error {
	pending := writes
	// DynamoDB may return unprocessed items under throttling; retry the
	// remainder a bounded number of times.
	for attempt := 0; attempt < 3 && len(pending) > 0; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: pending,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to write response batch: %w", err)
		}
		pending = out.UnprocessedItems[r.tableName]
	}
	if len(pending) > 0 {
		return fmt.Errorf("failed to write response batch: %d items unprocessed", len(pending))
	}
	return nil
}

// FindByUserAndDate returns the records stored for one user-day.
func (r *ResponseRepository) FindByUserAndDate(ctx context.Context, userID vo.UserID, date vo.Day) ([]calibration.ResponseRecord, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID.String()))).
		And(expression.Key("SK").BeginsWith(fmt.Sprintf("RESPONSE#%s#", date.String())))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyEx).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}

	records := make([]calibration.ResponseRecord, 0, len(out.Items))
	for _, av := range out.Items {
		var item responseItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response item: %w", err)
		}
		record, err := item.toRecord()
		if err != nil {
			r.logger.Warn("Skipping malformed response item",
				zap.String("sk", item.SK),
				zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (i responseItem) toRecord() (calibration.ResponseRecord, error) {
	userID, err := vo.NewUserIDFromString(i.UserID)
	if err != nil {
		return calibration.ResponseRecord{}, err
	}
	day, err := vo.NewDayFromString(i.Date)
	if err != nil {
		return calibration.ResponseRecord{}, err
	}
	return calibration.ResponseRecord{
		UserID:     userID,
		ScaleID:    i.ScaleID,
		QuestionID: i.QuestionID,
		Date:       day,
		Value:      i.Value,
		Text:       i.Text,
		Source:     calibration.Source(i.Source),
	}, nil
}
