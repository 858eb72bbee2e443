package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	commonErrors "github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
	"github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
)

// DynamoDBStagingRepository implements the staging.Repository interface.
// All rows of one session share a partition.
type DynamoDBStagingRepository struct {
	client    client.Client
	table     string
	sessionID string
	logger    *zap.Logger
}

// NewDynamoDBStagingRepository creates a new DynamoDBStagingRepository
func NewDynamoDBStagingRepository(client client.Client, table, sessionID string, logger *zap.Logger) *DynamoDBStagingRepository {
	return &DynamoDBStagingRepository{
		client:    client,
		table:     table,
		sessionID: sessionID,
		logger:    logger,
	}
}

// ListRows returns every staged row of the session
func (r *DynamoDBStagingRepository) ListRows(ctx context.Context) ([]staging.Row, error) {
	items, err := r.queryRows(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]staging.Row, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal staging rows", err)
	}
	return rows, nil
}

// CreateRow stores row under a new ID and returns it
func (r *DynamoDBStagingRepository) CreateRow(ctx context.Context, row staging.Row) (staging.Row, error) {
	row.ID = ulid.Make().String()
	if row.Status == "" {
		row.Status = staging.StatusPending
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now

	item, err := r.rowItem(row)
	if err != nil {
		return staging.Row{}, err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return staging.Row{}, commonErrors.NewConflictError("staged row already exists")
		}
		return staging.Row{}, commonErrors.NewInternalError("failed to create staged row", err)
	}

	return row, nil
}

// UpdateRowFields sets the given attributes on an existing row
func (r *DynamoDBStagingRepository) UpdateRowFields(ctx context.Context, id string, fields map[staging.Field]any) error {
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, string(field))
	}
	sort.Strings(names)

	update := expression.Set(expression.Name("updatedAt"), expression.Value(time.Now().UTC()))
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(fields[staging.Field(name)]))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       r.rowKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("staged row not found").WithDetail("id", id)
		}
		return commonErrors.NewInternalError("failed to update staged row", err)
	}
	return nil
}

// DeleteRow removes one row. Deleting a missing row is not an error.
func (r *DynamoDBStagingRepository) DeleteRow(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       r.rowKey(id),
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to delete staged row", err)
	}
	return nil
}

// DeleteAllRows removes every row of the session
func (r *DynamoDBStagingRepository) DeleteAllRows(ctx context.Context) error {
	items, err := r.queryRows(ctx)
	if err != nil {
		return err
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]},
			},
		})
	}

	if err := r.batchWrite(ctx, requests); err != nil {
		return commonErrors.NewInternalError("failed to delete staged rows", err)
	}
	r.logger.Info("staging rows deleted", zap.String("sessionId", r.sessionID), zap.Int("count", len(items)))
	return nil
}

// ResetSampleRows replaces the session's rows with the sample data set
func (r *DynamoDBStagingRepository) ResetSampleRows(ctx context.Context) error {
	if err := r.DeleteAllRows(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	samples := staging.SampleRows()
	requests := make([]types.WriteRequest, 0, len(samples))
	for _, row := range samples {
		row.ID = ulid.Make().String()
		row.Status = staging.StatusPending
		row.CreatedAt = now
		row.UpdatedAt = now

		item, err := r.rowItem(row)
		if err != nil {
			return err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	if err := r.batchWrite(ctx, requests); err != nil {
		return commonErrors.NewInternalError("failed to write sample rows", err)
	}
	return nil
}

func (r *DynamoDBStagingRepository) queryRows(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(sessionPK(r.sessionID))).
		And(expression.Key("SK").BeginsWith(rowPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to query staging rows", err)
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// batchWrite sends requests in chunks, resubmitting unprocessed items
func (r *DynamoDBStagingRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		pending := map[string][]types.WriteRequest{r.table: requests[start:end]}

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt > 0 {
				if attempt > 5 {
					return errors.New("unprocessed items remain after retries")
				}
				time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
			}
			result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return err
			}
			pending = result.UnprocessedItems
		}
	}
	return nil
}

func (r *DynamoDBStagingRepository) rowItem(row staging.Row) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal staged row", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: sessionPK(r.sessionID)}
	item["SK"] = &types.AttributeValueMemberS{Value: rowSK(row.ID)}
	item["Type"] = &types.AttributeValueMemberS{Value: typeStagingRow}
	return item, nil
}

func (r *DynamoDBStagingRepository) rowKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(r.sessionID)},
		"SK": &types.AttributeValueMemberS{Value: rowSK(id)},
	}
}
