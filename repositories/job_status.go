package repositories

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

type JobsTableAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// JobStatusRepository records scrape-job progress in a DynamoDB table.
// Status writes are best-effort bookkeeping: when no table is configured
// every call is a no-op.
type JobStatusRepository struct {
	client    JobsTableAPI
	tableName string
	logger    *zap.Logger
}

func NewJobStatusRepository(client JobsTableAPI, tableName string, logger *zap.Logger) *JobStatusRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobStatusRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *JobStatusRepository) StartJob(ctx context.Context, jobID, url, startedAt string) error {
	if r.tableName == "" {
		r.logger.Debug("SCRAPE_JOBS_TABLE not configured, skipping job status write",
			zap.String("job_id", jobID))
		return nil
	}

	item, err := attributevalue.MarshalMap(domain.ScrapeJob{
		JobID:     jobID,
		URL:       url,
		Status:    domain.StatusRunning,
		StartedAt: startedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", jobID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to start job %s: %w", jobID, err)
	}
	return nil
}

func (r *JobStatusRepository) CompleteJob(ctx context.Context, jobID, status, completedAt string, recordCount int) error {
	if r.tableName == "" {
		return nil
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"job_id": &types.AttributeValueMemberS{Value: jobID},
		},
		UpdateExpression: aws.String("SET #s = :status, completed_at = :cat, record_count = :rc"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":cat":    &types.AttributeValueMemberS{Value: completedAt},
			":rc":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", recordCount)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	return nil
}
