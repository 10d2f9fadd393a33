package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

// Webhook deliveries are retried by the provider for up to a day; keeping
// seen ids a little longer covers late retries.
const processedTTL = 48 * time.Hour

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// processedRecord is one seen provider message id.
type processedRecord struct {
	MessageID string `dynamodbav:"messageId"`
	ClinicID  string `dynamodbav:"clinicId"`
	SeenAt    string `dynamodbav:"seenAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// ProcessedStore dedupes inbound webhook messages by provider message id.
// The conditional put makes the check-and-mark atomic, so concurrent
// deliveries of the same message race safely.
type ProcessedStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
	now       func() time.Time
}

// NewProcessedStore builds a store backed by the provided DynamoDB client.
func NewProcessedStore(client dynamoAPI, tableName string, logger *logging.Logger) *ProcessedStore {
	if client == nil {
		panic("inbox: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("inbox: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcessedStore{client: client, tableName: tableName, logger: logger, now: time.Now}
}

// MarkProcessed records a provider message id. It returns true when this
// call was the first sighting and false when the id was already recorded.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, clinicID, providerMessageID string) (bool, error) {
	if providerMessageID == "" {
		return true, nil
	}
	now := s.now().UTC()
	item, err := attributevalue.MarshalMap(processedRecord{
		MessageID: providerMessageID,
		ClinicID:  clinicID,
		SeenAt:    now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(processedTTL).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("inbox: marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(messageId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.logger.Info("inbox: duplicate message dropped",
				"clinic_id", clinicID, "provider_message_id", providerMessageID)
			return false, nil
		}
		return false, fmt.Errorf("inbox: mark processed: %w", err)
	}
	return true, nil
}
