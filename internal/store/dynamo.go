package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants.
const (
	pkPrefix = "CONTACT#"
	skMeta   = "META"
)

// PutItemAPI is the subset of *dynamodb.Client used by DynamoStore.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore implements ContactStore using AWS DynamoDB.
type DynamoStore struct {
	client    PutItemAPI
	tableName string
	now       func() time.Time
	newID     func() string
}

// Compile-time interface check.
var _ ContactStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client PutItemAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// TableName returns the DynamoDB table the store writes to.
func (s *DynamoStore) TableName() string {
	return s.tableName
}

// contactPK returns the partition key for a submission.
func contactPK(id string) string {
	return pkPrefix + id
}

// putItem marshals a domain object and writes it with PK and SK. The write is
// conditional on the key being new, so a colliding ID never overwrites an
// earlier submission.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("PutItem table=%s: %w: %w", s.tableName, ErrNotProvisioned, err)
		}
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

func (s *DynamoStore) PutContact(ctx context.Context, c *ContactSubmission) (string, error) {
	id := s.newID()
	record := *c
	record.ID = id
	record.CreatedAt = s.now().Unix()
	if record.Status == "" {
		record.Status = StatusNew
	}

	if err := s.putItem(ctx, contactPK(id), skMeta, &record); err != nil {
		return "", fmt.Errorf("put contact %s: %w", id, err)
	}

	c.ID = record.ID
	c.CreatedAt = record.CreatedAt
	c.Status = record.Status

	log.Debug().Str("contactId", id).Str("table", s.tableName).Msg("Contact submission persisted to DynamoDB")
	return id, nil
}
