package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"catalog-pipeline/domain"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.GetItemOutput), args.Error(1)
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func (m *MockDynamoDB) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.ScanOutput), args.Error(1)
}

func TestPutCatalogRecord_KeyedByCanonicalID(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	mockDB.On("PutItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.PutItemInput) bool {
		key, ok := input.Item["canonical_id"].(*types.AttributeValueMemberS)
		return *input.TableName == "catalog" && ok && key.Value == "RS-48"
	}), mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

	err := store.PutCatalogRecord(context.Background(), domain.CatalogRecord{
		CanonicalID: "RS-48",
		Model:       "RS-48",
		Name:        "Four Burner Cooktop",
		Category:    "Professional",
		ScrapedAt:   time.Now().UTC(),
	})
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestPutCatalogRecord_StoreError(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	mockDB.On("PutItem", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))

	err := store.PutCatalogRecord(context.Background(), domain.CatalogRecord{CanonicalID: "RS-48"})
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestGetCatalogRecord(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	mockDB.On("GetItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.GetItemInput) bool {
		key, ok := input.Key["canonical_id"].(*types.AttributeValueMemberS)
		return *input.TableName == "catalog" && ok && key.Value == "RS-48"
	}), mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"canonical_id": &types.AttributeValueMemberS{Value: "RS-48"},
			"model":        &types.AttributeValueMemberS{Value: "RS-48"},
			"name":         &types.AttributeValueMemberS{Value: "Four Burner Cooktop"},
		},
	}, nil)

	record, err := store.GetCatalogRecord(context.Background(), "RS-48")
	assert.NoError(t, err)
	assert.Equal(t, "RS-48", record.CanonicalID)
	assert.Equal(t, "Four Burner Cooktop", record.Name)
}

func TestGetCatalogRecord_NotFound(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	mockDB.On("GetItem", mock.Anything, mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{}, nil)

	_, err := store.GetCatalogRecord(context.Background(), "GHOST-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScanRawCatalogItems_Pagination(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	firstPage := &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"canonical_id": &types.AttributeValueMemberS{Value: "RS-48"}},
		},
		LastEvaluatedKey: map[string]types.AttributeValue{
			"canonical_id": &types.AttributeValueMemberS{Value: "RS-48"},
		},
	}
	secondPage := &dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"canonical_id": &types.AttributeValueMemberS{Value: "CS-9P"}},
		},
	}

	mockDB.On("Scan", mock.Anything, mock.MatchedBy(func(input *dynamodb.ScanInput) bool {
		return input.ExclusiveStartKey == nil
	}), mock.Anything).Return(firstPage, nil).Once()
	mockDB.On("Scan", mock.Anything, mock.MatchedBy(func(input *dynamodb.ScanInput) bool {
		return input.ExclusiveStartKey != nil
	}), mock.Anything).Return(secondPage, nil).Once()

	items, err := store.ScanRawCatalogItems(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	mockDB.AssertExpectations(t)
}

func TestScanMissingQRArtifacts_Filter(t *testing.T) {
	mockDB := new(MockDynamoDB)
	store := NewDocumentStore(mockDB, "catalog", "spare-parts")

	mockDB.On("Scan", mock.Anything, mock.MatchedBy(func(input *dynamodb.ScanInput) bool {
		return input.FilterExpression != nil &&
			*input.FilterExpression == "attribute_not_exists(qr_artifact_ref)"
	}), mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{
				"canonical_id": &types.AttributeValueMemberS{Value: "CS-9P"},
				"model":        &types.AttributeValueMemberS{Value: "CS-9P"},
			},
		},
	}, nil)

	records, err := store.ScanMissingQRArtifacts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "CS-9P", records[0].CanonicalID)
}
