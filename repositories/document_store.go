package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"catalog-pipeline/domain"
)

type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DocumentStore persists catalog and spare-part documents in DynamoDB.
// Every write is a full-document replace keyed by the canonical identifier;
// there is no partial merge and no read-before-write.
type DocumentStore struct {
	client          DynamoDBAPI
	catalogTable    string
	sparePartsTable string
}

func NewDocumentStore(client DynamoDBAPI, catalogTable, sparePartsTable string) *DocumentStore {
	return &DocumentStore{
		client:          client,
		catalogTable:    catalogTable,
		sparePartsTable: sparePartsTable,
	}
}

// PutCatalogRecord replaces the document at key record.CanonicalID.
// Re-running with an unchanged record leaves the store unchanged.
func (s *DocumentStore) PutCatalogRecord(ctx context.Context, record domain.CatalogRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal catalog record %s: %v: %w", record.CanonicalID, err, domain.ErrStore)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.catalogTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put catalog record %s: %v: %w", record.CanonicalID, storeErr(err), domain.ErrStore)
	}
	return nil
}

func (s *DocumentStore) GetCatalogRecord(ctx context.Context, canonicalID string) (*domain.CatalogRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.catalogTable),
		Key: map[string]types.AttributeValue{
			"canonical_id": &types.AttributeValueMemberS{Value: canonicalID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get catalog record %s: %v: %w", canonicalID, storeErr(err), domain.ErrStore)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("catalog record %s: %w", canonicalID, domain.ErrNotFound)
	}
	var record domain.CatalogRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal catalog record %s: %v: %w", canonicalID, err, domain.ErrStore)
	}
	return &record, nil
}

func (s *DocumentStore) PutSparePartRecord(ctx context.Context, record domain.SparePartRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal spare part %s: %v: %w", record.SparePartID, err, domain.ErrStore)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.sparePartsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put spare part %s: %v: %w", record.SparePartID, storeErr(err), domain.ErrStore)
	}
	return nil
}

// ScanRawCatalogItems returns every catalog document as raw attribute maps,
// following pagination. The auditor needs raw items: it compares the
// document key against fields a typed unmarshal would normalize away.
func (s *DocumentStore) ScanRawCatalogItems(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.catalogTable),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan catalog table: %v: %w", storeErr(err), domain.ErrStore)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

// ScanMissingQRArtifacts returns every catalog record that has no QR
// artifact reference yet.
func (s *DocumentStore) ScanMissingQRArtifacts(ctx context.Context) ([]domain.CatalogRecord, error) {
	var records []domain.CatalogRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.catalogTable),
			FilterExpression:  aws.String("attribute_not_exists(qr_artifact_ref)"),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan for missing qr artifacts: %v: %w", storeErr(err), domain.ErrStore)
		}
		var page []domain.CatalogRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal catalog records: %v: %w", err, domain.ErrStore)
		}
		records = append(records, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return records, nil
}

// storeErr flattens AWS API errors to their service error code so logs stay
// readable without losing the classification.
func storeErr(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}
