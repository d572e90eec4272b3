package repositories

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"catalog-pipeline/domain"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore re-hosts fetched media and QR artifacts in S3. Signed URLs
// are minted at read time; documents only ever carry the storage path.
type ObjectStore struct {
	client     S3API
	presign    *s3.PresignClient
	bucket     string
	defaultTTL time.Duration
	logger     *zap.Logger
}

func NewObjectStore(client *s3.Client, bucket string, defaultTTL time.Duration, logger *zap.Logger) *ObjectStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	return &ObjectStore{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     bucket,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// Upload stores the bytes verbatim at key, preserving the content type, and
// returns a stable reference of the form s3://bucket/key.
func (s *ObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %v: %w", key, storeErr(err), domain.ErrStore)
	}
	s.logger.Debug("uploaded object",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.String("content_type", contentType))
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// SignedURL mints a time-bounded read URL for a stored object. A zero or
// negative expiry falls back to the configured default.
func (s *ObjectStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.defaultTTL
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %v: %w", key, storeErr(err), domain.ErrStore)
	}
	return req.URL, nil
}
