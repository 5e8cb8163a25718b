package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/edvin/delivery/internal/config"
	"github.com/edvin/delivery/internal/platform"
)

// Store persists evidence files in an S3-compatible bucket. Object keys are
// opaque and never derived from file names.
type Store struct {
	logger zerolog.Logger
	client *s3.Client
	bucket string
}

// NewStore creates a Store against the configured endpoint.
func NewStore(logger zerolog.Logger, cfg *config.Config) *Store {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(cfg.BlobEndpoint),
		Region:       cfg.BlobRegion,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.BlobAccessKey, cfg.BlobSecretKey, ""),
		UsePathStyle: true,
	})
	return &Store{
		logger: logger.With().Str("component", "blob-store").Logger(),
		client: client,
		bucket: cfg.BlobBucket,
	}
}

// Upload stores the file content under a fresh object key and returns it.
func (s *Store) Upload(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	key := platform.NewObjectKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("put object for %s: %w", name, err)
	}

	s.logger.Debug().Str("name", name).Str("key", key).Int("size", len(data)).Msg("uploaded blob")
	return key, nil
}

// PresignDownload returns a time-limited URL for fetching the object.
func (s *Store) PresignDownload(ctx context.Context, key, name string, expiry time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return req.URL, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
