package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Storage keeps archives in an S3 bucket. Credentials come from the
// default chain (environment, shared config, or instance role).
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage creates an S3-backed archive store.
func NewS3Storage(bucket, region string) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name cannot be empty")
	}
	if region == "" {
		return nil, fmt.Errorf("s3 region cannot be empty")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Save stores the reader's contents under the given key.
func (s *S3Storage) Save(ctx context.Context, key string, reader io.Reader) error {
	cleanKey, err := s.cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleanKey),
		Body:        reader,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive to S3: %w", err)
	}
	return nil
}

// Open returns a reader for the archive at the given key.
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleanKey, err := s.cleanKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrArchiveNotFound
		}
		return nil, fmt.Errorf("failed to download archive from S3: %w", err)
	}
	return out.Body, nil
}

// Delete removes the archive at the given key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	cleanKey, err := s.cleanKey(key)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
	}); err != nil {
		return fmt.Errorf("failed to delete archive from S3: %w", err)
	}
	return nil
}

// Exists checks whether an archive is present at the given key.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	cleanKey, err := s.cleanKey(key)
	if err != nil {
		return false, err
	}

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
	}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check archive existence: %w", err)
	}
	return true, nil
}

func (s *S3Storage) cleanKey(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

// isNotFound detects the S3 "no such key" family of errors.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
