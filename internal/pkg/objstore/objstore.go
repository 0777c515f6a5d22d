// Package objstore stores media objects in an S3-compatible bucket.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/tidesail/core/internal/config"
)

// Store wraps an S3 client bound to a single bucket.
type Store struct {
	client *s3.Client
	cfg    appconfig.S3Config
}

// New builds a Store from the application S3 configuration.
func New(cfg appconfig.S3Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objstore: bucket not configured")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: cfg.PathStyle,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})

	return &Store{client: client, cfg: cfg}, nil
}

// Put uploads an object and returns its public URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	fullKey := s.objectKey(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("objstore: put %s: %w", fullKey, err)
	}

	return s.PublicURL(fullKey), nil
}

// Delete removes an object from the bucket.
func (s *Store) Delete(ctx context.Context, fullKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return fmt.Errorf("objstore: delete %s: %w", fullKey, err)
	}
	return nil
}

// PublicURL returns the browser-facing URL for an object key. Uploads go
// through the internal endpoint but links are served from the public one.
func (s *Store) PublicURL(fullKey string) string {
	base := s.cfg.PublicEndpoint
	if base == "" {
		base = s.cfg.Endpoint
	}
	base = strings.TrimRight(base, "/")
	if s.cfg.PathStyle {
		return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, fullKey)
	}
	return fmt.Sprintf("%s/%s", base, fullKey)
}

func (s *Store) objectKey(key string) string {
	if s.cfg.Prefix == "" {
		return key
	}
	return strings.TrimRight(s.cfg.Prefix, "/") + "/" + key
}
