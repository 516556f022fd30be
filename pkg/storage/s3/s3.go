// Package s3 implements a storage strategy backed by Amazon S3 or any
// S3-compatible object store (MinIO, Localstack, Cubbit DS3).
//
// Object keys mirror the study layout: "<prefix><study-id>/<filename>".
// The bucket must already exist; the strategy verifies access on Connect
// but never creates buckets.
//
// Like the fallback strategy, S3 requires no user consent: CheckPermission
// always reports granted and the strategy never prompts.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/study"
)

// api is the subset of the S3 client the strategy uses. Tests substitute a
// stub; production code passes *s3.Client.
type api interface {
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Config contains the settings for an S3 storage strategy.
type Config struct {
	// Client is the configured S3 client.
	Client api

	// Bucket is the S3 bucket name. It must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "studies/" results in keys like "studies/study-1/data.csv".
	KeyPrefix string
}

// Strategy stores study files as S3 objects.
type Strategy struct {
	client    api
	bucket    string
	keyPrefix string
	studyID   study.ID
	verified  bool
}

// New creates an S3 storage strategy. It validates the configuration but
// performs no network calls; bucket access is verified on Connect.
func New(cfg Config, studyID study.ID) (*Strategy, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	return &Strategy{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		studyID:   studyID,
	}, nil
}

// Name returns the strategy identifier used in configuration and logs.
func (s *Strategy) Name() string {
	return "s3"
}

// Supported always reports true; availability is checked on Connect.
func (s *Strategy) Supported() bool {
	return true
}

// Connect verifies bucket access. A failure here means the bucket is
// missing or the credentials lack access.
func (s *Strategy) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return storage.NewUnavailable(fmt.Sprintf("failed to access bucket %q: %v", s.bucket, err), s.bucket)
	}

	s.verified = true
	logger.Debug("S3 storage connected: bucket=%s prefix=%s", s.bucket, s.keyPrefix)
	return nil
}

// Reconnect re-verifies bucket access. Unlike directory-based strategies
// there is no persisted handle; reachability of the bucket is the only
// state to restore. An unreachable bucket reports (false, nil) so the
// caller can fall back rather than abort.
func (s *Strategy) Reconnect(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		logger.Warn("S3 bucket %q not reachable: %v", s.bucket, err)
		return false, nil
	}

	s.verified = true
	return true, nil
}

// CheckPermission always reports granted: object writes need no user consent.
func (s *Strategy) CheckPermission(ctx context.Context, requestIfMissing bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Write uploads the file content as a single object.
func (s *Strategy) Write(ctx context.Context, filename string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.verified {
		return storage.NewNotConnected("bucket access has not been verified")
	}

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(filename)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	return nil
}

// Collect downloads the requested files that exist as objects. Missing keys
// are skipped silently; an empty payload is a valid result.
func (s *Strategy) Collect(ctx context.Context, filenames []string) (*storage.UploadPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.verified {
		return nil, storage.NewNotConnected("bucket access has not been verified")
	}

	payload := &storage.UploadPayload{}
	for _, name := range filenames {
		result, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(name)),
		})
		if err != nil {
			var notFound *types.NoSuchKey
			if errors.As(err, &notFound) {
				continue
			}
			return nil, fmt.Errorf("failed to download %s: %w", name, err)
		}

		content, err := io.ReadAll(result.Body)
		closeErr := result.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close body for %s: %w", name, closeErr)
		}

		payload.Files = append(payload.Files, storage.FilePayload{
			Name:    name,
			Content: content,
		})
	}

	return payload, nil
}

// objectKey builds the object key for a study file.
func (s *Strategy) objectKey(filename string) string {
	return s.keyPrefix + path.Join(string(s.studyID), filename)
}
