// Package s3store archives case files in an S3 bucket. Folders are key
// prefixes; shared links are plain bucket URLs, so this store suits staging
// environments where the bucket itself controls access.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/observability"
	"github.com/ShadewG/auto-downloader/internal/storage/types"
)

// Store implements types.CaseStore on S3.
type Store struct {
	client  *s3.Client
	cfg     *config.S3Config
	logger  observability.Logger
	metrics observability.Metrics
}

// New builds a Store and verifies the configured bucket is reachable,
// creating it when absent.
func New(ctx context.Context, storageCfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (*Store, error) {
	awsCfg, err := buildAWSConfig(storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	s := &Store{
		client:  s3.NewFromConfig(awsCfg),
		cfg:     &storageCfg.S3,
		logger:  logger,
		metrics: metrics,
	}

	if err := s.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	logger.Info(ctx, "s3 store initialized", observability.Fields{
		"bucket": s.cfg.Bucket,
		"region": s.cfg.Region,
	})
	return s, nil
}

// EnsureFolder is a no-op beyond normalization: S3 has no folders, so the
// case folder is just a key prefix.
func (s *Store) EnsureFolder(ctx context.Context, name string) (types.Folder, error) {
	name = strings.Trim(name, "/")
	if name == "" {
		return types.Folder{}, fmt.Errorf("%w: empty folder name", types.ErrFolder)
	}
	return types.Folder{Path: name}, nil
}

// Upload stores the local file under the folder prefix.
func (s *Store) Upload(ctx context.Context, folder types.Folder, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrUpload, localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", types.ErrUpload, localPath, err)
	}

	key := folder.Path + "/" + filepath.Base(localPath)
	start := time.Now()
	s.metrics.StartOperation("storage_upload")
	defer s.metrics.EndOperation("storage_upload")

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.metrics.RecordError("storage_upload", "upload_failed")
		return "", fmt.Errorf("%w: s3://%s/%s: %v", types.ErrUpload, s.cfg.Bucket, key, err)
	}

	s.metrics.RecordSuccess("storage_upload")
	s.metrics.RecordDuration("storage_upload", time.Since(start).Seconds())
	s.metrics.RecordFileSize(strings.TrimPrefix(filepath.Ext(localPath), "."), info.Size())
	s.logger.Info(ctx, "file uploaded", observability.Fields{
		"bucket":     s.cfg.Bucket,
		"key":        key,
		"size_bytes": info.Size(),
	})
	return key, nil
}

// SharedLink returns the console-style bucket URL for the folder prefix. It
// is deterministic, so repeated calls are trivially idempotent.
func (s *Store) SharedLink(ctx context.Context, folder types.Folder) (string, error) {
	return fmt.Sprintf(
		"https://%s.s3.%s.amazonaws.com/%s/",
		s.cfg.Bucket, s.cfg.Region, url.PathEscape(folder.Path),
	), nil
}

func (s *Store) ensureBucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *s3types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.cfg.Region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	s.logger.Info(ctx, "bucket created", observability.Fields{"bucket": s.cfg.Bucket})
	return nil
}

func buildAWSConfig(storageCfg *config.StorageConfig) (aws.Config, error) {
	s3Cfg := storageCfg.S3

	var optFns []func(*awsconfig.LoadOptions) error
	if s3Cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(s3Cfg.Region))
	}
	if s3Cfg.AccessKeyID != "" && s3Cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Cfg.AccessKeyID, s3Cfg.SecretAccessKey, ""),
		))
	}
	if s3Cfg.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(s3Cfg.MaxRetries))
	}
	optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{
		Timeout: storageCfg.Timeout,
	}))

	return awsconfig.LoadDefaultConfig(context.Background(), optFns...)
}
