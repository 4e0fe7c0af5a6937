package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/retry"
)

const latestName = "latest.json"

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies run reports to an S3 bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	retry  retry.RetryConfig
	logger *slog.Logger
}

func New(ctx context.Context, cfg config.S3Config, rc retry.RetryConfig, logger *slog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, rc, logger), nil
}

func NewWithClient(client PutObjectAPI, bucket, prefix string, rc retry.RetryConfig, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		retry:  rc,
		logger: logger.With("component", "archive"),
	}
}

// UploadReport stores data under prefix/name and refreshes prefix/latest.json.
// It returns the key of the named copy.
func (u *Uploader) UploadReport(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New("report name is empty")
	}
	key := u.prefix + name
	if err := u.put(ctx, key, data); err != nil {
		return "", err
	}
	if err := u.put(ctx, u.prefix+latestName, data); err != nil {
		return key, err
	}
	u.logger.Info("report archived", "bucket", u.bucket, "key", key, "bytes", len(data))
	return key, nil
}

func (u *Uploader) put(ctx context.Context, key string, data []byte) error {
	return retry.WithRetry(ctx, u.retry, func() error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload object to S3: %w", err)
		}
		return nil
	})
}
