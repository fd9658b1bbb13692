// Package storage reads and archives reference catalog datasets kept in
// S3-compatible object storage (AWS S3, MinIO, RustFS).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// URIScheme prefixes dataset locations stored in S3
const URIScheme = "s3://"

// s3API is the subset of *s3.Client the dataset source uses
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3DatasetSource opens dataset files from a bucket
type S3DatasetSource struct {
	client s3API
	bucket string
	logger *zap.Logger
}

// S3DatasetSourceOption is a functional option for configuring S3DatasetSource
type S3DatasetSourceOption func(*S3DatasetSource)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3DatasetSourceOption {
	return func(s *S3DatasetSource) {
		s.logger = logger
	}
}

// NewS3DatasetSource creates a source from configuration. Without static
// keys the default AWS credential chain is used.
func NewS3DatasetSource(ctx context.Context, cfg *config.StorageConfig, opts ...S3DatasetSourceOption) (*S3DatasetSource, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3DatasetSource(client, cfg.Bucket, opts...), nil
}

func newS3DatasetSource(client s3API, bucket string, opts ...S3DatasetSourceOption) *S3DatasetSource {
	s := &S3DatasetSource{client: client, bucket: bucket, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseURI splits "s3://bucket/key" into bucket and key. A location
// without the scheme is a key in the default bucket.
func (s *S3DatasetSource) ParseURI(location string) (bucket, key string, err error) {
	if !strings.HasPrefix(location, URIScheme) {
		key = strings.TrimPrefix(location, "/")
		if key == "" {
			return "", "", errors.New("storage key is required")
		}
		return s.bucket, key, nil
	}
	rest := strings.TrimPrefix(location, URIScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q", location)
	}
	return bucket, key, nil
}

// Open streams an object. The caller closes the reader.
func (s *S3DatasetSource) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := s.ParseURI(location)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("dataset %s not found in bucket %s", key, bucket)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	s.logger.Info("Opened dataset object", zap.String("bucket", bucket), zap.String("key", key))
	return out.Body, nil
}

// ObjectExists checks if an object exists
func (s *S3DatasetSource) ObjectExists(ctx context.Context, location string) (bool, error) {
	bucket, key, err := s.ParseURI(location)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// EnsureBucket creates the default bucket if it doesn't exist
func (s *S3DatasetSource) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating dataset bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive stores an imported dataset under datasets/<version>/<name> and
// returns its location
func (s *S3DatasetSource) Archive(ctx context.Context, version, name string, data []byte, contentType string) (string, error) {
	if version == "" || name == "" {
		return "", errors.New("dataset version and file name are required")
	}
	key := "datasets/" + version + "/" + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return URIScheme + s.bucket + "/" + key, nil
}

// Bucket returns the default bucket name
func (s *S3DatasetSource) Bucket() string {
	return s.bucket
}
