package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"searchlens/internal/config"
)

// ObjectGetter is the part of the S3 client the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from configuration. Static credentials are
// used when both keys are set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3UsePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// S3Source reads each dataset from one object in a bucket.
type S3Source struct {
	logger *slog.Logger
	client ObjectGetter
	bucket string
	keys   map[Kind]string
}

// NewS3Source creates a source reading keys from bucket.
func NewS3Source(logger *slog.Logger, client ObjectGetter, bucket string, keys map[Kind]string) *S3Source {
	return &S3Source{logger: logger, client: client, bucket: bucket, keys: keys}
}

// Describe returns the bucket URL.
func (s *S3Source) Describe() string {
	return "s3://" + s.bucket
}

// Fetch downloads and parses the object configured for kind.
func (s *S3Source) Fetch(ctx context.Context, kind Kind) (Payload, error) {
	key := s.keys[kind]
	notFound := &NotFoundError{Kind: kind, Searched: []string{key}, Directory: s.Describe()}
	if key == "" {
		notFound.Searched = []string{}
		return Payload{}, notFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return Payload{}, notFound
		}
		return Payload{}, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	rows, err := ReadRows(out.Body)
	if err != nil {
		return Payload{}, fmt.Errorf("parse s3://%s/%s: %w", s.bucket, key, err)
	}

	lastModified := time.Now().UTC()
	if out.LastModified != nil {
		lastModified = out.LastModified.UTC()
	}

	s.logger.Info("Loaded dataset",
		slog.String("dataset", string(kind)),
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.Int("rows", len(rows)))

	return Payload{
		Rows: rows,
		Metadata: Metadata{
			Source:       key,
			RecordCount:  len(rows),
			LastModified: lastModified,
		},
	}, nil
}
