package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
)

// S3Config configures the S3 client. Empty fields fall back to the AWS
// default chain (environment, shared config, instance role).
type S3Config struct {
	Region          string
	Endpoint        string // custom endpoint for MinIO and other S3-compatible stores
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3 publishes artifacts to an S3 bucket.
type S3 struct {
	client *s3.Client
	target Target
	logger *log.Logger
}

var _ Publisher = (*S3)(nil)

// NewS3 builds a publisher for target.
func NewS3(ctx context.Context, target Target, cfg S3Config, logger *log.Logger) (*S3, error) {
	if target.Bucket == "" {
		return nil, errors.New("publish: missing bucket")
	}
	if logger == nil {
		logger = log.Default()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &S3{client: client, target: target, logger: logger}, nil
}

// Publish uploads data as name under the target prefix and returns its
// s3:// location.
func (p *S3) Publish(ctx context.Context, name string, data []byte) (string, error) {
	key := p.target.Key(name)
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.target.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType(name)),
	})
	if err != nil {
		return "", err
	}
	loc := "s3://" + p.target.Bucket + "/" + strings.TrimPrefix(key, "/")
	p.logger.Debug("published", "location", loc, "bytes", len(data))
	return loc, nil
}
