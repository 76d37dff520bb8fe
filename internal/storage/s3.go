package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures the S3 client. Endpoint and static keys are only needed for
// S3-compatible stores; AWS itself uses the default credential chain.
type Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Client uploads reports and serves s3:// document downloads.
type S3Client struct {
	client     *s3.Client
	uploader   uploader
	bucketName string
	prefix     string
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Client returns the underlying S3 client
func (s *S3Client) Client() *s3.Client { return s.client }

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucketName }

// ReportKey is the object key a report file name is stored under.
func (s *S3Client) ReportKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// UploadReport stores a report JSON document and returns its s3:// URL.
func (s *S3Client) UploadReport(ctx context.Context, name string, data []byte) (string, error) {
	if s.bucketName == "" {
		return "", fmt.Errorf("upload report: bucket not configured")
	}
	key := s.ReportKey(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"generator": "finfinder"},
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("UploadReport: upload failed")
		return "", fmt.Errorf("upload report: %w", err)
	}
	url := fmt.Sprintf("s3://%s/%s", s.bucketName, key)
	log.Info().Str("url", url).Int("size", len(data)).Msg("report uploaded")
	return url, nil
}

// HeadBucket checks that the bucket is reachable.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	if s.bucketName == "" {
		return fmt.Errorf("bucket not configured")
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}
