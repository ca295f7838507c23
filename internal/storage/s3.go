package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultPresignExpiry is how long a signed narration URL stays valid.
const DefaultPresignExpiry = 15 * time.Minute

// ErrInvalidS3Address is returned for addresses that are not s3://bucket/key.
var ErrInvalidS3Address = errors.New("invalid s3 address")

// S3Config holds the configuration for S3 address signing.
type S3Config struct {
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
	Expiry          time.Duration
}

// S3Signer presigns read-only GET URLs so the render engine can fetch
// narration and background media kept in S3. It never writes objects.
type S3Signer struct {
	presign *s3.PresignClient
	expiry  time.Duration
}

// NewS3Signer creates a new S3Signer from cfg.
func NewS3Signer(ctx context.Context, cfg S3Config) (*S3Signer, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	return &S3Signer{
		presign: s3.NewPresignClient(s3.NewFromConfig(awsCfg, clientOpts...)),
		expiry:  expiry,
	}, nil
}

// PresignGet returns a time-limited HTTPS URL for an s3://bucket/key address.
func (s *S3Signer) PresignGet(ctx context.Context, address string) (string, error) {
	bucket, key, err := ParseS3Address(address)
	if err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// ParseS3Address splits s3://bucket/key into its bucket and key.
func ParseS3Address(address string) (bucket, key string, err error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidS3Address, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3Address, address)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: missing key in %q", ErrInvalidS3Address, address)
	}
	return u.Host, key, nil
}
