package registry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/hacluster/internal/config"
)

// ObjectGetter is the part of the S3 API the registry uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Client reads node documents stored as {prefix}nodes/{name}.json.
type S3Client struct {
	api    ObjectGetter
	bucket string
	prefix string
}

// NewS3Client creates an S3 registry client using the default AWS
// credential chain.
func NewS3Client(ctx context.Context, cfg config.RegistryConfig) (*S3Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.URL != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.URL)
			o.UsePathStyle = true
		})
	}

	return NewS3ClientWithAPI(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3ClientWithAPI creates an S3 registry client on an existing API.
func NewS3ClientWithAPI(api ObjectGetter, bucket, prefix string) *S3Client {
	return &S3Client{api: api, bucket: bucket, prefix: prefix}
}

// Exists implements Client.
func (c *S3Client) Exists(ctx context.Context, name string) (bool, error) {
	key := c.key(name)
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read node document s3://%s/%s: %w", c.bucket, key, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxNodeDocumentSize))
	if err != nil {
		return false, fmt.Errorf("failed to read node document s3://%s/%s: %w", c.bucket, key, err)
	}
	return decodeNode(name, body)
}

func (c *S3Client) key(name string) string {
	return fmt.Sprintf("%snodes/%s.json", c.prefix, name)
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}

	return false
}
