package imagesource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/reaperdwarf/moover/internal/scanning"
	"github.com/reaperdwarf/moover/internal/ticket"
)

// S3Config holds connection settings. Empty keys use the default AWS
// credential chain; Endpoint selects an S3-compatible server.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Client fetches ticket images from S3 buckets
type S3Client struct {
	client *s3.Client
}

// NewS3Client creates an S3Client from cfg
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Client{client: s3.NewFromConfig(awsCfg, s3Opts...)}, nil
}

// Object returns an image source for one object
func (c *S3Client) Object(bucket, key string) *S3Object {
	return &S3Object{client: c.client, bucket: bucket, key: key}
}

// S3Object is an ImageSource backed by a single S3 object
type S3Object struct {
	client *s3.Client
	bucket string
	key    string
}

// GetImage downloads the object. The stored Content-Type is used unless it is
// missing or generic, in which case the key's extension decides.
func (o *S3Object) GetImage(ctx context.Context) (ticket.RawImage, error) {
	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return ticket.RawImage{}, fmt.Errorf("s3 download: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return ticket.RawImage{}, fmt.Errorf("s3 download read: %w", err)
	}

	return ticket.RawImage{
		Data:        data,
		ContentType: scanning.NormalizeContentType(aws.ToString(result.ContentType), o.key),
	}, nil
}

func (o *S3Object) String() string {
	return "s3://" + o.bucket + "/" + o.key
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q needs a bucket and a key", uri)
	}
	return bucket, key, nil
}

// IsS3URI reports whether arg names an S3 object
func IsS3URI(arg string) bool {
	return strings.HasPrefix(arg, "s3://")
}
