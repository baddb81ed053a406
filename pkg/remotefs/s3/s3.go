// Package s3 exposes S3 buckets as shares. A location s3://bucket/a/b.mkv
// addresses object key "a/b.mkv"; "directories" are key prefixes ending in
// "/", listed with a "/" delimiter.
package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// API is the subset of the S3 client used here.
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config configures the S3 backend.
type Config struct {
	// Region defaults to us-east-1.
	Region string

	// Endpoint overrides the service endpoint (Localstack, MinIO, Ceph).
	Endpoint string

	// UsePathStyle addresses buckets as endpoint/bucket instead of
	// bucket.endpoint. Required by most S3-compatible servers.
	UsePathStyle bool

	// AccessKey and SecretKey are used when the request carries no
	// credentials. When both are empty the default AWS chain applies.
	AccessKey string
	SecretKey string
}

// Backend is a remotefs.Backend for S3.
type Backend struct {
	cfg   Config
	retry retryConfig

	mu        sync.Mutex
	defaultFn func(ctx context.Context) (API, error)
	shared    API
}

// New returns a backend building SDK clients from cfg.
func New(cfg Config) *Backend {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &Backend{cfg: cfg, retry: defaultRetry}
}

// NewWithClient returns a backend that uses api for every session
// regardless of credentials.
func NewWithClient(api API) *Backend {
	return &Backend{retry: defaultRetry, shared: api}
}

func (b *Backend) Scheme() string { return remotefs.SchemeS3 }

// Connect returns a session for the bucket named by loc.Host. Non-anonymous
// credentials are used as an access key (User) and secret key (Password).
func (b *Backend) Connect(ctx context.Context, loc remotefs.Location, creds remotefs.Credentials) (remotefs.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	api, err := b.client(ctx, creds)
	if err != nil {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "connect", loc.String(), err)
	}
	return &session{api: api, bucket: loc.Host, retry: b.retry}, nil
}

func (b *Backend) client(ctx context.Context, creds remotefs.Credentials) (API, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shared != nil {
		return b.shared, nil
	}

	accessKey, secretKey := b.cfg.AccessKey, b.cfg.SecretKey
	perRequest := !creds.IsAnonymous() && creds.User != ""
	if perRequest {
		accessKey, secretKey = creds.User, creds.Password
	}

	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(b.cfg.Region)}
	if accessKey != "" || secretKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if b.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(b.cfg.Endpoint)
		}
		o.UsePathStyle = b.cfg.UsePathStyle
	})
	if perRequest {
		return client, nil
	}
	b.shared = client
	return client, nil
}

type session struct {
	api    API
	bucket string
	retry  retryConfig
}

// objectKey converts a location path to an object key.
func objectKey(p string) string {
	return strings.TrimPrefix(p, "/")
}

func (s *session) Stat(ctx context.Context, loc remotefs.Location) (remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if loc.IsRoot() {
		_, err := withRetry(ctx, s.retry, "HeadBucket", s.bucket, func() (*s3.HeadBucketOutput, error) {
			return s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
		})
		if err != nil {
			return nil, translateError("stat", loc.Path, err)
		}
		return s.dir(loc), nil
	}

	key := objectKey(loc.Path)
	if !loc.IsDirPath() {
		head, err := withRetry(ctx, s.retry, "HeadObject", key, func() (*s3.HeadObjectOutput, error) {
			return s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		})
		if err == nil {
			return &object{
				session: s,
				loc:     loc,
				key:     key,
				size:    aws.ToInt64(head.ContentLength),
				modTime: aws.ToTime(head.LastModified),
			}, nil
		}
		if !isNotFoundError(err) {
			return nil, translateError("stat", loc.Path, err)
		}
	}

	// No object under that exact key: it may still be a prefix.
	ok, err := s.prefixExists(ctx, strings.TrimSuffix(key, "/")+"/")
	if err != nil {
		return nil, translateError("stat", loc.Path, err)
	}
	if !ok {
		return nil, remotefs.NewError(remotefs.ErrCodeNotFound, "stat", loc.Path, nil)
	}
	return s.dir(loc.AsDir()), nil
}

func (s *session) prefixExists(ctx context.Context, prefix string) (bool, error) {
	out, err := withRetry(ctx, s.retry, "ListObjectsV2", prefix, func() (*s3.ListObjectsV2Output, error) {
		return s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:    aws.String(s.bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
			MaxKeys:   aws.Int32(1),
		})
	})
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (s *session) dir(loc remotefs.Location) *prefix {
	return &prefix{session: s, loc: loc}
}

func (s *session) Close() error { return nil }
