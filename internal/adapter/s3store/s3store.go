// Package s3store keeps bot state as objects in an S3-compatible bucket, for
// deployments without a persistent disk.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
)

const (
	contentType = "text/plain; charset=utf-8"
	// appendAttempts bounds the read-modify-write loop when another writer
	// changes the object between our read and our conditional put.
	appendAttempts = 3
)

// Config holds configuration for the S3 client.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string // default: us-east-1
	Endpoint  string // custom endpoint for S3-compatible storage (MinIO, R2)
	AccessKey string // optional, uses the default credential chain if empty
	SecretKey string
}

type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Client shares one S3 client between the marker and ledger stores.
type Client struct {
	api    objectAPI
	bucket string
	prefix string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	slog.Info("S3 state client initialized", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return &Client{api: s3.NewFromConfig(awsCfg, s3Opts...), bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Store returns the state store for the object called name.
func (c *Client) Store(name string) *Store {
	return &Store{client: c, key: c.fullKey(name)}
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return strings.TrimSuffix(c.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// Store is a domain.StateStore backed by one object.
type Store struct {
	client *Client
	key    string
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Read(ctx context.Context) ([]byte, error) {
	data, _, err := s.get(ctx)
	return data, err
}

func (s *Store) Write(ctx context.Context, data []byte) error {
	return s.put(ctx, data, nil, false)
}

// Append rewrites the object with data added, guarded by If-Match on the
// ETag that was read (or If-None-Match when the object did not exist).
func (s *Store) Append(ctx context.Context, data []byte) error {
	var lastErr error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		current, etag, err := s.get(ctx)
		absent := errors.Is(err, domain.ErrStateAbsent)
		if err != nil && !absent {
			return err
		}

		err = s.put(ctx, append(current, data...), etag, absent)
		if err == nil {
			return nil
		}
		if !isPreconditionFailed(err) {
			return err
		}
		lastErr = err
		slog.DebugContext(ctx, "S3 append raced with another writer, retrying", "key", s.key, "attempt", attempt+1)
	}
	return fmt.Errorf("append to %s failed after %d attempts: %w", s.key, appendAttempts, lastErr)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) get(ctx context.Context) ([]byte, *string, error) {
	out, err := s.client.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.client.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, domain.ErrStateAbsent
		}
		return nil, nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.client.bucket, s.key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.client.bucket, s.key, err)
	}
	return data, out.ETag, nil
}

func (s *Store) put(ctx context.Context, data []byte, ifMatch *string, ifNoneMatch bool) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.client.bucket),
		Key:         aws.String(s.key),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String(contentType),
	}
	if ifMatch != nil {
		in.IfMatch = ifMatch
	}
	if ifNoneMatch {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.client.bucket, s.key, err)
	}
	return nil
}

type apiError interface {
	ErrorCode() string
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var api apiError
	return errors.As(err, &api) && (api.ErrorCode() == "NoSuchKey" || api.ErrorCode() == "NotFound")
}

func isPreconditionFailed(err error) bool {
	var api apiError
	return errors.As(err, &api) && (api.ErrorCode() == "PreconditionFailed" || api.ErrorCode() == "ConditionalRequestConflict")
}

var (
	_ domain.StateStore    = (*Store)(nil)
	_ domain.HealthChecker = (*Store)(nil)
)
