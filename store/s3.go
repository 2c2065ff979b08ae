package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config contains minimal configuration for creating an S3 client.
// Values are optional and fall back to the standard AWS config/credential chain.
type S3Config struct {
	// Region to use for requests, e.g. "us-east-1". If empty, AWS defaults apply.
	Region string
	// UsePathStyle forces path-style addressing (useful for S3-compatible providers).
	UsePathStyle bool
}

// S3 wraps the AWS SDK for Go v2 S3 client with a narrow interface we can mock.
type S3 struct {
	client *s3.Client
}

// NewS3 creates a new S3 wrapper using the default AWS configuration chain,
// with optional overrides from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: c}, nil
}

// Put uploads an object to the given bucket/key.
func (s *S3) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	_, err := s.client.PutObject(ctx, in)
	return err
}

// Get fetches an object and returns its streaming body. Caller must Close it.
func (s *S3) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Exists returns true if the object exists; false on 404/NotFound.
func (s *S3) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, err
}

// ObjectPutter is the slice of S3 the artifact store needs.
type ObjectPutter interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// ArtifactStore persists pipeline outputs (script JSON, caption files) to an
// object store under a common prefix.
type ArtifactStore struct {
	s3     ObjectPutter
	bucket string
	prefix string
}

// NewArtifactStore wraps an object store for a bucket and key prefix.
func NewArtifactStore(s3 ObjectPutter, bucket, prefix string) *ArtifactStore {
	return &ArtifactStore{s3: s3, bucket: bucket, prefix: prefix}
}

// PutJSON marshals v and stores it under <prefix>/<jobID>/<name>.json.
func (a *ArtifactStore) PutJSON(ctx context.Context, jobID, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact %s: %w", name, err)
	}

	key := a.key(jobID, name+".json")
	if err := a.s3.Put(ctx, a.bucket, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	return key, nil
}

// PutText stores raw text (an SRT caption file, a flat script) under
// <prefix>/<jobID>/<name>.
func (a *ArtifactStore) PutText(ctx context.Context, jobID, name, text string) (string, error) {
	key := a.key(jobID, name)
	if err := a.s3.Put(ctx, a.bucket, key, bytes.NewReader([]byte(text)), "text/plain; charset=utf-8"); err != nil {
		return "", fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	return key, nil
}

func (a *ArtifactStore) key(jobID, name string) string {
	return path.Join(a.prefix, jobID, name)
}
