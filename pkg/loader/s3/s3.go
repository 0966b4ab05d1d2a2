// Package s3 loads source files from an Amazon S3 or S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/wayfind-ai/wayfind/pkg/loader"
)

// S3FileLoader is a FileLoader implementation that loads file contents from
// an S3 bucket, using the file's Path as the object key.
type S3FileLoader struct {
	bucket string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3FileLoaderWithClient creates a loader from an existing s3.Client.
func NewS3FileLoaderWithClient(bucket string, client *s3.Client) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3FileLoaderParams defines the configuration for a new S3FileLoader.
// Endpoint allows overriding the S3 endpoint for S3-compatible storage
// like MinIO.
type NewS3FileLoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3FileLoader creates a loader with a static-credentials S3 client.
func NewS3FileLoader(ctx context.Context, params NewS3FileLoaderParams) (*S3FileLoader, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(params.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(params.AccessKey, params.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if params.Endpoint != "" {
			o.BaseEndpoint = aws.String(params.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3FileLoaderWithClient(params.Bucket, client), nil
}

// GetFileText downloads the object content. Results are cached.
func (l *S3FileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		obj, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.Path),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get s3 object: %w", err)
		}
		defer obj.Body.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, obj.Body); err != nil {
			return nil, fmt.Errorf("failed to read s3 object: %w", err)
		}
		content := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[key] = content
		l.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
