// Package s3 provides an S3-backed blob store implementation.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kyberchat/kyberchat/internal/telemetry"
	"github.com/kyberchat/kyberchat/pkg/blob"
)

// Config holds the settings for the S3 blob store.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region overrides the SDK's default region resolution when set.
	Region string

	// Endpoint points the client at an S3-compatible service; empty means
	// real AWS.
	Endpoint string

	// KeyPrefix is prepended to every blob name (e.g. "attachments/") and
	// should end with "/" when non-empty.
	KeyPrefix string

	// ForcePathStyle switches to path-style addressing, which Localstack
	// and MinIO require.
	ForcePathStyle bool
}

// Store keeps encrypted attachments in an S3 bucket. It implements
// blob.Store.
type Store struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	closed    bool
	mu        sync.RWMutex
}

// New wraps an existing S3 client.
func New(client *s3.Client, config Config) *Store {
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
	}
}

// NewFromConfig builds the client itself, with credentials from the SDK's
// default chain (environment, shared config, instance role).
func NewFromConfig(ctx context.Context, config Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.ForcePathStyle
	})

	return New(client, config), nil
}

// fullKey maps a blob name onto its S3 object key.
func (s *Store) fullKey(name string) string {
	return s.keyPrefix + name
}

// validName rejects names that would change the object's place in the key
// hierarchy. S3 has no path traversal, but a name with separators would
// land outside the configured prefix's flat namespace.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// guard rejects operations on a closed store or with an unusable name.
func (s *Store) guard(name string) error {
	if s.isClosed() {
		return blob.ErrStoreClosed
	}
	if !validName(name) {
		return blob.ErrInvalidName
	}
	return nil
}

// Put stores a blob under the given name, replacing any existing object.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	ctx, span := telemetry.StartBlobSpan(ctx, "put", name,
		telemetry.BlobSize(len(data)),
		telemetry.Bucket(s.bucket),
		telemetry.StoreType("s3"))
	defer span.End()

	if err := s.guard(name); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Get retrieves a complete blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	ctx, span := telemetry.StartBlobSpan(ctx, "get", name,
		telemetry.Bucket(s.bucket),
		telemetry.StoreType("s3"))
	defer span.End()

	if err := s.guard(name); err != nil {
		return nil, err
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blob.ErrBlobNotFound
		}
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("read s3 object body: %w", err)
	}
	return data, nil
}

// Delete removes a blob. S3 DeleteObject is a no-op for missing keys,
// which matches the interface contract.
func (s *Store) Delete(ctx context.Context, name string) error {
	ctx, span := telemetry.StartBlobSpan(ctx, "delete", name,
		telemetry.Bucket(s.bucket),
		telemetry.StoreType("s3"))
	defer span.End()

	if err := s.guard(name); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(name)),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// Close marks the store as closed; the S3 client itself holds no
// resources worth releasing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HealthCheck issues a HeadBucket to verify connectivity and permissions.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.isClosed() {
		return blob.ErrStoreClosed
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

// isNotFound recognizes the object-missing shapes the SDK produces:
// GetObject returns NoSuchKey, Head calls return NotFound, and some
// S3-compatible services only set the API error code.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	return false
}

// Ensure Store implements blob.Store.
var _ blob.Store = (*Store)(nil)
