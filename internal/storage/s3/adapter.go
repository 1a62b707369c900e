// Package s3 implements the storage adapter: one method per exposed
// operation, each a thin forwarding call to the S3 client with light
// post-processing and value-level error collapsing.
//
// Return-shape conventions, which the hosting framework depends on:
//
//   - boolean mutators return false on any service error
//   - dictionary reads return a result struct or types.ErrorResult
//   - list reads return ([]T, error)
//   - GeneratePresignedURL returns a plain string, "Error: " prefixed on
//     failure
//
// No operation propagates a raw service error outside these shapes, and no
// state is held between calls beyond the memoized client handle.
package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"

	"github.com/s3bridge/s3bridge/internal/credentials"
	"github.com/s3bridge/s3bridge/internal/metrics"
	"github.com/s3bridge/s3bridge/pkg/types"
)

// ErrNoProvider is returned when the adapter is used without a credential
// provider and without an injected client.
var ErrNoProvider = errors.New("credential provider not configured")

// Adapter exposes S3 operations in the shapes the tool framework consumes.
// It is stateless apart from the lazily-built client handle.
type Adapter struct {
	provider credentials.Provider
	cfg      *Config
	logger   *slog.Logger
	metrics  *metrics.Collector

	initOnce sync.Once
	initErr  error
	api      API
	presign  Presigner

	// raw is set only when the adapter built a real client itself; the
	// accelerated upload path needs the concrete type.
	raw *s3.Client
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// WithMetrics attaches an operation metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Adapter) { a.metrics = c }
}

// WithClient injects a pre-built client and presigner, bypassing lazy
// construction. Used by tests and by callers that manage their own client.
func WithClient(api API, presign Presigner) Option {
	return func(a *Adapter) {
		a.api = api
		a.presign = presign
	}
}

// New creates an adapter. The client is not built until the first
// operation runs.
func New(provider credentials.Provider, cfg *Config, opts ...Option) *Adapter {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	a := &Adapter{
		provider: provider,
		cfg:      cfg,
		logger:   slog.Default().With("component", "s3-adapter"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ensure builds the client on first use. A failed initialization is
// remembered for the adapter's lifetime.
func (a *Adapter) ensure(ctx context.Context) error {
	a.initOnce.Do(func() {
		if a.api != nil {
			return
		}
		if a.provider == nil {
			a.initErr = ErrNoProvider
			return
		}
		creds, err := a.provider.Credentials(ctx)
		if err != nil {
			a.initErr = fmt.Errorf("failed to resolve credentials: %w", err)
			return
		}
		client, presign, err := newClient(ctx, creds, a.cfg)
		if err != nil {
			a.initErr = err
			return
		}
		a.raw = client
		a.api = client
		a.presign = presign
		a.logger.Info("storage client initialized", "region", creds.Region)
	})
	return a.initErr
}

func (a *Adapter) observe(operation string, start time.Time, failed bool) {
	if a.metrics != nil {
		a.metrics.RecordOperation(operation, time.Since(start), failed)
	}
}

// ListBuckets returns the names of all buckets visible to the credentials.
func (a *Adapter) ListBuckets(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := a.listBuckets(ctx)
	a.observe("list_buckets", start, err != nil)
	return names, err
}

func (a *Adapter) listBuckets(ctx context.Context) ([]string, error) {
	if err := a.ensure(ctx); err != nil {
		return nil, err
	}
	out, err := a.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// CreateBucket creates a bucket, optionally constrained to a region.
func (a *Adapter) CreateBucket(ctx context.Context, name, region string) bool {
	start := time.Now()
	err := a.createBucket(ctx, name, region)
	a.observe("create_bucket", start, err != nil)
	if err != nil {
		a.logger.Warn("create bucket failed", "bucket", name, "error", err)
		return false
	}
	return true
}

func (a *Adapter) createBucket(ctx context.Context, name, region string) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if region != "" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(region),
		}
	}
	_, err := a.api.CreateBucket(ctx, input)
	return err
}

// DeleteBucket deletes an empty bucket.
func (a *Adapter) DeleteBucket(ctx context.Context, name string) bool {
	start := time.Now()
	err := a.deleteBucket(ctx, name)
	a.observe("delete_bucket", start, err != nil)
	if err != nil {
		a.logger.Warn("delete bucket failed", "bucket", name, "error", err)
		return false
	}
	return true
}

func (a *Adapter) deleteBucket(ctx context.Context, name string) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	_, err := a.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)})
	return err
}

// GetBucketPolicy reads the bucket's access policy document, decoded from
// its JSON wire form.
func (a *Adapter) GetBucketPolicy(ctx context.Context, name string) interface{} {
	start := time.Now()
	policy, err := a.getBucketPolicy(ctx, name)
	a.observe("get_bucket_policy", start, err != nil)
	if err != nil {
		a.logger.Warn("get bucket policy failed", "bucket", name, "error", err)
		return types.ErrorResult{Error: err.Error()}
	}
	return policy
}

func (a *Adapter) getBucketPolicy(ctx context.Context, name string) (map[string]interface{}, error) {
	if err := a.ensure(ctx); err != nil {
		return nil, err
	}
	out, err := a.api.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: aws.String(name)})
	if err != nil {
		return nil, err
	}
	var policy map[string]interface{}
	if err := json.Unmarshal([]byte(aws.ToString(out.Policy)), &policy); err != nil {
		return nil, fmt.Errorf("failed to decode bucket policy: %w", err)
	}
	return policy, nil
}

// PutBucketPolicy writes the bucket's access policy document, serialized
// as JSON text.
func (a *Adapter) PutBucketPolicy(ctx context.Context, name string, policy map[string]interface{}) bool {
	start := time.Now()
	err := a.putBucketPolicy(ctx, name, policy)
	a.observe("put_bucket_policy", start, err != nil)
	if err != nil {
		a.logger.Warn("put bucket policy failed", "bucket", name, "error", err)
		return false
	}
	return true
}

func (a *Adapter) putBucketPolicy(ctx context.Context, name string, policy map[string]interface{}) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	doc, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	_, err = a.api.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(string(doc)),
	})
	return err
}

// ListPrefixes lists the immediate "folder" segments under a prefix using
// delimiter grouping, aggregating all pages before returning.
func (a *Adapter) ListPrefixes(ctx context.Context, bucket, prefix string) ([]string, error) {
	start := time.Now()
	prefixes, err := a.listPrefixes(ctx, bucket, prefix)
	a.observe("list_prefixes", start, err != nil)
	return prefixes, err
}

func (a *Adapter) listPrefixes(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := a.ensure(ctx); err != nil {
		return nil, err
	}
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Delimiter: aws.String("/"),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var prefixes []string
	paginator := s3.NewListObjectsV2Paginator(a.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list prefixes: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(cp.Prefix))
		}
	}
	return prefixes, nil
}

// PutPrefix creates a zero-byte folder-marker object whose key ends in "/".
func (a *Adapter) PutPrefix(ctx context.Context, bucket, name, parent string) bool {
	start := time.Now()
	err := a.putPrefix(ctx, bucket, name, parent)
	a.observe("put_prefix", start, err != nil)
	if err != nil {
		a.logger.Warn("put prefix failed", "bucket", bucket, "prefix", name, "error", err)
		return false
	}
	return true
}

func (a *Adapter) putPrefix(ctx context.Context, bucket, name, parent string) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(prefixKey(parent, name)),
	})
	return err
}

// ListObjects returns all non-folder-marker objects under a prefix,
// paginating internally.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string) ([]types.ObjectSummary, error) {
	start := time.Now()
	objects, err := a.listObjects(ctx, bucket, prefix)
	a.observe("list_objects", start, err != nil)
	return objects, err
}

func (a *Adapter) listObjects(ctx context.Context, bucket, prefix string) ([]types.ObjectSummary, error) {
	if err := a.ensure(ctx); err != nil {
		return nil, err
	}
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	var objects []types.ObjectSummary
	paginator := s3.NewListObjectsV2Paginator(a.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, types.ObjectSummary{
				Key:          key,
				Name:         displayName(key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: formatTime(aws.ToTime(obj.LastModified)),
			})
		}
	}
	return objects, nil
}

// SearchObjects filters the listing client-side: case-insensitive substring
// match on the display name and inclusive size bounds. Listing order is
// preserved; cost scales with the number of objects under the prefix.
func (a *Adapter) SearchObjects(ctx context.Context, bucket, prefix, namePattern string, minSize, maxSize *int64) ([]types.ObjectSummary, error) {
	start := time.Now()
	matches, err := a.searchObjects(ctx, bucket, prefix, namePattern, minSize, maxSize)
	a.observe("search_objects", start, err != nil)
	return matches, err
}

func (a *Adapter) searchObjects(ctx context.Context, bucket, prefix, namePattern string, minSize, maxSize *int64) ([]types.ObjectSummary, error) {
	objects, err := a.listObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	pattern := strings.ToLower(namePattern)
	matches := make([]types.ObjectSummary, 0, len(objects))
	for _, obj := range objects {
		if pattern != "" && !strings.Contains(strings.ToLower(obj.Name), pattern) {
			continue
		}
		if minSize != nil && obj.Size < *minSize {
			continue
		}
		if maxSize != nil && obj.Size > *maxSize {
			continue
		}
		matches = append(matches, obj)
	}
	return matches, nil
}

// GetBucketSize sums object sizes and counts under a bucket or prefix.
func (a *Adapter) GetBucketSize(ctx context.Context, bucket, prefix string) (types.BucketSize, error) {
	start := time.Now()
	size, err := a.getBucketSize(ctx, bucket, prefix)
	a.observe("get_bucket_size", start, err != nil)
	return size, err
}

func (a *Adapter) getBucketSize(ctx context.Context, bucket, prefix string) (types.BucketSize, error) {
	objects, err := a.listObjects(ctx, bucket, prefix)
	if err != nil {
		return types.BucketSize{}, err
	}
	var total int64
	for _, obj := range objects {
		total += obj.Size
	}
	return types.BucketSize{
		TotalSizeBytes:    total,
		HumanReadableSize: humanSize(total),
		ObjectCount:       len(objects),
	}, nil
}

// PutObject writes UTF-8 text content at the key composed from prefix and
// name.
func (a *Adapter) PutObject(ctx context.Context, bucket, prefix, name, content string) bool {
	start := time.Now()
	err := a.putObjectBytes(ctx, bucket, objectKey(prefix, name), []byte(content))
	a.observe("put_object", start, err != nil)
	if err != nil {
		a.logger.Warn("put object failed", "bucket", bucket, "key", objectKey(prefix, name), "error", err)
		return false
	}
	return true
}

// PutObjectFromBase64 decodes a base64 payload and writes the binary
// content. Decode failure collapses to false like any write failure.
func (a *Adapter) PutObjectFromBase64(ctx context.Context, bucket, prefix, name, base64Content string) bool {
	start := time.Now()
	ok := func() bool {
		data, err := base64.StdEncoding.DecodeString(base64Content)
		if err != nil {
			a.logger.Warn("base64 decode failed", "bucket", bucket, "object", name, "error", err)
			return false
		}
		if err := a.putObjectBytes(ctx, bucket, objectKey(prefix, name), data); err != nil {
			a.logger.Warn("put object failed", "bucket", bucket, "key", objectKey(prefix, name), "error", err)
			return false
		}
		return true
	}()
	a.observe("put_object_from_base64", start, !ok)
	return ok
}

func (a *Adapter) putObjectBytes(ctx context.Context, bucket, key string, data []byte) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}

	// Accelerated path first; any transporter failure falls back to the
	// plain client call.
	if a.accelerated(int64(len(data))) {
		transporter := newTransporter(a.raw, bucket, a.cfg, a.logger)
		archive := cargoships3.Archive{
			Key:    key,
			Reader: bytes.NewReader(data),
			Size:   int64(len(data)),
		}
		if result, err := transporter.Upload(ctx, archive); err == nil {
			a.logger.Debug("accelerated upload completed",
				"bucket", bucket,
				"key", key,
				"size", len(data),
				"duration", result.Duration)
			return nil
		} else {
			a.logger.Warn("accelerated upload failed, falling back", "key", key, "error", err)
		}
	}

	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

func (a *Adapter) accelerated(size int64) bool {
	return a.cfg.EnableAcceleratedUpload && a.raw != nil && size >= a.cfg.AcceleratedUploadThreshold
}

// GetObjectContent fetches the full object body. Keys with a known text
// extension decode to UTF-8 text; everything else is base64-encoded.
func (a *Adapter) GetObjectContent(ctx context.Context, bucket, key string) interface{} {
	start := time.Now()
	content, err := a.getObjectContent(ctx, bucket, key)
	a.observe("get_object_content", start, err != nil)
	if err != nil {
		a.logger.Warn("get object content failed", "bucket", bucket, "key", key, "error", err)
		return types.ErrorResult{Error: err.Error()}
	}
	return content
}

func (a *Adapter) getObjectContent(ctx context.Context, bucket, key string) (types.ObjectContent, error) {
	if err := a.ensure(ctx); err != nil {
		return types.ObjectContent{}, err
	}
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return types.ObjectContent{}, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return types.ObjectContent{}, fmt.Errorf("failed to read object body: %w", err)
	}

	content := types.ObjectContent{
		Name: displayName(key),
		Size: int64(len(data)),
	}
	if isTextKey(key) {
		content.ContentType = "text"
		content.Content = string(data)
	} else {
		content.ContentType = "binary"
		content.ContentBase64 = base64.StdEncoding.EncodeToString(data)
	}
	return content, nil
}

// GetObjectMetadata fetches object metadata without downloading the body.
func (a *Adapter) GetObjectMetadata(ctx context.Context, bucket, key string) interface{} {
	start := time.Now()
	meta, err := a.getObjectMetadata(ctx, bucket, key)
	a.observe("get_object_metadata", start, err != nil)
	if err != nil {
		a.logger.Warn("get object metadata failed", "bucket", bucket, "key", key, "error", err)
		return types.ErrorResult{Error: err.Error()}
	}
	return meta
}

func (a *Adapter) getObjectMetadata(ctx context.Context, bucket, key string) (types.ObjectMetadata, error) {
	if err := a.ensure(ctx); err != nil {
		return types.ObjectMetadata{}, err
	}
	out, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return types.ObjectMetadata{}, err
	}

	meta := types.ObjectMetadata{
		Key:          key,
		Name:         displayName(key),
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: formatTime(aws.ToTime(out.LastModified)),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		Metadata:     make(map[string]string, len(out.Metadata)),
	}
	for k, v := range out.Metadata {
		meta.Metadata[k] = v
	}
	return meta, nil
}

// CopyObject performs a server-side copy.
func (a *Adapter) CopyObject(ctx context.Context, sourceBucket, sourceKey, destBucket, destKey string) bool {
	start := time.Now()
	err := a.copyObject(ctx, sourceBucket, sourceKey, destBucket, destKey)
	a.observe("copy_object", start, err != nil)
	if err != nil {
		a.logger.Warn("copy object failed",
			"source_bucket", sourceBucket,
			"source_key", sourceKey,
			"dest_bucket", destBucket,
			"dest_key", destKey,
			"error", err)
		return false
	}
	return true
}

func (a *Adapter) copyObject(ctx context.Context, sourceBucket, sourceKey, destBucket, destKey string) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	_, err := a.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(destBucket),
		Key:        aws.String(destKey),
		CopySource: aws.String(fmt.Sprintf("%s/%s", sourceBucket, sourceKey)),
	})
	return err
}

// MoveObject copies the object then deletes the source. It succeeds only
// when both steps succeed. A copy success followed by a delete failure is
// not rolled back; the object ends up present at both locations.
func (a *Adapter) MoveObject(ctx context.Context, sourceBucket, sourceKey, destBucket, destKey string) bool {
	if !a.CopyObject(ctx, sourceBucket, sourceKey, destBucket, destKey) {
		return false
	}
	return a.DeleteObject(ctx, sourceBucket, sourceKey)
}

// DeleteObject deletes a single object.
func (a *Adapter) DeleteObject(ctx context.Context, bucket, key string) bool {
	start := time.Now()
	err := a.deleteObject(ctx, bucket, key)
	a.observe("delete_object", start, err != nil)
	if err != nil {
		a.logger.Warn("delete object failed", "bucket", bucket, "key", key, "error", err)
		return false
	}
	return true
}

func (a *Adapter) deleteObject(ctx context.Context, bucket, key string) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	_, err := a.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// DeleteObjects performs one batch delete call and partitions the response
// into deleted keys and per-object errors. Ordering and atomicity across
// the key list are whatever the storage service provides.
func (a *Adapter) DeleteObjects(ctx context.Context, bucket string, keys []string) interface{} {
	start := time.Now()
	result, err := a.deleteObjects(ctx, bucket, keys)
	a.observe("delete_objects", start, err != nil)
	if err != nil {
		a.logger.Warn("delete objects failed", "bucket", bucket, "count", len(keys), "error", err)
		return types.ErrorResult{Error: err.Error()}
	}
	return result
}

func (a *Adapter) deleteObjects(ctx context.Context, bucket string, keys []string) (types.BatchDeleteResult, error) {
	if err := a.ensure(ctx); err != nil {
		return types.BatchDeleteResult{}, err
	}

	identifiers := make([]s3types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		identifiers = append(identifiers, s3types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := a.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3types.Delete{
			Objects: identifiers,
			Quiet:   aws.Bool(false),
		},
	})
	if err != nil {
		return types.BatchDeleteResult{}, err
	}

	result := types.BatchDeleteResult{
		Deleted: make([]string, 0, len(out.Deleted)),
		Errors:  make([]types.BatchDeleteError, 0, len(out.Errors)),
	}
	for _, obj := range out.Deleted {
		result.Deleted = append(result.Deleted, aws.ToString(obj.Key))
	}
	for _, e := range out.Errors {
		result.Errors = append(result.Errors, types.BatchDeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
	return result, nil
}

// GeneratePresignedURL returns a signed URL for the object. GET, PUT and
// DELETE map to the matching presign operation; any other method falls back
// to GET. This is the one operation that reports failure as a plain
// "Error: " prefixed string.
func (a *Adapter) GeneratePresignedURL(ctx context.Context, bucket, key string, expiration time.Duration, method string) string {
	start := time.Now()
	url, err := a.generatePresignedURL(ctx, bucket, key, expiration, method)
	a.observe("generate_presigned_url", start, err != nil)
	if err != nil {
		a.logger.Warn("presign failed", "bucket", bucket, "key", key, "method", method, "error", err)
		return "Error: " + err.Error()
	}
	return url
}

func (a *Adapter) generatePresignedURL(ctx context.Context, bucket, key string, expiration time.Duration, method string) (string, error) {
	if err := a.ensure(ctx); err != nil {
		return "", err
	}

	expire := s3.WithPresignExpires(expiration)

	switch strings.ToUpper(method) {
	case "PUT":
		req, err := a.presign.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, expire)
		if err != nil {
			return "", err
		}
		return req.URL, nil
	case "DELETE":
		req, err := a.presign.PresignDeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, expire)
		if err != nil {
			return "", err
		}
		return req.URL, nil
	default:
		req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, expire)
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
