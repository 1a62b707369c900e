package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeObject is one stored object in the in-memory service.
type fakeObject struct {
	data         []byte
	lastModified time.Time
	contentType  string
}

// fakeS3 is an in-memory stand-in for the storage service. Individual
// calls can be made to fail by name through the fail map.
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]map[string]fakeObject
	policies map[string]string
	fail     map[string]error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		buckets:  make(map[string]map[string]fakeObject),
		policies: make(map[string]string),
		fail:     make(map[string]error),
	}
}

func (f *fakeS3) failOn(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = fmt.Errorf("injected %s failure", method)
}

func (f *fakeS3) failure(method string) error {
	return f.fail[method]
}

func (f *fakeS3) addBucket(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[name]; !ok {
		f.buckets[name] = make(map[string]fakeObject)
	}
}

func (f *fakeS3) addObject(bucket, key string, data []byte) {
	f.addBucket(bucket)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket][key] = fakeObject{
		data:         data,
		lastModified: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		contentType:  "application/octet-stream",
	}
}

func (f *fakeS3) object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects, ok := f.buckets[bucket]
	if !ok {
		return nil, false
	}
	obj, ok := objects[key]
	return obj.data, ok
}

func (f *fakeS3) sortedKeys(bucket string) []string {
	keys := make([]string, 0, len(f.buckets[bucket]))
	for key := range f.buckets[bucket] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeS3) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("ListBuckets"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.buckets))
	for name := range f.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("CreateBucket"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.Bucket)
	if _, exists := f.buckets[name]; exists {
		return nil, fmt.Errorf("bucket %s already exists", name)
	}
	f.buckets[name] = make(map[string]fakeObject)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) DeleteBucket(_ context.Context, params *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("DeleteBucket"); err != nil {
		return nil, err
	}
	name := aws.ToString(params.Bucket)
	objects, exists := f.buckets[name]
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", name)
	}
	if len(objects) > 0 {
		return nil, fmt.Errorf("bucket %s is not empty", name)
	}
	delete(f.buckets, name)
	return &s3.DeleteBucketOutput{}, nil
}

func (f *fakeS3) GetBucketPolicy(_ context.Context, params *s3.GetBucketPolicyInput, _ ...func(*s3.Options)) (*s3.GetBucketPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetBucketPolicy"); err != nil {
		return nil, err
	}
	policy, ok := f.policies[aws.ToString(params.Bucket)]
	if !ok {
		return nil, fmt.Errorf("no bucket policy")
	}
	return &s3.GetBucketPolicyOutput{Policy: aws.String(policy)}, nil
}

func (f *fakeS3) PutBucketPolicy(_ context.Context, params *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("PutBucketPolicy"); err != nil {
		return nil, err
	}
	f.policies[aws.ToString(params.Bucket)] = aws.ToString(params.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("ListObjectsV2"); err != nil {
		return nil, err
	}
	bucket := aws.ToString(params.Bucket)
	if _, exists := f.buckets[bucket]; !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	prefix := aws.ToString(params.Prefix)
	delimiter := aws.ToString(params.Delimiter)

	out := &s3.ListObjectsV2Output{}
	seenPrefixes := make(map[string]bool)
	for _, key := range f.sortedKeys(bucket) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				group := prefix + rest[:i+len(delimiter)]
				if !seenPrefixes[group] {
					seenPrefixes[group] = true
					out.CommonPrefixes = append(out.CommonPrefixes, s3types.CommonPrefix{Prefix: aws.String(group)})
				}
				continue
			}
		}
		obj := f.buckets[bucket][key]
		out.Contents = append(out.Contents, s3types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.lastModified),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("GetObject"); err != nil {
		return nil, err
	}
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in bucket %s", key, bucket)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		LastModified:  aws.Time(obj.lastModified),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("PutObject"); err != nil {
		return nil, err
	}
	bucket := aws.ToString(params.Bucket)
	if _, exists := f.buckets[bucket]; !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}
	f.buckets[bucket][aws.ToString(params.Key)] = fakeObject{
		data:         data,
		lastModified: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		contentType:  "application/octet-stream",
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("HeadObject"); err != nil {
		return nil, err
	}
	bucket := aws.ToString(params.Bucket)
	key := aws.ToString(params.Key)
	obj, ok := f.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in bucket %s", key, bucket)
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		LastModified:  aws.Time(obj.lastModified),
		ETag:          aws.String(fmt.Sprintf("\"fake-%d\"", len(obj.data))),
		Metadata:      map[string]string{"origin": "fake"},
	}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("CopyObject"); err != nil {
		return nil, err
	}
	source := aws.ToString(params.CopySource)
	i := strings.Index(source, "/")
	if i < 0 {
		return nil, fmt.Errorf("malformed copy source %q", source)
	}
	srcBucket, srcKey := source[:i], source[i+1:]
	obj, ok := f.buckets[srcBucket][srcKey]
	if !ok {
		return nil, fmt.Errorf("copy source %s not found", source)
	}
	destBucket := aws.ToString(params.Bucket)
	if _, exists := f.buckets[destBucket]; !exists {
		return nil, fmt.Errorf("bucket %s does not exist", destBucket)
	}
	f.buckets[destBucket][aws.ToString(params.Key)] = obj
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("DeleteObject"); err != nil {
		return nil, err
	}
	delete(f.buckets[aws.ToString(params.Bucket)], aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure("DeleteObjects"); err != nil {
		return nil, err
	}
	bucket := aws.ToString(params.Bucket)
	objects, exists := f.buckets[bucket]
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	out := &s3.DeleteObjectsOutput{}
	for _, id := range params.Delete.Objects {
		key := aws.ToString(id.Key)
		if _, ok := objects[key]; !ok {
			out.Errors = append(out.Errors, s3types.Error{
				Key:     aws.String(key),
				Code:    aws.String("NoSuchKey"),
				Message: aws.String("The specified key does not exist."),
			})
			continue
		}
		delete(objects, key)
		out.Deleted = append(out.Deleted, s3types.DeletedObject{Key: aws.String(key)})
	}
	return out, nil
}

// fakePresigner returns deterministic URLs embedding the signed method.
type fakePresigner struct {
	err error
}

func (p *fakePresigner) signed(method, bucket, key string) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &v4.PresignedHTTPRequest{
		URL:    fmt.Sprintf("https://%s.example.com/%s?method=%s&signed=1", bucket, key, method),
		Method: method,
	}, nil
}

func (p *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return p.signed("GET", aws.ToString(params.Bucket), aws.ToString(params.Key))
}

func (p *fakePresigner) PresignPutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return p.signed("PUT", aws.ToString(params.Bucket), aws.ToString(params.Key))
}

func (p *fakePresigner) PresignDeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return p.signed("DELETE", aws.ToString(params.Bucket), aws.ToString(params.Key))
}

// newTestAdapter builds an adapter around a fresh fake service.
func newTestAdapter(t interface{ Helper() }) (*Adapter, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	adapter := New(nil, NewDefaultConfig(), WithClient(fake, &fakePresigner{}))
	return adapter, fake
}
