package s3

import (
	"context"
	"fmt"
	"time"

	"github.com/s3bridge/s3bridge/pkg/tool"
)

// defaultPresignExpiry matches the operation's documented default of one
// hour when the caller omits expiration.
const defaultPresignExpiry = 3600 * time.Second

// Tools declares the adapter's operations for registration with the
// hosting framework, one descriptor per exposed operation.
func (a *Adapter) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        "list_buckets",
			Description: "List all storage buckets visible to the configured credentials",
			Parameters: schema(map[string]interface{}{}, nil),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return a.ListBuckets(ctx)
			},
		},
		{
			Name:        "create_bucket",
			Description: "Create a new storage bucket, optionally in a specific region",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket to create"),
				"region":      stringProp("The region to create the bucket in"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("create_bucket", err)
				}
				return a.CreateBucket(ctx, bucket, optString(args, "region")), nil
			},
		},
		{
			Name:        "delete_bucket",
			Description: "Delete an empty storage bucket",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket to delete"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("delete_bucket", err)
				}
				return a.DeleteBucket(ctx, bucket), nil
			},
		},
		{
			Name:        "get_bucket_policy",
			Description: "Get the access policy document of a bucket",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("get_bucket_policy", err)
				}
				return a.GetBucketPolicy(ctx, bucket), nil
			},
		},
		{
			Name:        "put_bucket_policy",
			Description: "Set the access policy document of a bucket",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"policy":      objectProp("The bucket policy document"),
			}, []string{"bucket_name", "policy"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("put_bucket_policy", err)
				}
				policy, err := mapArg(args, "policy")
				if err != nil {
					return nil, validationError("put_bucket_policy", err)
				}
				return a.PutBucketPolicy(ctx, bucket, policy), nil
			},
		},
		{
			Name:        "list_prefixes",
			Description: "List the folder prefixes directly under a bucket or prefix",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"prefix":      stringProp("The prefix to list folders under"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("list_prefixes", err)
				}
				return a.ListPrefixes(ctx, bucket, optString(args, "prefix"))
			},
		},
		{
			Name:        "put_prefix",
			Description: "Create a folder prefix in a bucket",
			Parameters: schema(map[string]interface{}{
				"bucket_name":   stringProp("The name of the bucket"),
				"prefix_name":   stringProp("The name of the folder to create"),
				"parent_prefix": stringProp("The parent folder path"),
			}, []string{"bucket_name", "prefix_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("put_prefix", err)
				}
				name, err := stringArg(args, "prefix_name")
				if err != nil {
					return nil, validationError("put_prefix", err)
				}
				return a.PutPrefix(ctx, bucket, name, optString(args, "parent_prefix")), nil
			},
		},
		{
			Name:        "list_objects",
			Description: "List all objects under a prefix with name, size and timestamp",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"prefix":      stringProp("The folder path to list objects under"),
			}, []string{"bucket_name", "prefix"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("list_objects", err)
				}
				return a.ListObjects(ctx, bucket, optString(args, "prefix"))
			},
		},
		{
			Name:        "put_object",
			Description: "Upload a text object to a bucket prefix",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"prefix":      stringProp("The folder path for the object"),
				"object_name": stringProp("The name of the object to create"),
				"content":     stringProp("The text content to write"),
			}, []string{"bucket_name", "object_name", "content"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("put_object", err)
				}
				name, err := stringArg(args, "object_name")
				if err != nil {
					return nil, validationError("put_object", err)
				}
				content, err := stringArg(args, "content")
				if err != nil {
					return nil, validationError("put_object", err)
				}
				return a.PutObject(ctx, bucket, optString(args, "prefix"), name, content), nil
			},
		},
		{
			Name:        "put_object_from_base64",
			Description: "Upload a binary object from base64-encoded content",
			Parameters: schema(map[string]interface{}{
				"bucket_name":    stringProp("The name of the bucket"),
				"prefix":         stringProp("The folder path for the object"),
				"object_name":    stringProp("The name of the object to create"),
				"base64_content": stringProp("The base64-encoded content to upload"),
			}, []string{"bucket_name", "object_name", "base64_content"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("put_object_from_base64", err)
				}
				name, err := stringArg(args, "object_name")
				if err != nil {
					return nil, validationError("put_object_from_base64", err)
				}
				payload, err := stringArg(args, "base64_content")
				if err != nil {
					return nil, validationError("put_object_from_base64", err)
				}
				return a.PutObjectFromBase64(ctx, bucket, optString(args, "prefix"), name, payload), nil
			},
		},
		{
			Name:        "get_object_content",
			Description: "Download an object's content as text or base64",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"key":         stringProp("The key (path) of the object"),
			}, []string{"bucket_name", "key"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("get_object_content", err)
				}
				key, err := stringArg(args, "key")
				if err != nil {
					return nil, validationError("get_object_content", err)
				}
				return a.GetObjectContent(ctx, bucket, key), nil
			},
		},
		{
			Name:        "get_object_metadata",
			Description: "Get an object's metadata without downloading its content",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"key":         stringProp("The key (path) of the object"),
			}, []string{"bucket_name", "key"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("get_object_metadata", err)
				}
				key, err := stringArg(args, "key")
				if err != nil {
					return nil, validationError("get_object_metadata", err)
				}
				return a.GetObjectMetadata(ctx, bucket, key), nil
			},
		},
		{
			Name:        "copy_object",
			Description: "Copy an object from one location to another",
			Parameters:  transferSchema(),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				src, dst, err := transferArgs(args)
				if err != nil {
					return nil, validationError("copy_object", err)
				}
				return a.CopyObject(ctx, src.bucket, src.key, dst.bucket, dst.key), nil
			},
		},
		{
			Name:        "move_object",
			Description: "Move an object from one location to another (copy then delete)",
			Parameters:  transferSchema(),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				src, dst, err := transferArgs(args)
				if err != nil {
					return nil, validationError("move_object", err)
				}
				return a.MoveObject(ctx, src.bucket, src.key, dst.bucket, dst.key), nil
			},
		},
		{
			Name:        "delete_object",
			Description: "Delete an object from a bucket",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"key":         stringProp("The key (path) of the object to delete"),
			}, []string{"bucket_name", "key"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("delete_object", err)
				}
				key, err := stringArg(args, "key")
				if err != nil {
					return nil, validationError("delete_object", err)
				}
				return a.DeleteObject(ctx, bucket, key), nil
			},
		},
		{
			Name:        "delete_objects",
			Description: "Delete multiple objects from a bucket in one batch call",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"keys":        arrayProp("The object keys to delete"),
			}, []string{"bucket_name", "keys"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("delete_objects", err)
				}
				keys, err := keysArg(args, "keys")
				if err != nil {
					return nil, validationError("delete_objects", err)
				}
				return a.DeleteObjects(ctx, bucket, keys), nil
			},
		},
		{
			Name:        "generate_presigned_url",
			Description: "Generate a presigned URL for temporary object access",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"key":         stringProp("The key (path) of the object"),
				"expiration":  numberProp("Validity in seconds (default 3600)"),
				"http_method": stringProp("HTTP method: GET, PUT or DELETE (default GET)"),
			}, []string{"bucket_name", "key"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("generate_presigned_url", err)
				}
				key, err := stringArg(args, "key")
				if err != nil {
					return nil, validationError("generate_presigned_url", err)
				}
				expiry := defaultPresignExpiry
				if seconds := optInt64(args, "expiration"); seconds != nil {
					expiry = time.Duration(*seconds) * time.Second
				}
				method := optString(args, "http_method")
				if method == "" {
					method = "GET"
				}
				return a.GeneratePresignedURL(ctx, bucket, key, expiry, method), nil
			},
		},
		{
			Name:        "search_objects",
			Description: "Search objects by name pattern and size bounds under a prefix",
			Parameters: schema(map[string]interface{}{
				"bucket_name":  stringProp("The name of the bucket"),
				"prefix":       stringProp("The prefix to search within"),
				"name_pattern": stringProp("Case-insensitive substring to match in object names"),
				"min_size":     numberProp("Minimum object size in bytes"),
				"max_size":     numberProp("Maximum object size in bytes"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("search_objects", err)
				}
				return a.SearchObjects(ctx, bucket,
					optString(args, "prefix"),
					optString(args, "name_pattern"),
					optInt64(args, "min_size"),
					optInt64(args, "max_size"))
			},
		},
		{
			Name:        "get_bucket_size",
			Description: "Calculate total size and object count for a bucket or prefix",
			Parameters: schema(map[string]interface{}{
				"bucket_name": stringProp("The name of the bucket"),
				"prefix":      stringProp("The prefix to calculate size for"),
			}, []string{"bucket_name"}),
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				bucket, err := stringArg(args, "bucket_name")
				if err != nil {
					return nil, validationError("get_bucket_size", err)
				}
				return a.GetBucketSize(ctx, bucket, optString(args, "prefix"))
			},
		},
	}
}

// Register adds every adapter tool to the registry.
func (a *Adapter) Register(registry *tool.Registry) error {
	for _, t := range a.Tools() {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Schema helpers.

func schema(properties map[string]interface{}, required []string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func objectProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "object", "description": description}
}

func arrayProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}

func transferSchema() map[string]interface{} {
	return schema(map[string]interface{}{
		"source_bucket": stringProp("The source bucket name"),
		"source_key":    stringProp("The source object key"),
		"dest_bucket":   stringProp("The destination bucket name"),
		"dest_key":      stringProp("The destination object key"),
	}, []string{"source_bucket", "source_key", "dest_bucket", "dest_key"})
}

// Argument helpers. Arguments arrive as decoded JSON, so numbers are
// float64 and lists are []interface{}.

type location struct {
	bucket string
	key    string
}

func transferArgs(args map[string]interface{}) (location, location, error) {
	var src, dst location
	var err error
	if src.bucket, err = stringArg(args, "source_bucket"); err != nil {
		return src, dst, err
	}
	if src.key, err = stringArg(args, "source_key"); err != nil {
		return src, dst, err
	}
	if dst.bucket, err = stringArg(args, "dest_bucket"); err != nil {
		return src, dst, err
	}
	if dst.key, err = stringArg(args, "dest_key"); err != nil {
		return src, dst, err
	}
	return src, dst, nil
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	val, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

func optString(args map[string]interface{}, name string) string {
	if s, ok := args[name].(string); ok {
		return s
	}
	return ""
}

func optInt64(args map[string]interface{}, name string) *int64 {
	switch v := args[name].(type) {
	case float64:
		n := int64(v)
		return &n
	case int:
		n := int64(v)
		return &n
	case int64:
		return &v
	default:
		return nil
	}
}

func keysArg(args map[string]interface{}, name string) ([]string, error) {
	val, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", name)
	}
	switch list := val.(type) {
	case []string:
		return list, nil
	case []interface{}:
		keys := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q must be a list of strings", name)
			}
			keys = append(keys, s)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("argument %q must be a list of strings", name)
	}
}

func mapArg(args map[string]interface{}, name string) (map[string]interface{}, error) {
	val, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", name)
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", name)
	}
	return m, nil
}

func validationError(toolName string, err error) error {
	return tool.NewError(toolName, err.Error(), "VALIDATION_ERROR")
}
