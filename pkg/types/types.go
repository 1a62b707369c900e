// Package types defines the JSON-serializable result shapes returned by the
// storage adapter. The field layout is part of the contract with the hosting
// tool framework and must stay stable.
package types

// ObjectSummary describes one listed object.
type ObjectSummary struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ObjectContent carries a downloaded object body. Text objects populate
// Content, binary objects ContentBase64; exactly one of the two is set.
type ObjectContent struct {
	Name          string `json:"name"`
	ContentType   string `json:"content_type"`
	Content       string `json:"content,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	Size          int64  `json:"size"`
}

// ObjectMetadata is the head-object view of an object, body not included.
type ObjectMetadata struct {
	Key          string            `json:"key"`
	Name         string            `json:"name"`
	Size         int64             `json:"size"`
	LastModified string            `json:"last_modified"`
	ContentType  string            `json:"content_type"`
	ETag         string            `json:"etag"`
	Metadata     map[string]string `json:"metadata"`
}

// BucketSize aggregates object sizes under a bucket or prefix.
type BucketSize struct {
	TotalSizeBytes    int64  `json:"total_size_bytes"`
	HumanReadableSize string `json:"human_readable_size"`
	ObjectCount       int    `json:"object_count"`
}

// BatchDeleteError is one per-key failure reported by a batch delete.
type BatchDeleteError struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchDeleteResult partitions a batch delete into successes and failures.
type BatchDeleteResult struct {
	Deleted []string           `json:"deleted"`
	Errors  []BatchDeleteError `json:"errors"`
}

// ErrorResult is the value-level error shape for dictionary-returning
// operations. Callers detect failure by the presence of the error field,
// never by a raised fault.
type ErrorResult struct {
	Error string `json:"error"`
}
