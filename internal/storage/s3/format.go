package s3

import (
	"fmt"
	"strings"
)

// textExtensions is the fixed set of key suffixes treated as UTF-8 text by
// GetObjectContent. Everything else is returned base64-encoded.
var textExtensions = []string{
	".txt", ".csv", ".json", ".xml", ".html", ".md", ".js", ".css", ".py",
}

// isTextKey reports whether the key's extension is in the known-text set.
func isTextKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range textExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// displayName returns the last path segment of a key.
func displayName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// objectKey composes the full key from a prefix and an object name. The
// prefix is stripped of trailing slashes before joining; an empty prefix
// yields the bare name.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimRight(prefix, "/") + "/" + name
}

// prefixKey composes a folder-marker key, always ending in "/".
func prefixKey(parent, name string) string {
	if parent == "" {
		return name + "/"
	}
	return strings.TrimRight(parent, "/") + "/" + name + "/"
}

// humanSize renders a byte count using binary (1024-based) unit steps,
// falling through to PB for anything larger.
func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.2f PB", size)
}
