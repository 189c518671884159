package storage

import (
	"context"
	"io"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified string
}

// ObjectStorage is where suggestion exports land. Implementations must be
// safe for concurrent use.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	DownloadObject(ctx context.Context, key string) (io.ReadCloser, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
