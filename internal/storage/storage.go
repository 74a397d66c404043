package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored attachment object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service abstracts the object store holding post attachments.
type Service interface {
	// Upload stores the object and returns its s3://bucket/key location.
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	// DeletePrefix removes every object under the prefix, used when a post is
	// deleted together with its attachments.
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}
