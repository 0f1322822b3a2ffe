// Package storage connects decks to S3-compatible object stores. A Connector
// holds named connections, each backed by either the MinIO client or the
// native AWS SDK, behind a common ObjectStore interface.
package storage

import (
	"context"
	"errors"
	"time"
)

// ContentTypePresentation is the MIME type uploaded alongside .pptx objects.
const ContentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// ErrNotFound is returned when the addressed object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrUnknownConnection is returned when a connection name has not been
// configured.
var ErrUnknownConnection = errors.New("storage: unknown connection")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ObjectStore is the minimal object operations deckd needs from a bucket.
// Implementations prepend their configured key prefix and classify backend
// not-found responses to ErrNotFound.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}
