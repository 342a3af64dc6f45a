// Package storage reads the object stores that hold case files. The Gate
// never writes files: it only checks that a referenced object exists and
// fingerprints it.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the bucket or key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is a read-only view of S3-compatible object storage.
// Methods use context and streaming readers; no local disk is used.
type Storage interface {
	// Stat returns the object's info without reading its content.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Digest is an object's info plus the SHA-256 of its content.
type Digest struct {
	ObjectInfo
	SHA256 string
}

// Fingerprint streams the object through SHA-256.
func Fingerprint(ctx context.Context, s Storage, bucket, key string) (Digest, error) {
	rc, info, err := s.Get(ctx, bucket, key)
	if err != nil {
		return Digest{}, err
	}
	defer rc.Close()

	h := sha256.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return Digest{}, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	info.Size = n
	return Digest{ObjectInfo: info, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}
