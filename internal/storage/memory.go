package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-process Storage for development and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func memKey(bucket, key string) string { return bucket + "/" + key }

// Put stores data under bucket/key, replacing any previous object.
func (m *Memory) Put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(bucket, key)] = memObject{
		data:        bytes.Clone(data),
		contentType: contentType,
		modified:    time.Now().UTC(),
	}
}

func (m *Memory) lookup(bucket, key string) (memObject, ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[memKey(bucket, key)]
	m.mu.RUnlock()
	if !ok {
		return memObject{}, ObjectInfo{}, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	return obj, ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified,
	}, nil
}

func (m *Memory) Stat(_ context.Context, bucket, key string) (ObjectInfo, error) {
	_, info, err := m.lookup(bucket, key)
	return info, err
}

func (m *Memory) Get(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, info, err := m.lookup(bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), info, nil
}

// PresignGet returns a memory:// URL carrying the expiry; it is only meaningful in tests.
func (m *Memory) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if _, _, err := m.lookup(bucket, key); err != nil {
		return "", err
	}
	u := url.URL{Scheme: "memory", Host: bucket, Path: "/" + key}
	q := u.Query()
	q.Set("expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ Storage = (*Memory)(nil)
