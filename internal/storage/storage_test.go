package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisgate/internal/config"
)

func sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("case-files", "a/letter.pdf", []byte("%PDF-1.7 letter"), "application/pdf")

	info, err := m.Stat(ctx, "case-files", "a/letter.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(15), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	_, err = m.Stat(ctx, "case-files", "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = m.Stat(ctx, "other-bucket", "a/letter.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	u, err := m.PresignGet(ctx, "case-files", "a/letter.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://case-files/a/letter.pdf?expires=900", u)

	_, err = m.PresignGet(ctx, "case-files", "missing.pdf", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestFingerprint(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	body := []byte("scanned summons")
	m.Put("case-files", "summons.pdf", body, "application/pdf")

	d, err := Fingerprint(ctx, m, "case-files", "summons.pdf")
	require.NoError(t, err)
	assert.Equal(t, sum(body), d.SHA256)
	assert.Equal(t, int64(len(body)), d.Size)
	assert.Equal(t, "application/pdf", d.ContentType)

	_, err = Fingerprint(ctx, m, "case-files", "nope.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMinIOErrorMapping(t *testing.T) {
	for _, code := range []string{"NoSuchKey", "NoSuchBucket", "NotFound"} {
		err := minioError(minio.ErrorResponse{Code: code, StatusCode: http.StatusNotFound})
		assert.ErrorIs(t, err, ErrObjectNotFound, code)
	}
	err := minioError(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden})
	assert.False(t, errors.Is(err, ErrObjectNotFound))
}

func TestNewMinIOValidation(t *testing.T) {
	_, err := NewMinIO(config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewMinIO(config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials")
}

// fakeS3 answers path-style HEAD and GET requests from an in-memory map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/")
	f.mu.Lock()
	body, ok := f.objects[path]
	f.mu.Unlock()

	if !ok {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	header := http.Header{
		"Content-Length": {fmt.Sprintf("%d", len(body))},
		"Content-Type":   {"application/pdf"},
		"ETag":           {`"etag-1"`},
		"Last-Modified":  {time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)},
	}
	switch req.Method {
	case http.MethodHead:
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: header}, nil
	case http.MethodGet:
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Header: header}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func newFakeS3(t *testing.T) Storage {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{"case-files/civ/letter.pdf": []byte("letter body")}}
	st, err := NewS3(context.Background(), config.S3Config{
		Region:          "eu-west-3",
		Endpoint:        "https://s3.test.local",
		UsePathStyle:    true,
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
	}, &http.Client{Transport: fake})
	require.NoError(t, err)
	return st
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	st := newFakeS3(t)

	info, err := st.Stat(ctx, "case-files", "civ/letter.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "etag-1", info.ETag)
	assert.Equal(t, "application/pdf", info.ContentType)

	d, err := Fingerprint(ctx, st, "case-files", "civ/letter.pdf")
	require.NoError(t, err)
	assert.Equal(t, sum([]byte("letter body")), d.SHA256)

	_, err = st.Stat(ctx, "case-files", "civ/missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, _, err = st.Get(ctx, "case-files", "civ/missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	u, err := st.PresignGet(ctx, "case-files", "civ/letter.pdf", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "https://s3.test.local/case-files/civ/letter.pdf")
	assert.Contains(t, u, "X-Amz-Expires=600")
}
