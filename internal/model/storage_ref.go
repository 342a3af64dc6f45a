package model

import (
	"errors"
	"regexp"
	"strings"
)

// StorageRef is a parsed `<scheme>://<bucket>/<key>` object reference.
type StorageRef struct {
	Scheme string
	Bucket string
	Key    string
}

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

var ErrStorageRef = errors.New("malformed storage reference")

// ParseStorageRef splits ref into its parts. It checks shape only; whether the
// scheme is accepted is a policy question.
func ParseStorageRef(ref string) (StorageRef, error) {
	scheme, rest, ok := strings.Cut(ref, "://")
	if !ok || scheme == "" {
		return StorageRef{}, ErrStorageRef
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" || strings.HasSuffix(key, "/") {
		return StorageRef{}, ErrStorageRef
	}
	if !bucketPattern.MatchString(bucket) {
		return StorageRef{}, ErrStorageRef
	}
	if strings.ContainsAny(ref, " \t\r\n") {
		return StorageRef{}, ErrStorageRef
	}
	return StorageRef{Scheme: strings.ToLower(scheme), Bucket: bucket, Key: key}, nil
}

func (r StorageRef) String() string {
	return r.Scheme + "://" + r.Bucket + "/" + r.Key
}
