package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"

	"jurisgate/internal/model"
	"jurisgate/internal/storage"
	"jurisgate/internal/validator"
)

// localScheme refs point at files the Gate cannot reach; only their format is checked.
const localScheme = "local"

// storageRefs lists the refs an operation asks the Gate to trust.
func storageRefs(op validator.Operation) []string {
	switch o := op.(type) {
	case *validator.DocIngest:
		return []string{o.Source.StorageRef}
	case *validator.ArtifactCreate:
		return []string{o.OutputStorageRef}
	case *validator.DedupeCheck:
		return []string{o.StorageRef}
	}
	return nil
}

// inspect fingerprints the operation's storage refs. It runs before the case
// lock is taken. Malformed refs are skipped: the validator rejects them.
func (s *gateService) inspect(ctx context.Context, op validator.Operation) (validator.Facts, error) {
	if s.storage == nil {
		return nil, nil
	}
	refs := storageRefs(op)
	if len(refs) == 0 {
		return nil, nil
	}

	facts := make(validator.Facts, len(refs))
	for _, ref := range refs {
		parsed, err := model.ParseStorageRef(ref)
		if err != nil || parsed.Scheme == localScheme {
			continue
		}
		d, err := storage.Fingerprint(ctx, s.storage, parsed.Bucket, parsed.Key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			facts[ref] = validator.ObjectFact{Exists: false}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", ref, err)
		}
		facts[ref] = validator.ObjectFact{
			Exists:      true,
			Size:        d.Size,
			ContentType: d.ContentType,
			SHA256:      d.SHA256,
		}
	}
	return facts, nil
}

// mimeType picks the caller's value, then what storage reported, then the
// filename extension.
func mimeType(given string, fact validator.ObjectFact, filename string) string {
	if given != "" {
		return given
	}
	if fact.ContentType != "" {
		return fact.ContentType
	}
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func byteSize(fact validator.ObjectFact) *int64 {
	if !fact.Exists {
		return nil
	}
	n := fact.Size
	return &n
}
