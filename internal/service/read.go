package service

import (
	"context"
	"strings"

	"jurisgate/internal/model"
	"jurisgate/internal/tracelog"
	"jurisgate/internal/validator"
)

// read answers a read-only tool from kase, a published snapshot that is
// never modified, so it runs after the case lock is released. List tools
// answer with their key present even when nothing matched.
func (s *gateService) read(ctx context.Context, kase *model.Case, op validator.Operation, facts validator.Facts) any {
	switch o := op.(type) {
	case *validator.CaseGet:
		return model.ResultData{Case: kase}
	case *validator.DocGet:
		doc := kase.Document(o.DocumentID)
		data := model.ResultData{Document: doc, DownloadURLs: s.downloadURLs(ctx, doc)}
		if doc.PhysicalOriginalID != "" {
			data.PhysicalOriginal = kase.PhysicalOriginal(doc.PhysicalOriginalID)
		}
		return data
	case *validator.TraceQuery:
		events := s.store.Trace().Query(ctx, kase.CaseID, traceFilter(o.Filters))
		if events == nil {
			events = []model.TraceEvent{}
		}
		return model.TraceEventsResult{TraceEvents: events}
	case *validator.SearchDocuments:
		docs := search(kase, o.Criteria)
		if docs == nil {
			docs = []*model.Document{}
		}
		return model.DocumentsResult{Documents: docs}
	case *validator.DedupeCheck:
		arts := validator.Duplicates(kase.Branch(o.BranchCode), o.StorageRef, facts)
		if arts == nil {
			arts = []*model.FileArtifact{}
		}
		return model.ArtifactsResult{Artifacts: arts}
	}
	return model.ResultData{}
}

func traceFilter(f *validator.TraceFilters) tracelog.Filter {
	if f == nil {
		return tracelog.Filter{}
	}
	return tracelog.Filter{EventType: f.EventType, ObjectID: f.ObjectID, Actor: f.Actor, From: f.From}
}

// search filters the case's documents. FilenameContains matches the
// canonical name or any artifact filename, ignoring case.
func search(kase *model.Case, c *validator.SearchCriteria) []*model.Document {
	docs := kase.Documents()
	if c == nil {
		return docs
	}
	needle := strings.ToLower(c.FilenameContains)
	var out []*model.Document
	for _, d := range docs {
		if c.BranchCode != "" && d.BranchCode != c.BranchCode {
			continue
		}
		if c.Status != "" && d.Status != c.Status {
			continue
		}
		if c.DocTypeCode != "" && d.DocTypeCode != c.DocTypeCode {
			continue
		}
		if needle != "" && !nameMatches(d, needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func nameMatches(d *model.Document, needle string) bool {
	if strings.Contains(strings.ToLower(d.CanonicalName), needle) {
		return true
	}
	for _, a := range d.Artifacts {
		if strings.Contains(strings.ToLower(a.Filename), needle) {
			return true
		}
	}
	return false
}

// downloadURLs presigns every artifact of doc that lives in object storage.
// Artifacts that cannot be presigned are left out.
func (s *gateService) downloadURLs(ctx context.Context, doc *model.Document) map[model.ID]string {
	if s.storage == nil {
		return nil
	}
	urls := make(map[model.ID]string)
	for _, a := range doc.Artifacts {
		ref, err := model.ParseStorageRef(a.StorageRef)
		if err != nil || ref.Scheme == localScheme {
			continue
		}
		u, err := s.storage.PresignGet(ctx, ref.Bucket, ref.Key, s.presignExpiry)
		if err != nil {
			s.logger.Warn("presign_failed", map[string]any{"artifact_id": a.ArtifactID, "error": err.Error()})
			continue
		}
		urls[a.ArtifactID] = u
	}
	if len(urls) == 0 {
		return nil
	}
	return urls
}
