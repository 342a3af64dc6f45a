package model

import (
	"encoding/json"
	"time"
)

// ToolName names a Gate operation on the wire.
type ToolName string

const (
	ToolCaseGet               ToolName = "case_get"
	ToolDocGet                ToolName = "doc_get"
	ToolCaseCreate            ToolName = "case_create"
	ToolBranchCreate          ToolName = "branch_create"
	ToolDocIngest             ToolName = "doc_ingest"
	ToolDocClassify           ToolName = "doc_classify"
	ToolDocStatusTransition   ToolName = "doc_status_transition"
	ToolDocRename             ToolName = "doc_rename"
	ToolDocLinkCreate         ToolName = "doc_link_create"
	ToolOriginalRegister      ToolName = "original_register"
	ToolOriginalCustodyAppend ToolName = "original_custody_append"
	ToolArtifactCreate        ToolName = "artifact_create"
	ToolTraceAppend           ToolName = "trace_append"
	ToolTraceQuery            ToolName = "trace_query"
	ToolSearchDocuments       ToolName = "search_documents"
	ToolDedupeCheck           ToolName = "dedupe_check"
)

// AllTools lists every recognized tool.
var AllTools = []ToolName{
	ToolCaseGet, ToolDocGet, ToolCaseCreate, ToolBranchCreate, ToolDocIngest, ToolDocClassify,
	ToolDocStatusTransition, ToolDocRename, ToolDocLinkCreate, ToolOriginalRegister,
	ToolOriginalCustodyAppend, ToolArtifactCreate, ToolTraceAppend, ToolTraceQuery,
	ToolSearchDocuments, ToolDedupeCheck,
}

func (t ToolName) Valid() bool {
	for _, known := range AllTools {
		if t == known {
			return true
		}
	}
	return false
}

// ReadOnly reports whether t never mutates the case.
func (t ToolName) ReadOnly() bool {
	switch t {
	case ToolCaseGet, ToolDocGet, ToolTraceQuery, ToolSearchDocuments, ToolDedupeCheck:
		return true
	}
	return false
}

// Request is one call to the Gate.
type Request struct {
	ToolName ToolName        `json:"toolName"`
	Payload  json.RawMessage `json:"payload"`
	CaseID   ID              `json:"caseId"`
	Actor    string          `json:"-"`
}

// ErrorBody describes a rejection.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Response is the Gate's reply envelope. Data holds an encoded ResultData so
// that a stored response replays byte for byte.
type Response struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	Error        *ErrorBody      `json:"error,omitempty"`
	TraceEventID ID              `json:"trace_event_id,omitempty"`
}

// ResultData is the payload of an accepted response. A mutation fills exactly
// one entity key plus TraceEvent; case_get and doc_get fill what they return.
type ResultData struct {
	Case             *Case             `json:"case,omitempty"`
	Branch           *Branch           `json:"branch,omitempty"`
	Document         *Document         `json:"document,omitempty"`
	Artifact         *FileArtifact     `json:"artifact,omitempty"`
	PhysicalOriginal *PhysicalOriginal `json:"physical_original,omitempty"`
	Link             *Link             `json:"link,omitempty"`
	TraceEvent       *TraceEvent       `json:"trace_event,omitempty"`
	TraceEvents      []TraceEvent      `json:"trace_events,omitempty"`
	Documents        []*Document       `json:"documents,omitempty"`
	Artifacts        []*FileArtifact   `json:"artifacts,omitempty"`
	DownloadURLs     map[ID]string     `json:"download_urls,omitempty"`
}

// TraceEventsResult answers trace_query. The key is always present.
type TraceEventsResult struct {
	TraceEvents []TraceEvent `json:"trace_events"`
}

// DocumentsResult answers search_documents.
type DocumentsResult struct {
	Documents []*Document `json:"documents"`
}

// ArtifactsResult answers dedupe_check.
type ArtifactsResult struct {
	Artifacts []*FileArtifact `json:"artifacts"`
}

// RequestRecord is a stored idempotency entry: the outcome of one request id
// within one scope (a case id, or the system scope for case creation).
type RequestRecord struct {
	Scope     ID        `json:"scope"`
	RequestID string    `json:"request_id"`
	ToolName  ToolName  `json:"tool_name"`
	Response  []byte    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// SystemScope keys requests that do not address an existing case.
const SystemScope ID = "_system"
