package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type TraceEventType string

const (
	EventCaseCreated                TraceEventType = "CASE_CREATED"
	EventBranchCreated              TraceEventType = "BRANCH_CREATED"
	EventDocIngested                TraceEventType = "DOC_INGESTED"
	EventDocClassified              TraceEventType = "DOC_CLASSIFIED"
	EventDocQualified               TraceEventType = "DOC_QUALIFIED"
	EventDocRenamed                 TraceEventType = "DOC_RENAMED"
	EventDocStatusChanged           TraceEventType = "DOC_STATUS_CHANGED"
	EventDocLinked                  TraceEventType = "DOC_LINKED"
	EventArtifactCreated            TraceEventType = "ARTIFACT_CREATED"
	EventOCRPerformed               TraceEventType = "OCR_PERFORMED"
	EventRedactionPerformed         TraceEventType = "REDACTION_PERFORMED"
	EventPhysicalOriginalRegistered TraceEventType = "PHYSICAL_ORIGINAL_REGISTERED"
	EventPhysicalCustodyChanged     TraceEventType = "PHYSICAL_CUSTODY_CHANGED"
	EventExportCreated              TraceEventType = "EXPORT_CREATED"
	EventErrorRecorded              TraceEventType = "ERROR_RECORDED"
	EventEscalatedReasoning         TraceEventType = "ESCALATED_REASONING"
)

var traceEventTypes = set(EventCaseCreated, EventBranchCreated, EventDocIngested, EventDocClassified,
	EventDocQualified, EventDocRenamed, EventDocStatusChanged, EventDocLinked, EventArtifactCreated,
	EventOCRPerformed, EventRedactionPerformed, EventPhysicalOriginalRegistered, EventPhysicalCustodyChanged,
	EventExportCreated, EventErrorRecorded, EventEscalatedReasoning)

func (t TraceEventType) Valid() bool {
	_, ok := traceEventTypes[t]
	return ok
}

// CallerAuthored reports whether a caller may append an event of type t directly.
func (t TraceEventType) CallerAuthored() bool {
	return t == EventEscalatedReasoning || t == EventExportCreated
}

// ArtifactEventType maps a derived artifact type to the trace event recording its creation.
func ArtifactEventType(t ArtifactType) TraceEventType {
	switch t {
	case ArtifactOCRText:
		return EventOCRPerformed
	case ArtifactRedacted:
		return EventRedactionPerformed
	case ArtifactExportBundle:
		return EventExportCreated
	default:
		return EventArtifactCreated
	}
}

// ObjectRef is one object touched by a trace event.
type ObjectRef struct {
	ObjectType ObjectType `json:"object_type" validate:"required"`
	ObjectID   ID         `json:"object_id" validate:"required"`
	BranchCode BranchCode `json:"branch_code,omitempty" validate:"omitempty,enum"`
}

// TraceEvent is an immutable audit record.
type TraceEvent struct {
	EventID   ID             `json:"event_id"`
	CaseID    ID             `json:"case_id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	EventType TraceEventType `json:"event_type"`
	Objects   []ObjectRef    `json:"objects"`
	Details   Details        `json:"details"`
}

// Touches reports whether the event references id.
func (e *TraceEvent) Touches(id ID) bool {
	for _, o := range e.Objects {
		if o.ObjectID == id {
			return true
		}
	}
	return false
}

// Details carries the fields common to every event plus one typed Change.
type Details struct {
	Summary          string           `json:"summary,omitempty"`
	Justification    string           `json:"justification,omitempty"`
	RiskNote         string           `json:"risk_note,omitempty"`
	ThinkMoreTrigger ThinkMoreTrigger `json:"think_more_trigger,omitempty"`
	RequestID        string           `json:"request_id,omitempty"`
	Tool             ToolName         `json:"tool,omitempty"`
	Change           Change           `json:"-"`
}

// Change is the per-kind payload of a trace event.
type Change interface {
	Kind() ChangeKind
}

type ChangeKind string

const (
	KindCaseCreated        ChangeKind = "case_created"
	KindBranchCreated      ChangeKind = "branch_created"
	KindIngested           ChangeKind = "ingested"
	KindClassified         ChangeKind = "classified"
	KindRenamed            ChangeKind = "renamed"
	KindStatusChanged      ChangeKind = "status_changed"
	KindLinked             ChangeKind = "linked"
	KindArtifactCreated    ChangeKind = "artifact_created"
	KindOriginalRegistered ChangeKind = "original_registered"
	KindCustodyChanged     ChangeKind = "custody_changed"
	KindErrorRecorded      ChangeKind = "error_recorded"
	KindAnnotated          ChangeKind = "annotated"
)

type CaseCreated struct {
	CaseTitle    string       `json:"case_title"`
	Jurisdiction string       `json:"jurisdiction"`
	Branches     []BranchCode `json:"branches"`
}

type BranchCreated struct {
	BranchCode     BranchCode     `json:"branch_code"`
	IsolationLevel IsolationLevel `json:"isolation_level"`
}

type Ingested struct {
	BranchCode       BranchCode `json:"branch_code"`
	SourceArtifactID ID         `json:"source_artifact_id"`
	StorageRef       string     `json:"storage_ref"`
	SHA256           string     `json:"sha256,omitempty"`
	Status           DocStatus  `json:"status"`
}

// Classification is the mutable metadata of a document.
type Classification struct {
	BranchCode           BranchCode           `json:"branch_code"`
	DocTypeCode          DocTypeCode          `json:"doc_type_code"`
	SourceChannel        SourceChannel        `json:"source_channel"`
	ConfidentialityLevel ConfidentialityLevel `json:"confidentiality_level"`
	DocDate              string               `json:"doc_date,omitempty"`
	Author               string               `json:"author,omitempty"`
	Counterparty         string               `json:"counterparty,omitempty"`
	Subject              string               `json:"subject,omitempty"`
	QualityFlags         []QualityFlag        `json:"quality_flags,omitempty"`
}

// ClassificationOf captures the current metadata of d.
func ClassificationOf(d *Document) Classification {
	return Classification{
		BranchCode:           d.BranchCode,
		DocTypeCode:          d.DocTypeCode,
		SourceChannel:        d.SourceChannel,
		ConfidentialityLevel: d.ConfidentialityLevel,
		DocDate:              d.DocDate,
		Author:               d.Author,
		Counterparty:         d.Counterparty,
		Subject:              d.Subject,
		QualityFlags:         append([]QualityFlag(nil), d.QualityFlags...),
	}
}

type Classified struct {
	Before Classification `json:"before"`
	After  Classification `json:"after"`
}

type Renamed struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after"`
}

type StatusChanged struct {
	Before DocStatus `json:"before"`
	After  DocStatus `json:"after"`
}

type Linked struct {
	LinkType LinkType   `json:"link_type"`
	From     LinkObject `json:"from"`
	To       LinkObject `json:"to"`
}

type ArtifactCreated struct {
	ArtifactType    ArtifactType `json:"artifact_type"`
	InputArtifactID ID           `json:"input_artifact_id"`
	StorageRef      string       `json:"storage_ref"`
	SHA256          string       `json:"sha256,omitempty"`
}

type OriginalRegistered struct {
	DocumentID ID       `json:"document_id"`
	Label      string   `json:"label"`
	Location   Location `json:"location"`
}

type CustodyChanged struct {
	Action CustodyAction      `json:"action"`
	Before VerificationStatus `json:"before"`
	After  VerificationStatus `json:"after"`
}

type ErrorRecorded struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Annotated is the change of a caller-authored event.
type Annotated struct {
	Note string `json:"note,omitempty"`
}

func (CaseCreated) Kind() ChangeKind        { return KindCaseCreated }
func (BranchCreated) Kind() ChangeKind      { return KindBranchCreated }
func (Ingested) Kind() ChangeKind           { return KindIngested }
func (Classified) Kind() ChangeKind         { return KindClassified }
func (Renamed) Kind() ChangeKind            { return KindRenamed }
func (StatusChanged) Kind() ChangeKind      { return KindStatusChanged }
func (Linked) Kind() ChangeKind             { return KindLinked }
func (ArtifactCreated) Kind() ChangeKind    { return KindArtifactCreated }
func (OriginalRegistered) Kind() ChangeKind { return KindOriginalRegistered }
func (CustodyChanged) Kind() ChangeKind     { return KindCustodyChanged }
func (ErrorRecorded) Kind() ChangeKind      { return KindErrorRecorded }
func (Annotated) Kind() ChangeKind          { return KindAnnotated }

func newChange(kind ChangeKind) (Change, error) {
	switch kind {
	case KindCaseCreated:
		return &CaseCreated{}, nil
	case KindBranchCreated:
		return &BranchCreated{}, nil
	case KindIngested:
		return &Ingested{}, nil
	case KindClassified:
		return &Classified{}, nil
	case KindRenamed:
		return &Renamed{}, nil
	case KindStatusChanged:
		return &StatusChanged{}, nil
	case KindLinked:
		return &Linked{}, nil
	case KindArtifactCreated:
		return &ArtifactCreated{}, nil
	case KindOriginalRegistered:
		return &OriginalRegistered{}, nil
	case KindCustodyChanged:
		return &CustodyChanged{}, nil
	case KindErrorRecorded:
		return &ErrorRecorded{}, nil
	case KindAnnotated:
		return &Annotated{}, nil
	default:
		return nil, fmt.Errorf("model: unknown change kind %q", string(kind))
	}
}

// detailsWire is the JSON shape of Details: the common fields, a "kind"
// discriminator and the change body under "change".
type detailsWire struct {
	Summary          string           `json:"summary,omitempty"`
	Justification    string           `json:"justification,omitempty"`
	RiskNote         string           `json:"risk_note,omitempty"`
	ThinkMoreTrigger ThinkMoreTrigger `json:"think_more_trigger,omitempty"`
	RequestID        string           `json:"request_id,omitempty"`
	Tool             ToolName         `json:"tool,omitempty"`
	Kind             ChangeKind       `json:"kind,omitempty"`
	Change           json.RawMessage  `json:"change,omitempty"`
}

func (d Details) MarshalJSON() ([]byte, error) {
	w := detailsWire{
		Summary:          d.Summary,
		Justification:    d.Justification,
		RiskNote:         d.RiskNote,
		ThinkMoreTrigger: d.ThinkMoreTrigger,
		RequestID:        d.RequestID,
		Tool:             d.Tool,
	}
	if d.Change != nil {
		body, err := json.Marshal(d.Change)
		if err != nil {
			return nil, err
		}
		w.Kind = d.Change.Kind()
		w.Change = body
	}
	return json.Marshal(w)
}

func (d *Details) UnmarshalJSON(data []byte) error {
	var w detailsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Details{
		Summary:          w.Summary,
		Justification:    w.Justification,
		RiskNote:         w.RiskNote,
		ThinkMoreTrigger: w.ThinkMoreTrigger,
		RequestID:        w.RequestID,
		Tool:             w.Tool,
	}
	if w.Kind == "" {
		return nil
	}
	change, err := newChange(w.Kind)
	if err != nil {
		return err
	}
	if len(w.Change) > 0 {
		if err := json.Unmarshal(w.Change, change); err != nil {
			return fmt.Errorf("model: decode %s change: %w", w.Kind, err)
		}
	}
	d.Change = derefChange(change)
	return nil
}

// derefChange stores decoded variants by value so type switches see the
// same dynamic types as freshly built events.
func derefChange(c Change) Change {
	switch v := c.(type) {
	case *CaseCreated:
		return *v
	case *BranchCreated:
		return *v
	case *Ingested:
		return *v
	case *Classified:
		return *v
	case *Renamed:
		return *v
	case *StatusChanged:
		return *v
	case *Linked:
		return *v
	case *ArtifactCreated:
		return *v
	case *OriginalRegistered:
		return *v
	case *CustodyChanged:
		return *v
	case *ErrorRecorded:
		return *v
	case *Annotated:
		return *v
	default:
		return c
	}
}
