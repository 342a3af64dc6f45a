package validator

import (
	"encoding/json"
	"time"

	"jurisgate/internal/model"
)

// Meta is the part of every payload needed before the payload itself is
// understood: the idempotency key and the addressed case.
type Meta struct {
	RequestID string   `json:"request_id"`
	CaseID    model.ID `json:"case_id" validate:"omitempty,object_id"`
}

func (m Meta) Header() Meta { return m }

// Operation is a decoded, schema-valid Gate payload.
type Operation interface {
	Tool() model.ToolName
	Header() Meta
}

type CaseGet struct {
	Meta
}

type DocGet struct {
	Meta
	DocumentID model.ID `json:"document_id" validate:"required"`
}

type CaseCreate struct {
	Meta
	CaseTitle            string                     `json:"case_title" validate:"required,max=512"`
	Jurisdiction         string                     `json:"jurisdiction" validate:"required,max=128"`
	ConfidentialityLevel model.ConfidentialityLevel `json:"confidentiality_level" validate:"required,enum"`
	Branches             []model.BranchCode         `json:"branches" validate:"required,min=1,unique,dive,enum"`
	Parties              []model.Party              `json:"parties" validate:"omitempty,dive"`
}

type BranchCreate struct {
	Meta
	BranchCode    model.BranchCode `json:"branch_code" validate:"required,enum"`
	Justification string           `json:"justification"`
}

type Source struct {
	StorageRef string `json:"storage_ref" validate:"required"`
	Filename   string `json:"filename" validate:"required,max=255"`
	MimeType   string `json:"mime_type,omitempty"`
}

type IngestMetadata struct {
	DocTypeCode          model.DocTypeCode          `json:"doc_type_code" validate:"required,enum"`
	SourceChannel        model.SourceChannel        `json:"source_channel" validate:"required,enum"`
	ConfidentialityLevel model.ConfidentialityLevel `json:"confidentiality_level" validate:"required,enum"`
	Status               model.DocStatus            `json:"status" validate:"required,enum"`
	DocDate              string                     `json:"doc_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Author               string                     `json:"author,omitempty"`
	Counterparty         string                     `json:"counterparty,omitempty"`
	Subject              string                     `json:"subject,omitempty"`
	QualityFlags         []model.QualityFlag        `json:"quality_flags,omitempty" validate:"omitempty,dive,enum"`
	Notes                string                     `json:"notes,omitempty"`
}

type DocIngest struct {
	Meta
	DocumentID model.ID         `json:"document_id" validate:"omitempty,object_id"`
	BranchCode model.BranchCode `json:"branch_code" validate:"required,enum"`
	Source     Source           `json:"source"`
	Metadata   IngestMetadata   `json:"metadata"`
}

// ClassifyMetadata lists the fields a reclassification may change. Nil
// fields are left untouched. Status, StorageRef and Source are decoded only
// so they can be refused.
type ClassifyMetadata struct {
	BranchCode           *model.BranchCode           `json:"branch_code" validate:"omitempty,enum"`
	DocTypeCode          *model.DocTypeCode          `json:"doc_type_code" validate:"omitempty,enum"`
	SourceChannel        *model.SourceChannel        `json:"source_channel" validate:"omitempty,enum"`
	ConfidentialityLevel *model.ConfidentialityLevel `json:"confidentiality_level" validate:"omitempty,enum"`
	DocDate              *string                     `json:"doc_date" validate:"omitempty,datetime=2006-01-02"`
	Author               *string                     `json:"author"`
	Counterparty         *string                     `json:"counterparty"`
	Subject              *string                     `json:"subject"`
	QualityFlags         []model.QualityFlag         `json:"quality_flags" validate:"omitempty,dive,enum"`

	Status     *string         `json:"status"`
	StorageRef *string         `json:"storage_ref"`
	Source     json.RawMessage `json:"source"`
}

func (m ClassifyMetadata) empty() bool {
	return m.BranchCode == nil && m.DocTypeCode == nil && m.SourceChannel == nil &&
		m.ConfidentialityLevel == nil && m.DocDate == nil && m.Author == nil &&
		m.Counterparty == nil && m.Subject == nil && m.QualityFlags == nil
}

// Apply returns c with the metadata's non-nil fields applied.
func (m ClassifyMetadata) Apply(c model.Classification) model.Classification {
	if m.BranchCode != nil {
		c.BranchCode = *m.BranchCode
	}
	if m.DocTypeCode != nil {
		c.DocTypeCode = *m.DocTypeCode
	}
	if m.SourceChannel != nil {
		c.SourceChannel = *m.SourceChannel
	}
	if m.ConfidentialityLevel != nil {
		c.ConfidentialityLevel = *m.ConfidentialityLevel
	}
	if m.DocDate != nil {
		c.DocDate = *m.DocDate
	}
	if m.Author != nil {
		c.Author = *m.Author
	}
	if m.Counterparty != nil {
		c.Counterparty = *m.Counterparty
	}
	if m.Subject != nil {
		c.Subject = *m.Subject
	}
	if m.QualityFlags != nil {
		c.QualityFlags = append([]model.QualityFlag(nil), m.QualityFlags...)
	}
	return c
}

type DocClassify struct {
	Meta
	DocumentID    model.ID         `json:"document_id" validate:"required"`
	Metadata      ClassifyMetadata `json:"metadata"`
	Justification string           `json:"justification"`
}

type DocStatusTransition struct {
	Meta
	DocumentID    model.ID        `json:"document_id" validate:"required"`
	FromStatus    model.DocStatus `json:"from_status" validate:"required,enum"`
	ToStatus      model.DocStatus `json:"to_status" validate:"required,enum"`
	Justification string          `json:"justification"`
}

type DocRename struct {
	Meta
	DocumentID    model.ID `json:"document_id" validate:"required"`
	NewName       string   `json:"new_name" validate:"required"`
	Justification string   `json:"justification"`
}

type DocLinkCreate struct {
	Meta
	LinkType      model.LinkType   `json:"link_type" validate:"required,enum"`
	FromObject    model.LinkObject `json:"from_object"`
	ToObject      model.LinkObject `json:"to_object"`
	Justification string           `json:"justification"`
}

type OriginalRegister struct {
	Meta
	DocumentID    model.ID       `json:"document_id" validate:"required"`
	Label         string         `json:"label" validate:"required,max=256"`
	Location      model.Location `json:"location"`
	Justification string         `json:"justification"`
}

type OriginalCustodyAppend struct {
	Meta
	PhysicalOriginalID model.ID            `json:"physical_original_id" validate:"required"`
	Action             model.CustodyAction `json:"action" validate:"required,enum"`
	Notes              string              `json:"notes,omitempty"`
	MarkVerified       bool                `json:"mark_verified,omitempty"`
	Justification      string              `json:"justification"`
}

type ArtifactCreate struct {
	Meta
	DocumentID       model.ID           `json:"document_id" validate:"required"`
	ArtifactType     model.ArtifactType `json:"artifact_type" validate:"required,enum"`
	InputArtifactID  model.ID           `json:"input_artifact_id"`
	OutputStorageRef string             `json:"output_storage_ref" validate:"required"`
	Filename         string             `json:"filename,omitempty" validate:"omitempty,max=255"`
	MimeType         string             `json:"mime_type,omitempty"`
	ToolVersion      string             `json:"tool_version,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

type TraceAppendDetails struct {
	Summary          string                 `json:"summary,omitempty"`
	Justification    string                 `json:"justification"`
	RiskNote         string                 `json:"risk_note,omitempty"`
	ThinkMoreTrigger model.ThinkMoreTrigger `json:"think_more_trigger,omitempty" validate:"omitempty,enum"`
}

type TraceAppendEvent struct {
	EventType model.TraceEventType `json:"event_type" validate:"required,enum"`
	Objects   []model.ObjectRef    `json:"objects" validate:"required,min=1,dive"`
	Details   TraceAppendDetails   `json:"details"`
}

type TraceAppend struct {
	Meta
	Event TraceAppendEvent `json:"event"`
}

type TraceFilters struct {
	EventType model.TraceEventType `json:"event_type,omitempty" validate:"omitempty,enum"`
	ObjectID  model.ID             `json:"object_id,omitempty"`
	Actor     string               `json:"actor,omitempty"`
	DateFrom  string               `json:"date_from,omitempty" validate:"omitempty,timestamp"`

	From time.Time `json:"-"`
}

type TraceQuery struct {
	Meta
	Filters *TraceFilters `json:"filters,omitempty"`
}

type SearchCriteria struct {
	BranchCode       model.BranchCode  `json:"branch_code,omitempty" validate:"omitempty,enum"`
	Status           model.DocStatus   `json:"status,omitempty" validate:"omitempty,enum"`
	DocTypeCode      model.DocTypeCode `json:"doc_type_code,omitempty" validate:"omitempty,enum"`
	FilenameContains string            `json:"filename_contains,omitempty"`
}

type SearchDocuments struct {
	Meta
	Criteria *SearchCriteria `json:"criteria,omitempty"`
}

type DedupeCheck struct {
	Meta
	BranchCode model.BranchCode `json:"branch_code" validate:"required,enum"`
	StorageRef string           `json:"storage_ref" validate:"required"`
}

func (*CaseGet) Tool() model.ToolName               { return model.ToolCaseGet }
func (*DocGet) Tool() model.ToolName                { return model.ToolDocGet }
func (*CaseCreate) Tool() model.ToolName            { return model.ToolCaseCreate }
func (*BranchCreate) Tool() model.ToolName          { return model.ToolBranchCreate }
func (*DocIngest) Tool() model.ToolName             { return model.ToolDocIngest }
func (*DocClassify) Tool() model.ToolName           { return model.ToolDocClassify }
func (*DocStatusTransition) Tool() model.ToolName   { return model.ToolDocStatusTransition }
func (*DocRename) Tool() model.ToolName             { return model.ToolDocRename }
func (*DocLinkCreate) Tool() model.ToolName         { return model.ToolDocLinkCreate }
func (*OriginalRegister) Tool() model.ToolName      { return model.ToolOriginalRegister }
func (*OriginalCustodyAppend) Tool() model.ToolName { return model.ToolOriginalCustodyAppend }
func (*ArtifactCreate) Tool() model.ToolName        { return model.ToolArtifactCreate }
func (*TraceAppend) Tool() model.ToolName           { return model.ToolTraceAppend }
func (*TraceQuery) Tool() model.ToolName            { return model.ToolTraceQuery }
func (*SearchDocuments) Tool() model.ToolName       { return model.ToolSearchDocuments }
func (*DedupeCheck) Tool() model.ToolName           { return model.ToolDedupeCheck }

// newOperation returns an empty payload value for tool, or nil for unknown tools.
func newOperation(tool model.ToolName) Operation {
	switch tool {
	case model.ToolCaseGet:
		return &CaseGet{}
	case model.ToolDocGet:
		return &DocGet{}
	case model.ToolCaseCreate:
		return &CaseCreate{}
	case model.ToolBranchCreate:
		return &BranchCreate{}
	case model.ToolDocIngest:
		return &DocIngest{}
	case model.ToolDocClassify:
		return &DocClassify{}
	case model.ToolDocStatusTransition:
		return &DocStatusTransition{}
	case model.ToolDocRename:
		return &DocRename{}
	case model.ToolDocLinkCreate:
		return &DocLinkCreate{}
	case model.ToolOriginalRegister:
		return &OriginalRegister{}
	case model.ToolOriginalCustodyAppend:
		return &OriginalCustodyAppend{}
	case model.ToolArtifactCreate:
		return &ArtifactCreate{}
	case model.ToolTraceAppend:
		return &TraceAppend{}
	case model.ToolTraceQuery:
		return &TraceQuery{}
	case model.ToolSearchDocuments:
		return &SearchDocuments{}
	case model.ToolDedupeCheck:
		return &DedupeCheck{}
	}
	return nil
}
