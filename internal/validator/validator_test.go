package validator

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisgate/internal/model"
)

func fixtureCase() *model.Case {
	policy := DefaultPolicy()
	branch := func(code model.BranchCode, docs ...*model.Document) *model.Branch {
		return &model.Branch{
			BranchID:       "br-" + strings.ToLower(string(code)),
			BranchCode:     code,
			BranchLabel:    code.Label(),
			IsolationLevel: policy.IsolationFor(code),
			Documents:      docs,
		}
	}
	doc := func(id model.ID, code model.BranchCode, status model.DocStatus) *model.Document {
		return &model.Document{
			DocumentID:  id,
			CaseID:      "case-1",
			BranchCode:  code,
			DocTypeCode: "LETTER_IN",
			Status:      status,
			Artifacts: []*model.FileArtifact{{
				ArtifactID:   "art-" + id,
				DocumentID:   id,
				ArtifactType: model.ArtifactSource,
				StorageRef:   "s3://case-files/" + id + ".pdf",
				SHA256:       "hash-" + id,
			}},
		}
	}
	return &model.Case{
		CaseID:    "case-1",
		CaseTitle: "Doe v. Roe",
		Branches: []*model.Branch{
			branch(model.BranchCIV, doc("civ-1", model.BranchCIV, model.StatusInbox), doc("civ-2", model.BranchCIV, model.StatusQualified)),
			branch(model.BranchSTR, doc("str-1", model.BranchSTR, model.StatusRegistered)),
			branch(model.BranchPEN, doc("pen-1", model.BranchPEN, model.StatusInbox)),
		},
	}
}

func fixtureState() State {
	owners := map[model.ID]model.ID{"case-2": "case-2", "other-doc": "case-2"}
	return State{
		Case:   fixtureCase(),
		CaseID: "case-1",
		OwnerOf: func(id model.ID) (model.ID, bool) {
			c, ok := owners[id]
			return c, ok
		},
		Policy: DefaultPolicy(),
	}
}

func decode(t *testing.T, tool model.ToolName, payload string) Operation {
	t.Helper()
	op, d := Decode(tool, json.RawMessage(payload))
	require.True(t, d.Accepted, "decode rejected: %+v", d)
	return op
}

func TestReadMeta(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode model.ErrorCode
		wantRID  string
	}{
		{"valid", `{"request_id":"r-1","case_id":"case-1"}`, "", "r-1"},
		{"missing request id", `{"case_id":"case-1"}`, model.CodeTraceRequired, ""},
		{"request id with whitespace", `{"request_id":"r 1"}`, model.CodeTraceRequired, "r 1"},
		{"request id too long", `{"request_id":"` + strings.Repeat("x", MaxIDLength+1) + `"}`, model.CodeTraceRequired, strings.Repeat("x", MaxIDLength+1)},
		{"request id not a string", `{"request_id":42}`, model.CodeTraceRequired, ""},
		{"payload not an object", `[1,2]`, model.CodeSchemaInvalid, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d := ReadMeta(json.RawMessage(tt.payload))
			if tt.wantCode == "" {
				require.True(t, d.Accepted)
			} else {
				assert.Equal(t, tt.wantCode, d.Code)
			}
			assert.Equal(t, tt.wantRID, m.RequestID)
		})
	}
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		tool      model.ToolName
		payload   string
		wantField string
	}{
		{"unknown tool", "doc_delete", `{"request_id":"r"}`, "toolName"},
		{"missing document id", model.ToolDocGet, `{"request_id":"r","case_id":"c"}`, "document_id"},
		{"unknown branch", model.ToolDocIngest, `{"request_id":"r","case_id":"c","branch_code":"XYZ",
			"source":{"storage_ref":"s3://b1b/k","filename":"a.pdf"},
			"metadata":{"doc_type_code":"EMAIL","source_channel":"EMAIL","confidentiality_level":"NORMAL","status":"INBOX"}}`, "branch_code"},
		{"nested required", model.ToolDocIngest, `{"request_id":"r","case_id":"c","branch_code":"CIV",
			"source":{"filename":"a.pdf"},
			"metadata":{"doc_type_code":"EMAIL","source_channel":"EMAIL","confidentiality_level":"NORMAL","status":"INBOX"}}`, "source.storage_ref"},
		{"bad doc date", model.ToolDocIngest, `{"request_id":"r","case_id":"c","branch_code":"CIV",
			"source":{"storage_ref":"s3://b1b/k","filename":"a.pdf"},
			"metadata":{"doc_type_code":"EMAIL","source_channel":"EMAIL","confidentiality_level":"NORMAL","status":"INBOX","doc_date":"2024-13-45"}}`, "metadata.doc_date"},
		{"wrong json type", model.ToolDocStatusTransition, `{"request_id":"r","document_id":7}`, "document_id"},
		{"duplicate branches", model.ToolCaseCreate, `{"request_id":"r","case_title":"T","jurisdiction":"FR",
			"confidentiality_level":"NORMAL","branches":["CIV","CIV"]}`, "branches"},
		{"case id with whitespace", model.ToolCaseGet, `{"request_id":"r","case_id":"a b"}`, "case_id"},
		{"trace filter date", model.ToolTraceQuery, `{"request_id":"r","case_id":"c","filters":{"date_from":"yesterday"}}`, "filters.date_from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, d := Decode(tt.tool, json.RawMessage(tt.payload))
			assert.Nil(t, op)
			assert.False(t, d.Accepted)
			assert.Equal(t, model.CodeSchemaInvalid, d.Code)
			assert.Equal(t, tt.wantField, d.Field)
		})
	}
}

func TestDecode_TraceQueryParsesDateFrom(t *testing.T) {
	op := decode(t, model.ToolTraceQuery, `{"request_id":"r","case_id":"c","filters":{"date_from":"2024-01-15"}}`)
	q := op.(*TraceQuery)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), q.Filters.From)
	assert.Equal(t, "r", q.Header().RequestID)
}

func TestCheck_StatusTransition(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode model.ErrorCode
	}{
		{"legal step", `{"request_id":"r","case_id":"case-1","document_id":"civ-1","from_status":"INBOX","to_status":"REGISTERED","justification":"initial triage"}`, ""},
		{"stale from status", `{"request_id":"r","case_id":"case-1","document_id":"civ-1","from_status":"REGISTERED","to_status":"CLASSIFIED","justification":"x"}`, model.CodeStatusMismatch},
		{"stale wins over missing justification", `{"request_id":"r","case_id":"case-1","document_id":"civ-1","from_status":"FILED","to_status":"FROZEN"}`, model.CodeStatusMismatch},
		{"skipping steps", `{"request_id":"r","case_id":"case-1","document_id":"civ-1","from_status":"INBOX","to_status":"FILED","justification":"rush"}`, model.CodeIllegalStatusTransition},
		{"blank justification", `{"request_id":"r","case_id":"case-1","document_id":"civ-1","from_status":"INBOX","to_status":"REGISTERED","justification":"   "}`, model.CodeMissingJustification},
		{"unknown document", `{"request_id":"r","case_id":"case-1","document_id":"nope","from_status":"INBOX","to_status":"REGISTERED","justification":"x"}`, model.CodeObjectNotFound},
		{"document of another case", `{"request_id":"r","case_id":"case-1","document_id":"other-doc","from_status":"INBOX","to_status":"REGISTERED","justification":"x"}`, model.CodeCaseMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(fixtureState(), decode(t, model.ToolDocStatusTransition, tt.payload))
			if tt.wantCode == "" {
				assert.True(t, d.Accepted, "%+v", d)
				return
			}
			assert.False(t, d.Accepted)
			assert.Equal(t, tt.wantCode, d.Code)
		})
	}
}

func TestCheck_TransitionAfterDisputeEscalates(t *testing.T) {
	s := fixtureState()
	s.History = []model.TraceEvent{{
		EventType: model.EventDocStatusChanged,
		Objects:   []model.ObjectRef{{ObjectType: model.ObjectDocument, ObjectID: "civ-2"}},
		Details:   model.Details{Change: model.StatusChanged{Before: model.StatusClassified, After: model.StatusDisputed}},
	}}
	op := decode(t, model.ToolDocStatusTransition,
		`{"request_id":"r","case_id":"case-1","document_id":"civ-2","from_status":"QUALIFIED","to_status":"EXHIBIT_READY","justification":"ready"}`)

	d := Check(s, op)
	require.True(t, d.Accepted)
	assert.Equal(t, model.TriggerProceduralRisk, d.Trigger)
	assert.NotEmpty(t, d.RiskNote)

	s.History = nil
	d = Check(s, op)
	require.True(t, d.Accepted)
	assert.Empty(t, d.Trigger)
}

func TestCheck_Scope(t *testing.T) {
	op := decode(t, model.ToolCaseGet, `{"request_id":"r","case_id":"case-1"}`)

	s := fixtureState()
	s.EnvelopeCaseID = "case-9"
	assert.Equal(t, model.CodeCaseMismatch, Check(s, op).Code)

	s = fixtureState()
	s.Case = nil
	assert.Equal(t, model.CodeCaseNotFound, Check(s, op).Code)

	s = fixtureState()
	s.CaseID = ""
	assert.Equal(t, model.CodeSchemaInvalid, Check(s, decode(t, model.ToolCaseGet, `{"request_id":"r"}`)).Code)
}

func TestCheck_LinkCreate(t *testing.T) {
	link := func(linkType, from, fromType, to, toType, justification string) string {
		return `{"request_id":"r","case_id":"case-1","link_type":"` + linkType + `",
			"from_object":{"object_type":"` + fromType + `","object_id":"` + from + `"},
			"to_object":{"object_type":"` + toType + `","object_id":"` + to + `"},
			"justification":"` + justification + `"}`
	}
	const why = "same hearing of 2024-01-15"

	s := fixtureState()
	s.Case.Links = []*model.Link{{
		LinkID: "lnk-1", LinkType: model.LinkAttachmentOf,
		FromObject: model.LinkObject{ObjectType: model.ObjectDocument, ObjectID: "civ-1"},
		ToObject:   model.LinkObject{ObjectType: model.ObjectDocument, ObjectID: "civ-2"},
	}}

	tests := []struct {
		name     string
		payload  string
		wantCode model.ErrorCode
	}{
		{"same branch", link("DERIVED_FROM", "civ-2", "DOCUMENT", "civ-1", "DOCUMENT", why), ""},
		{"reference into strict branch", link("CROSS_BRANCH_REFERENCE", "civ-1", "DOCUMENT", "str-1", "DOCUMENT", why), ""},
		{"same event into strict branch", link("RELATES_TO_SAME_EVENT", "civ-1", "DOCUMENT", "str-1", "DOCUMENT", why), model.CodeBranchIsolationViolation},
		{"same event between open branches", link("RELATES_TO_SAME_EVENT", "civ-1", "DOCUMENT", "pen-1", "DOCUMENT", why), ""},
		{"derivation into strict branch", link("DERIVED_FROM", "civ-1", "DOCUMENT", "str-1", "DOCUMENT", why), model.CodeBranchIsolationViolation},
		{"short justification", link("DERIVED_FROM", "civ-2", "DOCUMENT", "civ-1", "DOCUMENT", "because"), model.CodeMissingJustification},
		{"short justification on reference", link("CROSS_BRANCH_REFERENCE", "civ-1", "DOCUMENT", "str-1", "DOCUMENT", "see"), model.CodeMissingJustification},
		{"other case", link("CROSS_BRANCH_REFERENCE", "civ-1", "DOCUMENT", "other-doc", "DOCUMENT", why), model.CodeCaseMismatch},
		{"other case root", link("RELATES_TO_SAME_EVENT", "case-1", "CASE", "case-2", "CASE", why), model.CodeCaseMismatch},
		{"unknown endpoint", link("CROSS_BRANCH_REFERENCE", "civ-1", "DOCUMENT", "ghost", "DOCUMENT", why), model.CodeObjectNotFound},
		{"wrong endpoint type", link("OCR_OF", "art-civ-1", "DOCUMENT", "civ-1", "DOCUMENT", why), model.CodeObjectNotFound},
		{"artifact endpoint", link("OCR_OF", "art-civ-1", "ARTIFACT", "civ-2", "DOCUMENT", why), ""},
		{"other endpoint", link("SUPERSEDES", "civ-1", "OTHER", "civ-2", "DOCUMENT", why), model.CodeSchemaInvalid},
		{"self link", link("SUPERSEDES", "civ-1", "DOCUMENT", "civ-1", "DOCUMENT", why), model.CodeSchemaInvalid},
		{"identical link", link("ATTACHMENT_OF", "civ-1", "DOCUMENT", "civ-2", "DOCUMENT", why), model.CodeIDAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(s, decode(t, model.ToolDocLinkCreate, tt.payload))
			if tt.wantCode == "" {
				assert.True(t, d.Accepted, "%+v", d)
				return
			}
			assert.Equal(t, tt.wantCode, d.Code, d.Message)
		})
	}
}

func TestCheck_LinkBranchHint(t *testing.T) {
	op := decode(t, model.ToolDocLinkCreate, `{"request_id":"r","case_id":"case-1","link_type":"CROSS_BRANCH_REFERENCE",
		"from_object":{"object_type":"DOCUMENT","object_id":"civ-1","branch_code":"PEN"},
		"to_object":{"object_type":"DOCUMENT","object_id":"pen-1"},"justification":"same hearing notes"}`)
	d := Check(fixtureState(), op)
	assert.Equal(t, model.CodeSchemaInvalid, d.Code)
	assert.Equal(t, "from_object.branch_code", d.Field)
}

func TestCheck_Rename(t *testing.T) {
	tests := []struct {
		name     string
		newName  string
		wantCode model.ErrorCode
	}{
		{"compliant", "CIV_2024-01-15_LETTER_demand.pdf", ""},
		{"free text", "INVALID name.pdf", model.CodeFilenameNonCompliant},
		{"wrong branch prefix", "PEN_2024-01-15_LETTER_demand.pdf", model.CodeFilenameNonCompliant},
		{"impossible date", "CIV_2024-02-30_LETTER_demand.pdf", model.CodeFilenameNonCompliant},
		{"missing extension", "CIV_2024-01-15_LETTER_demand", model.CodeFilenameNonCompliant},
		{"taken", "CIV_2023-05-01_REPLY_answer.pdf", model.CodeIDAlreadyExists},
	}
	s := fixtureState()
	s.Case.Document("civ-2").CanonicalName = "CIV_2023-05-01_REPLY_answer.pdf"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := decode(t, model.ToolDocRename, `{"request_id":"r","case_id":"case-1","document_id":"civ-1",
				"new_name":"`+tt.newName+`","justification":"naming convention"}`)
			d := Check(s, op)
			if tt.wantCode == "" {
				assert.True(t, d.Accepted, "%+v", d)
				return
			}
			assert.Equal(t, tt.wantCode, d.Code)
		})
	}
}

func TestCheck_Ingest(t *testing.T) {
	ingest := func(branch, ref, status string) string {
		return `{"request_id":"r","case_id":"case-1","branch_code":"` + branch + `",
			"source":{"storage_ref":"` + ref + `","filename":"letter.pdf"},
			"metadata":{"doc_type_code":"LETTER_IN","source_channel":"POST","confidentiality_level":"NORMAL","status":"` + status + `"}}`
	}
	tests := []struct {
		name     string
		payload  string
		facts    Facts
		wantCode model.ErrorCode
	}{
		{"accepted", ingest("CIV", "s3://case-files/new.pdf", "INBOX"), nil, ""},
		{"branch missing from case", ingest("MED", "s3://case-files/new.pdf", "INBOX"), nil, model.CodeObjectNotFound},
		{"not inbox", ingest("CIV", "s3://case-files/new.pdf", "REGISTERED"), nil, model.CodeIllegalStatusTransition},
		{"bad ref", ingest("CIV", "case-files/new.pdf", "INBOX"), nil, model.CodeStorageRefInvalid},
		{"scheme refused", ingest("CIV", "ftp://case-files/new.pdf", "INBOX"), nil, model.CodeStorageRefInvalid},
		{"object missing", ingest("CIV", "s3://case-files/new.pdf", "INBOX"), Facts{"s3://case-files/new.pdf": {}}, model.CodeStorageRefInvalid},
		{"same ref in branch", ingest("CIV", "s3://case-files/civ-1.pdf", "INBOX"), nil, model.CodeDuplicateDetected},
		{"same ref in other branch", ingest("PEN", "s3://case-files/civ-1.pdf", "INBOX"), nil, ""},
		{"same hash in branch", ingest("CIV", "s3://case-files/copy.pdf", "INBOX"),
			Facts{"s3://case-files/copy.pdf": {Exists: true, SHA256: "hash-civ-2"}}, model.CodeDuplicateDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixtureState()
			s.Facts = tt.facts
			d := Check(s, decode(t, model.ToolDocIngest, tt.payload))
			if tt.wantCode == "" {
				assert.True(t, d.Accepted, "%+v", d)
				return
			}
			assert.Equal(t, tt.wantCode, d.Code)
		})
	}
}

func TestCheck_IngestClientIDCollision(t *testing.T) {
	op := decode(t, model.ToolDocIngest, `{"request_id":"r","case_id":"case-1","document_id":"civ-2","branch_code":"CIV",
		"source":{"storage_ref":"s3://case-files/x.pdf","filename":"x.pdf"},
		"metadata":{"doc_type_code":"LETTER_IN","source_channel":"POST","confidentiality_level":"NORMAL","status":"INBOX"}}`)
	assert.Equal(t, model.CodeIDAlreadyExists, Check(fixtureState(), op).Code)
}

func TestCheck_ArtifactCreate(t *testing.T) {
	artifact := func(typ, input, ref string) string {
		return `{"request_id":"r","case_id":"case-1","document_id":"civ-1","artifact_type":"` + typ + `",
			"input_artifact_id":"` + input + `","output_storage_ref":"` + ref + `","notes":"n"}`
	}
	tests := []struct {
		name     string
		payload  string
		wantCode model.ErrorCode
	}{
		{"ocr", artifact("OCR_TEXT", "art-civ-1", "s3://case-files/civ-1.txt"), ""},
		{"second source", artifact("SOURCE", "art-civ-1", "s3://case-files/civ-1b.pdf"), model.CodeSourceImmutable},
		{"overwrite source ref", artifact("REDACTED_FILE", "art-civ-1", "s3://case-files/civ-1.pdf"), model.CodeSourceImmutable},
		{"no input", artifact("OCR_TEXT", "", "s3://case-files/civ-1.txt"), model.CodeProvenanceRequired},
		{"input of other document", artifact("OCR_TEXT", "art-civ-2", "s3://case-files/civ-1.txt"), model.CodeProvenanceRequired},
		{"bad output ref", artifact("OCR_TEXT", "art-civ-1", "civ-1.txt"), model.CodeStorageRefInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(fixtureState(), decode(t, model.ToolArtifactCreate, tt.payload))
			if tt.wantCode == "" {
				assert.True(t, d.Accepted, "%+v", d)
				return
			}
			assert.Equal(t, tt.wantCode, d.Code)
		})
	}
}

func TestCheck_Classify(t *testing.T) {
	s := fixtureState()
	s.Case.Links = []*model.Link{{
		LinkID: "lnk-1", LinkType: model.LinkRelatesToSameEvent,
		FromObject: model.LinkObject{ObjectType: model.ObjectDocument, ObjectID: "civ-1"},
		ToObject:   model.LinkObject{ObjectType: model.ObjectDocument, ObjectID: "pen-1"},
	}}
	classify := func(metadata string) Operation {
		return decode(t, model.ToolDocClassify, `{"request_id":"r","case_id":"case-1","document_id":"civ-1",
			"metadata":`+metadata+`,"justification":"reviewed"}`)
	}

	d := Check(s, classify(`{"doc_type_code":"COMPLAINT"}`))
	assert.True(t, d.Accepted)

	assert.Equal(t, model.CodeSchemaInvalid, Check(s, classify(`{"status":"FILED"}`)).Code)
	assert.Equal(t, model.CodeSourceImmutable, Check(s, classify(`{"storage_ref":"s3://case-files/x.pdf"}`)).Code)
	assert.Equal(t, model.CodeSchemaInvalid, Check(s, classify(`{}`)).Code)
	assert.Equal(t, model.CodeObjectNotFound, Check(s, classify(`{"branch_code":"MED"}`)).Code)

	// Moving civ-1 into STR would make lnk-1 cross a STRICT boundary.
	d = Check(s, classify(`{"branch_code":"STR"}`))
	assert.Equal(t, model.CodeBranchIsolationViolation, d.Code)

	s.Case.Links = nil
	d = Check(s, classify(`{"branch_code":"STR"}`))
	require.True(t, d.Accepted)
	assert.Equal(t, model.TriggerBranchConflict, d.Trigger)
}

func TestCheck_Custody(t *testing.T) {
	s := fixtureState()
	s.Case.PhysicalOriginals = []*model.PhysicalOriginal{{
		PhysicalOriginalID: "po-1",
		CaseID:             "case-1",
		CustodyChain:       []model.CustodyEvent{{Action: model.CustodyCreated}},
	}}
	custody := func(action string) Operation {
		return decode(t, model.ToolOriginalCustodyAppend, `{"request_id":"r","case_id":"case-1",
			"physical_original_id":"po-1","action":"`+action+`","justification":"court visit"}`)
	}

	assert.True(t, Check(s, custody("VIEWED")).Accepted)
	assert.Equal(t, model.CodeSchemaInvalid, Check(s, custody("CREATED")).Code)

	s.Case.PhysicalOriginals[0].CustodyChain = append(s.Case.PhysicalOriginals[0].CustodyChain,
		model.CustodyEvent{Action: model.CustodyDestroyed})
	assert.Equal(t, model.CodeIllegalStatusTransition, Check(s, custody("RETURNED")).Code)
}

func TestCheck_TraceAppend(t *testing.T) {
	appendOp := func(eventType, objectID, justification string) Operation {
		return decode(t, model.ToolTraceAppend, `{"request_id":"r","case_id":"case-1","event":{
			"event_type":"`+eventType+`","objects":[{"object_type":"DOCUMENT","object_id":"`+objectID+`"}],
			"details":{"summary":"s","justification":"`+justification+`","think_more_trigger":"MULTI_TYPE_CONFLICT"}}}`)
	}
	d := Check(fixtureState(), appendOp("ESCALATED_REASONING", "civ-1", "two plausible types"))
	require.True(t, d.Accepted)
	assert.Equal(t, model.TriggerMultiTypeConflict, d.Trigger)

	assert.Equal(t, model.CodeSchemaInvalid, Check(fixtureState(), appendOp("DOC_STATUS_CHANGED", "civ-1", "x")).Code)
	assert.Equal(t, model.CodeObjectNotFound, Check(fixtureState(), appendOp("ESCALATED_REASONING", "ghost", "x")).Code)
	assert.Equal(t, model.CodeMissingJustification, Check(fixtureState(), appendOp("EXPORT_CREATED", "civ-1", "")).Code)
}

func TestCheck_CaseCreateAndBranchCreate(t *testing.T) {
	create := decode(t, model.ToolCaseCreate, `{"request_id":"r","case_id":"case-2","case_title":"T","jurisdiction":"FR",
		"confidentiality_level":"NORMAL","branches":["CIV"]}`)
	assert.Equal(t, model.CodeIDAlreadyExists, Check(State{OwnerOf: fixtureState().OwnerOf, Policy: DefaultPolicy()}, create).Code)

	fresh := decode(t, model.ToolCaseCreate, `{"request_id":"r","case_title":"T","jurisdiction":"FR",
		"confidentiality_level":"NORMAL","branches":["CIV"],"parties":[{"party_role":"SELF","display_label":"Jane"}]}`)
	assert.True(t, Check(State{Policy: DefaultPolicy()}, fresh).Accepted)

	branch := func(code string) Operation {
		return decode(t, model.ToolBranchCreate, `{"request_id":"r","case_id":"case-1","branch_code":"`+code+`","justification":"new claim"}`)
	}
	assert.Equal(t, model.CodeIDAlreadyExists, Check(fixtureState(), branch("CIV")).Code)
	assert.True(t, Check(fixtureState(), branch("MED")).Accepted)
}

func TestCheck_Dedupe(t *testing.T) {
	op := decode(t, model.ToolDedupeCheck, `{"request_id":"r","case_id":"case-1","branch_code":"CIV","storage_ref":"s3://case-files/civ-1.pdf"}`)
	s := fixtureState()
	require.True(t, Check(s, op).Accepted)

	dups := Duplicates(s.Case.Branch(model.BranchCIV), "s3://case-files/civ-1.pdf", nil)
	require.Len(t, dups, 1)
	assert.Equal(t, model.ID("art-civ-1"), dups[0].ArtifactID)
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.Isolation["NOPE"] = model.IsolationStrict
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.CrossBranchLinks[model.IsolationStrict] = []model.LinkType{"TELEPORT"}
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.MinLinkJustification = 0
	assert.Error(t, p.Validate())
}
