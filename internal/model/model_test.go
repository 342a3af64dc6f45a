package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocStatus
		to   DocStatus
		want bool
	}{
		{"inbox to registered", StatusInbox, StatusRegistered, true},
		{"inbox to filed skips steps", StatusInbox, StatusFiled, false},
		{"disputed back to classified", StatusDisputed, StatusClassified, true},
		{"redacted to qualified", StatusRedacted, StatusQualified, true},
		{"archived is terminal", StatusArchived, StatusInbox, false},
		{"error reopens to inbox", StatusError, StatusInbox, true},
		{"duplicate cannot be disputed", StatusDuplicate, StatusDisputed, false},
		{"self loop", StatusQualified, StatusQualified, false},
		{"unknown source", DocStatus("LOST"), StatusInbox, false},
		{"unknown target", StatusInbox, DocStatus("LOST"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatusTable_EveryStatusReachableFromInbox(t *testing.T) {
	seen := map[DocStatus]bool{InitialStatus: true}
	queue := []DocStatus{InitialStatus}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range NextStatuses(s) {
			require.True(t, next.Valid(), "%s -> %s", s, next)
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, s := range AllStatuses {
		assert.True(t, seen[s], "status %s unreachable", s)
	}
	assert.True(t, StatusArchived.Terminal())
	assert.False(t, StatusError.Terminal())
}

func TestErrorCode_Category(t *testing.T) {
	counts := map[ErrorCategory]int{}
	for _, c := range AllErrorCodes {
		counts[c.Category()]++
	}
	assert.Equal(t, 1, counts[CategoryMalformed])
	assert.Equal(t, 4, counts[CategoryReferential])
	assert.Equal(t, 8, counts[CategoryPolicy])
	assert.Equal(t, 2, counts[CategoryIntegrity])
	assert.Panics(t, func() { ErrorCode("NOPE").Category() })
}

func TestParseStorageRef(t *testing.T) {
	ref, err := ParseStorageRef("s3://case-files/inbox/letter.pdf")
	require.NoError(t, err)
	assert.Equal(t, StorageRef{Scheme: "s3", Bucket: "case-files", Key: "inbox/letter.pdf"}, ref)
	assert.Equal(t, "s3://case-files/inbox/letter.pdf", ref.String())

	for _, bad := range []string{
		"",
		"case-files/letter.pdf",
		"s3://case-files",
		"s3://case-files/",
		"s3://Case_Files/letter.pdf",
		"s3://ab/letter.pdf",
		"s3://case-files/dir/",
		"s3://case-files/my letter.pdf",
	} {
		_, err := ParseStorageRef(bad)
		assert.ErrorIs(t, err, ErrStorageRef, bad)
	}
}

func TestTraceEvent_DetailsVariantSurvivesJSON(t *testing.T) {
	ev := TraceEvent{
		EventID:   "ev-1",
		CaseID:    "case-1",
		Timestamp: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Actor:     "clerk",
		EventType: EventDocStatusChanged,
		Objects:   []ObjectRef{{ObjectType: ObjectDocument, ObjectID: "doc-1", BranchCode: BranchCIV}},
		Details: Details{
			Justification: "initial triage",
			RequestID:     "req-1",
			Tool:          ToolDocStatusTransition,
			Change:        StatusChanged{Before: StatusInbox, After: StatusRegistered},
		},
	}

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"status_changed"`)

	var got TraceEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, ev, got)

	change, ok := got.Details.Change.(StatusChanged)
	require.True(t, ok)
	assert.Equal(t, StatusRegistered, change.After)
}

func TestDetails_UnknownKindRejected(t *testing.T) {
	var d Details
	err := d.UnmarshalJSON([]byte(`{"kind":"teleported","change":{}}`))
	assert.Error(t, err)
}

func TestCase_CloneIsDeep(t *testing.T) {
	size := int64(10)
	c := &Case{
		CaseID: "case-1",
		Branches: []*Branch{{
			BranchID:   "br-1",
			BranchCode: BranchCIV,
			Documents: []*Document{{
				DocumentID: "doc-1",
				BranchCode: BranchCIV,
				Status:     StatusInbox,
				Artifacts:  []*FileArtifact{{ArtifactID: "art-1", ArtifactType: ArtifactSource, ByteSize: &size}},
			}},
		}},
		PhysicalOriginals: []*PhysicalOriginal{{PhysicalOriginalID: "po-1", CustodyChain: []CustodyEvent{{Action: CustodyCreated}}}},
	}

	cp := c.Clone()
	cp.Branches[0].Documents[0].Status = StatusRegistered
	*cp.Branches[0].Documents[0].Artifacts[0].ByteSize = 99
	cp.PhysicalOriginals[0].CustodyChain[0].Action = CustodyLost

	assert.Equal(t, StatusInbox, c.Document("doc-1").Status)
	assert.Equal(t, int64(10), *c.Document("doc-1").Source().ByteSize)
	assert.Equal(t, CustodyCreated, c.PhysicalOriginal("po-1").LastAction())
}

func TestCase_Resolve(t *testing.T) {
	c := &Case{
		CaseID: "case-1",
		Branches: []*Branch{{
			BranchID:   "br-1",
			BranchCode: BranchMED,
			Documents: []*Document{{
				DocumentID: "doc-1",
				BranchCode: BranchMED,
				Artifacts:  []*FileArtifact{{ArtifactID: "art-1"}},
			}},
		}},
		PhysicalOriginals: []*PhysicalOriginal{{PhysicalOriginalID: "po-1", DocumentID: "doc-1"}},
		Links:             []*Link{{LinkID: "lnk-1"}},
	}

	tests := []struct {
		id         ID
		wantType   ObjectType
		wantBranch BranchCode
		wantOK     bool
	}{
		{"case-1", ObjectCase, "", true},
		{"br-1", ObjectBranch, BranchMED, true},
		{"doc-1", ObjectDocument, BranchMED, true},
		{"art-1", ObjectArtifact, BranchMED, true},
		{"po-1", ObjectPhysicalOriginal, BranchMED, true},
		{"lnk-1", ObjectLink, "", true},
		{"missing", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			typ, branch, ok := c.Resolve(tt.id)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantBranch, branch)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
	assert.Len(t, c.ObjectIDs(), 6)
}
