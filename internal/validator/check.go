package validator

import (
	"fmt"
	"strings"

	"jurisgate/internal/model"
)

// ObjectFact is what object storage reported about a storage ref.
type ObjectFact struct {
	Exists      bool
	Size        int64
	ContentType string
	SHA256      string
}

// Facts maps storage refs to inspection results. A ref absent from the map was
// not inspected and is judged on its format alone.
type Facts map[string]ObjectFact

// State is the read-only input of Check. Case and History belong to the
// caller's transaction and are not modified.
type State struct {
	// Case is nil when the addressed case does not exist.
	Case *model.Case
	// CaseID is the addressed case: the payload case_id, else the envelope caseId.
	CaseID         model.ID
	EnvelopeCaseID model.ID
	History        []model.TraceEvent
	// OwnerOf reports which case holds an object id. It may be nil.
	OwnerOf func(model.ID) (model.ID, bool)
	Facts   Facts
	Policy  *Policy
}

func (s State) owner(id model.ID) (model.ID, bool) {
	if s.OwnerOf == nil {
		return "", false
	}
	return s.OwnerOf(id)
}

func (s State) idTaken(id model.ID) bool {
	if _, found := s.owner(id); found {
		return true
	}
	if s.Case != nil {
		_, _, ok := s.Case.Resolve(id)
		return ok
	}
	return false
}

// Check decides whether op may be applied to s.
func Check(s State, op Operation) Decision {
	if d := checkScope(s, op); !d.Accepted {
		return d
	}

	switch o := op.(type) {
	case *CaseGet:
		return accept()
	case *DocGet:
		_, d := requireDocument(s, o.DocumentID)
		return d
	case *CaseCreate:
		return checkCaseCreate(s, o)
	case *BranchCreate:
		return checkBranchCreate(s, o)
	case *DocIngest:
		return checkDocIngest(s, o)
	case *DocClassify:
		return checkDocClassify(s, o)
	case *DocStatusTransition:
		return checkStatusTransition(s, o)
	case *DocRename:
		return checkDocRename(s, o)
	case *DocLinkCreate:
		return checkLinkCreate(s, o)
	case *OriginalRegister:
		return checkOriginalRegister(s, o)
	case *OriginalCustodyAppend:
		return checkCustodyAppend(s, o)
	case *ArtifactCreate:
		return checkArtifactCreate(s, o)
	case *TraceAppend:
		return checkTraceAppend(s, o)
	case *TraceQuery:
		return accept()
	case *SearchDocuments:
		return accept()
	case *DedupeCheck:
		return checkDedupe(s, o)
	default:
		panic(fmt.Sprintf("validator: unhandled operation %T", op))
	}
}

func checkScope(s State, op Operation) Decision {
	payloadCase := op.Header().CaseID
	if _, ok := op.(*CaseCreate); ok {
		return accept()
	}
	if payloadCase != "" && s.EnvelopeCaseID != "" && payloadCase != s.EnvelopeCaseID {
		return reject(model.CodeCaseMismatch, "case_id",
			"payload case %q differs from request case %q", payloadCase, s.EnvelopeCaseID)
	}
	if s.CaseID == "" {
		return reject(model.CodeSchemaInvalid, "case_id", "case_id is required")
	}
	if s.Case == nil {
		return reject(model.CodeCaseNotFound, "case_id", "case %q not found", s.CaseID)
	}
	return accept()
}

func justified(text string) bool {
	return strings.TrimSpace(text) != ""
}

func requireJustification(text string) Decision {
	if !justified(text) {
		return reject(model.CodeMissingJustification, "justification", "justification is required")
	}
	return accept()
}

func requireDocument(s State, id model.ID) (*model.Document, Decision) {
	if doc := s.Case.Document(id); doc != nil {
		return doc, accept()
	}
	if owner, found := s.owner(id); found && owner != s.Case.CaseID {
		return nil, reject(model.CodeCaseMismatch, "document_id", "document %q belongs to another case", id)
	}
	return nil, reject(model.CodeObjectNotFound, "document_id", "document %q not found", id)
}

func checkCaseCreate(s State, o *CaseCreate) Decision {
	if o.CaseID == model.SystemScope || (o.CaseID != "" && s.idTaken(o.CaseID)) {
		return reject(model.CodeIDAlreadyExists, "case_id", "id %q already exists", o.CaseID)
	}
	return accept()
}

func checkBranchCreate(s State, o *BranchCreate) Decision {
	if s.Case.Branch(o.BranchCode) != nil {
		return reject(model.CodeIDAlreadyExists, "branch_code", "branch %s already exists", o.BranchCode)
	}
	return requireJustification(o.Justification)
}

func checkStorageRef(s State, ref, field string) Decision {
	parsed, err := model.ParseStorageRef(ref)
	if err != nil {
		return reject(model.CodeStorageRefInvalid, field, "%q is not a <scheme>://<bucket>/<key> reference", ref)
	}
	if !s.Policy.SchemeAllowed(parsed.Scheme) {
		return reject(model.CodeStorageRefInvalid, field, "storage scheme %q is not accepted", parsed.Scheme)
	}
	if fact, inspected := s.Facts[ref]; inspected && !fact.Exists {
		return reject(model.CodeStorageRefInvalid, field, "object %q not found in storage", ref)
	}
	return accept()
}

// Duplicates returns the artifacts of branch whose content matches ref. The
// content hash is compared when ref was inspected, the ref itself otherwise.
func Duplicates(branch *model.Branch, ref string, facts Facts) []*model.FileArtifact {
	fact, inspected := facts[ref]
	var out []*model.FileArtifact
	for _, doc := range branch.Documents {
		for _, a := range doc.Artifacts {
			if inspected && fact.SHA256 != "" {
				if a.SHA256 == fact.SHA256 {
					out = append(out, a)
				}
				continue
			}
			if a.StorageRef == ref {
				out = append(out, a)
			}
		}
	}
	return out
}

func checkDocIngest(s State, o *DocIngest) Decision {
	branch := s.Case.Branch(o.BranchCode)
	if branch == nil {
		return reject(model.CodeObjectNotFound, "branch_code", "case has no %s branch", o.BranchCode)
	}
	if o.Metadata.Status != model.InitialStatus {
		return reject(model.CodeIllegalStatusTransition, "metadata.status",
			"documents enter the case as %s, not %s", model.InitialStatus, o.Metadata.Status)
	}
	if o.DocumentID != "" && s.idTaken(o.DocumentID) {
		return reject(model.CodeIDAlreadyExists, "document_id", "id %q already exists", o.DocumentID)
	}
	if d := checkStorageRef(s, o.Source.StorageRef, "source.storage_ref"); !d.Accepted {
		return d
	}
	if dups := Duplicates(branch, o.Source.StorageRef, s.Facts); len(dups) > 0 {
		return reject(model.CodeDuplicateDetected, "source.storage_ref",
			"content matches artifact %s of document %s", dups[0].ArtifactID, dups[0].DocumentID)
	}
	return hybridCheck(accept(), o.BranchCode, o.Metadata.DocTypeCode)
}

// hybridCheck flags medical documents outside the medical branch and the reverse.
func hybridCheck(d Decision, branch model.BranchCode, typ model.DocTypeCode) Decision {
	medType := strings.HasPrefix(string(typ), "MED_")
	if medType != (branch == model.BranchMED) {
		return d.Escalate(model.TriggerHybridMedicoLegal,
			fmt.Sprintf("document type %s filed under branch %s", typ, branch))
	}
	return d
}

func checkDocClassify(s State, o *DocClassify) Decision {
	doc, d := requireDocument(s, o.DocumentID)
	if !d.Accepted {
		return d
	}
	m := o.Metadata
	if m.StorageRef != nil || len(m.Source) > 0 {
		return reject(model.CodeSourceImmutable, "metadata.storage_ref", "classification cannot change the source file")
	}
	if m.Status != nil {
		return reject(model.CodeSchemaInvalid, "metadata.status", "status changes go through doc_status_transition")
	}
	if m.empty() {
		return reject(model.CodeSchemaInvalid, "metadata", "metadata changes nothing")
	}
	if d := requireJustification(o.Justification); !d.Accepted {
		return d
	}

	after := m.Apply(model.ClassificationOf(doc))
	out := accept()
	if after.BranchCode != doc.BranchCode {
		if s.Case.Branch(after.BranchCode) == nil {
			return reject(model.CodeObjectNotFound, "metadata.branch_code", "case has no %s branch", after.BranchCode)
		}
		if d := checkBranchMove(s, doc, after.BranchCode); !d.Accepted {
			return d
		}
		out = out.Escalate(model.TriggerBranchConflict,
			fmt.Sprintf("document moved from %s to %s", doc.BranchCode, after.BranchCode))
	}
	return hybridCheck(out, after.BranchCode, after.DocTypeCode)
}

// checkBranchMove re-evaluates every link of doc as if doc lived in target.
func checkBranchMove(s State, doc *model.Document, target model.BranchCode) Decision {
	moved := map[model.ID]bool{doc.DocumentID: true}
	for _, a := range doc.Artifacts {
		moved[a.ArtifactID] = true
	}
	if doc.PhysicalOriginalID != "" {
		moved[doc.PhysicalOriginalID] = true
	}
	branchOf := func(obj model.LinkObject) model.BranchCode {
		if moved[obj.ObjectID] {
			return target
		}
		_, b, _ := s.Case.Resolve(obj.ObjectID)
		return b
	}
	for _, l := range s.Case.Links {
		if !moved[l.FromObject.ObjectID] && !moved[l.ToObject.ObjectID] {
			continue
		}
		if blocked, _, ok := crossingBlocked(s, l.LinkType, branchOf(l.FromObject), branchOf(l.ToObject)); ok {
			return reject(model.CodeBranchIsolationViolation, "metadata.branch_code",
				"link %s (%s) would cross the %s boundary", l.LinkID, l.LinkType, blocked)
		}
	}
	return accept()
}

// crossingBlocked returns the branch, and its level, whose isolation forbids
// a link of type t between a and b. Links within one branch or touching no
// branch are free.
func crossingBlocked(s State, t model.LinkType, a, b model.BranchCode) (model.BranchCode, model.IsolationLevel, bool) {
	if a == "" || b == "" || a == b {
		return "", "", false
	}
	for _, code := range []model.BranchCode{a, b} {
		lvl := s.Policy.IsolationFor(code)
		if br := s.Case.Branch(code); br != nil {
			lvl = br.IsolationLevel
		}
		if !s.Policy.PermitsCrossing(lvl, t) {
			return code, lvl, true
		}
	}
	return "", "", false
}

// EverInStatus reports whether history shows doc entering status.
func EverInStatus(history []model.TraceEvent, doc model.ID, status model.DocStatus) bool {
	for i := range history {
		ev := &history[i]
		change, ok := ev.Details.Change.(model.StatusChanged)
		if ok && change.After == status && ev.Touches(doc) {
			return true
		}
	}
	return false
}

func checkStatusTransition(s State, o *DocStatusTransition) Decision {
	doc, d := requireDocument(s, o.DocumentID)
	if !d.Accepted {
		return d
	}
	if o.FromStatus != doc.Status {
		return reject(model.CodeStatusMismatch, "from_status",
			"document is %s, not %s", doc.Status, o.FromStatus)
	}
	if !model.CanTransition(doc.Status, o.ToStatus) {
		return reject(model.CodeIllegalStatusTransition, "to_status",
			"%s cannot move to %s", doc.Status, o.ToStatus)
	}
	if d := requireJustification(o.Justification); !d.Accepted {
		return d
	}
	out := accept()
	if (o.ToStatus == model.StatusExhibitReady || o.ToStatus == model.StatusFiled) &&
		EverInStatus(s.History, doc.DocumentID, model.StatusDisputed) {
		out = out.Escalate(model.TriggerProceduralRisk,
			fmt.Sprintf("document was disputed earlier and is now moving to %s", o.ToStatus))
	}
	return out
}

func checkDocRename(s State, o *DocRename) Decision {
	doc, d := requireDocument(s, o.DocumentID)
	if !d.Accepted {
		return d
	}
	if err := CheckCanonicalName(o.NewName, doc.BranchCode); err != nil {
		return reject(model.CodeFilenameNonCompliant, "new_name", "%v", err)
	}
	if d := requireJustification(o.Justification); !d.Accepted {
		return d
	}
	if doc.CanonicalName == o.NewName {
		return reject(model.CodeSchemaInvalid, "new_name", "document is already named %s", o.NewName)
	}
	if other := s.Case.DocumentByName(o.NewName); other != nil {
		return reject(model.CodeIDAlreadyExists, "new_name", "name %s is used by document %s", o.NewName, other.DocumentID)
	}
	return accept()
}

func resolveEndpoint(s State, obj model.LinkObject, field string) (model.BranchCode, Decision) {
	if !obj.ObjectType.ValidLinkEndpoint() || obj.ObjectType == model.ObjectOther {
		return "", reject(model.CodeSchemaInvalid, field+".object_type",
			"%q cannot be linked", string(obj.ObjectType))
	}
	typ, branch, ok := s.Case.Resolve(obj.ObjectID)
	if !ok {
		if owner, found := s.owner(obj.ObjectID); found && owner != s.Case.CaseID {
			return "", reject(model.CodeCaseMismatch, field+".object_id",
				"%s %q belongs to another case", obj.ObjectType, obj.ObjectID)
		}
		return "", reject(model.CodeObjectNotFound, field+".object_id", "%s %q not found", obj.ObjectType, obj.ObjectID)
	}
	if typ != obj.ObjectType {
		return "", reject(model.CodeObjectNotFound, field+".object_id", "%q is a %s, not a %s", obj.ObjectID, typ, obj.ObjectType)
	}
	if obj.BranchCode != "" && obj.BranchCode != branch {
		return "", reject(model.CodeSchemaInvalid, field+".branch_code",
			"%q lives in branch %q, not %s", obj.ObjectID, branch, obj.BranchCode)
	}
	return branch, accept()
}

func checkLinkCreate(s State, o *DocLinkCreate) Decision {
	if len([]rune(strings.TrimSpace(o.Justification))) < s.Policy.MinLinkJustification {
		return reject(model.CodeMissingJustification, "justification",
			"link justification needs at least %d characters", s.Policy.MinLinkJustification)
	}
	if o.FromObject.ObjectID == o.ToObject.ObjectID {
		return reject(model.CodeSchemaInvalid, "to_object.object_id", "an object cannot link to itself")
	}
	fromBranch, d := resolveEndpoint(s, o.FromObject, "from_object")
	if !d.Accepted {
		return d
	}
	toBranch, d := resolveEndpoint(s, o.ToObject, "to_object")
	if !d.Accepted {
		return d
	}
	if blocked, lvl, ok := crossingBlocked(s, o.LinkType, fromBranch, toBranch); ok {
		return reject(model.CodeBranchIsolationViolation, "link_type",
			"%s links may not cross the %s branch boundary (%s)", o.LinkType, blocked, lvl)
	}
	for _, l := range s.Case.Links {
		if l.LinkType == o.LinkType && l.FromObject.ObjectID == o.FromObject.ObjectID &&
			l.ToObject.ObjectID == o.ToObject.ObjectID {
			return reject(model.CodeIDAlreadyExists, "link_type", "identical link %s already exists", l.LinkID)
		}
	}
	return accept()
}

func checkOriginalRegister(s State, o *OriginalRegister) Decision {
	doc, d := requireDocument(s, o.DocumentID)
	if !d.Accepted {
		return d
	}
	if doc.PhysicalOriginalID != "" {
		return reject(model.CodeIDAlreadyExists, "document_id",
			"document already has physical original %s", doc.PhysicalOriginalID)
	}
	return requireJustification(o.Justification)
}

func checkCustodyAppend(s State, o *OriginalCustodyAppend) Decision {
	po := s.Case.PhysicalOriginal(o.PhysicalOriginalID)
	if po == nil {
		if owner, found := s.owner(o.PhysicalOriginalID); found && owner != s.Case.CaseID {
			return reject(model.CodeCaseMismatch, "physical_original_id",
				"physical original %q belongs to another case", o.PhysicalOriginalID)
		}
		return reject(model.CodeObjectNotFound, "physical_original_id",
			"physical original %q not found", o.PhysicalOriginalID)
	}
	if o.Action == model.CustodyCreated {
		return reject(model.CodeSchemaInvalid, "action", "CREATED is recorded at registration only")
	}
	if po.LastAction() == model.CustodyDestroyed {
		return reject(model.CodeIllegalStatusTransition, "action", "physical original %s was destroyed", po.PhysicalOriginalID)
	}
	return requireJustification(o.Justification)
}

func checkArtifactCreate(s State, o *ArtifactCreate) Decision {
	doc, d := requireDocument(s, o.DocumentID)
	if !d.Accepted {
		return d
	}
	if o.ArtifactType == model.ArtifactSource {
		return reject(model.CodeSourceImmutable, "artifact_type", "document %s already has its SOURCE artifact", doc.DocumentID)
	}
	if o.InputArtifactID == "" {
		return reject(model.CodeProvenanceRequired, "input_artifact_id", "derived artifacts need an input_artifact_id")
	}
	if doc.Artifact(o.InputArtifactID) == nil {
		return reject(model.CodeProvenanceRequired, "input_artifact_id",
			"artifact %q is not an artifact of document %s", o.InputArtifactID, doc.DocumentID)
	}
	if src := doc.Source(); src != nil && src.StorageRef == o.OutputStorageRef {
		return reject(model.CodeSourceImmutable, "output_storage_ref", "output would overwrite the SOURCE file")
	}
	return checkStorageRef(s, o.OutputStorageRef, "output_storage_ref")
}

func checkTraceAppend(s State, o *TraceAppend) Decision {
	ev := o.Event
	if !ev.EventType.CallerAuthored() {
		return reject(model.CodeSchemaInvalid, "event.event_type",
			"%s events are written by the Gate only", ev.EventType)
	}
	for i, ref := range ev.Objects {
		field := fmt.Sprintf("event.objects[%d]", i)
		if !ref.ObjectType.ValidTraceRef() {
			return reject(model.CodeSchemaInvalid, field+".object_type", "%q cannot be traced", string(ref.ObjectType))
		}
		typ, _, ok := s.Case.Resolve(ref.ObjectID)
		if !ok {
			if owner, found := s.owner(ref.ObjectID); found && owner != s.Case.CaseID {
				return reject(model.CodeCaseMismatch, field+".object_id", "%q belongs to another case", ref.ObjectID)
			}
			return reject(model.CodeObjectNotFound, field+".object_id", "%s %q not found", ref.ObjectType, ref.ObjectID)
		}
		if typ != ref.ObjectType {
			return reject(model.CodeObjectNotFound, field+".object_id", "%q is a %s, not a %s", ref.ObjectID, typ, ref.ObjectType)
		}
	}
	if !justified(ev.Details.Justification) {
		return reject(model.CodeMissingJustification, "event.details.justification", "justification is required")
	}
	out := accept()
	if ev.Details.ThinkMoreTrigger != "" {
		out = out.Escalate(ev.Details.ThinkMoreTrigger, ev.Details.RiskNote)
	}
	return out
}

func checkDedupe(s State, o *DedupeCheck) Decision {
	if s.Case.Branch(o.BranchCode) == nil {
		return reject(model.CodeObjectNotFound, "branch_code", "case has no %s branch", o.BranchCode)
	}
	return checkStorageRef(s, o.StorageRef, "storage_ref")
}
