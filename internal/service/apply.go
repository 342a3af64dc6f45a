package service

import (
	"fmt"
	"path"

	"jurisgate/internal/casestore"
	"jurisgate/internal/model"
	"jurisgate/internal/validator"
)

// change is what an accepted mutation produced: the response data and the
// trace record to commit with it.
type change struct {
	data  model.ResultData
	event model.TraceEvent
}

// call carries the request context every apply step needs.
type call struct {
	tx       *casestore.Tx
	actor    string
	meta     validator.Meta
	tool     model.ToolName
	decision validator.Decision
	facts    validator.Facts
}

func (s *gateService) event(c call, caseID model.ID, typ model.TraceEventType, objects []model.ObjectRef, d model.Details) model.TraceEvent {
	d.RequestID = c.meta.RequestID
	d.Tool = c.tool
	if c.decision.Trigger != "" {
		d.ThinkMoreTrigger = c.decision.Trigger
		d.RiskNote = c.decision.RiskNote
	}
	return model.TraceEvent{
		EventID:   s.newID(),
		CaseID:    caseID,
		Timestamp: s.now(),
		Actor:     c.actor,
		EventType: typ,
		Objects:   objects,
		Details:   d,
	}
}

// apply performs an accepted mutation on the transaction.
func (s *gateService) apply(c call, op validator.Operation) (change, error) {
	switch o := op.(type) {
	case *validator.CaseCreate:
		return s.applyCaseCreate(c, o), nil
	case *validator.BranchCreate:
		return s.applyBranchCreate(c, o), nil
	case *validator.DocIngest:
		return s.applyDocIngest(c, o), nil
	case *validator.DocClassify:
		return s.applyDocClassify(c, o), nil
	case *validator.DocStatusTransition:
		return s.applyStatusTransition(c, o), nil
	case *validator.DocRename:
		return s.applyDocRename(c, o), nil
	case *validator.DocLinkCreate:
		return s.applyLinkCreate(c, o), nil
	case *validator.OriginalRegister:
		return s.applyOriginalRegister(c, o), nil
	case *validator.OriginalCustodyAppend:
		return s.applyCustodyAppend(c, o), nil
	case *validator.ArtifactCreate:
		return s.applyArtifactCreate(c, o), nil
	case *validator.TraceAppend:
		return s.applyTraceAppend(c, o), nil
	}
	return change{}, fmt.Errorf("no mutation for %s", op.Tool())
}

func (s *gateService) applyCaseCreate(c call, o *validator.CaseCreate) change {
	id := o.CaseID
	if id == "" {
		id = s.newID()
	}
	now := s.now()
	kase := &model.Case{
		CaseID:               id,
		CaseTitle:            o.CaseTitle,
		Jurisdiction:         o.Jurisdiction,
		ConfidentialityLevel: o.ConfidentialityLevel,
		CreatedAt:            now,
		CreatedBy:            c.actor,
		Parties:              o.Parties,
		Branches:             make([]*model.Branch, 0, len(o.Branches)),
		Links:                []*model.Link{},
		PhysicalOriginals:    []*model.PhysicalOriginal{},
	}
	for _, code := range o.Branches {
		kase.Branches = append(kase.Branches, s.newBranch(code))
	}
	c.tx.CreateCase(kase)

	ev := s.event(c, id, model.EventCaseCreated,
		[]model.ObjectRef{{ObjectType: model.ObjectCase, ObjectID: id}},
		model.Details{
			Summary: fmt.Sprintf("case %q opened with %d branches", o.CaseTitle, len(o.Branches)),
			Change:  model.CaseCreated{CaseTitle: o.CaseTitle, Jurisdiction: o.Jurisdiction, Branches: o.Branches},
		})
	return change{data: model.ResultData{Case: kase}, event: ev}
}

func (s *gateService) newBranch(code model.BranchCode) *model.Branch {
	return &model.Branch{
		BranchID:       s.newID(),
		BranchCode:     code,
		BranchLabel:    code.Label(),
		IsolationLevel: s.policy.IsolationFor(code),
		Documents:      []*model.Document{},
	}
}

func (s *gateService) applyBranchCreate(c call, o *validator.BranchCreate) change {
	kase := c.tx.Case()
	b := c.tx.AppendBranch(s.newBranch(o.BranchCode))

	ev := s.event(c, kase.CaseID, model.EventBranchCreated,
		[]model.ObjectRef{
			{ObjectType: model.ObjectCase, ObjectID: kase.CaseID},
			{ObjectType: model.ObjectBranch, ObjectID: b.BranchID, BranchCode: b.BranchCode},
		},
		model.Details{
			Summary:       fmt.Sprintf("branch %s added", b.BranchCode),
			Justification: o.Justification,
			Change:        model.BranchCreated{BranchCode: b.BranchCode, IsolationLevel: b.IsolationLevel},
		})
	return change{data: model.ResultData{Branch: b}, event: ev}
}

func (s *gateService) applyDocIngest(c call, o *validator.DocIngest) change {
	kase := c.tx.Case()
	now := s.now()
	docID := o.DocumentID
	if docID == "" {
		docID = s.newID()
	}
	fact := c.facts[o.Source.StorageRef]

	src := &model.FileArtifact{
		ArtifactID:   s.newID(),
		DocumentID:   docID,
		ArtifactType: model.ArtifactSource,
		StorageRef:   o.Source.StorageRef,
		Filename:     o.Source.Filename,
		MimeType:     mimeType(o.Source.MimeType, fact, o.Source.Filename),
		SHA256:       fact.SHA256,
		ByteSize:     byteSize(fact),
		CreatedAt:    now,
	}
	md := o.Metadata
	doc := c.tx.AppendDocument(&model.Document{
		DocumentID:           docID,
		CaseID:               kase.CaseID,
		BranchCode:           o.BranchCode,
		DocTypeCode:          md.DocTypeCode,
		Status:               model.InitialStatus,
		SourceChannel:        md.SourceChannel,
		ConfidentialityLevel: md.ConfidentialityLevel,
		DocDate:              md.DocDate,
		Author:               md.Author,
		Counterparty:         md.Counterparty,
		Subject:              md.Subject,
		RegisteredAt:         now,
		RegisteredBy:         c.actor,
		QualityFlags:         md.QualityFlags,
		Notes:                md.Notes,
		Artifacts:            []*model.FileArtifact{src},
	})

	ev := s.event(c, kase.CaseID, model.EventDocIngested,
		[]model.ObjectRef{
			{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode},
			{ObjectType: model.ObjectArtifact, ObjectID: src.ArtifactID, BranchCode: doc.BranchCode},
		},
		model.Details{
			Summary: fmt.Sprintf("%s ingested into %s", o.Source.Filename, doc.BranchCode),
			Change: model.Ingested{
				BranchCode:       doc.BranchCode,
				SourceArtifactID: src.ArtifactID,
				StorageRef:       src.StorageRef,
				SHA256:           src.SHA256,
				Status:           doc.Status,
			},
		})
	return change{data: model.ResultData{Document: doc}, event: ev}
}

func (s *gateService) applyDocClassify(c call, o *validator.DocClassify) change {
	kase := c.tx.Case()
	before := model.ClassificationOf(kase.Document(o.DocumentID))
	after := o.Metadata.Apply(before)
	doc := c.tx.Reclassify(o.DocumentID, after)

	summary := fmt.Sprintf("document %s reclassified", doc.DocumentID)
	if before.BranchCode != after.BranchCode {
		summary = fmt.Sprintf("document %s moved from %s to %s", doc.DocumentID, before.BranchCode, after.BranchCode)
	}
	ev := s.event(c, kase.CaseID, model.EventDocClassified,
		[]model.ObjectRef{{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode}},
		model.Details{
			Summary:       summary,
			Justification: o.Justification,
			Change:        model.Classified{Before: before, After: after},
		})
	return change{data: model.ResultData{Document: doc}, event: ev}
}

func (s *gateService) applyStatusTransition(c call, o *validator.DocStatusTransition) change {
	kase := c.tx.Case()
	doc := c.tx.SetDocumentStatus(o.DocumentID, o.ToStatus)

	typ := model.EventDocStatusChanged
	if o.ToStatus == model.StatusQualified {
		typ = model.EventDocQualified
	}
	ev := s.event(c, kase.CaseID, typ,
		[]model.ObjectRef{{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode}},
		model.Details{
			Summary:       fmt.Sprintf("document %s %s -> %s", doc.DocumentID, o.FromStatus, o.ToStatus),
			Justification: o.Justification,
			Change:        model.StatusChanged{Before: o.FromStatus, After: o.ToStatus},
		})
	return change{data: model.ResultData{Document: doc}, event: ev}
}

func (s *gateService) applyDocRename(c call, o *validator.DocRename) change {
	kase := c.tx.Case()
	before := kase.Document(o.DocumentID).CanonicalName
	doc := c.tx.RenameDocument(o.DocumentID, o.NewName)

	ev := s.event(c, kase.CaseID, model.EventDocRenamed,
		[]model.ObjectRef{{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode}},
		model.Details{
			Summary:       fmt.Sprintf("document %s named %s", doc.DocumentID, o.NewName),
			Justification: o.Justification,
			Change:        model.Renamed{Before: before, After: o.NewName},
		})
	return change{data: model.ResultData{Document: doc}, event: ev}
}

// endpoint fills in the branch of a link endpoint when the caller left it out.
func endpoint(kase *model.Case, obj model.LinkObject) model.LinkObject {
	if obj.BranchCode == "" {
		if _, branch, ok := kase.Resolve(obj.ObjectID); ok {
			obj.BranchCode = branch
		}
	}
	return obj
}

func (s *gateService) applyLinkCreate(c call, o *validator.DocLinkCreate) change {
	kase := c.tx.Case()
	from, to := endpoint(kase, o.FromObject), endpoint(kase, o.ToObject)
	link := c.tx.AppendLink(&model.Link{
		LinkID:        s.newID(),
		CaseID:        kase.CaseID,
		LinkType:      o.LinkType,
		FromObject:    from,
		ToObject:      to,
		Justification: o.Justification,
		CreatedAt:     s.now(),
		CreatedBy:     c.actor,
	})

	ev := s.event(c, kase.CaseID, model.EventDocLinked,
		[]model.ObjectRef{
			{ObjectType: model.ObjectLink, ObjectID: link.LinkID},
			{ObjectType: from.ObjectType, ObjectID: from.ObjectID, BranchCode: from.BranchCode},
			{ObjectType: to.ObjectType, ObjectID: to.ObjectID, BranchCode: to.BranchCode},
		},
		model.Details{
			Summary:       fmt.Sprintf("%s %s -> %s", o.LinkType, from.ObjectID, to.ObjectID),
			Justification: o.Justification,
			Change:        model.Linked{LinkType: o.LinkType, From: from, To: to},
		})
	return change{data: model.ResultData{Link: link}, event: ev}
}

func (s *gateService) applyOriginalRegister(c call, o *validator.OriginalRegister) change {
	kase := c.tx.Case()
	doc := kase.Document(o.DocumentID)
	now := s.now()
	po := c.tx.RegisterPhysicalOriginal(&model.PhysicalOriginal{
		PhysicalOriginalID: s.newID(),
		CaseID:             kase.CaseID,
		DocumentID:         o.DocumentID,
		Label:              o.Label,
		Location:           o.Location,
		RegisteredAt:       now,
		CustodyChain:       []model.CustodyEvent{{Timestamp: now, Actor: c.actor, Action: model.CustodyCreated}},
		Status:             model.Unverified,
	})

	ev := s.event(c, kase.CaseID, model.EventPhysicalOriginalRegistered,
		[]model.ObjectRef{
			{ObjectType: model.ObjectPhysicalOriginal, ObjectID: po.PhysicalOriginalID, BranchCode: doc.BranchCode},
			{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode},
		},
		model.Details{
			Summary:       fmt.Sprintf("original %q filed in %s/%s", o.Label, o.Location.Binder, o.Location.Section),
			Justification: o.Justification,
			Change:        model.OriginalRegistered{DocumentID: o.DocumentID, Label: o.Label, Location: o.Location},
		})
	return change{data: model.ResultData{PhysicalOriginal: po}, event: ev}
}

func (s *gateService) applyCustodyAppend(c call, o *validator.OriginalCustodyAppend) change {
	kase := c.tx.Case()
	before := kase.PhysicalOriginal(o.PhysicalOriginalID).Status
	after := before
	if o.MarkVerified {
		after = model.Verified
	}
	po := c.tx.AppendCustodyEvent(o.PhysicalOriginalID, model.CustodyEvent{
		Timestamp: s.now(),
		Actor:     c.actor,
		Action:    o.Action,
		Notes:     o.Notes,
	}, after)

	_, branch, _ := kase.Resolve(po.PhysicalOriginalID)
	ev := s.event(c, kase.CaseID, model.EventPhysicalCustodyChanged,
		[]model.ObjectRef{{ObjectType: model.ObjectPhysicalOriginal, ObjectID: po.PhysicalOriginalID, BranchCode: branch}},
		model.Details{
			Summary:       fmt.Sprintf("original %s %s", po.PhysicalOriginalID, o.Action),
			Justification: o.Justification,
			Change:        model.CustodyChanged{Action: o.Action, Before: before, After: after},
		})
	return change{data: model.ResultData{PhysicalOriginal: po}, event: ev}
}

func (s *gateService) applyArtifactCreate(c call, o *validator.ArtifactCreate) change {
	kase := c.tx.Case()
	doc := kase.Document(o.DocumentID)
	fact := c.facts[o.OutputStorageRef]

	filename := o.Filename
	if filename == "" {
		if ref, err := model.ParseStorageRef(o.OutputStorageRef); err == nil {
			filename = path.Base(ref.Key)
		}
	}
	a := c.tx.AppendArtifact(o.DocumentID, &model.FileArtifact{
		ArtifactID:   s.newID(),
		DocumentID:   o.DocumentID,
		ArtifactType: o.ArtifactType,
		StorageRef:   o.OutputStorageRef,
		Filename:     filename,
		MimeType:     mimeType(o.MimeType, fact, filename),
		SHA256:       fact.SHA256,
		ByteSize:     byteSize(fact),
		CreatedAt:    s.now(),
		Provenance: &model.ArtifactProvenance{
			DerivedFromArtifactID: o.InputArtifactID,
			DerivationMethod:      model.DerivationFor(o.ArtifactType),
			ToolVersion:           o.ToolVersion,
			Notes:                 o.Notes,
		},
	})

	ev := s.event(c, kase.CaseID, model.ArtifactEventType(o.ArtifactType),
		[]model.ObjectRef{
			{ObjectType: model.ObjectArtifact, ObjectID: a.ArtifactID, BranchCode: doc.BranchCode},
			{ObjectType: model.ObjectDocument, ObjectID: doc.DocumentID, BranchCode: doc.BranchCode},
			{ObjectType: model.ObjectArtifact, ObjectID: o.InputArtifactID, BranchCode: doc.BranchCode},
		},
		model.Details{
			Summary: fmt.Sprintf("%s artifact derived from %s", o.ArtifactType, o.InputArtifactID),
			Change: model.ArtifactCreated{
				ArtifactType:    o.ArtifactType,
				InputArtifactID: o.InputArtifactID,
				StorageRef:      o.OutputStorageRef,
				SHA256:          a.SHA256,
			},
		})
	return change{data: model.ResultData{Artifact: a}, event: ev}
}

func (s *gateService) applyTraceAppend(c call, o *validator.TraceAppend) change {
	kase := c.tx.Case()
	objects := make([]model.ObjectRef, len(o.Event.Objects))
	for i, ref := range o.Event.Objects {
		if ref.BranchCode == "" {
			_, ref.BranchCode, _ = kase.Resolve(ref.ObjectID)
		}
		objects[i] = ref
	}

	ev := s.event(c, kase.CaseID, o.Event.EventType, objects, model.Details{
		Summary:       o.Event.Details.Summary,
		Justification: o.Event.Details.Justification,
		Change:        model.Annotated{},
	})
	return change{data: model.ResultData{TraceEvent: &ev}, event: ev}
}
