package casestore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"jurisgate/internal/model"
	"jurisgate/internal/repository"
)

// Tx is an open transaction on one case. It holds the case lock until Commit
// or Rollback. Mutation methods trust their caller: they assume the change
// was validated and do not check it again.
//
// The first mutation clones the published case; the clone is published on
// Commit. Entities returned by mutation methods point into that clone and
// must not be retained after Commit.
type Tx struct {
	store *Store
	entry *entry
	scope model.ID

	base    *model.Case
	work    *model.Case
	created bool

	event  *model.TraceEvent
	record *model.RequestRecord
	done   bool
}

// Scope is the case id (or system scope) the transaction was opened for.
func (t *Tx) Scope() model.ID { return t.scope }

// Case returns the case as seen by this transaction, nil if it does not exist.
// The result is read-only.
func (t *Tx) Case() *model.Case {
	if t.work != nil {
		return t.work
	}
	return t.base
}

// History returns the trace of the case. The result is read-only.
func (t *Tx) History() []model.TraceEvent {
	return t.store.trace.Events(t.scope)
}

// Outcome looks up a recorded response in the transaction's scope.
func (t *Tx) Outcome(rid string) (model.RequestRecord, bool) {
	return t.store.Outcome(t.scope, rid)
}

func (t *Tx) mutable() *model.Case {
	if t.work == nil {
		t.work = t.base.Clone()
	}
	return t.work
}

// CreateCase installs c as the transaction's case.
func (t *Tx) CreateCase(c *model.Case) *model.Case {
	t.work = c
	t.created = true
	return c
}

func (t *Tx) AppendBranch(b *model.Branch) *model.Branch {
	c := t.mutable()
	c.Branches = append(c.Branches, b)
	return b
}

// AppendDocument adds d to the branch named by d.BranchCode.
func (t *Tx) AppendDocument(d *model.Document) *model.Document {
	b := t.mutable().Branch(d.BranchCode)
	b.Documents = append(b.Documents, d)
	return d
}

func (t *Tx) SetDocumentStatus(docID model.ID, status model.DocStatus) *model.Document {
	d := t.mutable().Document(docID)
	d.Status = status
	return d
}

// Reclassify replaces the document's metadata. A changed branch code moves
// the document to the end of the target branch.
func (t *Tx) Reclassify(docID model.ID, cl model.Classification) *model.Document {
	c := t.mutable()
	d := c.Document(docID)
	if cl.BranchCode != d.BranchCode {
		from := c.Branch(d.BranchCode)
		from.Documents = slices.DeleteFunc(from.Documents, func(x *model.Document) bool { return x == d })
		to := c.Branch(cl.BranchCode)
		to.Documents = append(to.Documents, d)
	}
	d.BranchCode = cl.BranchCode
	d.DocTypeCode = cl.DocTypeCode
	d.SourceChannel = cl.SourceChannel
	d.ConfidentialityLevel = cl.ConfidentialityLevel
	d.DocDate = cl.DocDate
	d.Author = cl.Author
	d.Counterparty = cl.Counterparty
	d.Subject = cl.Subject
	d.QualityFlags = slices.Clone(cl.QualityFlags)
	return d
}

func (t *Tx) RenameDocument(docID model.ID, name string) *model.Document {
	d := t.mutable().Document(docID)
	d.CanonicalName = name
	return d
}

func (t *Tx) AppendArtifact(docID model.ID, a *model.FileArtifact) *model.FileArtifact {
	d := t.mutable().Document(docID)
	d.Artifacts = append(d.Artifacts, a)
	return a
}

func (t *Tx) AppendLink(l *model.Link) *model.Link {
	c := t.mutable()
	c.Links = append(c.Links, l)
	return l
}

// RegisterPhysicalOriginal adds p and points its document at it.
func (t *Tx) RegisterPhysicalOriginal(p *model.PhysicalOriginal) *model.PhysicalOriginal {
	c := t.mutable()
	c.PhysicalOriginals = append(c.PhysicalOriginals, p)
	if d := c.Document(p.DocumentID); d != nil {
		d.PhysicalOriginalID = p.PhysicalOriginalID
	}
	return p
}

// AppendCustodyEvent extends the custody chain and sets the verification status.
func (t *Tx) AppendCustodyEvent(poID model.ID, ev model.CustodyEvent, status model.VerificationStatus) *model.PhysicalOriginal {
	p := t.mutable().PhysicalOriginal(poID)
	p.CustodyChain = append(p.CustodyChain, ev)
	p.Status = status
	return p
}

// Trace sets the transaction's trace record. A transaction carries exactly one.
func (t *Tx) Trace(ev model.TraceEvent) {
	t.event = &ev
}

// RecordOutcome sets the idempotency entry written with the commit.
func (t *Tx) RecordOutcome(r model.RequestRecord) {
	t.record = &r
}

// Commit persists the changed case, the trace record and the outcome, then
// publishes them. On a repository error nothing is published.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.entry.unlock()

	if t.event != nil && (t.event.EventID == "" || t.event.CaseID == "") {
		return errors.New("trace record needs an event id and a case id")
	}

	if t.store.repo != nil {
		err := t.store.repo.Commit(ctx, repository.Commit{Case: t.work, Event: t.event, Request: t.record})
		if err != nil {
			return fmt.Errorf("persist %s: %w", t.scope, err)
		}
	}

	s := t.store
	if t.work != nil {
		s.mu.Lock()
		if t.created {
			// The new case stays locked until its trace and outcome are in.
			e := newEntry(t.work)
			e.sem <- struct{}{}
			defer e.unlock()
			s.entries[t.work.CaseID] = e
		} else {
			t.entry.snap.Store(t.work)
		}
		s.indexLocked(t.work)
		s.mu.Unlock()
	}

	if t.event != nil {
		if _, err := s.trace.Append(ctx, *t.event); err != nil {
			return fmt.Errorf("append trace %s: %w", t.event.EventID, err)
		}
	}

	if t.record != nil {
		s.outMu.Lock()
		s.outcomes[outcomeKey{t.record.Scope, t.record.RequestID}] = *t.record
		s.outMu.Unlock()
	}
	return nil
}

// Rollback releases the lock and discards every change. It is a no-op after
// Commit, so it can be deferred.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.entry.unlock()
}
