package model

import (
	"slices"
	"time"
)

// Party is a participant in a case.
type Party struct {
	PartyRole    PartyRole `json:"party_role" validate:"required,enum"`
	DisplayLabel string    `json:"display_label" validate:"required"`
	Notes        string    `json:"notes,omitempty"`
}

// Case is the root aggregate. A Case returned by the Case Store is a private
// deep copy and may be mutated freely by the caller; cases held inside the
// store are only changed through a casestore.Tx.
type Case struct {
	CaseID               ID                   `json:"case_id"`
	CaseTitle            string               `json:"case_title"`
	Jurisdiction         string               `json:"jurisdiction"`
	ConfidentialityLevel ConfidentialityLevel `json:"confidentiality_level"`
	CreatedAt            time.Time            `json:"created_at"`
	CreatedBy            string               `json:"created_by,omitempty"`
	Parties              []Party              `json:"parties,omitempty"`
	Branches             []*Branch            `json:"branches"`
	Links                []*Link              `json:"links"`
	PhysicalOriginals    []*PhysicalOriginal  `json:"physical_originals"`
}

type Branch struct {
	BranchID       ID             `json:"branch_id"`
	BranchCode     BranchCode     `json:"branch_code"`
	BranchLabel    string         `json:"branch_label"`
	IsolationLevel IsolationLevel `json:"isolation_level"`
	Documents      []*Document    `json:"documents"`
}

// Document is the central mutable entity of a case.
type Document struct {
	DocumentID           ID                   `json:"document_id"`
	CaseID               ID                   `json:"case_id"`
	BranchCode           BranchCode           `json:"branch_code"`
	DocTypeCode          DocTypeCode          `json:"doc_type_code"`
	Status               DocStatus            `json:"status"`
	SourceChannel        SourceChannel        `json:"source_channel"`
	ConfidentialityLevel ConfidentialityLevel `json:"confidentiality_level"`
	DocDate              string               `json:"doc_date,omitempty"`
	Author               string               `json:"author,omitempty"`
	Counterparty         string               `json:"counterparty,omitempty"`
	Subject              string               `json:"subject,omitempty"`
	CanonicalName        string               `json:"canonical_name,omitempty"`
	RegisteredAt         time.Time            `json:"registered_at"`
	RegisteredBy         string               `json:"registered_by,omitempty"`
	PhysicalOriginalID   ID                   `json:"physical_original_id,omitempty"`
	QualityFlags         []QualityFlag        `json:"quality_flags,omitempty"`
	Notes                string               `json:"notes,omitempty"`
	Artifacts            []*FileArtifact      `json:"artifacts"`
}

// Source returns the document's SOURCE artifact, or nil.
func (d *Document) Source() *FileArtifact {
	for _, a := range d.Artifacts {
		if a.ArtifactType == ArtifactSource {
			return a
		}
	}
	return nil
}

// Artifact returns the artifact with the given id, or nil.
func (d *Document) Artifact(id ID) *FileArtifact {
	for _, a := range d.Artifacts {
		if a.ArtifactID == id {
			return a
		}
	}
	return nil
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.QualityFlags = slices.Clone(d.QualityFlags)
	out.Artifacts = make([]*FileArtifact, len(d.Artifacts))
	for i, a := range d.Artifacts {
		out.Artifacts[i] = a.Clone()
	}
	return &out
}

type ArtifactProvenance struct {
	DerivedFromArtifactID ID               `json:"derived_from_artifact_id,omitempty"`
	DerivationMethod      DerivationMethod `json:"derivation_method,omitempty"`
	ToolVersion           string           `json:"tool_version,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
}

// FileArtifact is immutable once appended to a document.
type FileArtifact struct {
	ArtifactID   ID                  `json:"artifact_id"`
	DocumentID   ID                  `json:"document_id"`
	ArtifactType ArtifactType        `json:"artifact_type"`
	StorageRef   string              `json:"storage_ref"`
	Filename     string              `json:"filename"`
	MimeType     string              `json:"mime_type"`
	SHA256       string              `json:"sha256"`
	ByteSize     *int64              `json:"byte_size,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Provenance   *ArtifactProvenance `json:"provenance,omitempty"`
}

func (a *FileArtifact) Clone() *FileArtifact {
	if a == nil {
		return nil
	}
	out := *a
	if a.ByteSize != nil {
		size := *a.ByteSize
		out.ByteSize = &size
	}
	if a.Provenance != nil {
		p := *a.Provenance
		out.Provenance = &p
	}
	return &out
}

type Location struct {
	Binder    string `json:"binder" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Pocket    string `json:"pocket,omitempty"`
	PageRange string `json:"page_range,omitempty"`
}

type CustodyEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Actor     string        `json:"actor"`
	Action    CustodyAction `json:"action"`
	Notes     string        `json:"notes,omitempty"`
}

// PhysicalOriginal is a tracked paper item. Its custody chain is append-only.
type PhysicalOriginal struct {
	PhysicalOriginalID ID                 `json:"physical_original_id"`
	CaseID             ID                 `json:"case_id"`
	DocumentID         ID                 `json:"document_id,omitempty"`
	Label              string             `json:"label"`
	Location           Location           `json:"location"`
	RegisteredAt       time.Time          `json:"registered_at"`
	CustodyChain       []CustodyEvent     `json:"custody_chain"`
	Status             VerificationStatus `json:"status"`
}

// LastAction returns the action of the newest custody event, or "" for an empty chain.
func (p *PhysicalOriginal) LastAction() CustodyAction {
	if len(p.CustodyChain) == 0 {
		return ""
	}
	return p.CustodyChain[len(p.CustodyChain)-1].Action
}

func (p *PhysicalOriginal) Clone() *PhysicalOriginal {
	if p == nil {
		return nil
	}
	out := *p
	out.CustodyChain = slices.Clone(p.CustodyChain)
	return &out
}

// LinkObject names one endpoint of a link.
type LinkObject struct {
	ObjectType ObjectType `json:"object_type" validate:"required"`
	ObjectID   ID         `json:"object_id" validate:"required"`
	BranchCode BranchCode `json:"branch_code,omitempty" validate:"omitempty,enum"`
}

type Link struct {
	LinkID        ID         `json:"link_id"`
	CaseID        ID         `json:"case_id"`
	LinkType      LinkType   `json:"link_type"`
	FromObject    LinkObject `json:"from_object"`
	ToObject      LinkObject `json:"to_object"`
	Justification string     `json:"justification"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
}

// Touches reports whether either endpoint of l is id.
func (l *Link) Touches(id ID) bool {
	return l.FromObject.ObjectID == id || l.ToObject.ObjectID == id
}

// Clone returns a deep copy of c.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Parties = slices.Clone(c.Parties)
	out.Branches = make([]*Branch, len(c.Branches))
	for i, b := range c.Branches {
		nb := *b
		nb.Documents = make([]*Document, len(b.Documents))
		for j, d := range b.Documents {
			nb.Documents[j] = d.Clone()
		}
		out.Branches[i] = &nb
	}
	out.Links = make([]*Link, len(c.Links))
	for i, l := range c.Links {
		nl := *l
		out.Links[i] = &nl
	}
	out.PhysicalOriginals = make([]*PhysicalOriginal, len(c.PhysicalOriginals))
	for i, p := range c.PhysicalOriginals {
		out.PhysicalOriginals[i] = p.Clone()
	}
	return &out
}

// Branch returns the branch with the given code, or nil.
func (c *Case) Branch(code BranchCode) *Branch {
	for _, b := range c.Branches {
		if b.BranchCode == code {
			return b
		}
	}
	return nil
}

// Document returns the document with the given id, or nil.
func (c *Case) Document(id ID) *Document {
	for _, b := range c.Branches {
		for _, d := range b.Documents {
			if d.DocumentID == id {
				return d
			}
		}
	}
	return nil
}

// Documents returns every document of the case in branch order.
func (c *Case) Documents() []*Document {
	var out []*Document
	for _, b := range c.Branches {
		out = append(out, b.Documents...)
	}
	return out
}

// Artifact returns the artifact with the given id and the document that owns it.
func (c *Case) Artifact(id ID) (*FileArtifact, *Document) {
	for _, b := range c.Branches {
		for _, d := range b.Documents {
			if a := d.Artifact(id); a != nil {
				return a, d
			}
		}
	}
	return nil, nil
}

func (c *Case) PhysicalOriginal(id ID) *PhysicalOriginal {
	for _, p := range c.PhysicalOriginals {
		if p.PhysicalOriginalID == id {
			return p
		}
	}
	return nil
}

func (c *Case) Link(id ID) *Link {
	for _, l := range c.Links {
		if l.LinkID == id {
			return l
		}
	}
	return nil
}

// DocumentByName returns the document whose canonical name is name, or nil.
func (c *Case) DocumentByName(name string) *Document {
	for _, d := range c.Documents() {
		if d.CanonicalName == name {
			return d
		}
	}
	return nil
}

// Resolve reports the object type and branch of id within the case.
// ok is false when the case holds no object with that id.
func (c *Case) Resolve(id ID) (typ ObjectType, branch BranchCode, ok bool) {
	if id == c.CaseID {
		return ObjectCase, "", true
	}
	for _, b := range c.Branches {
		if b.BranchID == id {
			return ObjectBranch, b.BranchCode, true
		}
		for _, d := range b.Documents {
			if d.DocumentID == id {
				return ObjectDocument, d.BranchCode, true
			}
			if d.Artifact(id) != nil {
				return ObjectArtifact, d.BranchCode, true
			}
		}
	}
	if p := c.PhysicalOriginal(id); p != nil {
		if d := c.Document(p.DocumentID); d != nil {
			return ObjectPhysicalOriginal, d.BranchCode, true
		}
		return ObjectPhysicalOriginal, "", true
	}
	if c.Link(id) != nil {
		return ObjectLink, "", true
	}
	return "", "", false
}

// ObjectIDs lists every identifier owned by the case, the case id included.
func (c *Case) ObjectIDs() []ID {
	ids := []ID{c.CaseID}
	for _, b := range c.Branches {
		ids = append(ids, b.BranchID)
		for _, d := range b.Documents {
			ids = append(ids, d.DocumentID)
			for _, a := range d.Artifacts {
				ids = append(ids, a.ArtifactID)
			}
		}
	}
	for _, p := range c.PhysicalOriginals {
		ids = append(ids, p.PhysicalOriginalID)
	}
	for _, l := range c.Links {
		ids = append(ids, l.LinkID)
	}
	return ids
}
