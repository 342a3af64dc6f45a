package model

// BranchCode identifies one of the fixed compliance partitions of a case.
type BranchCode string

const (
	BranchAdmin BranchCode = "ADMIN"
	BranchFact  BranchCode = "FACT"
	BranchPEN   BranchCode = "PEN"
	BranchCIV   BranchCode = "CIV"
	BranchADM   BranchCode = "ADM"
	BranchMED   BranchCode = "MED"
	BranchEXP   BranchCode = "EXP"
	BranchCOR   BranchCode = "COR"
	BranchEVD   BranchCode = "EVD"
	BranchANA   BranchCode = "ANA"
	BranchSTR   BranchCode = "STR"
	BranchPRC   BranchCode = "PRC"
	BranchARC   BranchCode = "ARC"
)

var branchLabels = map[BranchCode]string{
	BranchAdmin: "Administration & governance",
	BranchFact:  "Factual chronology & context",
	BranchPEN:   "Criminal",
	BranchCIV:   "Civil",
	BranchADM:   "Administrative",
	BranchMED:   "Medical",
	BranchEXP:   "Expert reports / independent expertise",
	BranchCOR:   "Correspondence (non-procedural)",
	BranchEVD:   "Evidence repository (digital/physical references)",
	BranchANA:   "Analyses (legal/medical/factual syntheses)",
	BranchSTR:   "Strategy (non-disclosable internal work product)",
	BranchPRC:   "Procedure (filings, deadlines, court steps)",
	BranchARC:   "Archives (frozen/closed material)",
}

// AllBranchCodes lists the branch codes in their canonical order.
var AllBranchCodes = []BranchCode{
	BranchAdmin, BranchFact, BranchPEN, BranchCIV, BranchADM, BranchMED, BranchEXP,
	BranchCOR, BranchEVD, BranchANA, BranchSTR, BranchPRC, BranchARC,
}

// Valid reports whether c is one of the 13 known codes.
func (c BranchCode) Valid() bool {
	_, ok := branchLabels[c]
	return ok
}

// Label returns the human label of the branch, or "" for unknown codes.
func (c BranchCode) Label() string { return branchLabels[c] }

// IsolationLevel governs whether documents of a branch may be referenced from outside it.
type IsolationLevel string

const (
	IsolationStrict               IsolationLevel = "STRICT"
	IsolationStrictWithReferences IsolationLevel = "STRICT_WITH_REFERENCES"
)

func (l IsolationLevel) Valid() bool {
	return l == IsolationStrict || l == IsolationStrictWithReferences
}

type ArtifactType string

const (
	ArtifactSource       ArtifactType = "SOURCE"
	ArtifactOCRText      ArtifactType = "OCR_TEXT"
	ArtifactRedacted     ArtifactType = "REDACTED_FILE"
	ArtifactAnnotated    ArtifactType = "ANNOTATED_FILE"
	ArtifactTranslation  ArtifactType = "TRANSLATION"
	ArtifactThumbnail    ArtifactType = "THUMBNAIL"
	ArtifactExportBundle ArtifactType = "EXPORT_BUNDLE"
	ArtifactOther        ArtifactType = "OTHER"
)

var artifactTypes = set(ArtifactSource, ArtifactOCRText, ArtifactRedacted, ArtifactAnnotated,
	ArtifactTranslation, ArtifactThumbnail, ArtifactExportBundle, ArtifactOther)

func (t ArtifactType) Valid() bool {
	_, ok := artifactTypes[t]
	return ok
}

type DerivationMethod string

const (
	DerivationOCR          DerivationMethod = "OCR"
	DerivationRedaction    DerivationMethod = "REDACTION"
	DerivationAnnotation   DerivationMethod = "ANNOTATION"
	DerivationTranslation  DerivationMethod = "TRANSLATION"
	DerivationConversion   DerivationMethod = "CONVERSION"
	DerivationBundleExport DerivationMethod = "BUNDLE_EXPORT"
	DerivationOther        DerivationMethod = "OTHER"
)

// DerivationFor returns the derivation method implied by a derived artifact type.
func DerivationFor(t ArtifactType) DerivationMethod {
	switch t {
	case ArtifactOCRText:
		return DerivationOCR
	case ArtifactRedacted:
		return DerivationRedaction
	case ArtifactAnnotated:
		return DerivationAnnotation
	case ArtifactTranslation:
		return DerivationTranslation
	case ArtifactThumbnail:
		return DerivationConversion
	case ArtifactExportBundle:
		return DerivationBundleExport
	default:
		return DerivationOther
	}
}

type CustodyAction string

const (
	CustodyCreated     CustodyAction = "CREATED"
	CustodyTransferred CustodyAction = "TRANSFERRED"
	CustodyViewed      CustodyAction = "VIEWED"
	CustodyReturned    CustodyAction = "RETURNED"
	CustodyLost        CustodyAction = "LOST"
	CustodyDestroyed   CustodyAction = "DESTROYED"
	CustodyOther       CustodyAction = "OTHER"
)

var custodyActions = set(CustodyCreated, CustodyTransferred, CustodyViewed, CustodyReturned,
	CustodyLost, CustodyDestroyed, CustodyOther)

func (a CustodyAction) Valid() bool {
	_, ok := custodyActions[a]
	return ok
}

type DocTypeCode string

var docTypeCodes = set[DocTypeCode](
	"LETTER_IN", "LETTER_OUT", "EMAIL", "EMAIL_ATTACHMENT", "FAX",
	"COURT_ORDER", "COURT_JUDGMENT", "DECISION", "RULING", "SUMMONS",
	"FILING", "COMPLAINT", "STATEMENT", "BRIEF", "MOTION", "APPEAL",
	"PROTOCOL_MINUTES", "HEARING_NOTE", "EVIDENCE_ITEM", "PHOTO", "VIDEO", "AUDIO",
	"MED_REPORT", "MED_CERTIFICATE", "MED_LAB_RESULT", "MED_IMAGING_REPORT", "MED_CORRESPONDENCE",
	"EXPERT_REPORT", "EXPERT_ANNEX", "INVOICE", "RECEIPT", "CONTRACT", "POLICY", "FORM", "ID_DOCUMENT",
	"CHRONOLOGY", "SYNTHESIS", "INTERNAL_NOTE", "OTHER",
)

func (c DocTypeCode) Valid() bool {
	_, ok := docTypeCodes[c]
	return ok
}

type SourceChannel string

var sourceChannels = set[SourceChannel](
	"SCAN", "POST", "EMAIL", "PORTAL", "HAND_DELIVERED", "MESSAGING_APP",
	"PHONE_RECORDING", "PHOTO_CAPTURE", "SYSTEM_EXPORT", "OTHER",
)

func (c SourceChannel) Valid() bool {
	_, ok := sourceChannels[c]
	return ok
}

type ConfidentialityLevel string

var confidentialityLevels = set[ConfidentialityLevel](
	"PUBLIC", "NORMAL", "SENSITIVE", "HEALTH", "CRIMINAL", "LEGAL_PRIVILEGED",
)

func (l ConfidentialityLevel) Valid() bool {
	_, ok := confidentialityLevels[l]
	return ok
}

type LinkType string

const (
	LinkCrossBranchReference LinkType = "CROSS_BRANCH_REFERENCE"
	LinkDerivedFrom          LinkType = "DERIVED_FROM"
	LinkAttachmentOf         LinkType = "ATTACHMENT_OF"
	LinkRelatesToSameEvent   LinkType = "RELATES_TO_SAME_EVENT"
	LinkSupersedes           LinkType = "SUPERSEDES"
	LinkTranslationOf        LinkType = "TRANSLATION_OF"
	LinkRedactionOf          LinkType = "REDACTION_OF"
	LinkOCROf                LinkType = "OCR_OF"
)

var linkTypes = set(LinkCrossBranchReference, LinkDerivedFrom, LinkAttachmentOf, LinkRelatesToSameEvent,
	LinkSupersedes, LinkTranslationOf, LinkRedactionOf, LinkOCROf)

func (t LinkType) Valid() bool {
	_, ok := linkTypes[t]
	return ok
}

type ObjectType string

const (
	ObjectDocument         ObjectType = "DOCUMENT"
	ObjectArtifact         ObjectType = "ARTIFACT"
	ObjectPhysicalOriginal ObjectType = "PHYSICAL_ORIGINAL"
	ObjectCase             ObjectType = "CASE"
	ObjectBranch           ObjectType = "BRANCH"
	ObjectLink             ObjectType = "LINK"
	ObjectOther            ObjectType = "OTHER"
)

// ValidLinkEndpoint reports whether t may be named as a link endpoint on the wire.
func (t ObjectType) ValidLinkEndpoint() bool {
	switch t {
	case ObjectDocument, ObjectArtifact, ObjectPhysicalOriginal, ObjectCase, ObjectOther:
		return true
	}
	return false
}

// ValidTraceRef reports whether t may appear in a trace event's object list.
func (t ObjectType) ValidTraceRef() bool {
	switch t {
	case ObjectCase, ObjectBranch, ObjectDocument, ObjectArtifact, ObjectPhysicalOriginal, ObjectLink:
		return true
	}
	return false
}

type PartyRole string

var partyRoles = set[PartyRole]("SELF", "COUNTERPARTY", "AUTHORITY", "COURT", "DOCTOR", "EXPERT", "OTHER")

func (r PartyRole) Valid() bool {
	_, ok := partyRoles[r]
	return ok
}

type QualityFlag string

var qualityFlags = set[QualityFlag](
	"PAGES_MISSING", "LOW_SCAN_QUALITY", "UNCERTAIN_DATE", "UNCERTAIN_AUTHOR",
	"POTENTIAL_DUPLICATE", "SIGNATURE_PRESENT", "STAMP_PRESENT", "HANDWRITTEN_NOTES",
)

func (f QualityFlag) Valid() bool {
	_, ok := qualityFlags[f]
	return ok
}

// ThinkMoreTrigger tags a trace event that warrants escalated review.
type ThinkMoreTrigger string

const (
	TriggerBranchConflict            ThinkMoreTrigger = "BRANCH_CONFLICT"
	TriggerMultiTypeConflict         ThinkMoreTrigger = "MULTI_TYPE_CONFLICT"
	TriggerProceduralRisk            ThinkMoreTrigger = "PROCEDURAL_RISK_ON_STATUS_CHANGE"
	TriggerInternalInconsistency     ThinkMoreTrigger = "INTERNAL_INCONSISTENCY_DETECTED"
	TriggerHybridMedicoLegal         ThinkMoreTrigger = "HYBRID_MEDICO_LEGAL_DOCUMENT"
	TriggerUserRequestedVerification ThinkMoreTrigger = "USER_REQUESTED_DEEP_VERIFICATION"
)

var thinkMoreTriggers = set(TriggerBranchConflict, TriggerMultiTypeConflict, TriggerProceduralRisk,
	TriggerInternalInconsistency, TriggerHybridMedicoLegal, TriggerUserRequestedVerification)

func (t ThinkMoreTrigger) Valid() bool {
	_, ok := thinkMoreTriggers[t]
	return ok
}

// VerificationStatus of a physical original.
type VerificationStatus string

const (
	Verified   VerificationStatus = "verified"
	Unverified VerificationStatus = "unverified"
)
