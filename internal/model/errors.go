package model

import "fmt"

// ErrorCode is the closed set of Gate rejection codes.
type ErrorCode string

const (
	CodeSchemaInvalid            ErrorCode = "SCHEMA_INVALID"
	CodeCaseNotFound             ErrorCode = "CASE_NOT_FOUND"
	CodeObjectNotFound           ErrorCode = "OBJECT_NOT_FOUND"
	CodeIDAlreadyExists          ErrorCode = "ID_ALREADY_EXISTS"
	CodeCaseMismatch             ErrorCode = "CASE_MISMATCH"
	CodeBranchIsolationViolation ErrorCode = "BRANCH_ISOLATION_VIOLATION"
	CodeIllegalStatusTransition  ErrorCode = "ILLEGAL_STATUS_TRANSITION"
	CodeStatusMismatch           ErrorCode = "STATUS_MISMATCH"
	CodeMissingJustification     ErrorCode = "MISSING_JUSTIFICATION"
	CodeSourceImmutable          ErrorCode = "SOURCE_IMMUTABLE_VIOLATION"
	CodeProvenanceRequired       ErrorCode = "PROVENANCE_REQUIRED"
	CodeStorageRefInvalid        ErrorCode = "STORAGE_REF_INVALID"
	CodeFilenameNonCompliant     ErrorCode = "FILENAME_NON_COMPLIANT"
	CodeDuplicateDetected        ErrorCode = "DUPLICATE_DETECTED"
	CodeTraceRequired            ErrorCode = "TRACE_REQUIRED"
)

// AllErrorCodes lists every code.
var AllErrorCodes = []ErrorCode{
	CodeSchemaInvalid, CodeCaseNotFound, CodeObjectNotFound, CodeIDAlreadyExists, CodeCaseMismatch,
	CodeBranchIsolationViolation, CodeIllegalStatusTransition, CodeStatusMismatch, CodeMissingJustification,
	CodeSourceImmutable, CodeProvenanceRequired, CodeStorageRefInvalid, CodeFilenameNonCompliant,
	CodeDuplicateDetected, CodeTraceRequired,
}

// ErrorCategory partitions the codes for metrics and logs.
type ErrorCategory string

const (
	CategoryMalformed   ErrorCategory = "malformed"
	CategoryReferential ErrorCategory = "referential"
	CategoryPolicy      ErrorCategory = "policy"
	CategoryIntegrity   ErrorCategory = "integrity"
)

// Category returns the taxonomy bucket of c. It panics on unknown codes.
func (c ErrorCode) Category() ErrorCategory {
	switch c {
	case CodeSchemaInvalid:
		return CategoryMalformed
	case CodeCaseNotFound, CodeObjectNotFound, CodeIDAlreadyExists, CodeCaseMismatch:
		return CategoryReferential
	case CodeBranchIsolationViolation, CodeIllegalStatusTransition, CodeStatusMismatch,
		CodeMissingJustification, CodeSourceImmutable, CodeProvenanceRequired,
		CodeStorageRefInvalid, CodeFilenameNonCompliant:
		return CategoryPolicy
	case CodeDuplicateDetected, CodeTraceRequired:
		return CategoryIntegrity
	default:
		panic(fmt.Sprintf("model: unhandled error code %q", string(c)))
	}
}
