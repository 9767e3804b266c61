package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Unavailable is retryable and
// degrades a single item to MISMATCH-with-cause; Malformed is treated as a
// miss/REJECT; neither is ever fatal to the batch.
var (
	// ErrProviderUnavailable signals the embedding or verification-model
	// service is down, timed out, or circuit-broken.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedOutput signals unparsable model output or an invalid
	// cache file.
	ErrMalformedOutput = errors.New("malformed output")

	// ErrIndexNotBuilt signals the rate-sheet indices were never built.
	// This is genuine infrastructure failure, not a business outcome.
	ErrIndexNotBuilt = errors.New("rate-sheet index not built")

	// ErrEmptyInput signals an empty or blank text where matching input
	// was required.
	ErrEmptyInput = errors.New("empty input text")
)

// RejectionCode is a machine-readable reason attached to rejected
// candidates and MISMATCH results. Constraint violations are normal
// decision outcomes, not errors.
type RejectionCode string

const (
	// Hard-constraint rejections (validator).
	RejectDosageMismatch   RejectionCode = "DOSAGE_MISMATCH"
	RejectFormMismatch     RejectionCode = "FORM_MISMATCH"
	RejectCategoryBoundary RejectionCode = "CATEGORY_BOUNDARY"
	RejectModalityMismatch RejectionCode = "MODALITY_MISMATCH"
	RejectBodyPartMismatch RejectionCode = "BODYPART_MISMATCH"

	// Pre-filter classifications.
	RejectAdminCharge RejectionCode = "ADMIN_CHARGE"
	RejectPackageOnly RejectionCode = "PACKAGE_ONLY"

	// Mismatch diagnostics.
	RejectLowSimilarity    RejectionCode = "LOW_SIMILARITY"
	RejectNotInTieup       RejectionCode = "NOT_IN_TIEUP"
	RejectCategoryConflict RejectionCode = "CATEGORY_CONFLICT"
	RejectModelDeclined    RejectionCode = "MODEL_DECLINED"
	RejectServiceDegraded  RejectionCode = "SERVICE_DEGRADED"
)

// IsValid validates the rejection code.
func (c RejectionCode) IsValid() bool {
	switch c {
	case RejectDosageMismatch, RejectFormMismatch, RejectCategoryBoundary,
		RejectModalityMismatch, RejectBodyPartMismatch,
		RejectAdminCharge, RejectPackageOnly,
		RejectLowSimilarity, RejectNotInTieup, RejectCategoryConflict,
		RejectModelDeclined, RejectServiceDegraded:
		return true
	default:
		return false
	}
}

// String returns the string form of the code.
func (c RejectionCode) String() string { return string(c) }

// Description returns a human-readable description of the code for report
// output.
func (c RejectionCode) Description() string {
	switch c {
	case RejectDosageMismatch:
		return "dosage differs between bill item and tie-up item"
	case RejectFormMismatch:
		return "physical form differs for a form-critical drug"
	case RejectCategoryBoundary:
		return "candidate category can never satisfy the bill category"
	case RejectModalityMismatch:
		return "imaging modality differs"
	case RejectBodyPartMismatch:
		return "body part differs"
	case RejectAdminCharge:
		return "administrative charge or OCR artifact"
	case RejectPackageOnly:
		return "item only exists as part of a package"
	case RejectLowSimilarity:
		return "best match below acceptance threshold"
	case RejectNotInTieup:
		return "item not found in tie-up rate sheet"
	case RejectCategoryConflict:
		return "item found in a different category"
	case RejectModelDeclined:
		return "verification model rejected the candidate"
	case RejectServiceDegraded:
		return "matching degraded due to service unavailability"
	default:
		return "unknown rejection reason"
	}
}

// Retryable reports whether an item rejected with this code should be
// retried in alternative categories by the reconciler. Artifacts and
// package-only items will not match anywhere; a category conflict was
// already found elsewhere.
func (c RejectionCode) Retryable() bool {
	switch c {
	case RejectAdminCharge, RejectPackageOnly, RejectCategoryConflict:
		return false
	default:
		return true
	}
}

// UnavailableError wraps a transport-level cause as a typed unavailable
// condition so callers can distinguish it from malformed input via
// errors.Is(err, ErrProviderUnavailable).
type UnavailableError struct {
	Service string
	Cause   error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

// Unwrap lets errors.Is resolve ErrProviderUnavailable.
func (e *UnavailableError) Unwrap() error { return ErrProviderUnavailable }

// NewUnavailable wraps cause as an UnavailableError for the named service.
func NewUnavailable(service string, cause error) *UnavailableError {
	return &UnavailableError{Service: service, Cause: cause}
}

// ParseError wraps a model/cache parsing failure as a typed malformed
// condition.
type ParseError struct {
	Source string
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed output: %s", e.Source, e.Detail)
}

// Unwrap lets errors.Is resolve ErrMalformedOutput.
func (e *ParseError) Unwrap() error { return ErrMalformedOutput }

// NewParseError builds a ParseError for the named source.
func NewParseError(source, detail string) *ParseError {
	return &ParseError{Source: source, Detail: detail}
}
