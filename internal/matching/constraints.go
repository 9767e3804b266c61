package matching

import (
	"github.com/tieup-bill-verifier/internal/domain"
	"github.com/tieup-bill-verifier/internal/normalize"
)

// ValidateConstraints applies the hard constraints for a bill/candidate
// pair before any scoring. A violated constraint rejects the candidate
// regardless of similarity. Checks run in a fixed order so the reported
// code is deterministic: category boundary, dosage, form, modality, body
// part. An anchor absent on either side never rejects.
func ValidateConstraints(
	bill, candidate domain.CoreExtraction,
	candidateClass domain.CategoryClass,
	cfg domain.CategoryConfig,
) (bool, domain.RejectionCode) {
	// Category boundary: some class pairs can never satisfy each other,
	// even at perfect similarity.
	if cfg.Class != candidateClass && cfg.Boundary(candidateClass) {
		return false, domain.RejectCategoryBoundary
	}

	if cfg.RequireDosage && bill.Dosage != "" && candidate.Dosage != "" && bill.Dosage != candidate.Dosage {
		return false, domain.RejectDosageMismatch
	}

	// Form disagreement only matters for drugs where the form changes the
	// clinical meaning.
	if cfg.RequireForm && bill.Form != "" && candidate.Form != "" && bill.Form != candidate.Form {
		if normalize.IsCriticalFormDrug(bill.CoreText) {
			return false, domain.RejectFormMismatch
		}
	}

	if cfg.RequireModality && bill.Modality != "" && candidate.Modality != "" && bill.Modality != candidate.Modality {
		return false, domain.RejectModalityMismatch
	}

	if cfg.RequireBodyPart && bill.BodyPart != "" && candidate.BodyPart != "" && bill.BodyPart != candidate.BodyPart {
		return false, domain.RejectBodyPartMismatch
	}

	return true, ""
}
