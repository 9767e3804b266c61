package normalize

import (
	"regexp"
	"strings"

	"github.com/tieup-bill-verifier/internal/domain"
)

// dosagePatterns are tried in order; the first hit wins. Covers weight,
// volume, concentration, and unit strengths.
var dosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\.?\d*\s*mcg`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*µg`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*mg`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*ml`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*iu`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*%`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*gm?\b`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*units?\b`),
}

// modalityKeywords is ordered specific-first so "CT SCAN" resolves to
// "ct" rather than the generic "scan", and lookup stays deterministic.
var modalityKeywords = []string{
	"echocardiography", "electrocardiogram", "mammography", "angiography",
	"fluoroscopy", "colonoscopy", "sonography", "ultrasound", "endoscopy",
	"doppler", "x-ray", "xray", "echo", "usg", "ecg", "eeg",
	"pet", "mri", "ct", "scan",
}

// bodyPartKeywords covers organs, limbs, and spinal regions seen in
// imaging tariffs.
var bodyPartKeywords = []string{
	"intestine", "pancreas", "shoulder", "cervical", "thoracic", "bladder",
	"stomach", "abdomen", "cardiac", "kidney", "spleen", "sacral", "lumbar",
	"finger", "brain", "chest", "heart", "liver", "spine", "pelvis",
	"ankle", "wrist", "elbow", "lung", "knee", "neck", "back", "head",
	"foot", "hand", "hip", "toe", "arm", "leg",
}

// formKeywords are the recognized dose forms.
var formKeywords = []string{
	"injection", "ointment", "capsule", "tablet", "syrup", "cream",
	"drops", "drop",
}

// criticalFormDrugs are the drugs where the dose form changes the clinical
// meaning; form disagreement is enforced only for these.
var criticalFormDrugs = []string{"insulin", "epinephrine", "adrenaline"}

var wordBoundaryCache = map[string]*regexp.Regexp{}

func init() {
	for _, group := range [][]string{modalityKeywords, bodyPartKeywords, formKeywords} {
		for _, kw := range group {
			wordBoundaryCache[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
}

func firstKeyword(text string, keywords []string) string {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if wordBoundaryCache[kw].MatchString(lower) {
			return kw
		}
	}
	return ""
}

// Dosage extracts and normalizes the dosage from text: lower-case, spaces
// removed, µg folded to mcg. Returns "" when no dosage is present.
//
//	Dosage("PARACETAMOL 500 MG") == "500mg"
func Dosage(text string) string {
	for _, pattern := range dosagePatterns {
		if match := pattern.FindString(text); match != "" {
			dosage := strings.ToLower(strings.ReplaceAll(match, " ", ""))
			return strings.ReplaceAll(dosage, "µg", "mcg")
		}
	}
	return ""
}

// Form extracts the dose form keyword, or "" when none is present.
func Form(text string) string {
	return firstKeyword(text, formKeywords)
}

// Modality extracts the imaging or test modality keyword, or "".
func Modality(text string) string {
	return firstKeyword(text, modalityKeywords)
}

// BodyPart extracts the body part keyword, or "".
func BodyPart(text string) string {
	return firstKeyword(text, bodyPartKeywords)
}

// IsCriticalFormDrug reports whether the core text names a drug whose dose
// form must agree between bill and tie-up.
func IsCriticalFormDrug(coreText string) bool {
	lower := strings.ToLower(coreText)
	for _, drug := range criticalFormDrugs {
		if strings.Contains(lower, drug) {
			return true
		}
	}
	return false
}

// AnchorScore computes the medical anchor agreement between two sides.
// Dosage agreement contributes 0.4, modality 0.3, body part 0.3; an anchor
// absent on either side contributes nothing. The score is capped at 1.0.
func AnchorScore(bill, tieup domain.CoreExtraction) (float64, domain.AnchorBreakdown) {
	var breakdown domain.AnchorBreakdown
	score := 0.0

	if bill.Dosage != "" && tieup.Dosage != "" && bill.Dosage == tieup.Dosage {
		score += 0.4
		breakdown.DosageMatch = true
	}
	if bill.Modality != "" && tieup.Modality != "" && bill.Modality == tieup.Modality {
		score += 0.3
		breakdown.ModalityMatch = true
	}
	if bill.BodyPart != "" && tieup.BodyPart != "" && bill.BodyPart == tieup.BodyPart {
		score += 0.3
		breakdown.BodyPartMatch = true
	}

	if score > 1.0 {
		score = 1.0
	}
	breakdown.Score = score
	return score, breakdown
}
