// Package normalize turns noisy OCR bill text into clean matching input:
// artifact pre-filtering, inventory-noise stripping, medical core
// extraction, and typed anchor extraction (dosage, form, modality, body
// part). Every function is pure over its input text.
package normalize

import (
	"regexp"
	"strings"
)

// removalPatterns strips OCR artifacts that carry no matching signal:
// numbering prefixes, doctor names and credentials, trailing separators.
var removalPatterns = []*regexp.Regexp{
	// Numbering prefixes: "1.", "2)", "a.", "b)".
	regexp.MustCompile(`^\s*\d+[\.\)]\s*`),
	regexp.MustCompile(`^\s*[a-zA-Z][\.\)]\s+`),

	// Doctor names and credentials at the end of the line.
	regexp.MustCompile(`(?i)\|\s*Dr\.?\s+[A-Za-z\s\.]+$`),
	regexp.MustCompile(`(?i)-\s*Dr\.?\s+[A-Za-z\s\.]+$`),
	regexp.MustCompile(`(?i)\bDr\.?\s+[A-Za-z\s\.]+$`),
	regexp.MustCompile(`(?i)\bProf\.?\s+[A-Za-z\s\.]+$`),
	regexp.MustCompile(`(?i)\s+M\.?D\.?$`),
	regexp.MustCompile(`(?i)\s+MBBS$`),
	regexp.MustCompile(`(?i)\s+MS$`),

	// Trailing separators.
	regexp.MustCompile(`\s*\|\s*$`),
	regexp.MustCompile(`\s*-\s*$`),
	regexp.MustCompile(`\s*:\s*$`),
}

// splitPatterns cut the line at separators that introduce attribution
// noise; only the first segment is kept.
var splitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\|\s*`),
	regexp.MustCompile(`(?i)\s+-\s+Dr`),
	regexp.MustCompile(`(?i)\s+\|\s+Dr`),
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	specialsRE   = regexp.MustCompile(`[^\w\s/\-]`)
	numberingRE  = regexp.MustCompile(`^\s*\d+[\.\)]\s*`)
	symbolOnlyRE = regexp.MustCompile(`^[\W_]+$`)
)

// BillItemText normalizes a raw bill item line for matching: splits off
// attribution noise, removes numbering and credentials, collapses
// whitespace, and lower-cases.
func BillItemText(text string) string {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return ""
	}

	for _, pattern := range splitPatterns {
		if loc := pattern.FindStringIndex(normalized); loc != nil && loc[0] > 0 {
			normalized = strings.TrimSpace(normalized[:loc[0]])
			break
		}
	}

	for _, pattern := range removalPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = specialsRE.ReplaceAllString(normalized, " ")
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")
	return strings.ToLower(strings.TrimSpace(normalized))
}

// CategoryName normalizes a category label. Less aggressive than item
// normalization: only numbering and casing.
func CategoryName(text string) string {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return ""
	}
	normalized = numberingRE.ReplaceAllString(normalized, "")
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")
	return strings.ToLower(strings.TrimSpace(normalized))
}

// HospitalName normalizes a hospital label: trim and lower-case only, the
// embedding handles the rest.
func HospitalName(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ShouldSkipCategory reports whether a category is a pseudo-category that
// must not be verified: blank labels, the legacy "Hospital" header row, or
// pure punctuation.
func ShouldSkipCategory(name string) bool {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if len(normalized) < 2 {
		return true
	}
	switch normalized {
	case "hospital", "hospital -", "hospital-", "hospital_":
		return true
	}
	return symbolOnlyRE.MatchString(normalized)
}
