package normalize

import (
	"regexp"
	"strings"
)

// SkipReason classifies why a bill line was excluded from matching.
type SkipReason string

const (
	// SkipArtifact marks OCR artifacts and administrative text.
	SkipArtifact SkipReason = "ARTIFACT"
	// SkipPackage marks bundled package lines that have no unit item to
	// compare against.
	SkipPackage SkipReason = "PACKAGE"
)

// artifactPatterns match lines that are bill furniture rather than billed
// items: helpline footers, totals, tax rows, page markers.
var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)for\s+(any\s+)?quer(y|ies)`),
	regexp.MustCompile(`(?i)\b1[-\s]?800[-\s][0-9X\-\s]+`),
	regexp.MustCompile(`(?i)\b(toll\s*free|helpline|customer\s*care)\b`),
	regexp.MustCompile(`(?i)^\s*(sub\s*)?total\b`),
	regexp.MustCompile(`(?i)^\s*grand\s+total\b`),
	regexp.MustCompile(`(?i)^\s*(cgst|sgst|igst|gst|tax|vat)\b`),
	regexp.MustCompile(`(?i)^\s*(discount|round\s*off|net\s+(payable|amount))\b`),
	regexp.MustCompile(`(?i)^\s*page\s+\d+(\s+of\s+\d+)?\s*$`),
	regexp.MustCompile(`(?i)\b(thank\s+you|visit\s+again)\b`),
	regexp.MustCompile(`(?i)^\s*(invoice|bill)\s*(no|number|#)`),
	regexp.MustCompile(`(?i)\bregistration\s+(fee|charges?)\b`),
	regexp.MustCompile(`(?i)\b(admission|admin(istrative)?)\s+(fee|charges?)\b`),
}

// packageKeywords mark bundle lines that carry a single lump price.
var packageKeywords = []string{"package", "pkg", "bundle", "combo", "plan"}

// IsArtifact reports whether a bill line is administrative text or an OCR
// artifact with no billable item behind it. Lines without a single letter
// are artifacts too.
func IsArtifact(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	for _, pattern := range artifactPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	hasLetter := false
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLetter = true
			break
		}
	}
	return !hasLetter
}

// IsPackage reports whether a bill line names a bundled package.
func IsPackage(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range packageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Prefilter decides whether a bill line should skip semantic matching
// entirely. Skipped lines never reach the embedding provider.
func Prefilter(text string) (skip bool, reason SkipReason) {
	if IsArtifact(text) {
		return true, SkipArtifact
	}
	if IsPackage(text) {
		return true, SkipPackage
	}
	return false, ""
}
