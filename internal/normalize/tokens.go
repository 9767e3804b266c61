package normalize

import (
	"regexp"
	"strings"
)

// TokenImportance ranks a token's matching value. Higher values survive
// more aggressive normalization.
type TokenImportance int

const (
	ImportanceNoise TokenImportance = iota
	ImportanceLow
	ImportanceMedium
	ImportanceHigh
	ImportanceCritical
)

// String returns the label used in trace output.
func (i TokenImportance) String() string {
	switch i {
	case ImportanceCritical:
		return "CRITICAL"
	case ImportanceHigh:
		return "HIGH"
	case ImportanceMedium:
		return "MEDIUM"
	case ImportanceLow:
		return "LOW"
	default:
		return "NOISE"
	}
}

// WeightedToken is a token with its importance and original position.
type WeightedToken struct {
	Text       string
	Importance TokenImportance
	Position   int
}

// criticalTerms always survive normalization: drug names, modalities,
// and procedure words.
var criticalTerms = map[string]struct{}{
	"paracetamol": {}, "aspirin": {}, "insulin": {}, "metformin": {}, "nicorandil": {},
	"mri": {}, "ct": {}, "xray": {}, "x-ray": {}, "ultrasound": {}, "ecg": {}, "echo": {},
	"consultation": {}, "surgery": {}, "biopsy": {}, "endoscopy": {},
}

// highQualifiers differentiate pricing tiers and must be preserved.
var highQualifiers = map[string]struct{}{
	"first": {}, "second": {}, "third": {},
	"follow": {}, "followup": {}, "follow-up": {},
	"emergency": {}, "urgent": {},
	"specialist": {}, "senior": {}, "junior": {},
	"initial": {}, "repeat": {},
}

// mediumTerms carry context worth keeping by default.
var mediumTerms = map[string]struct{}{
	"visit": {}, "session": {},
	"left": {}, "right": {}, "bilateral": {},
	"upper": {}, "lower": {}, "anterior": {}, "posterior": {},
}

// lowTerms are brand and packaging words, dropped under minimal
// normalization.
var lowTerms = map[string]struct{}{
	"brand": {}, "manufacturer": {}, "company": {},
	"strip": {}, "box": {}, "pack": {}, "bottle": {},
}

// noiseTokenPatterns match tokens that are pure inventory identifiers.
var noiseTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\(\d{4,}\)$`),
	regexp.MustCompile(`(?i)^LOT[:\-]?[A-Z0-9\-]*$`),
	regexp.MustCompile(`(?i)^BATCH[:\-]?[A-Z0-9\-]*$`),
	regexp.MustCompile(`^\|[A-Z]{2,}$`),
}

var (
	dosageTokenRE = regexp.MustCompile(`(?i)^\d+\.?\d*(mg|mcg|ml|g|iu|units?)$`)
	alphaRE       = regexp.MustCompile(`^[a-zA-Z]+$`)
	tokenCleanRE  = regexp.MustCompile(`[^\w\s-]`)
	punctRE       = regexp.MustCompile(`[^\w]`)
)

// stopWords are filtered out before token overlap is computed.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {}, "with": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "from": {}, "by": {}, "and": {}, "or": {},
	"but": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "should": {}, "could": {}, "may": {},
	"might": {}, "must": {}, "can": {}, "shall": {},
}

// ClassifyToken assigns an importance level to a single token. Long
// alphabetic words default to critical because they are usually medical
// terms the dictionaries do not enumerate.
func ClassifyToken(token string) TokenImportance {
	lower := strings.ToLower(token)

	for _, pattern := range noiseTokenPatterns {
		if pattern.MatchString(token) {
			return ImportanceNoise
		}
	}
	if dosageTokenRE.MatchString(lower) {
		return ImportanceHigh
	}
	if _, ok := criticalTerms[lower]; ok {
		return ImportanceCritical
	}
	if _, ok := highQualifiers[lower]; ok {
		return ImportanceHigh
	}
	if _, ok := mediumTerms[lower]; ok {
		return ImportanceMedium
	}
	if _, ok := lowTerms[lower]; ok {
		return ImportanceLow
	}
	if len(token) >= 5 && alphaRE.MatchString(token) {
		return ImportanceCritical
	}
	return ImportanceMedium
}

// TokenizeWeighted splits text into weighted tokens, dropping noise and
// tokens shorter than two characters.
func TokenizeWeighted(text string) []WeightedToken {
	cleaned := tokenCleanRE.ReplaceAllString(text, " ")
	fields := strings.Fields(cleaned)

	tokens := make([]WeightedToken, 0, len(fields))
	for i, field := range fields {
		if len(field) < 2 {
			continue
		}
		importance := ClassifyToken(field)
		if importance == ImportanceNoise {
			continue
		}
		tokens = append(tokens, WeightedToken{
			Text:       strings.ToLower(field),
			Importance: importance,
			Position:   i,
		})
	}
	return tokens
}

// WithWeights normalizes text keeping only tokens at or above
// minImportance, and returns both the joined text and the surviving
// tokens.
func WithWeights(text string, minImportance TokenImportance) (string, []WeightedToken) {
	tokens := TokenizeWeighted(text)
	kept := tokens[:0]
	for _, t := range tokens {
		if t.Importance >= minImportance {
			kept = append(kept, t)
		}
	}
	parts := make([]string, len(kept))
	for i, t := range kept {
		parts[i] = t.Text
	}
	return strings.Join(parts, " "), kept
}

// CoreTerms extracts the stopword-filtered term set used for token
// overlap: punctuation stripped, pure numbers and short tokens dropped.
func CoreTerms(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = punctRE.ReplaceAllString(token, "")
		if len(token) < 2 {
			continue
		}
		if isDigits(token) {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		terms[token] = struct{}{}
	}
	return terms
}

// TokenOverlap computes the Jaccard similarity of the core term sets of
// two texts. Either side being empty yields 0.
func TokenOverlap(a, b string) float64 {
	termsA := CoreTerms(a)
	termsB := CoreTerms(b)
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0
	}

	intersection := 0
	for term := range termsA {
		if _, ok := termsB[term]; ok {
			intersection++
		}
	}
	union := len(termsA) + len(termsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Containment computes how much of b's term set appears in a. Used for
// partial matches where the bill side carries extra qualifiers. Tokens
// of b below medium importance are ignored so brand and packaging words
// cannot carry a partial match on their own.
func Containment(a, b string) float64 {
	_, tokens := WithWeights(b, ImportanceMedium)
	if len(tokens) == 0 {
		return 0
	}

	termsA := CoreTerms(a)
	seen := make(map[string]struct{}, len(tokens))
	contained, total := 0, 0
	for _, token := range tokens {
		if _, dup := seen[token.Text]; dup {
			continue
		}
		seen[token.Text] = struct{}{}
		total++
		if _, ok := termsA[token.Text]; ok {
			contained++
		}
	}
	return float64(contained) / float64(total)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
