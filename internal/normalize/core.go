package normalize

import (
	"regexp"
	"strings"

	"github.com/tieup-bill-verifier/internal/domain"
)

// inventoryPatterns remove inventory metadata that pharmacy systems embed
// in item names: HS/SKU codes, lot and batch numbers, expiry dates, brand
// and vendor suffixes, packaging counts.
var inventoryPatterns = []*regexp.Regexp{
	// HS codes and SKU codes.
	regexp.MustCompile(`\(\d{4,}\)`),
	regexp.MustCompile(`\[\d{4,}\]`),
	regexp.MustCompile(`(?i)\(HS[:\s]*\d+\)`),

	// Lot numbers and batch IDs.
	regexp.MustCompile(`(?i)\bLOT\s*(NO)?[\s:#]*[A-Z0-9\-]+`),
	regexp.MustCompile(`(?i)\bBATCH\s*(NO)?[\s:#]*[A-Z0-9\-]+`),

	// Expiry and manufacturing dates.
	regexp.MustCompile(`(?i)\b(EXP|EXPIRY|MFG|MFD)[\s:]*\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`(?i)\bEXP[\s:]*[A-Z]{3}[\s-]\d{2,4}`),

	// Brand and vendor suffixes.
	regexp.MustCompile(`\|[A-Z]{2,}\s*$`),
	regexp.MustCompile(`-\s*[A-Z]{2,}\s*$`),
	regexp.MustCompile(`(?i)\b(BRAND|MFR|MANUFACTURER)[\s:]+[A-Z][A-Z\s]*`),

	// Packaging counts.
	regexp.MustCompile(`(?i)\b\d+\s*X\s*\d+\s*(ML|MG|GM|L|TABS?|CAPS?)`),
	regexp.MustCompile(`(?i)\b(STRIP|BOX|PACK|BOTTLE|VIAL)\s*OF\s*\d+`),
	regexp.MustCompile(`(?i)\b\d+\s*(STRIPS?|TABS?|CAPS?)\b`),

	// Numbering prefixes, bare SKU digit runs, trailing noise.
	regexp.MustCompile(`^\d+[\.\)]\s*`),
	regexp.MustCompile(`\b\d{6,}\b`),
	regexp.MustCompile(`[-|]+\s*$`),
}

// corePatterns identify the medical core within the cleaned text, most
// specific first: drug+form+strength, drug+strength, device+size, bare
// procedure name.
var corePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([A-Z][A-Z\s]+?)\s+(TABLET|CAPSULE|INJECTION|SYRUP|CREAM|OINTMENT|DROPS?)\s*[-\s]*(\d+\.?\d*\s*(?:MG|MCG|UG|GM|G|ML|L|IU|UNITS?))`),
	regexp.MustCompile(`(?i)([A-Z][A-Z\s]+?)\s*[-\s]*(\d+\.?\d*\s*(?:MG|MCG|UG|GM|G|ML|L|IU|UNITS?))`),
	regexp.MustCompile(`(?i)([A-Z][A-Z\s]+?)\s+(\d+[-\.\s]*\d*\s*(?:MM|CM|FR|CH|GAUGE))`),
	regexp.MustCompile(`(?i)([A-Z][A-Z\s]{2,}?)(\s*[-|]|\s*$)`),
}

// coreNoiseWords are dropped from the extracted core: dose forms (already
// captured as a typed anchor), packaging, visit qualifiers that the tie-up
// side never carries, and vendor words.
var coreNoiseWords = map[string]struct{}{
	"tablet": {}, "capsule": {}, "injection": {}, "syrup": {}, "cream": {},
	"ointment": {}, "drops": {}, "strip": {}, "box": {}, "pack": {},
	"bottle": {}, "vial": {}, "ampoule": {}, "sachet": {},
	"brand": {}, "mfr": {}, "manufacturer": {}, "company": {},
}

var (
	strengthTokenRE    = regexp.MustCompile(`(?i)^\d+\.?\d*(MG|MCG|GM|ML|IU|UNITS?)$`)
	nonWordRE          = regexp.MustCompile(`[^\w\s]`)
	hyphenPipeReplacer = strings.NewReplacer("-", " ", "|", " ")
)

// MedicalCore extracts the medical core from a noisy inventory string:
//
//	"(30049099) NICORANDIL-TABLET-5MG-KORANDIL- |GTF" -> "nicorandil 5mg"
//	"MRI BRAIN | Dr. Vivek Jacob Philip"              -> "mri brain"
//
// The result is lower-case with inventory metadata, dose-form words, and
// special characters removed.
func MedicalCore(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	cleaned := strings.ToUpper(strings.TrimSpace(text))
	for _, pattern := range inventoryPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}
	// Hyphenated compounds like NICORANDIL-TABLET-5MG must split before
	// the core patterns run; the name groups do not cross hyphens.
	cleaned = hyphenPipeReplacer.Replace(cleaned)

	core := ""
	for _, pattern := range corePatterns {
		if match := pattern.FindStringSubmatch(cleaned); match != nil {
			parts := make([]string, 0, len(match)-1)
			for _, group := range match[1:] {
				group = strings.TrimSpace(group)
				if group != "" && group != "-" && group != "|" {
					parts = append(parts, group)
				}
			}
			core = strings.Join(parts, " ")
			break
		}
	}
	if core == "" {
		core = cleaned
	}

	tokens := strings.Fields(core)
	kept := tokens[:0]
	for _, token := range tokens {
		lower := strings.ToLower(token)
		if strengthTokenRE.MatchString(token) {
			kept = append(kept, token)
			continue
		}
		if _, noise := coreNoiseWords[lower]; noise {
			continue
		}
		if len(token) > 1 {
			kept = append(kept, token)
		}
	}

	core = strings.Join(kept, " ")
	core = nonWordRE.ReplaceAllString(core, " ")
	core = whitespaceRE.ReplaceAllString(core, " ")
	return strings.ToLower(strings.TrimSpace(core))
}

// Extract runs the full normalization pipeline on a bill or tie-up item
// text and returns its core text plus all typed anchors. Pure function of
// the input.
func Extract(text string) domain.CoreExtraction {
	core := MedicalCore(BillItemText(text))
	return domain.CoreExtraction{
		CoreText: core,
		Dosage:   Dosage(text),
		Form:     Form(text),
		Modality: Modality(text),
		BodyPart: BodyPart(text),
	}
}
