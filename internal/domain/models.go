package domain

import "time"

// MatchOutcome is the calibrated decision for a (bill line, candidate) pair.
type MatchOutcome string

const (
	// AutoMatch accepts the candidate without model verification.
	AutoMatch MatchOutcome = "AUTO_MATCH"
	// Verify routes the candidate to the verification-model router.
	Verify MatchOutcome = "VERIFY"
	// Reject discards the candidate.
	Reject MatchOutcome = "REJECT"
)

// IsValid validates the match outcome.
func (o MatchOutcome) IsValid() bool {
	switch o {
	case AutoMatch, Verify, Reject:
		return true
	default:
		return false
	}
}

// String returns the string form of the outcome.
func (o MatchOutcome) String() string { return string(o) }

// CoreExtraction is the normalized view of a bill or tie-up item text:
// the medical core with inventory noise stripped, plus any typed anchors
// found in it. It is a pure function of the input text, recomputed per
// extraction call, never shared mutable state.
type CoreExtraction struct {
	CoreText string `json:"core_text"`
	Dosage   string `json:"dosage,omitempty"`
	Form     string `json:"form,omitempty"`
	Modality string `json:"modality,omitempty"`
	BodyPart string `json:"body_part,omitempty"`
}

// CandidateMatch is one tie-up item considered during item matching,
// retained for trace output whether accepted or rejected.
type CandidateMatch struct {
	Name            string         `json:"candidate_name"`
	Category        string         `json:"category"`
	Similarity      float64        `json:"similarity_score"`
	Extraction      CoreExtraction `json:"extraction"`
	Accepted        bool           `json:"was_accepted"`
	RejectionReason RejectionCode  `json:"rejection_reason,omitempty"`
	Item            *Item          `json:"-"`
}

// ScoreWeights are the fusion weights applied by the hybrid scorer.
type ScoreWeights struct {
	Semantic float64 `json:"semantic" mapstructure:"semantic"`
	Anchors  float64 `json:"anchors" mapstructure:"anchors"`
	Tokens   float64 `json:"tokens" mapstructure:"tokens"`
}

// AnchorBreakdown records which medical anchors agreed between the bill
// text and the candidate.
type AnchorBreakdown struct {
	DosageMatch   bool    `json:"dosage_match"`
	ModalityMatch bool    `json:"modality_match"`
	BodyPartMatch bool    `json:"bodypart_match"`
	Score         float64 `json:"score"`
}

// ScoreBreakdown is the full audit record of one fused score. Immutable
// once computed; attached to the MatchDecision that consumed it.
type ScoreBreakdown struct {
	Semantic     float64         `json:"semantic"`
	AnchorScore  float64         `json:"medical_anchors"`
	TokenOverlap float64         `json:"token_overlap"`
	Fused        float64         `json:"final_score"`
	Weights      ScoreWeights    `json:"weights"`
	Anchors      AnchorBreakdown `json:"anchor_breakdown"`
}

// MatchDecision is the terminal result of matching one bill line against
// the tie-up item set. Only the Reconciler may override it afterwards.
type MatchDecision struct {
	Outcome     MatchOutcome     `json:"outcome"`
	Confidence  float64          `json:"confidence"`
	MatchedName string           `json:"matched_item,omitempty"`
	MatchedItem *Item            `json:"-"`
	Category    string           `json:"category,omitempty"`
	Breakdown   *ScoreBreakdown  `json:"score_breakdown,omitempty"`
	FailureCode RejectionCode    `json:"failure_code,omitempty"`
	Candidates  []CandidateMatch `json:"candidates,omitempty"`
}

// Matched reports whether the decision accepted a candidate.
func (d *MatchDecision) Matched() bool {
	return d != nil && d.Outcome == AutoMatch && d.MatchedItem != nil
}

// Judgement is the verification model's answer for one borderline pair,
// cached keyed by the case-insensitive (billText, candidateText) pair.
// Error outcomes are cached too so repeated failures do not re-trigger
// model calls.
type Judgement struct {
	Match          bool    `json:"match"`
	Confidence     float64 `json:"confidence"`
	NormalizedName string  `json:"normalized_name"`
	Model          string  `json:"model_used"`
	Err            string  `json:"error,omitempty"`
}

// Valid reports whether the judgement carries a usable answer.
func (j *Judgement) Valid() bool { return j != nil && j.Err == "" }

// LineResult is the verification result for a single bill line.
type LineResult struct {
	BillText       string             `json:"bill_item"`
	NormalizedText string             `json:"normalized_item"`
	Category       string             `json:"category"`
	MatchedName    string             `json:"matched_item,omitempty"`
	Status         VerificationStatus `json:"status"`
	Similarity     float64            `json:"similarity_score"`
	BillAmount     float64            `json:"bill_amount"`
	Quantity       float64            `json:"quantity"`
	AllowedAmount  float64            `json:"allowed_amount"`
	ExtraAmount    float64            `json:"extra_amount"`
	FailureReason  RejectionCode      `json:"failure_reason,omitempty"`
	Decision       *MatchDecision     `json:"decision,omitempty"`
}

// AggregatedItem is a group of bill lines sharing a resolved reference and
// category. Created after matching; mutated only by the Reconciler and the
// Aggregator, never by the Matcher.
type AggregatedItem struct {
	NormalizedName      string             `json:"normalized_name"`
	MatchedReference    string             `json:"matched_reference,omitempty"`
	Category            string             `json:"category"`
	OriginalCategory    string             `json:"original_category,omitempty"`
	Status              VerificationStatus `json:"status"`
	Lines               []LineResult       `json:"line_items"`
	TotalBill           float64            `json:"total_bill"`
	TotalAllowed        float64            `json:"total_allowed"`
	TotalExtra          float64            `json:"total_extra"`
	FailureReason       RejectionCode      `json:"failure_reason,omitempty"`
	ReconciliationNote  string             `json:"reconciliation_note,omitempty"`
	Reconciled          bool               `json:"reconciled"`
	CategoriesAttempted []string           `json:"categories_attempted,omitempty"`
}

// CategoryTotals are financial totals for one category.
type CategoryTotals struct {
	Category     string  `json:"category"`
	TotalBill    float64 `json:"total_bill"`
	TotalAllowed float64 `json:"total_allowed"`
	TotalExtra   float64 `json:"total_extra"`
}

// FinancialSummary carries multi-level totals and status counts for a
// verification run.
type FinancialSummary struct {
	PerCategory        []CategoryTotals `json:"per_category"`
	TotalBill          float64          `json:"total_bill"`
	TotalAllowed       float64          `json:"total_allowed"`
	TotalExtra         float64          `json:"total_extra"`
	GreenCount         int              `json:"green_count"`
	RedCount           int              `json:"red_count"`
	MismatchCount      int              `json:"mismatch_count"`
	NotComparableCount int              `json:"allowed_not_comparable_count"`
}

// VerificationReport is the full output of verifying one bill.
type VerificationReport struct {
	RunID              string           `json:"run_id"`
	Hospital           string           `json:"hospital"`
	MatchedHospital    string           `json:"matched_hospital,omitempty"`
	HospitalSimilarity float64          `json:"hospital_similarity"`
	Lines              []LineResult     `json:"line_items"`
	Aggregated         []AggregatedItem `json:"aggregated_items"`
	Summary            FinancialSummary `json:"financial_summary"`
	StartedAt          time.Time        `json:"started_at"`
	CompletedAt        time.Time        `json:"completed_at"`
}
