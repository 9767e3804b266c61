// Package matching implements the hierarchical matching cascade: hospital
// and category resolution, item candidate retrieval, hard constraint
// validation, hybrid score fusion, and confidence calibration.
package matching

import (
	"github.com/tieup-bill-verifier/internal/domain"
	"github.com/tieup-bill-verifier/internal/normalize"
)

// Scorer fuses semantic similarity with medical anchors and token
// overlap, then calibrates the fused score into a match outcome.
type Scorer struct {
	cfg *domain.MatchingConfig
}

// NewScorer creates a scorer over the matching configuration.
func NewScorer(cfg *domain.MatchingConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// weightsFor resolves the fusion weights for a category class: a config
// override wins over the class table.
func (s *Scorer) weightsFor(class domain.CategoryClass) domain.ScoreWeights {
	if override, ok := s.cfg.WeightOverrides[string(class)]; ok {
		return override
	}
	return domain.ConfigForClass(class).Weights
}

// Score fuses the three signals for one bill/candidate pair. Semantic
// similarity carries half the weight; anchors and token overlap split
// the rest 30/20.
func (s *Scorer) Score(bill, candidate domain.CoreExtraction, semantic float64, class domain.CategoryClass) domain.ScoreBreakdown {
	weights := s.weightsFor(class)

	anchorScore, anchors := normalize.AnchorScore(bill, candidate)
	overlap := normalize.TokenOverlap(bill.CoreText, candidate.CoreText)

	// Partial-match classes credit containment when the bill line is a
	// detailed variant of a shorter tie-up item, e.g. "consultation first
	// visit" against "consultation".
	if domain.ConfigForClass(class).AllowPartialMatch {
		if contained := normalize.Containment(bill.CoreText, candidate.CoreText); contained > overlap {
			overlap = contained
		}
	}

	fused := weights.Semantic*semantic + weights.Anchors*anchorScore + weights.Tokens*overlap

	return domain.ScoreBreakdown{
		Semantic:     semantic,
		AnchorScore:  anchorScore,
		TokenOverlap: overlap,
		Fused:        fused,
		Weights:      weights,
		Anchors:      anchors,
	}
}

// Calibrate turns a score breakdown into an outcome against the
// category's threshold. Raw embedding similarity at or above the
// auto-match threshold accepts on its own, whatever the anchors and
// token overlap contributed. All comparisons are inclusive:
//
//	fused >= high confidence             -> AUTO_MATCH
//	semantic >= auto-match threshold     -> AUTO_MATCH
//	fused >= threshold, anchors >= floor -> AUTO_MATCH
//	fused >= threshold                   -> VERIFY
//	fused >= threshold - margin          -> VERIFY
//	otherwise                            -> REJECT
func (s *Scorer) Calibrate(breakdown domain.ScoreBreakdown, catCfg domain.CategoryConfig) (domain.MatchOutcome, float64) {
	fused := breakdown.Fused

	if fused >= s.cfg.HighConfidence {
		return domain.AutoMatch, fused
	}
	if breakdown.Semantic >= s.cfg.AutoMatchThreshold {
		return domain.AutoMatch, breakdown.Semantic
	}
	if fused >= catCfg.Threshold {
		if breakdown.AnchorScore >= s.cfg.AnchorFloor {
			return domain.AutoMatch, fused
		}
		return domain.Verify, fused
	}
	if fused >= catCfg.Threshold-s.cfg.VerifyMargin {
		return domain.Verify, fused
	}
	return domain.Reject, fused
}
