// Package reconcile finalizes per-line match results: price comparison,
// grouping into aggregated items, cross-category retry of mismatches, and
// the financial summary.
package reconcile

import "github.com/tieup-bill-verifier/internal/domain"

// Pricer compares billed amounts against contracted rates.
type Pricer struct {
	tolerance float64
}

// NewPricer creates a pricer with the configured overcharge tolerance.
// Tolerance is fractional: 0.05 allows a 5% overshoot before RED.
func NewPricer(cfg domain.PricingConfig) *Pricer {
	return &Pricer{tolerance: cfg.Tolerance}
}

// Compare computes the allowed amount for a matched item and the billed
// quantity, and classifies the line. Bundle items carry package rates
// that cannot be compared line by line.
func (p *Pricer) Compare(item *domain.Item, quantity, amount float64) (allowed, extra float64, status domain.VerificationStatus) {
	switch item.Kind {
	case domain.PricingBundle:
		return item.Rate, 0, domain.StatusAllowedNotComparable
	case domain.PricingService:
		allowed = item.Rate
	default:
		if quantity <= 0 {
			quantity = 1
		}
		allowed = item.Rate * quantity
	}

	if amount <= allowed*(1+p.tolerance) {
		return allowed, 0, domain.StatusGreen
	}
	return allowed, amount - allowed, domain.StatusRed
}
