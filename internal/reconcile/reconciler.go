package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tieup-bill-verifier/internal/domain"
)

// itemMatcher is the matcher seam the reconciler retries through.
type itemMatcher interface {
	Categories(hospital string) []string
	MatchItem(ctx context.Context, hospital, billCategory, searchCategory, billText string) (*domain.MatchDecision, error)
}

// Reconciler retries MISMATCH groups against every other category of the
// matched hospital. It never touches GREEN or RED groups and never runs
// twice for the same group.
type Reconciler struct {
	matcher itemMatcher
	pricer  *Pricer
	logger  *logrus.Logger
}

// NewReconciler creates a reconciler over a built matcher.
func NewReconciler(matcher itemMatcher, pricer *Pricer, logger *logrus.Logger) *Reconciler {
	return &Reconciler{matcher: matcher, pricer: pricer, logger: logger}
}

// Reconcile runs the cross-category retry pass in place and returns the
// same slice. Attempted categories are recorded even when every retry
// fails.
func (r *Reconciler) Reconcile(ctx context.Context, hospital string, items []domain.AggregatedItem) []domain.AggregatedItem {
	for i := range items {
		r.reconcileItem(ctx, hospital, &items[i])
	}
	return items
}

func (r *Reconciler) reconcileItem(ctx context.Context, hospital string, item *domain.AggregatedItem) {
	if item.Status != domain.StatusMismatch {
		return
	}
	if item.Reconciled || len(item.CategoriesAttempted) > 0 {
		return
	}
	if item.FailureReason != "" && !item.FailureReason.Retryable() {
		return
	}
	if len(item.Lines) == 0 {
		return
	}

	billText := item.Lines[0].BillText

	var (
		best         *domain.MatchDecision
		bestCategory string
	)
	for _, category := range r.matcher.Categories(hospital) {
		if strings.EqualFold(category, item.Category) {
			continue
		}
		item.CategoriesAttempted = append(item.CategoriesAttempted, category)

		decision, err := r.matcher.MatchItem(ctx, hospital, item.Category, category, billText)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"hospital": hospital,
				"category": category,
				"item":     item.NormalizedName,
				"error":    err,
			}).Warn("Reconciliation retry failed")
			continue
		}
		if !decision.Matched() {
			continue
		}
		if best == nil || decision.Confidence > best.Confidence {
			best = decision
			bestCategory = category
		}
	}

	if best == nil {
		item.ReconciliationNote = fmt.Sprintf(
			"no acceptable match in %d alternative categories", len(item.CategoriesAttempted))
		return
	}

	r.apply(item, best, bestCategory)
}

// apply rewrites a mismatched group with the reconciled match: the group
// moves to the new category, every line is re-priced against the matched
// item, and totals and status are recomputed.
func (r *Reconciler) apply(item *domain.AggregatedItem, decision *domain.MatchDecision, category string) {
	item.OriginalCategory = item.Category
	item.Category = category
	item.MatchedReference = decision.MatchedName
	item.Reconciled = true
	item.ReconciliationNote = fmt.Sprintf(
		"matched %q in category %q after declared category %q failed",
		decision.MatchedName, category, item.OriginalCategory)

	for i := range item.Lines {
		line := &item.Lines[i]
		allowed, extra, status := r.pricer.Compare(decision.MatchedItem, line.Quantity, line.BillAmount)
		line.MatchedName = decision.MatchedName
		line.Category = category
		line.Similarity = decision.Confidence
		line.AllowedAmount = allowed
		line.ExtraAmount = extra
		line.Status = status
		line.FailureReason = ""
	}
	refresh(item)

	r.logger.WithFields(logrus.Fields{
		"item":          item.NormalizedName,
		"matched":       decision.MatchedName,
		"from_category": item.OriginalCategory,
		"to_category":   category,
		"confidence":    decision.Confidence,
	}).Info("Reconciled mismatched item")
}
