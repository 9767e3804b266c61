package reconcile

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieup-bill-verifier/internal/domain"
)

// fakeMatcher returns canned decisions per searched category.
type fakeMatcher struct {
	categories []string
	decisions  map[string]*domain.MatchDecision
	errs       map[string]error
	searched   []string
}

func (f *fakeMatcher) Categories(hospital string) []string { return f.categories }

func (f *fakeMatcher) MatchItem(ctx context.Context, hospital, billCategory, searchCategory, billText string) (*domain.MatchDecision, error) {
	f.searched = append(f.searched, searchCategory)
	if err, ok := f.errs[searchCategory]; ok {
		return nil, err
	}
	if decision, ok := f.decisions[searchCategory]; ok {
		return decision, nil
	}
	return &domain.MatchDecision{Outcome: domain.Reject, FailureCode: domain.RejectLowSimilarity}, nil
}

func autoMatch(name string, confidence float64, item domain.Item) *domain.MatchDecision {
	return &domain.MatchDecision{
		Outcome:     domain.AutoMatch,
		Confidence:  confidence,
		MatchedName: name,
		MatchedItem: &item,
	}
}

func mismatchGroup(reason domain.RejectionCode) domain.AggregatedItem {
	return domain.AggregatedItem{
		NormalizedName: "mri brain",
		Category:       "Medicines",
		Status:         domain.StatusMismatch,
		FailureReason:  reason,
		Lines: []domain.LineResult{{
			BillText:       "MRI BRAIN SCAN",
			NormalizedText: "mri brain",
			Category:       "Medicines",
			Status:         domain.StatusMismatch,
			FailureReason:  reason,
			Quantity:       1,
			BillAmount:     8500,
		}},
		TotalBill: 8500,
	}
}

func newTestReconciler(matcher itemMatcher) *Reconciler {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewReconciler(matcher, NewPricer(domain.PricingConfig{}), logger)
}

func TestReconcileMovesItemToMatchingCategory(t *testing.T) {
	matcher := &fakeMatcher{
		categories: []string{"Medicines", "Radiology", "Consumables"},
		decisions: map[string]*domain.MatchDecision{
			"Radiology": autoMatch("MRI BRAIN", 0.94, domain.Item{Name: "MRI BRAIN", Rate: 8000, Kind: domain.PricingService}),
		},
	}
	r := newTestReconciler(matcher)

	items := r.Reconcile(context.Background(), "Apollo Chennai", []domain.AggregatedItem{mismatchGroup(domain.RejectNotInTieup)})
	require.Len(t, items, 1)
	item := items[0]

	// The declared category is never re-searched.
	assert.Equal(t, []string{"Radiology", "Consumables"}, matcher.searched)
	assert.Equal(t, []string{"Radiology", "Consumables"}, item.CategoriesAttempted)

	assert.True(t, item.Reconciled)
	assert.Equal(t, "Radiology", item.Category)
	assert.Equal(t, "Medicines", item.OriginalCategory)
	assert.Equal(t, "MRI BRAIN", item.MatchedReference)
	assert.NotEmpty(t, item.ReconciliationNote)

	// Lines are re-priced against the reconciled item: 8500 billed vs
	// 8000 flat service rate.
	assert.Equal(t, domain.StatusRed, item.Status)
	assert.Empty(t, item.FailureReason)
	require.Len(t, item.Lines, 1)
	assert.Equal(t, domain.StatusRed, item.Lines[0].Status)
	assert.InDelta(t, 8000, item.Lines[0].AllowedAmount, 0.001)
	assert.InDelta(t, 500, item.Lines[0].ExtraAmount, 0.001)
	assert.InDelta(t, 8000, item.TotalAllowed, 0.001)
	assert.InDelta(t, 500, item.TotalExtra, 0.001)
}

func TestReconcilePicksHighestConfidenceAcrossCategories(t *testing.T) {
	matcher := &fakeMatcher{
		categories: []string{"Medicines", "Radiology", "Procedures"},
		decisions: map[string]*domain.MatchDecision{
			"Radiology":  autoMatch("MRI BRAIN", 0.94, domain.Item{Name: "MRI BRAIN", Rate: 8000, Kind: domain.PricingService}),
			"Procedures": autoMatch("BRAIN SCAN PROC", 0.88, domain.Item{Name: "BRAIN SCAN PROC", Rate: 7000, Kind: domain.PricingService}),
		},
	}
	r := newTestReconciler(matcher)

	items := r.Reconcile(context.Background(), "Apollo Chennai", []domain.AggregatedItem{mismatchGroup(domain.RejectNotInTieup)})

	assert.Equal(t, "MRI BRAIN", items[0].MatchedReference)
	assert.Equal(t, "Radiology", items[0].Category)
}

func TestReconcileNeverTouchesGreenOrRed(t *testing.T) {
	matcher := &fakeMatcher{categories: []string{"Medicines", "Radiology"}}
	r := newTestReconciler(matcher)

	items := []domain.AggregatedItem{
		{Category: "Medicines", Status: domain.StatusGreen},
		{Category: "Medicines", Status: domain.StatusRed},
		{Category: "Packages", Status: domain.StatusAllowedNotComparable},
	}
	r.Reconcile(context.Background(), "Apollo Chennai", items)

	assert.Empty(t, matcher.searched)
	for _, item := range items {
		assert.False(t, item.Reconciled)
		assert.Empty(t, item.CategoriesAttempted)
	}
}

func TestReconcileSkipsNonRetryableReasons(t *testing.T) {
	matcher := &fakeMatcher{categories: []string{"Medicines", "Radiology"}}
	r := newTestReconciler(matcher)

	for _, reason := range []domain.RejectionCode{
		domain.RejectAdminCharge,
		domain.RejectPackageOnly,
		domain.RejectCategoryConflict,
	} {
		items := r.Reconcile(context.Background(), "Apollo Chennai", []domain.AggregatedItem{mismatchGroup(reason)})
		assert.Empty(t, matcher.searched, "reason %s must not be retried", reason)
		assert.False(t, items[0].Reconciled)
	}
}

func TestReconcileRecordsAttemptsOnTotalFailure(t *testing.T) {
	matcher := &fakeMatcher{categories: []string{"Medicines", "Radiology", "Consumables"}}
	r := newTestReconciler(matcher)

	items := r.Reconcile(context.Background(), "Apollo Chennai", []domain.AggregatedItem{mismatchGroup(domain.RejectLowSimilarity)})
	item := items[0]

	assert.False(t, item.Reconciled)
	assert.Equal(t, domain.StatusMismatch, item.Status)
	assert.Equal(t, []string{"Radiology", "Consumables"}, item.CategoriesAttempted)
	assert.Contains(t, item.ReconciliationNote, "2 alternative categories")

	// A second pass never retries a group that already ran.
	searched := len(matcher.searched)
	r.Reconcile(context.Background(), "Apollo Chennai", items)
	assert.Len(t, matcher.searched, searched)
}

func TestReconcileSkipsErroredCategoryButKeepsGoing(t *testing.T) {
	matcher := &fakeMatcher{
		categories: []string{"Medicines", "Radiology", "Consumables"},
		errs:       map[string]error{"Radiology": domain.NewUnavailable("embedding", nil)},
		decisions: map[string]*domain.MatchDecision{
			"Consumables": autoMatch("SCAN FILM", 0.90, domain.Item{Name: "SCAN FILM", Rate: 9000, Kind: domain.PricingUnit}),
		},
	}
	r := newTestReconciler(matcher)

	items := r.Reconcile(context.Background(), "Apollo Chennai", []domain.AggregatedItem{mismatchGroup(domain.RejectNotInTieup)})

	assert.True(t, items[0].Reconciled)
	assert.Equal(t, "Consumables", items[0].Category)
	assert.Equal(t, []string{"Radiology", "Consumables"}, items[0].CategoriesAttempted)
}
