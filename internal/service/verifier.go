// Package service wires the full verification pipeline: index rate
// sheets once, then verify bills line by line through the normalizer,
// the hierarchical matcher, the verification router, pricing, and the
// reconciliation pass.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tieup-bill-verifier/internal/domain"
	"github.com/tieup-bill-verifier/internal/normalize"
	"github.com/tieup-bill-verifier/internal/reconcile"
)

// matcher is the cascade seam; satisfied by *matching.Matcher.
type matcher interface {
	BuildIndexes(ctx context.Context, sheets []domain.RateSheet) error
	MatchHospital(ctx context.Context, name string) (string, float64, error)
	MatchCategory(ctx context.Context, hospital, category string) (string, float64, bool, error)
	MatchItem(ctx context.Context, hospital, billCategory, searchCategory, billText string) (*domain.MatchDecision, error)
	Categories(hospital string) []string
}

// judge is the verification-router seam; satisfied by *verification.Router.
type judge interface {
	Judge(ctx context.Context, billText, candidateText string, similarity float64) domain.Judgement
}

// flusher persists the embedding cache after an indexing run; satisfied
// by *embedding.Service. May be nil.
type flusher interface {
	Flush() error
}

// Verifier is the top-level bill verification service.
type Verifier struct {
	matcher    matcher
	judge      judge
	embeddings flusher
	pricer     *reconcile.Pricer
	reconciler *reconcile.Reconciler

	maxParallel int
	logger      *logrus.Logger
}

// NewVerifier assembles the pipeline. maxParallel bounds concurrent item
// matching within one bill; values below 1 mean sequential.
func NewVerifier(m matcher, judge judge, embeddings flusher, pricer *reconcile.Pricer, maxParallel int, logger *logrus.Logger) *Verifier {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Verifier{
		matcher:     m,
		judge:       judge,
		embeddings:  embeddings,
		pricer:      pricer,
		reconciler:  reconcile.NewReconciler(m, pricer, logger),
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// IndexRateSheets builds the cascade indices and persists the embedding
// cache. Indexing is the expensive pass; bills verify against the built
// indices without further provider traffic for indexed texts.
func (v *Verifier) IndexRateSheets(ctx context.Context, sheets []domain.RateSheet) error {
	if err := v.matcher.BuildIndexes(ctx, sheets); err != nil {
		return err
	}
	if v.embeddings != nil {
		if err := v.embeddings.Flush(); err != nil {
			v.logger.WithError(err).Warn("Failed to persist embedding cache after indexing")
		}
	}
	return nil
}

// lineJob carries one bill line plus its resolved category context into
// the worker pool.
type lineJob struct {
	pos              int
	line             domain.BillLine
	declaredCategory string
	resolvedCategory string
	categoryResolved bool
}

// VerifyBill verifies one parsed bill against the indexed rate sheets
// and returns the full report. Hospital resolution failure is the only
// fatal error; everything downstream degrades per line.
func (v *Verifier) VerifyBill(ctx context.Context, bill *domain.Bill) (*domain.VerificationReport, error) {
	started := time.Now().UTC()

	hospital, hospitalSim, err := v.matcher.MatchHospital(ctx, bill.HospitalName)
	if err != nil {
		return nil, err
	}
	v.logger.WithFields(logrus.Fields{
		"bill_hospital":    bill.HospitalName,
		"matched_hospital": hospital,
		"similarity":       hospitalSim,
	}).Info("Resolved bill hospital")

	jobs := v.resolveCategories(ctx, hospital, bill)
	lines := v.matchLines(ctx, hospital, jobs)

	aggregated := reconcile.Aggregate(lines)
	aggregated = v.reconciler.Reconcile(ctx, hospital, aggregated)

	return &domain.VerificationReport{
		RunID:              uuid.NewString(),
		Hospital:           bill.HospitalName,
		MatchedHospital:    hospital,
		HospitalSimilarity: hospitalSim,
		Lines:              lines,
		Aggregated:         aggregated,
		Summary:            reconcile.Summarize(aggregated),
		StartedAt:          started,
		CompletedAt:        time.Now().UTC(),
	}, nil
}

// resolveCategories maps every bill line to its rate-sheet category once
// per declared category. Pseudo-categories are dropped; an unresolved
// category leaves its lines eligible only for reconciliation.
func (v *Verifier) resolveCategories(ctx context.Context, hospital string, bill *domain.Bill) []lineJob {
	var jobs []lineJob

	for _, billCategory := range bill.Categories {
		if normalize.ShouldSkipCategory(billCategory.Name) {
			v.logger.WithField("category", billCategory.Name).Debug("Skipping pseudo-category")
			continue
		}

		resolved, sim, ok, err := v.matcher.MatchCategory(ctx, hospital, billCategory.Name)
		if err != nil {
			v.logger.WithFields(logrus.Fields{
				"category": billCategory.Name,
				"error":    err,
			}).Warn("Category resolution degraded")
			ok = false
			resolved = ""
		} else if !ok {
			v.logger.WithFields(logrus.Fields{
				"category":   billCategory.Name,
				"nearest":    resolved,
				"similarity": sim,
			}).Info("Bill category unresolved, lines deferred to reconciliation")
		}

		for _, line := range billCategory.Lines {
			jobs = append(jobs, lineJob{
				pos:              len(jobs),
				line:             line,
				declaredCategory: billCategory.Name,
				resolvedCategory: resolved,
				categoryResolved: ok,
			})
		}
	}
	return jobs
}

// matchLines runs the per-line pipeline over a bounded worker pool.
// Results keep bill order regardless of completion order.
func (v *Verifier) matchLines(ctx context.Context, hospital string, jobs []lineJob) []domain.LineResult {
	results := make([]domain.LineResult, len(jobs))
	sem := make(chan struct{}, v.maxParallel)
	var wg sync.WaitGroup

	for i := range jobs {
		job := jobs[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[job.pos] = v.verifyLine(ctx, hospital, job)
		}()
	}
	wg.Wait()
	return results
}

// verifyLine runs one bill line through prefilter, item matching, model
// verification, and pricing. It always returns a result; failures
// degrade the line, never the bill.
func (v *Verifier) verifyLine(ctx context.Context, hospital string, job lineJob) domain.LineResult {
	line := job.line
	result := domain.LineResult{
		BillText:       line.RawText,
		NormalizedText: normalize.BillItemText(line.RawText),
		Category:       job.declaredCategory,
		Quantity:       line.Quantity,
		BillAmount:     line.Amount,
		Status:         domain.StatusMismatch,
	}
	if job.categoryResolved {
		result.Category = job.resolvedCategory
	}

	if skip, reason := normalize.Prefilter(line.RawText); skip {
		switch reason {
		case normalize.SkipArtifact:
			result.FailureReason = domain.RejectAdminCharge
		case normalize.SkipPackage:
			result.FailureReason = domain.RejectPackageOnly
		}
		return result
	}

	if !job.categoryResolved {
		result.FailureReason = domain.RejectNotInTieup
		return result
	}

	if ctx.Err() != nil {
		result.FailureReason = domain.RejectServiceDegraded
		return result
	}

	decision, err := v.matcher.MatchItem(ctx, hospital, job.resolvedCategory, job.resolvedCategory, line.RawText)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			result.FailureReason = domain.RejectAdminCharge
			return result
		}
		v.logger.WithFields(logrus.Fields{
			"item":  line.RawText,
			"error": err,
		}).Warn("Item matching degraded")
		result.FailureReason = domain.RejectServiceDegraded
		return result
	}
	result.Decision = decision
	result.Similarity = decision.Confidence

	switch decision.Outcome {
	case domain.AutoMatch:
		v.price(&result, decision.MatchedName, decision.MatchedItem)
	case domain.Verify:
		v.verifyWithModel(ctx, &result, decision)
	default:
		result.FailureReason = decision.FailureCode
	}
	return result
}

// verifyWithModel routes a borderline proposal through the model router
// and accepts or rejects the line on its judgement.
func (v *Verifier) verifyWithModel(ctx context.Context, result *domain.LineResult, decision *domain.MatchDecision) {
	// The router short-circuits on raw embedding similarity, not on the
	// fused score the calibrator ranked by.
	similarity := decision.Confidence
	if decision.Breakdown != nil {
		similarity = decision.Breakdown.Semantic
	}
	judgement := v.judge.Judge(ctx, result.NormalizedText, decision.MatchedName, similarity)
	if !judgement.Valid() {
		result.FailureReason = domain.RejectServiceDegraded
		return
	}
	if !judgement.Match {
		result.FailureReason = domain.RejectModelDeclined
		return
	}
	result.Similarity = judgement.Confidence
	v.price(result, decision.MatchedName, decision.MatchedItem)
}

// price finalizes an accepted line against the matched item's rate.
func (v *Verifier) price(result *domain.LineResult, name string, item *domain.Item) {
	result.MatchedName = name
	allowed, extra, status := v.pricer.Compare(item, result.Quantity, result.BillAmount)
	result.AllowedAmount = allowed
	result.ExtraAmount = extra
	result.Status = status
	result.FailureReason = ""
}
